package httpcontroller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tphakala/comingsoon/internal/conf"
	"github.com/tphakala/comingsoon/internal/landing"
	"github.com/tphakala/comingsoon/internal/logger"
	"github.com/tphakala/comingsoon/internal/notifyme"
	"github.com/tphakala/comingsoon/internal/observability"
	"github.com/tphakala/comingsoon/internal/session"
)

// stubSubscriber answers every signup with a fixed result.
type stubSubscriber struct {
	mu     sync.Mutex
	result notifyme.Result
	err    error
	calls  []notifyme.Request

	// gate, when set, holds Subscribe until closed; entered gets one value
	// per call that reached the gate
	gate    chan struct{}
	entered chan struct{}
}

func (s *stubSubscriber) Subscribe(ctx context.Context, req notifyme.Request) (notifyme.Result, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	result, err := s.result, s.err
	gate, entered := s.gate, s.entered
	s.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return notifyme.Result{}, ctx.Err()
		}
	}
	return result, err
}

// block makes the next calls wait until the returned release func runs.
func (s *stubSubscriber) block() (entered <-chan struct{}, release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate = make(chan struct{})
	s.entered = make(chan struct{}, 4)
	gate := s.gate
	var once sync.Once
	return s.entered, func() { once.Do(func() { close(gate) }) }
}

func (s *stubSubscriber) Calls() []notifyme.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notifyme.Request(nil), s.calls...)
}

func testSettings() *conf.Settings {
	s := &conf.Settings{Version: "test"}
	s.WebServer.Listen = ":0"
	s.Captcha.Provider = "recaptcha"
	s.Captcha.SiteKey = "site-key"
	s.Captcha.Theme = "dark"
	s.Session.Secret = "0123456789abcdef0123456789abcdef"
	s.Session.CookieName = "comingsoon_visit"
	s.Session.IdleTTL = time.Minute
	s.RateLimit.Enabled = false
	s.Metrics.Enabled = true
	s.Metrics.Path = "/metrics"
	s.Page.Title = "Coming Soon"
	s.Page.EventName = "Launch Week"
	s.Page.Highlight = "Coming Soon!"
	s.Page.StarCount = 5
	s.Page.StarSeed = 1
	s.Page.Background = "/assets/background.svg"
	return s
}

type testEnv struct {
	server  *Server
	sub     *stubSubscriber
	metrics *observability.Metrics
}

func newTestEnv(t *testing.T, settings *conf.Settings) *testEnv {
	t.Helper()

	sub := &stubSubscriber{result: notifyme.Result{Kind: notifyme.KindAccepted, Message: "You're on the list!"}}
	metrics, err := observability.NewMetrics()
	require.NoError(t, err)

	store, err := session.NewStore(session.Config{
		Secret:     settings.Session.Secret,
		CookieName: settings.Session.CookieName,
		IdleTTL:    settings.Session.IdleTTL,
	}, sub, session.WithRecorder(metrics.Signup))
	require.NoError(t, err)
	t.Cleanup(store.Close)

	server, err := New(settings, store,
		WithLogger(logger.NewDiscardLogger()),
		WithMetrics(metrics))
	require.NoError(t, err)

	return &testEnv{server: server, sub: sub, metrics: metrics}
}

// browser keeps cookies and the CSRF token between requests like a real
// browser tab would.
type browser struct {
	t       *testing.T
	env     *testEnv
	cookies map[string]*http.Cookie
	csrf    string
	ip      string
}

func (e *testEnv) browser(t *testing.T) *browser {
	t.Helper()
	return &browser{t: t, env: e, cookies: map[string]*http.Cookie{}, ip: "192.0.2.10"}
}

var csrfInput = regexp.MustCompile(`name="_csrf" value="([^"]+)"`)

// prepare stamps req with the tab's address and cookies.
func (b *browser) prepare(req *http.Request) *http.Request {
	req.RemoteAddr = b.ip + ":40000"
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	return req
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	rec := httptest.NewRecorder()
	b.env.server.Echo.ServeHTTP(rec, b.prepare(req))

	for _, c := range rec.Result().Cookies() {
		b.cookies[c.Name] = c
	}
	if m := csrfInput.FindStringSubmatch(rec.Body.String()); m != nil {
		b.csrf = m[1]
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	b.t.Helper()
	return b.do(httptest.NewRequest(http.MethodGet, path, http.NoBody))
}

// post sends a form. fragment marks the request the way the page script does.
func (b *browser) post(path string, form url.Values, fragment bool) *httptest.ResponseRecorder {
	b.t.Helper()
	return b.do(b.postRequest(path, form, fragment))
}

func (b *browser) postRequest(path string, form url.Values, fragment bool) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if fragment {
		req.Header.Set(landing.FragmentHeader, "true")
		req.Header.Set("X-CSRF-Token", b.csrf)
	}
	return req
}

// serveAsync serves a request prepared from the tab's current cookies on
// its own goroutine. Cookies set by the response are not kept.
func (b *browser) serveAsync(req *http.Request) <-chan *httptest.ResponseRecorder {
	req = b.prepare(req)
	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		rec := httptest.NewRecorder()
		b.env.server.Echo.ServeHTTP(rec, req)
		done <- rec
	}()
	return done
}

// form builds signup fields including the CSRF token.
func (b *browser) form(kv ...string) url.Values {
	v := url.Values{"_csrf": {b.csrf}}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Set(kv[i], kv[i+1])
	}
	return v
}
