package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/comingsoon/internal/notifyme"
	"github.com/tphakala/comingsoon/internal/signup"
	"github.com/tphakala/comingsoon/internal/toast"
)

type stubSubscriber struct {
	mu    sync.Mutex
	calls int
	res   notifyme.Result
}

func (s *stubSubscriber) Subscribe(_ context.Context, _ notifyme.Request) (notifyme.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.res, nil
}

type countingRecorder struct {
	mu       sync.Mutex
	outcomes []string
	started  int
	finished int
}

func (r *countingRecorder) RecordOutcome(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *countingRecorder) ObserveRequest(string, time.Duration) {}

func (r *countingRecorder) RequestStarted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
}

func (r *countingRecorder) RequestFinished() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished++
}

func newTestStore(t *testing.T, cfg Config, opts ...Option) (*Store, *stubSubscriber) {
	t.Helper()
	if cfg.Secret == "" {
		cfg.Secret = "test-secret-that-is-long-enough-for-signing"
	}
	sub := &stubSubscriber{res: notifyme.Result{Kind: notifyme.KindAccepted, Message: "Thanks!"}}
	store, err := NewStore(cfg, sub, opts...)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store, sub
}

// visitWith performs a request carrying cookies and returns the visit and
// any cookies set by the response.
func visitWith(t *testing.T, s *Store, cookies ...*http.Cookie) (*Visit, []*http.Cookie) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	v, err := s.Visit(rec, req)
	require.NoError(t, err)
	return v, rec.Result().Cookies()
}

func TestNewStoreValidation(t *testing.T) {
	t.Parallel()

	_, err := NewStore(Config{}, &stubSubscriber{})
	require.Error(t, err)

	_, err = NewStore(Config{Secret: "x"}, nil)
	require.Error(t, err)
}

func TestVisitSetsCookieAndIsStable(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t, Config{CookieName: "visit"})

	first, cookies := visitWith(t, store)
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, "visit", cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.NotEmpty(t, first.ID)

	second, again := visitWith(t, store, cookie)
	assert.Empty(t, again, "a known visitor gets no new cookie")
	assert.Same(t, first, second)
	assert.Equal(t, 1, store.Len())
}

func TestTamperedCookieStartsNewVisit(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t, Config{})
	first, _ := visitWith(t, store)

	forged := &http.Cookie{Name: DefaultCookieName, Value: "not-a-signed-value"}
	second, cookies := visitWith(t, store, forged)

	require.Len(t, cookies, 1)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCookieFromOtherSecretIsRejected(t *testing.T) {
	t.Parallel()

	other, _ := newTestStore(t, Config{Secret: "another-secret-another-secret-another"})
	foreign, cookies := visitWith(t, other)
	require.Len(t, cookies, 1)

	store, _ := newTestStore(t, Config{})
	v, fresh := visitWith(t, store, cookies[0])
	require.Len(t, fresh, 1)
	assert.NotEqual(t, foreign.ID, v.ID)
}

func TestWidgetFeedsFormToken(t *testing.T) {
	t.Parallel()

	store, sub := newTestStore(t, Config{})
	v, _ := visitWith(t, store)

	v.Widget.OnChange("tok-1")
	assert.Equal(t, "tok-1", v.Form.CaptchaToken())

	v.Form.SetEmail("jane@example.com")
	outcome := v.Form.Submit(t.Context())
	assert.Equal(t, signup.OutcomeAccepted, outcome)
	assert.Equal(t, 1, sub.calls)

	// Success resets the widget, which clears the form token and bumps the generation
	assert.Empty(t, v.Form.CaptchaToken())
	assert.False(t, v.Widget.Solved())
	assert.Equal(t, uint64(1), v.Widget.Generation())

	toasts := v.Tray.Drain()
	require.Len(t, toasts, 1)
	assert.Equal(t, toast.TypeSuccess, toasts[0].Type)
	assert.Equal(t, "Thanks!", toasts[0].Message)
}

func TestExpiredWidgetTokenBlocksSubmit(t *testing.T) {
	t.Parallel()

	store, sub := newTestStore(t, Config{})
	v, _ := visitWith(t, store)

	v.Widget.OnChange("tok")
	v.Widget.OnChange("")
	v.Form.SetEmail("jane@example.com")

	assert.Equal(t, signup.OutcomeBlockedCaptcha, v.Form.Submit(t.Context()))
	assert.Zero(t, sub.calls)
}

func TestRecorderWiring(t *testing.T) {
	t.Parallel()

	rec := &countingRecorder{}
	store, _ := newTestStore(t, Config{}, WithRecorder(rec))
	v, _ := visitWith(t, store)

	v.Form.Submit(t.Context())
	v.Widget.OnChange("tok")
	v.Form.SetEmail("jane@example.com")
	v.Form.Submit(t.Context())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{"blocked_email", "accepted"}, rec.outcomes)
	assert.Equal(t, 1, rec.started)
	assert.Equal(t, 1, rec.finished)
}

func TestIdleVisitsExpire(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t, Config{IdleTTL: 50 * time.Millisecond})
	v, cookies := visitWith(t, store)

	assert.Eventually(t, func() bool {
		_, ok := store.Lookup(v.ID)
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	// The cookie stays valid; the visitor gets a fresh form under the same id
	again, fresh := visitWith(t, store, cookies...)
	assert.Empty(t, fresh)
	assert.Equal(t, v.ID, again.ID)
	assert.NotSame(t, v, again)
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	store, err := NewStore(Config{Secret: "s"}, &stubSubscriber{})
	require.NoError(t, err)
	store.Close()
	assert.NotPanics(t, store.Close)
}

func TestSweepInterval(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Second, sweepInterval(10*time.Millisecond))
	assert.Equal(t, 15*time.Minute, sweepInterval(30*time.Minute))
}
