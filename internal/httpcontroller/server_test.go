package httpcontroller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/comingsoon/internal/landing"
	"github.com/tphakala/comingsoon/internal/notifyme"
	"github.com/tphakala/comingsoon/internal/session"
	"github.com/tphakala/comingsoon/internal/signup"
)

func TestIndexRendersPageAndSetsCookies(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testSettings())
	b := env.browser(t)

	rec := b.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	body := rec.Body.String()
	assert.Contains(t, body, "Launch Week")
	assert.Contains(t, body, landing.LabelIdle)
	assert.Contains(t, body, `data-sitekey="site-key"`)

	assert.Contains(t, b.cookies, "comingsoon_visit")
	assert.Contains(t, b.cookies, csrfCookieName)
	assert.NotEmpty(t, b.csrf)
}

func TestSignupValidationToasts(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testSettings())
	b := env.browser(t)
	b.get("/")

	rec := b.post("/signup", b.form("email", "   "), true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), `<div id="signup">`))
	assert.Contains(t, rec.Body.String(), signup.MsgEmailRequired)

	rec = b.post("/signup", b.form("email", "jane@example.com"), true)
	assert.Contains(t, rec.Body.String(), signup.MsgCaptchaRequired)
	assert.Contains(t, rec.Body.String(), `value="jane@example.com"`)

	assert.Empty(t, env.sub.Calls())
	assert.InDelta(t, 1, env.metrics.Signup.Attempts("blocked_email"), 0)
	assert.InDelta(t, 1, env.metrics.Signup.Attempts("blocked_captcha"), 0)
}

func TestSignupWithCaptchaCallback(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testSettings())
	b := env.browser(t)
	b.get("/")

	rec := b.post("/captcha", b.form("token", "tok-123"), true)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = b.post("/signup", b.form("email", " jane@example.com "), true)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "You&#39;re on the list!")
	assert.Contains(t, body, `id="captcha-1"`, "success starts a new challenge")
	assert.NotContains(t, body, "jane@example.com", "success clears the email")

	calls := env.sub.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, notifyme.Request{Email: "jane@example.com", Token: "tok-123"}, calls[0])
}

func TestSignupWithPostedProviderField(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testSettings())
	env.sub.result = notifyme.Result{Kind: notifyme.KindRejected, Message: "Already subscribed"}
	b := env.browser(t)
	b.get("/")

	rec := b.post("/signup", b.form("email", "jane@example.com", "g-recaptcha-response", "tok-9"), true)
	body := rec.Body.String()
	assert.Contains(t, body, "Already subscribed")
	assert.Contains(t, body, `id="captcha-0"`, "rejection keeps the challenge")
	assert.Contains(t, body, `value="jane@example.com"`, "rejection keeps the email")

	calls := env.sub.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "tok-9", calls[0].Token)
}

func TestSignupWhileSubmittingLeavesFormUntouched(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testSettings())
	env.sub.result = notifyme.Result{Kind: notifyme.KindRejected, Message: "Already subscribed"}
	entered, release := env.sub.block()
	defer release()

	b := env.browser(t)
	b.get("/")

	first := b.serveAsync(b.postRequest("/signup",
		b.form("email", "first@example.com", "g-recaptcha-response", "tok-1"), true))
	<-entered

	rec := b.post("/signup", b.form("email", "second@example.com", "g-recaptcha-response", "tok-2"), true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), landing.LabelLoading)
	assert.Contains(t, rec.Body.String(), `value="first@example.com"`)
	assert.NotContains(t, rec.Body.String(), "second@example.com")

	release()
	rec = <-first
	body := rec.Body.String()
	assert.Contains(t, body, "Already subscribed")
	assert.Contains(t, body, `value="first@example.com"`, "rejection keeps the submitted email")

	calls := env.sub.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, notifyme.Request{Email: "first@example.com", Token: "tok-1"}, calls[0])
	assert.InDelta(t, 1, env.metrics.Signup.Attempts("busy"), 0)

	// Resubmitting without a new token reuses the one from the first post
	b.post("/signup", b.form("email", "first@example.com"), true)
	calls = env.sub.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "tok-1", calls[1].Token)
}

func TestSignupSurvivesClientDisconnect(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testSettings())
	entered, release := env.sub.block()
	defer release()

	b := env.browser(t)
	b.get("/")

	ctx, cancel := context.WithCancel(t.Context())
	req := b.postRequest("/signup",
		b.form("email", "jane@example.com", "g-recaptcha-response", "tok-1"), true).WithContext(ctx)
	done := b.serveAsync(req)
	<-entered

	cancel()
	assert.Never(t, func() bool { return len(done) > 0 }, 50*time.Millisecond, 5*time.Millisecond,
		"cancelling the request must not abort the signup")

	release()
	rec := <-done
	assert.Contains(t, rec.Body.String(), "You&#39;re on the list!")
	assert.InDelta(t, 1, env.metrics.Signup.Attempts("accepted"), 0)
	assert.InDelta(t, 0, env.metrics.Signup.Attempts("failed"), 0)
}

func TestPlainPostRedirectsAndShowsToastOnce(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testSettings())
	b := env.browser(t)
	b.get("/")

	rec := b.post("/signup", b.form("email", ""), false)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	page := b.get("/").Body.String()
	assert.Contains(t, page, signup.MsgEmailRequired)

	again := b.get("/").Body.String()
	assert.NotContains(t, again, signup.MsgEmailRequired)
}

func TestSignupRequiresCSRFToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testSettings())
	b := env.browser(t)
	b.get("/")

	form := url.Values{"email": {"jane@example.com"}}
	rec := b.post("/signup", form, false)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	form.Set("_csrf", "forged-token")
	rec = b.post("/signup", form, false)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, env.sub.Calls())
}

func TestRateLimitOnPostRoutes(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	settings.RateLimit.Enabled = true
	settings.RateLimit.RequestsPerSecond = 0.001
	settings.RateLimit.Burst = 2
	settings.RateLimit.ExpiresIn = time.Minute

	env := newTestEnv(t, settings)
	b := env.browser(t)
	b.get("/")

	for range 2 {
		rec := b.post("/captcha", b.form("token", "t"), true)
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	rec := b.post("/signup", b.form("email", "jane@example.com"), true)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests, please wait before trying again", echoJSON(t, rec.Body.Bytes())["error"])

	// Other clients are unaffected
	other := env.browser(t)
	other.ip = "192.0.2.99"
	other.get("/")
	rec = other.post("/captcha", other.form("token", "t"), true)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// GET routes are never limited
	assert.Equal(t, http.StatusOK, b.get("/").Code)
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testSettings())
	b := env.browser(t)
	b.get("/")

	rec := b.get("/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "test", health.Version)
	assert.Equal(t, 1, health.Visits)
}

func TestAssetsServedWithCaching(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testSettings())
	b := env.browser(t)

	rec := b.get("/assets/comingsoon.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
	assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age=3600")
	assert.NotContains(t, b.cookies, "comingsoon_visit", "assets do not start a visit")

	assert.Equal(t, http.StatusNotFound, b.get("/assets/missing.js").Code)
}

func TestMetricsRoute(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testSettings())
	b := env.browser(t)
	b.get("/")

	rec := b.get("/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `comingsoon_http_requests_total{method="GET",route="/",status_code="200"} 1`)
}

func TestMetricsRouteAbsentWithSeparateListener(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	settings.Metrics.Listen = "127.0.0.1:9090"
	env := newTestEnv(t, settings)

	assert.Equal(t, http.StatusNotFound, env.browser(t).get("/metrics").Code)
}

func TestBasePath(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	settings.WebServer.BasePath = "/launch/"
	env := newTestEnv(t, settings)
	b := env.browser(t)

	rec := b.get("/launch/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `action="/launch/signup"`)
	assert.Contains(t, body, `src="/launch/assets/background.svg"`)

	rec = b.post("/launch/signup", b.form("email", ""), false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/launch/", rec.Header().Get("Location"))
}

func TestNewRejectsBadConfiguration(t *testing.T) {
	t.Parallel()

	_, err := New(nil, nil)
	require.Error(t, err)

	settings := testSettings()
	settings.Captcha.Provider = "abacus"
	store, err := session.NewStore(session.Config{Secret: "x"}, &stubSubscriber{})
	require.NoError(t, err)
	t.Cleanup(store.Close)

	_, err = New(settings, store)
	require.Error(t, err)
}

func echoJSON(t *testing.T, body []byte) map[string]string {
	t.Helper()
	var m map[string]string
	require.NoError(t, json.Unmarshal(body, &m))
	return m
}
