package signup

import (
	"context"
	"sync"
	"time"

	"github.com/tphakala/comingsoon/internal/notifyme"
)

// fakeSubscriber records requests and replies with a canned result.
type fakeSubscriber struct {
	mu       sync.Mutex
	requests []notifyme.Request
	result   notifyme.Result
	err      error
	// gate, when set, blocks Subscribe until closed
	gate    chan struct{}
	entered chan struct{}
}

func (s *fakeSubscriber) Subscribe(ctx context.Context, req notifyme.Request) (notifyme.Result, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
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
	return s.result, s.err
}

func (s *fakeSubscriber) calls() []notifyme.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notifyme.Request(nil), s.requests...)
}

type note struct {
	kind    string
	message string
}

// fakeNotifier records notifications in order.
type fakeNotifier struct {
	mu    sync.Mutex
	notes []note
}

func (n *fakeNotifier) Success(message string) { n.add("success", message) }
func (n *fakeNotifier) Error(message string)   { n.add("error", message) }

func (n *fakeNotifier) add(kind, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note{kind, message})
}

func (n *fakeNotifier) all() []note {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]note(nil), n.notes...)
}

// fakeCaptcha counts resets and clears the form token like the real widget.
type fakeCaptcha struct {
	mu     sync.Mutex
	resets int
	form   *Form
}

func (c *fakeCaptcha) Reset() {
	c.mu.Lock()
	c.resets++
	form := c.form
	c.mu.Unlock()
	if form != nil {
		form.SetCaptchaToken("")
	}
}

func (c *fakeCaptcha) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resets
}

// fakeRecorder collects metric calls.
type fakeRecorder struct {
	mu       sync.Mutex
	outcomes []string
	observed []string
}

func (r *fakeRecorder) RecordOutcome(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *fakeRecorder) ObserveRequest(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observed = append(r.observed, outcome)
}

// loadingLog counts loading flag transitions.
type loadingLog struct {
	mu          sync.Mutex
	transitions []bool
}

func (l *loadingLog) observe(loading bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.transitions = append(l.transitions, loading)
}

func (l *loadingLog) all() []bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]bool(nil), l.transitions...)
}

type harness struct {
	form     *Form
	sub      *fakeSubscriber
	notifier *fakeNotifier
	captcha  *fakeCaptcha
	recorder *fakeRecorder
	loading  *loadingLog
}

func newHarness(result notifyme.Result, err error) *harness {
	h := &harness{
		sub:      &fakeSubscriber{result: result, err: err},
		notifier: &fakeNotifier{},
		captcha:  &fakeCaptcha{},
		recorder: &fakeRecorder{},
		loading:  &loadingLog{},
	}
	h.form = NewForm(h.sub, h.notifier,
		WithCaptcha(h.captcha),
		WithRecorder(h.recorder),
		WithLoadingObserver(h.loading.observe))
	h.captcha.form = h.form
	return h
}
