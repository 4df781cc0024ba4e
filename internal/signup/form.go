// Package signup implements the email-capture form of the landing page.
//
// A Form holds one visitor's email, CAPTCHA token and loading flag. Submit
// validates locally, posts the signup once, and reports the outcome through
// a Notifier. At most one submission per form is in flight at a time.
package signup

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/tphakala/comingsoon/internal/errors"
	"github.com/tphakala/comingsoon/internal/logger"
	"github.com/tphakala/comingsoon/internal/notifyme"
)

// Notifier shows transient messages to the visitor.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Captcha is the part of the CAPTCHA widget the form drives.
type Captcha interface {
	Reset()
}

// Recorder receives submission metrics.
type Recorder interface {
	RecordOutcome(outcome string)
	ObserveRequest(outcome string, elapsed time.Duration)
}

// Form is one visitor's signup form. Safe for concurrent use.
type Form struct {
	mu      sync.Mutex
	email   string
	token   string
	loading bool
	phase   Phase

	subscriber notifyme.Subscriber
	notifier   Notifier
	captcha    Captcha
	recorder   Recorder
	log        logger.Logger

	onLoading func(loading bool)
}

// Option configures a Form.
type Option func(*Form)

// WithLogger sets the logger used for transport failures.
func WithLogger(l logger.Logger) Option {
	return func(f *Form) {
		if l != nil {
			f.log = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(f *Form) { f.recorder = r }
}

// WithCaptcha sets the widget reset after a successful signup.
func WithCaptcha(c Captcha) Option {
	return func(f *Form) { f.captcha = c }
}

// WithLoadingObserver registers fn to be called on every loading flag change.
func WithLoadingObserver(fn func(loading bool)) Option {
	return func(f *Form) { f.onLoading = fn }
}

// NewForm creates an empty form that submits through subscriber and
// reports through notifier.
func NewForm(subscriber notifyme.Subscriber, notifier Notifier, opts ...Option) *Form {
	f := &Form{
		subscriber: subscriber,
		notifier:   notifier,
		log:        logger.NewDiscardLogger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SetEmail replaces the email as typed by the visitor.
func (f *Form) SetEmail(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.email = email
}

// Email returns the email as typed.
func (f *Form) Email() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.email
}

// SetCaptchaToken is the CAPTCHA onChange callback. An empty token clears it.
func (f *Form) SetCaptchaToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

// CaptchaToken returns the current token, empty when absent.
func (f *Form) CaptchaToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

// IsLoading reports whether a submission is in flight.
func (f *Form) IsLoading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// Phase returns the current submission phase.
func (f *Form) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

// Snapshot is a consistent copy of the form state.
type Snapshot struct {
	Email     string
	HasToken  bool
	IsLoading bool
}

// Snapshot returns the form state under one lock.
func (f *Form) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Snapshot{Email: f.email, HasToken: f.token != "", IsLoading: f.loading}
}

// Submit runs one submission attempt and returns its outcome.
//
// A call made while another is in flight returns OutcomeBusy without side
// effects. Validation failures notify without touching the network.
// Cancelling ctx does not abort a request already sent; a deadline on ctx
// still bounds it, as does the HTTP transport.
func (f *Form) Submit(ctx context.Context) Outcome {
	return f.submit(ctx, nil)
}

// SubmitInput stores the posted email and, when non-empty, the CAPTCHA
// token, then submits. Both happen under the same check as the loading
// flag, so input posted while a submission is in flight is dropped along
// with the attempt.
func (f *Form) SubmitInput(ctx context.Context, email, token string) Outcome {
	return f.submit(ctx, func() {
		f.email = email
		if token != "" {
			f.token = token
		}
	})
}

// submit runs one attempt. input, when set, is applied with f.mu held and
// only if no submission is in flight.
func (f *Form) submit(ctx context.Context, input func()) Outcome {
	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		f.record(OutcomeBusy)
		return OutcomeBusy
	}
	if input != nil {
		input()
	}

	f.phase = PhaseValidating
	email := strings.TrimSpace(f.email)
	token := f.token

	var blocked Outcome
	var message string
	switch {
	case email == "":
		blocked, message = OutcomeBlockedEmail, MsgEmailRequired
	case token == "":
		blocked, message = OutcomeBlockedCaptcha, MsgCaptchaRequired
	}
	if message != "" {
		f.phase = PhaseIdle
		f.mu.Unlock()
		f.notifier.Error(message)
		f.record(blocked)
		return blocked
	}

	f.loading = true
	f.phase = PhaseSubmitting
	onLoading := f.onLoading
	f.mu.Unlock()

	if onLoading != nil {
		onLoading(true)
	}
	defer f.finish()

	reqCtx, cancel := detach(ctx)
	defer cancel()

	start := time.Now()
	result, err := f.subscriber.Subscribe(reqCtx, notifyme.Request{Email: email, Token: token})
	elapsed := time.Since(start)

	outcome := f.apply(result, err, email)
	f.record(outcome)
	if f.recorder != nil {
		f.recorder.ObserveRequest(outcome.String(), elapsed)
	}
	return outcome
}

// apply turns the endpoint outcome into notifications and state changes.
// It runs while loading is still true, so no other submission can start.
func (f *Form) apply(result notifyme.Result, err error, email string) Outcome {
	if err != nil {
		f.log.Error("Signup request failed",
			logger.Error(err),
			logger.String("email", email),
			logger.String("category", errorCategory(err)))
		f.notifier.Error(MsgGenericFailure)
		return OutcomeFailed
	}

	switch result.Kind {
	case notifyme.KindAccepted:
		f.notifier.Success(result.Message)
		f.mu.Lock()
		f.email = ""
		f.token = ""
		f.mu.Unlock()
		if f.captcha != nil {
			f.captcha.Reset()
		}
		f.log.Info("Signup accepted", logger.String("email", email))
		return OutcomeAccepted
	case notifyme.KindRejected:
		f.notifier.Error(result.Message)
		f.log.Info("Signup rejected",
			logger.String("email", email),
			logger.String("reason", result.Message))
		return OutcomeRejected
	default:
		f.log.Error("Signup endpoint returned an untagged result", logger.Int("kind", int(result.Kind)))
		f.notifier.Error(MsgGenericFailure)
		return OutcomeFailed
	}
}

// finish clears the loading flag. It is deferred once per submission.
func (f *Form) finish() {
	f.mu.Lock()
	f.loading = false
	f.phase = PhaseIdle
	onLoading := f.onLoading
	f.mu.Unlock()

	if onLoading != nil {
		onLoading(false)
	}
}

// detach keeps the values and deadline of ctx but drops its cancellation,
// so a visitor leaving the page does not abort a signup mid-flight.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	detached := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(detached, deadline)
	}
	return detached, func() {}
}

func (f *Form) record(o Outcome) {
	if f.recorder != nil {
		f.recorder.RecordOutcome(o.String())
	}
}

func errorCategory(err error) string {
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		return ee.GetCategory()
	}
	return string(errors.CategoryGeneric)
}
