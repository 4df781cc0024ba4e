// Package session keeps each visitor's signup form between requests.
//
// A signed cookie carries only a random visitor id. The form, its toast
// tray and its CAPTCHA widget live in memory and are discarded after the
// configured idle time.
package session

import (
	"crypto/sha256"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/patrickmn/go-cache"

	"github.com/tphakala/comingsoon/internal/captcha"
	"github.com/tphakala/comingsoon/internal/errors"
	"github.com/tphakala/comingsoon/internal/logger"
	"github.com/tphakala/comingsoon/internal/notifyme"
	"github.com/tphakala/comingsoon/internal/signup"
	"github.com/tphakala/comingsoon/internal/toast"
)

const (
	visitorKey = "visitor"

	DefaultCookieName = "comingsoon_visit"
	DefaultIdleTTL    = 30 * time.Minute
	DefaultMaxAge     = 86400
)

// Visit is one visitor's page state.
type Visit struct {
	ID     string
	Form   *signup.Form
	Tray   *toast.Tray
	Widget *captcha.Widget
}

// Config configures a Store.
type Config struct {
	Secret     string
	CookieName string
	MaxAge     int // seconds
	IdleTTL    time.Duration
	Secure     bool
	ToastTTL   time.Duration
}

// LoadingRecorder is a signup.Recorder that also tracks in-flight requests.
type LoadingRecorder interface {
	signup.Recorder
	RequestStarted()
	RequestFinished()
}

// Store maps visitor cookies to visits. Safe for concurrent use.
type Store struct {
	cookies    *sessions.CookieStore
	cookieName string
	visits     *cache.Cache
	toastTTL   time.Duration

	subscriber notifyme.Subscriber
	recorder   signup.Recorder
	inFlight   LoadingRecorder
	log        logger.Logger

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger handed to the store and every form.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRecorder sets the metrics recorder for every form. A recorder that
// also implements LoadingRecorder tracks in-flight submissions.
func WithRecorder(r signup.Recorder) Option {
	return func(s *Store) {
		s.recorder = r
		if lr, ok := r.(LoadingRecorder); ok {
			s.inFlight = lr
		}
	}
}

// NewStore creates a store whose forms submit through subscriber.
// Close must be called to stop the expiry sweeper.
func NewStore(cfg Config, subscriber notifyme.Subscriber, opts ...Option) (*Store, error) {
	if cfg.Secret == "" {
		return nil, errors.Newf("session secret is empty").
			Component("session").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if subscriber == nil {
		return nil, errors.Newf("session store requires a subscriber").
			Component("session").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = DefaultMaxAge
	}

	cookies := sessions.NewCookieStore(sessionKey(cfg.Secret))
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	s := &Store{
		cookies:    cookies,
		cookieName: cfg.CookieName,
		// No janitor: go-cache offers no way to stop it, so the store sweeps itself
		visits:     cache.New(cfg.IdleTTL, 0),
		toastTTL:   cfg.ToastTTL,
		subscriber: subscriber,
		log:        logger.NewDiscardLogger(),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.visits.OnEvicted(func(id string, _ any) {
		s.log.Debug("Visit expired", logger.String("visitor", id))
	})

	go s.sweep(sweepInterval(cfg.IdleTTL))
	return s, nil
}

// sessionKey derives a fixed-size signing key from the configured secret.
func sessionKey(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

func sweepInterval(ttl time.Duration) time.Duration {
	const minInterval = time.Second
	interval := ttl / 2
	if interval < minInterval {
		return minInterval
	}
	return interval
}

func (s *Store) sweep(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.visits.DeleteExpired()
		}
	}
}

// Visit returns the caller's visit, creating one and setting the cookie
// when the request carries no valid visitor id. The idle timer restarts on
// every call.
func (s *Store) Visit(w http.ResponseWriter, r *http.Request) (*Visit, error) {
	// A cookie that fails verification yields a fresh session and an error;
	// the visitor simply starts over.
	sess, err := s.cookies.Get(r, s.cookieName)
	if err != nil {
		s.log.Debug("Discarding invalid visitor cookie", logger.Error(err))
	}

	id, _ := sess.Values[visitorKey].(string)
	if id != "" {
		if v, ok := s.visits.Get(id); ok {
			visit := v.(*Visit)
			s.visits.SetDefault(id, visit)
			return visit, nil
		}
	}

	if id == "" {
		id = uuid.NewString()
		sess.Values[visitorKey] = id
		if err := sess.Save(r, w); err != nil {
			return nil, errors.New(err).
				Component("session").
				Category(errors.CategoryState).
				Context("operation", "save_cookie").
				Build()
		}
	}

	visit := s.newVisit(id)
	if err := s.visits.Add(id, visit, cache.DefaultExpiration); err != nil {
		// A concurrent request created it first
		if v, ok := s.visits.Get(id); ok {
			return v.(*Visit), nil
		}
		s.visits.SetDefault(id, visit)
	}
	s.log.Debug("Visit started", logger.String("visitor", id))
	return visit, nil
}

// Lookup returns the visit for id without touching its idle timer.
func (s *Store) Lookup(id string) (*Visit, bool) {
	v, ok := s.visits.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*Visit), true
}

// Len returns the number of live visits, including expired ones not yet swept.
func (s *Store) Len() int {
	return s.visits.ItemCount()
}

// Close stops the sweeper. It is safe to call more than once.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

// newVisit wires a fresh form to its tray and widget.
func (s *Store) newVisit(id string) *Visit {
	tray := toast.NewTray(s.toastTTL)
	widget := captcha.NewWidget()

	opts := []signup.Option{
		signup.WithLogger(s.log.With(logger.String("visitor", id))),
		signup.WithCaptcha(widget),
	}
	if s.recorder != nil {
		opts = append(opts, signup.WithRecorder(s.recorder))
	}
	if s.inFlight != nil {
		inFlight := s.inFlight
		opts = append(opts, signup.WithLoadingObserver(func(loading bool) {
			if loading {
				inFlight.RequestStarted()
				return
			}
			inFlight.RequestFinished()
		}))
	}

	form := signup.NewForm(s.subscriber, tray, opts...)
	widget.SetListener(form.SetCaptchaToken)

	return &Visit{ID: id, Form: form, Tray: tray, Widget: widget}
}
