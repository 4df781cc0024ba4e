// Package captcha models the CAPTCHA challenge embedded in the signup form.
package captcha

import "sync"

// Listener receives token changes. An empty token means the challenge
// expired or was reset.
type Listener func(token string)

// Widget is the server-side half of the CAPTCHA challenge. The browser
// reports solved and expired tokens through OnChange; the form calls Reset
// after a successful signup, which bumps Generation so the page renders a
// fresh challenge.
type Widget struct {
	mu         sync.Mutex
	token      string
	generation uint64
	listener   Listener
}

// NewWidget creates a widget with no token.
func NewWidget() *Widget {
	return &Widget{}
}

// SetListener installs fn to be called on every token change.
func (w *Widget) SetListener(fn Listener) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listener = fn
}

// OnChange records a token reported by the provider script.
func (w *Widget) OnChange(token string) {
	w.mu.Lock()
	w.token = token
	listener := w.listener
	w.mu.Unlock()

	if listener != nil {
		listener(token)
	}
}

// Token returns the current token, empty when unsolved.
func (w *Widget) Token() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.token
}

// Solved reports whether a token is present.
func (w *Widget) Solved() bool {
	return w.Token() != ""
}

// Reset discards the token and requests a fresh challenge.
func (w *Widget) Reset() {
	w.mu.Lock()
	w.token = ""
	w.generation++
	listener := w.listener
	w.mu.Unlock()

	if listener != nil {
		listener("")
	}
}

// Generation counts resets; the page keys the widget container on it.
func (w *Widget) Generation() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.generation
}
