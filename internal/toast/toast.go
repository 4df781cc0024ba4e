// Package toast holds the transient notifications shown to a visitor after
// a signup attempt.
package toast

import (
	"cmp"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Type is the visual style of a toast.
type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeInfo    Type = "info"
	TypeWarning Type = "warning"
)

// DefaultDuration is how long a toast stays visible, and how long an
// undisplayed toast is kept before it is dropped.
const DefaultDuration = 5 * time.Second

// Toast is a single notification.
type Toast struct {
	ID        string        `json:"id"`
	Type      Type          `json:"type"`
	Message   string        `json:"message"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`

	seq uint64
}

// NewToast creates a toast with a fresh ID and the default duration.
func NewToast(message string, t Type) *Toast {
	return &Toast{
		ID:        uuid.New().String(),
		Type:      t,
		Message:   message,
		Timestamp: time.Now(),
		Duration:  DefaultDuration,
	}
}

// WithDuration sets the display duration and returns the toast for chaining.
func (t *Toast) WithDuration(d time.Duration) *Toast {
	if d > 0 {
		t.Duration = d
	}
	return t
}

// Notifier is what a form uses to tell the visitor about an outcome.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Tray collects pending toasts for one visitor. Toasts that are never
// drained expire after the tray's TTL.
type Tray struct {
	mu      sync.Mutex
	pending *cache.Cache
	ttl     time.Duration
	nextSeq uint64
}

// NewTray creates an empty tray. A non-positive ttl uses DefaultDuration.
//
// The cache runs without a janitor; expired entries are skipped on read and
// purged on write, so a tray owns no goroutine.
func NewTray(ttl time.Duration) *Tray {
	if ttl <= 0 {
		ttl = DefaultDuration
	}
	return &Tray{
		pending: cache.New(ttl, 0),
		ttl:     ttl,
	}
}

// Success queues a success toast.
func (tr *Tray) Success(message string) { tr.Push(NewToast(message, TypeSuccess)) }

// Error queues an error toast.
func (tr *Tray) Error(message string) { tr.Push(NewToast(message, TypeError)) }

// Push queues t.
func (tr *Tray) Push(t *Toast) {
	if t == nil {
		return
	}
	t.WithDuration(tr.ttl)

	tr.mu.Lock()
	defer tr.mu.Unlock()

	tr.nextSeq++
	t.seq = tr.nextSeq
	tr.pending.DeleteExpired()
	tr.pending.Set(strconv.FormatUint(t.seq, 10), t, cache.DefaultExpiration)
}

// Pending returns the unexpired toasts in creation order without removing them.
func (tr *Tray) Pending() []*Toast {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.snapshotLocked()
}

// Drain returns the unexpired toasts in creation order and removes them,
// so each toast is displayed once.
func (tr *Tray) Drain() []*Toast {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	toasts := tr.snapshotLocked()
	tr.pending.Flush()
	return toasts
}

// Len returns the number of unexpired toasts.
func (tr *Tray) Len() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return len(tr.pending.Items())
}

func (tr *Tray) snapshotLocked() []*Toast {
	items := tr.pending.Items()
	toasts := make([]*Toast, 0, len(items))
	for _, item := range items {
		if t, ok := item.Object.(*Toast); ok {
			toasts = append(toasts, t)
		}
	}
	slices.SortFunc(toasts, func(a, b *Toast) int { return cmp.Compare(a.seq, b.seq) })
	return toasts
}
