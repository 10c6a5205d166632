// Package ratelimit implements an in-memory fixed-window request counter
// keyed by client address.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result is the outcome of one Allow call.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long the caller should wait before the window resets.
func (r Result) RetryAfter(now time.Time) time.Duration {
	d := r.ResetAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

type window struct {
	count   int
	resetAt time.Time
}

// FixedWindow allows up to limit hits per key in each window. A key's window
// opens on its first hit and closes window later; the next hit after that
// opens a fresh one.
type FixedWindow struct {
	limit  int
	period time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

// Option configures a FixedWindow.
type Option func(*FixedWindow)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(fw *FixedWindow) { fw.now = now }
}

// NewFixedWindow creates a limiter that admits limit hits per period.
func NewFixedWindow(limit int, period time.Duration, opts ...Option) *FixedWindow {
	fw := &FixedWindow{
		limit:   limit,
		period:  period,
		now:     time.Now,
		windows: make(map[string]*window),
	}
	for _, opt := range opts {
		opt(fw)
	}
	return fw
}

// Limit returns the configured hits per window.
func (fw *FixedWindow) Limit() int { return fw.limit }

// Period returns the window length.
func (fw *FixedWindow) Period() time.Duration { return fw.period }

// Now returns the limiter's current time.
func (fw *FixedWindow) Now() time.Time { return fw.now() }

// Allow records a hit for key and reports whether it fits in the window.
// Rejected hits are counted too.
func (fw *FixedWindow) Allow(key string) Result {
	now := fw.now()

	fw.mu.Lock()
	defer fw.mu.Unlock()

	w, ok := fw.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(fw.period)}
		fw.windows[key] = w
	}
	w.count++

	return Result{
		Allowed:   w.count <= fw.limit,
		Limit:     fw.limit,
		Remaining: max(fw.limit-w.count, 0),
		ResetAt:   w.resetAt,
	}
}

// Sweep drops windows that have already closed and returns how many were
// removed.
func (fw *FixedWindow) Sweep() int {
	now := fw.now()

	fw.mu.Lock()
	defer fw.mu.Unlock()

	n := 0
	for k, w := range fw.windows {
		if !now.Before(w.resetAt) {
			delete(fw.windows, k)
			n++
		}
	}
	return n
}

// Len returns the number of tracked keys.
func (fw *FixedWindow) Len() int {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return len(fw.windows)
}

// StartJanitor sweeps closed windows every interval until ctx is done.
func (fw *FixedWindow) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				fw.Sweep()
			}
		}
	}()
}
