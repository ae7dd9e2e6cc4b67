package storage

import (
	"context"
	"time"
)

// Store defines the interface for rate window persistence.
// Implementations must be thread-safe and increment each key atomically.
type Store interface {
	// Increment applies the fixed-window reset rule for key at now and adds
	// one to its counter. It returns the window after the increment.
	Increment(ctx context.Context, key string, now time.Time, period time.Duration) (Window, error)

	// Get returns the window stored under key, or nil if none exists.
	Get(ctx context.Context, key string) (*Window, error)

	// DeletePrefix removes every window whose key starts with prefix.
	// Returns the number of windows removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)

	// Prune removes windows that started more than two periods before now.
	// Returns the number of windows removed.
	Prune(ctx context.Context, now time.Time) (int, error)

	// Close releases any resources held by the store.
	Close() error
}

// Window is the persisted state of one fixed rate window.
type Window struct {
	// Key identifies the window (tier, identity and bucket).
	Key string

	// Count is the number of requests admitted or attempted in this window.
	Count int64

	// Start is when the current window began.
	Start time.Time

	// Period is the window length.
	Period time.Duration
}

// Expired reports whether the window has elapsed at now.
func (w Window) Expired(now time.Time) bool {
	return !now.Before(w.Start.Add(w.Period))
}

// Stale reports whether the window is old enough to be pruned at now.
func (w Window) Stale(now time.Time) bool {
	return now.Sub(w.Start) > 2*w.Period
}
