// Package storage provides persistence backends for fixed-window rate counters.
//
// # Overview
//
// A Store keeps one Window per key. The rate limiter derives keys from the
// caller identity and the period bucket (for example "minute:client-1:29000000")
// and asks the store to increment them. Two implementations are provided:
//
//   - Memory: map guarded by a mutex (default, process-local)
//   - SQLite: file-backed table shared by every process that opens the same file
//
// # Window Semantics
//
// Increment applies the fixed-window rule atomically per key: a missing window
// starts at now, and a window whose start+period has elapsed is restarted at now
// with a zeroed counter before the increment.
//
//	store := storage.NewMemoryStore()
//	w, err := store.Increment(ctx, "minute:client-1:29000000", now, time.Minute)
//	if w.Count > capacity {
//	    // over the limit
//	}
//
// # Thread Safety
//
// All stores are safe for concurrent use. Atomicity is guaranteed per key only.
package storage
