package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MemoryStore implements Store using an in-memory map.
// All data is lost when the process exits.
//
// MemoryStore is thread-safe; a single mutex serializes increments.
type MemoryStore struct {
	windows map[string]*Window
	mu      sync.Mutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string]*Window),
	}
}

// Increment applies the fixed-window rule and bumps the counter for key.
func (m *MemoryStore) Increment(ctx context.Context, key string, now time.Time, period time.Duration) (Window, error) {
	if key == "" {
		return Window{}, fmt.Errorf("key cannot be empty")
	}
	if period <= 0 {
		return Window{}, fmt.Errorf("period must be positive, got %v", period)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	w, exists := m.windows[key]
	if !exists {
		w = &Window{Key: key, Start: now, Period: period}
		m.windows[key] = w
	} else if w.Expired(now) {
		w.Start = now
		w.Count = 0
	}

	w.Count++
	return *w, nil
}

// Get returns a copy of the window stored under key.
func (m *MemoryStore) Get(ctx context.Context, key string) (*Window, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, exists := m.windows[key]
	if !exists {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

// DeletePrefix removes all windows whose key has the given prefix.
func (m *MemoryStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := 0
	for key := range m.windows {
		if strings.HasPrefix(key, prefix) {
			delete(m.windows, key)
			deleted++
		}
	}
	return deleted, nil
}

// Prune removes windows older than twice their period.
func (m *MemoryStore) Prune(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := 0
	for key, w := range m.windows {
		if w.Stale(now) {
			delete(m.windows, key)
			deleted++
		}
	}
	return deleted, nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error {
	return nil
}

// Size returns the current number of stored windows.
// This is useful for monitoring and testing.
func (m *MemoryStore) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}
