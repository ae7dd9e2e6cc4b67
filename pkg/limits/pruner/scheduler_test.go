package pruner

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"lcm-hq/intellimap/pkg/limits/ratelimit"
	"lcm-hq/intellimap/pkg/limits/storage"
)

type stubTarget struct {
	calls atomic.Int64
	n     int
	err   error
}

func (s *stubTarget) Prune(ctx context.Context) (int, error) {
	s.calls.Add(1)
	return s.n, s.err
}

func TestScheduler_Start(t *testing.T) {
	tests := []struct {
		name        string
		schedule    string
		wantRunning bool
		wantError   bool
	}{
		{name: "every ten minutes", schedule: "*/10 * * * *", wantRunning: true},
		{name: "hourly", schedule: "0 * * * *", wantRunning: true},
		{name: "empty schedule is a no-op", schedule: ""},
		{name: "invalid schedule", schedule: "not a cron", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scheduler := NewScheduler(&stubTarget{}, tt.schedule)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			err := scheduler.Start(ctx)
			if (err != nil) != tt.wantError {
				t.Fatalf("Start() error = %v, wantError %v", err, tt.wantError)
			}
			if scheduler.IsRunning() != tt.wantRunning {
				t.Errorf("IsRunning() = %v, want %v", scheduler.IsRunning(), tt.wantRunning)
			}
			if tt.wantRunning {
				if next := scheduler.NextRun(); next == nil || !next.After(time.Now()) {
					t.Errorf("expected a future next run, got %v", next)
				}
			}
			scheduler.Stop()
			if scheduler.IsRunning() {
				t.Error("expected scheduler stopped")
			}
		})
	}
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	scheduler := NewScheduler(&stubTarget{}, "* * * * *")
	ctx, cancel := context.WithCancel(context.Background())

	if err := scheduler.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for scheduler.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if scheduler.IsRunning() {
		t.Error("expected scheduler to stop after context cancellation")
	}
}

func TestScheduler_RunOnce(t *testing.T) {
	target := &stubTarget{n: 4}
	if got := NewScheduler(target, "").RunOnce(context.Background()); got != 4 {
		t.Errorf("expected 4 deleted, got %d", got)
	}

	failing := &stubTarget{err: errors.New("disk on fire")}
	if got := NewScheduler(failing, "").RunOnce(context.Background()); got != 0 {
		t.Errorf("expected 0 on error, got %d", got)
	}
	if failing.calls.Load() != 1 {
		t.Errorf("expected one prune call, got %d", failing.calls.Load())
	}
}

func TestScheduler_PrunesLimiterWindows(t *testing.T) {
	store := storage.NewMemoryStore()
	limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: 5}, ratelimit.WithStore(store))
	ctx := context.Background()

	// A window that started long ago is stale immediately.
	if _, err := store.Increment(ctx, "minute:old:1", time.Now().Add(-time.Hour), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, err := limiter.Check(ctx, "fresh"); err != nil {
		t.Fatal(err)
	}

	if got := NewScheduler(limiter, "").RunOnce(ctx); got != 1 {
		t.Errorf("expected the stale window pruned, got %d", got)
	}
	if store.Size() != 1 {
		t.Errorf("expected the live window to remain, size=%d", store.Size())
	}
}
