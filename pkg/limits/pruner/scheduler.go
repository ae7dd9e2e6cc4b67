package pruner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Target is anything with prunable state. *ratelimit.Limiter satisfies it.
type Target interface {
	Prune(ctx context.Context) (int, error)
}

// Scheduler calls Target.Prune whenever its cron schedule fires.
type Scheduler struct {
	target   Target
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

// NewScheduler creates a scheduler for target. schedule uses standard
// five-field cron syntax; an empty schedule makes Start a no-op.
func NewScheduler(target Target, schedule string) *Scheduler {
	return &Scheduler{
		target:   target,
		schedule: schedule,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "limits.pruner"),
	}
}

// WithLogger replaces the scheduler's logger.
func (s *Scheduler) WithLogger(logger *slog.Logger) *Scheduler {
	s.logger = logger.With("component", "limits.pruner")
	return s
}

// Start registers the prune job and starts the cron runner. The scheduler
// stops itself when ctx is cancelled.
//
// Common cron expressions:
//   - "*/10 * * * *" - Every 10 minutes
//   - "0 * * * *"    - Hourly
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("prune schedule not configured, skipping scheduler")
		return nil
	}
	if s.running {
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("rate window pruner started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// RunOnce performs a single prune cycle and returns the number of windows removed.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	deleted, err := s.target.Prune(ctx)
	if err != nil {
		s.logger.Error("scheduled pruning failed", "error", err)
		return 0
	}

	if deleted > 0 {
		s.logger.Info("scheduled pruning completed", "deleted_count", deleted)
	} else {
		s.logger.Debug("scheduled pruning completed, nothing to delete")
	}
	return deleted
}

// Stop stops the cron runner and waits for a running prune to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("rate window pruner stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled prune time, or nil when not scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
