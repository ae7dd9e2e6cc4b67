package ratelimit

import (
	"context"
	"fmt"
	"log/slog"

	"lcm-hq/intellimap/pkg/limits/storage"
)

// Limiter enforces the minute and hour fixed windows for any number of caller
// identities and paces admitted requests.
//
// The Limiter holds no per-identity state of its own; all counters live in the
// storage.Store, which makes each increment atomic. Construct one Limiter and
// share it between concurrent batches.
type Limiter struct {
	store    storage.Store
	clock    Clock
	sleeper  Sleeper
	recorder Recorder
	logger   *slog.Logger

	config Config
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithStore sets the window store. Default: storage.NewMemoryStore().
func WithStore(s storage.Store) Option {
	return func(l *Limiter) { l.store = s }
}

// WithClock sets the time source. Default: time.Now.
func WithClock(c Clock) Option {
	return func(l *Limiter) { l.clock = c }
}

// WithSleeper sets how pacing delays are waited out.
func WithSleeper(s Sleeper) Option {
	return func(l *Limiter) { l.sleeper = s }
}

// WithRecorder sets the check outcome observer.
func WithRecorder(r Recorder) Option {
	return func(l *Limiter) { l.recorder = r }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) { l.logger = logger }
}

// NewLimiter creates a rate limiter with the given configuration.
//
// Example:
//
//	limiter := NewLimiter(Config{
//	    RequestsPerMinute: 60,
//	    RequestsPerHour:   1000,
//	    Delay:             time.Second,
//	}, WithStore(sqliteStore))
func NewLimiter(config Config, opts ...Option) *Limiter {
	l := &Limiter{
		config: config,
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.store == nil {
		l.store = storage.NewMemoryStore()
	}
	if l.clock == nil {
		l.clock = systemClock{}
	}
	if l.sleeper == nil {
		l.sleeper = timerSleeper{}
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}

	return l
}

// Config returns the limiter configuration.
func (l *Limiter) Config() Config {
	return l.config
}

type tierLimit struct {
	tier     Tier
	capacity int64
}

// tiers returns the enabled tiers in check order.
func (l *Limiter) tiers() []tierLimit {
	var out []tierLimit
	if l.config.RequestsPerMinute > 0 {
		out = append(out, tierLimit{TierMinute, int64(l.config.RequestsPerMinute)})
	}
	if l.config.RequestsPerHour > 0 {
		out = append(out, tierLimit{TierHour, int64(l.config.RequestsPerHour)})
	}
	return out
}

// Check admits one request for identity or rejects it.
//
// The minute tier is incremented and checked first, then the hour tier; the
// first tier over capacity is reported as an *ExceededError. An admitted
// request then waits Config.Delay before Check returns. If ctx is cancelled
// during that wait the context error is returned wrapped.
func (l *Limiter) Check(ctx context.Context, identity string) (CheckResult, error) {
	if identity == "" {
		return CheckResult{}, fmt.Errorf("identity cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return CheckResult{}, err
	}

	now := l.clock.Now()
	result := CheckResult{Remaining: -1}

	for _, t := range l.tiers() {
		w, err := l.store.Increment(ctx, t.tier.Key(identity, now), now, t.tier.Period())
		if err != nil {
			return CheckResult{}, fmt.Errorf("rate limit %s window: %w", t.tier, err)
		}

		reset := w.Start.Add(w.Period)
		if w.Count > t.capacity {
			l.record(t.tier, false)
			l.logger.Debug("rate limit exceeded",
				"tier", string(t.tier),
				"identity", identity,
				"count", w.Count,
				"limit", t.capacity,
			)
			return CheckResult{}, &ExceededError{
				Tier:     t.tier,
				Identity: identity,
				Limit:    t.capacity,
				Count:    w.Count,
				Reset:    reset,
			}
		}
		l.record(t.tier, true)

		switch t.tier {
		case TierMinute:
			result.MinuteCount = w.Count
		case TierHour:
			result.HourCount = w.Count
		}
		if remaining := t.capacity - w.Count; result.Remaining < 0 || remaining < result.Remaining {
			result.Remaining = remaining
			result.Reset = reset
		}
	}

	if err := l.sleeper.Sleep(ctx, l.config.Delay); err != nil {
		return result, fmt.Errorf("rate limit pacing interrupted: %w", err)
	}

	return result, nil
}

// Counts returns the live minute and hour counters for identity. Windows that
// have elapsed read as zero.
func (l *Limiter) Counts(ctx context.Context, identity string) (Counts, error) {
	now := l.clock.Now()
	var counts Counts

	for _, tier := range []Tier{TierMinute, TierHour} {
		w, err := l.store.Get(ctx, tier.Key(identity, now))
		if err != nil {
			return Counts{}, err
		}
		if w == nil || w.Expired(now) {
			continue
		}
		if tier == TierMinute {
			counts.Minute = w.Count
		} else {
			counts.Hour = w.Count
		}
	}

	return counts, nil
}

// Reset clears every window held for identity.
func (l *Limiter) Reset(ctx context.Context, identity string) error {
	for _, tier := range []Tier{TierMinute, TierHour} {
		if _, err := l.store.DeletePrefix(ctx, string(tier)+":"+identity+":"); err != nil {
			return fmt.Errorf("reset %s windows for %s: %w", tier, identity, err)
		}
	}
	return nil
}

// Prune removes windows that started more than two periods ago.
// It is never called by the Limiter itself.
func (l *Limiter) Prune(ctx context.Context) (int, error) {
	n, err := l.store.Prune(ctx, l.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("prune rate windows: %w", err)
	}
	if n > 0 {
		l.logger.Debug("pruned rate windows", "count", n)
	}
	return n, nil
}

// Close releases the underlying store.
func (l *Limiter) Close() error {
	return l.store.Close()
}

func (l *Limiter) record(tier Tier, allowed bool) {
	if l.recorder != nil {
		l.recorder.RecordRateLimitCheck(string(tier), allowed)
	}
}
