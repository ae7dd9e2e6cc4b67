package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Config contains the limits applied to every caller identity.
type Config struct {
	// RequestsPerMinute is the capacity of the minute window.
	// Zero or negative disables the minute tier.
	RequestsPerMinute int

	// RequestsPerHour is the capacity of the hour window.
	// Zero or negative disables the hour tier.
	RequestsPerHour int

	// Delay is the pause applied after every admitted request.
	Delay time.Duration
}

// Tier names a rate limit window.
type Tier string

const (
	// TierMinute is the per-minute window.
	TierMinute Tier = "minute"

	// TierHour is the per-hour window.
	TierHour Tier = "hour"
)

// Period returns the window length for the tier.
func (t Tier) Period() time.Duration {
	if t == TierHour {
		return time.Hour
	}
	return time.Minute
}

// Key builds the store key for identity at now.
func (t Tier) Key(identity string, now time.Time) string {
	bucket := now.Unix() / int64(t.Period()/time.Second)
	return fmt.Sprintf("%s:%s:%d", t, identity, bucket)
}

// CheckResult contains the result of an admitted rate limit check.
type CheckResult struct {
	// MinuteCount is the minute window counter after this request.
	MinuteCount int64

	// HourCount is the hour window counter after this request.
	HourCount int64

	// Remaining is the smallest headroom left across enabled tiers.
	// -1 when no tier is enabled.
	Remaining int64

	// Reset is when the tightest enabled window restarts.
	Reset time.Time
}

// Counts reports the live counters for an identity.
type Counts struct {
	Minute int64
	Hour   int64
}

// ErrRateLimitExceeded is matched by every ExceededError via errors.Is.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// ExceededError is returned when a tier's counter passes its capacity.
type ExceededError struct {
	Tier     Tier
	Identity string
	Limit    int64
	Count    int64
	Reset    time.Time
}

// Error implements the error interface.
func (e *ExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %s tier for %s (%d/%d, resets %s)",
		e.Tier, e.Identity, e.Count, e.Limit, e.Reset.Format(time.RFC3339))
}

// Is reports whether target is ErrRateLimitExceeded.
func (e *ExceededError) Is(target error) bool {
	return target == ErrRateLimitExceeded
}

// RetryAfter returns how long until the exceeded window restarts, measured from now.
func (e *ExceededError) RetryAfter(now time.Time) time.Duration {
	if d := e.Reset.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// Sleeper blocks for a duration or until ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// Recorder observes check outcomes, typically for metrics.
type Recorder interface {
	RecordRateLimitCheck(tier string, allowed bool)
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type timerSleeper struct{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
