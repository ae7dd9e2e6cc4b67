// Package ratelimit provides fixed-window request limiting with pacing.
//
// # Overview
//
// Each caller identity gets two independent fixed windows:
//
//   - Minute tier: key "minute:<identity>:<epoch/60>", capacity RequestsPerMinute
//   - Hour tier: key "hour:<identity>:<epoch/3600>", capacity RequestsPerHour
//
// A window starts lazily on first use and restarts (counter zeroed) once
// start+period has elapsed. This is deliberately not a sliding window: bursts
// are possible at window boundaries.
//
// # Usage
//
//	limiter := ratelimit.NewLimiter(ratelimit.Config{
//	    RequestsPerMinute: 60,
//	    RequestsPerHour:   1000,
//	    Delay:             time.Second,
//	})
//	if _, err := limiter.Check(ctx, clientID); err != nil {
//	    var exceeded *ratelimit.ExceededError
//	    if errors.As(err, &exceeded) {
//	        // minute or hour tier over its limit
//	    }
//	    return err
//	}
//
// A successful Check blocks for Config.Delay before returning. Cancelling ctx
// aborts that wait.
//
// # Maintenance
//
// Windows are never expired in the background. Callers run Prune to drop
// windows older than twice their period (see package pruner for a cron job).
//
// # Thread Safety
//
// A Limiter is safe for concurrent use by any number of callers and
// identities. Counter updates are atomic per key through the storage.Store.
package ratelimit
