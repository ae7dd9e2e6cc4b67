package providers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	// DefaultMaxAttempts is the number of attempts per call, first included.
	DefaultMaxAttempts = 3

	// DefaultBaseDelay is the unit of the backoff; attempt n waits 2^n of it.
	DefaultBaseDelay = time.Second
)

// RetryConfig controls the attempt budget and backoff of a Retrier.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	return c
}

// Outcome describes a successful call.
type Outcome struct {
	Response *CompletionResponse

	// Attempts is the number of attempts made, the successful one included.
	Attempts int

	// Delays are the backoff waits taken between attempts.
	Delays []time.Duration
}

// Retrier wraps a Client with bounded exponential backoff. After failed
// attempt n it waits 2^n x BaseDelay without jitter. Every failure class is
// retried; context cancellation is not.
type Retrier struct {
	client Client
	cfg    RetryConfig
	logger *slog.Logger
}

// RetrierOption configures a Retrier.
type RetrierOption func(*Retrier)

// WithRetryLogger sets the logger used for retry diagnostics.
func WithRetryLogger(logger *slog.Logger) RetrierOption {
	return func(r *Retrier) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRetrier creates a Retrier around client.
func NewRetrier(client Client, cfg RetryConfig, opts ...RetrierOption) *Retrier {
	r := &Retrier{
		client: client,
		cfg:    cfg.withDefaults(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config returns the effective retry configuration.
func (r *Retrier) Config() RetryConfig {
	return r.cfg
}

// Backoff returns a fresh backoff sequence for one call.
func (r *Retrier) Backoff() retry.Backoff {
	b := retry.NewExponential(2 * r.cfg.BaseDelay)
	return retry.WithMaxRetries(uint64(r.cfg.MaxAttempts-1), b)
}

// Call sends req until it succeeds or the attempt budget is spent. On
// exhaustion the error is a *RetryError wrapping the last failure. If ctx
// ends first the returned error wraps ctx.Err().
func (r *Retrier) Call(ctx context.Context, req *CompletionRequest) (*Outcome, error) {
	var (
		resp     *CompletionResponse
		attempts int
		delays   []time.Duration
		lastErr  error
	)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("completion aborted before first attempt: %w", err)
	}

	base := r.Backoff()
	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		d, stop := base.Next()
		if !stop {
			delays = append(delays, d)
			r.logger.Warn("completion attempt failed, retrying",
				"provider", r.client.Name(),
				"attempt", attempts,
				"max_attempts", r.cfg.MaxAttempts,
				"class", string(Classify(lastErr)),
				"backoff", d,
				"error", lastErr,
			)
		}
		return d, stop
	})

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		var sendErr error
		resp, sendErr = r.client.Send(ctx, req)
		if sendErr == nil {
			return nil
		}
		lastErr = sendErr
		if isCancellation(ctx, sendErr) {
			return sendErr
		}
		r.logger.Debug("completion attempt failed",
			"provider", r.client.Name(),
			"attempt", attempts,
			"error", sendErr,
		)
		return retry.RetryableError(sendErr)
	})

	switch {
	case err == nil:
		return &Outcome{Response: resp, Attempts: attempts, Delays: delays}, nil
	case isCancellation(ctx, err):
		return nil, fmt.Errorf("completion aborted after %d attempts: %w", attempts, err)
	default:
		return nil, &RetryError{Attempts: attempts, Last: err}
	}
}

// isCancellation reports whether the caller's context ended. A client side
// request timeout is a network failure and stays retryable.
func isCancellation(ctx context.Context, err error) bool {
	return err != nil && ctx.Err() != nil
}
