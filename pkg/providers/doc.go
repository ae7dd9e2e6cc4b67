// Package providers is the completion client layer.
//
// # Overview
//
// A Client makes one chat completion attempt and classifies the outcome. The
// Retrier wraps any Client with bounded exponential backoff. HTTPProvider is
// the pooled HTTP base that concrete clients (see package azure) embed.
//
// # Errors
//
// A single attempt fails with one of:
//
//   - NetworkError: the transport failed before a status arrived
//   - StatusError: a non-200 status, classified as auth (401/403),
//     misconfiguration (404), throttled (429), upstream (5xx) or client
//   - EmptyBodyError: a 200 with an empty or null body
//
// All three are retried alike. When attempts run out the Retrier returns a
// RetryError ("failed after N attempts: ...") that unwraps to the last
// failure, so errors.As still reaches the typed cause:
//
//	out, err := retrier.Call(ctx, req)
//	var statusErr *providers.StatusError
//	if errors.As(err, &statusErr) && statusErr.Class() == providers.ClassAuth {
//	    // check the api key
//	}
//
// Cancelling ctx stops the Retrier at once, including mid-backoff; the
// returned error wraps context.Canceled or context.DeadlineExceeded.
//
// # Backoff
//
// With the default base of one second, three attempts wait 2s and then 4s:
//
//	retrier := providers.NewRetrier(client, providers.RetryConfig{
//	    MaxAttempts: 3,
//	    BaseDelay:   time.Second,
//	})
//
// # Thread Safety
//
// HTTPProvider and Retrier are safe for concurrent use.
package providers
