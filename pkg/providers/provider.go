package providers

import "context"

// Client sends one completion request and reports the outcome.
//
// Implementations make exactly one attempt per call. A failure is one of
// *NetworkError, *StatusError or *EmptyBodyError; retries are the job of
// Retrier.
//
//	client, err := azure.NewClient(cfg)
//	if err != nil {
//	    return err
//	}
//	resp, err := client.Send(ctx, req)
type Client interface {
	// Send performs the request. It must return promptly when ctx is done.
	Send(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the client's configured name.
	Name() string
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

// Send calls f(ctx, req).
func (f ClientFunc) Send(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	return f(ctx, req)
}

// Name returns "func".
func (f ClientFunc) Name() string {
	return "func"
}
