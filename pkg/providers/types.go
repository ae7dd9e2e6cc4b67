package providers

import "time"

// Message represents a single chat message.
type Message struct {
	// Role identifies the message sender (system, user, assistant)
	Role string `json:"role"`

	// Content is the message text content
	Content string `json:"content"`
}

// CompletionRequest is one chat completion call.
type CompletionRequest struct {
	// Messages is the conversation, system prompt first
	Messages []Message `json:"messages"`

	// MaxTokens is the maximum number of tokens to generate
	MaxTokens int `json:"max_tokens"`

	// Temperature controls randomness
	Temperature float64 `json:"temperature"`
}

// CompletionResponse is a successful completion. The body is kept raw; the
// envelope is read by the response normalizer.
type CompletionResponse struct {
	// StatusCode is the HTTP status code (always 200 on success)
	StatusCode int

	// Body is the raw response body
	Body []byte

	// Latency is the round trip time of the request
	Latency time.Duration

	// Usage is the token accounting reported by the service, zero if absent
	Usage Usage
}

// Usage reports the tokens consumed by one completion.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ClientStats are request counters kept by a client.
type ClientStats struct {
	// TotalRequests is the total number of requests sent
	TotalRequests int64

	// FailedRequests is the number of requests that did not succeed
	FailedRequests int64

	// ConsecutiveFailures counts sequential failures since the last success
	ConsecutiveFailures int

	// LastError is the most recent failure (nil after a success)
	LastError error

	// LastSuccess is the time of the last successful request
	LastSuccess time.Time
}

// HTTPConfig configures the shared HTTP transport of a client.
type HTTPConfig struct {
	// Name identifies the client in errors and logs
	Name string

	// Timeout is the overall request timeout
	Timeout time.Duration

	// ConnectTimeout bounds connection establishment
	ConnectTimeout time.Duration

	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains in the pool
	IdleConnTimeout time.Duration
}

// Message role constants
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
