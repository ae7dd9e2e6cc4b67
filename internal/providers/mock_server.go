package providers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockServer is a fake Azure OpenAI endpoint for tests. Each path has an
// optional queue of scripted responses consumed one per request, and a
// default response used once the queue is empty.
type MockServer struct {
	server    *httptest.Server
	defaults  map[string]MockResponse
	scripts   map[string][]MockResponse
	requests  []CapturedRequest
	requestMu sync.Mutex
}

// MockResponse defines a mock response configuration.
type MockResponse struct {
	StatusCode int
	Body       interface{}
	Delay      time.Duration
	Headers    map[string]string
}

// CapturedRequest is a request as the server received it.
type CapturedRequest struct {
	Method string
	Path   string
	Query  map[string]string
	Header http.Header
	Body   []byte
}

// NewMockServer creates a new mock server.
func NewMockServer() *MockServer {
	ms := &MockServer{
		defaults: make(map[string]MockResponse),
		scripts:  make(map[string][]MockResponse),
	}
	ms.server = httptest.NewServer(http.HandlerFunc(ms.handler))
	return ms
}

// URL returns the mock server's base URL.
func (ms *MockServer) URL() string {
	return ms.server.URL
}

// Close closes the mock server.
func (ms *MockServer) Close() {
	ms.server.Close()
}

// DeploymentPath returns the chat completions path for a deployment.
func DeploymentPath(deployment string) string {
	return "/openai/deployments/" + deployment + "/chat/completions"
}

// SetResponse sets the default response for a path.
func (ms *MockServer) SetResponse(path string, response MockResponse) {
	ms.requestMu.Lock()
	defer ms.requestMu.Unlock()
	ms.defaults[path] = response
}

// Enqueue appends scripted responses for a path. They are served in order
// before the default response.
func (ms *MockServer) Enqueue(path string, responses ...MockResponse) {
	ms.requestMu.Lock()
	defer ms.requestMu.Unlock()
	ms.scripts[path] = append(ms.scripts[path], responses...)
}

// GetRequestCount returns the number of requests received.
func (ms *MockServer) GetRequestCount() int {
	ms.requestMu.Lock()
	defer ms.requestMu.Unlock()
	return len(ms.requests)
}

// Requests returns a copy of every captured request.
func (ms *MockServer) Requests() []CapturedRequest {
	ms.requestMu.Lock()
	defer ms.requestMu.Unlock()
	out := make([]CapturedRequest, len(ms.requests))
	copy(out, ms.requests)
	return out
}

// LastRequest returns the most recent request, or false if none arrived.
func (ms *MockServer) LastRequest() (CapturedRequest, bool) {
	ms.requestMu.Lock()
	defer ms.requestMu.Unlock()
	if len(ms.requests) == 0 {
		return CapturedRequest{}, false
	}
	return ms.requests[len(ms.requests)-1], true
}

// Reset clears captured requests and scripted responses.
func (ms *MockServer) Reset() {
	ms.requestMu.Lock()
	defer ms.requestMu.Unlock()
	ms.requests = nil
	ms.scripts = make(map[string][]MockResponse)
}

func (ms *MockServer) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	query := make(map[string]string)
	for k := range r.URL.Query() {
		query[k] = r.URL.Query().Get(k)
	}

	ms.requestMu.Lock()
	ms.requests = append(ms.requests, CapturedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  query,
		Header: r.Header.Clone(),
		Body:   body,
	})
	response, ok := ms.next(r.URL.Path)
	ms.requestMu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	if response.Delay > 0 {
		select {
		case <-time.After(response.Delay):
		case <-r.Context().Done():
			return
		}
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(response.StatusCode)

	if response.Body != nil {
		switch v := response.Body.(type) {
		case string:
			_, _ = w.Write([]byte(v))
		case []byte:
			_, _ = w.Write(v)
		default:
			_ = json.NewEncoder(w).Encode(response.Body)
		}
	}
}

// next must be called with requestMu held.
func (ms *MockServer) next(path string) (MockResponse, bool) {
	if queue := ms.scripts[path]; len(queue) > 0 {
		ms.scripts[path] = queue[1:]
		return queue[0], true
	}
	response, ok := ms.defaults[path]
	return response, ok
}

// MockChatResponse creates a chat completion envelope carrying content.
func MockChatResponse(content string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body: map[string]interface{}{
			"id":      "chatcmpl-123",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"choices": []map[string]interface{}{
				{
					"index": 0,
					"message": map[string]interface{}{
						"role":    "assistant",
						"content": content,
					},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]interface{}{
				"prompt_tokens":     10,
				"completion_tokens": 20,
				"total_tokens":      30,
			},
		},
	}
}

// MockErrorResponse creates an Azure style error response.
func MockErrorResponse(statusCode int, message string) MockResponse {
	return MockResponse{
		StatusCode: statusCode,
		Body: map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
				"code":    fmt.Sprintf("%d", statusCode),
			},
		},
	}
}

// MockAuthError creates a 401 authentication error response.
func MockAuthError() MockResponse {
	return MockErrorResponse(http.StatusUnauthorized, "Access denied due to invalid subscription key")
}

// MockThrottled creates a 429 response.
func MockThrottled(retryAfter int) MockResponse {
	response := MockErrorResponse(http.StatusTooManyRequests, "Rate limit is exceeded")
	response.Headers = map[string]string{
		"Retry-After": fmt.Sprintf("%d", retryAfter),
	}
	return response
}

// MockServerError creates a 500 internal server error response.
func MockServerError() MockResponse {
	return MockErrorResponse(http.StatusInternalServerError, "Internal server error")
}

// MockEmptyBody creates a 200 response with no body.
func MockEmptyBody() MockResponse {
	return MockResponse{StatusCode: http.StatusOK}
}

// MockSlow creates a successful response that arrives after delay.
func MockSlow(delay time.Duration) MockResponse {
	response := MockChatResponse(`[]`)
	response.Delay = delay
	return response
}
