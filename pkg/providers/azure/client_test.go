package azure

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	testhelpers "lcm-hq/intellimap/internal/providers"
	"lcm-hq/intellimap/pkg/providers"
)

func newTestClient(t *testing.T, endpoint string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		Endpoint:   endpoint,
		APIKey:     "test-key",
		Deployment: "mapper",
		Timeout:    2 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{"https://x.openai.azure.com", "https://x.openai.azure.com/openai/deployments/dep/chat/completions?api-version=2023-05-15"},
		{"https://x.openai.azure.com/", "https://x.openai.azure.com/openai/deployments/dep/chat/completions?api-version=2023-05-15"},
		{"https://x.openai.azure.com///", "https://x.openai.azure.com/openai/deployments/dep/chat/completions?api-version=2023-05-15"},
	}
	for _, tt := range tests {
		if got := BuildURL(tt.endpoint, "dep", DefaultAPIVersion); got != tt.want {
			t.Errorf("BuildURL(%q) = %q, want %q", tt.endpoint, got, tt.want)
		}
	}
}

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"missing endpoint", Config{APIKey: "k", Deployment: "d"}, "endpoint"},
		{"missing key", Config{Endpoint: "https://x", Deployment: "d"}, "api_key"},
		{"missing deployment", Config{Endpoint: "https://x", APIKey: "k"}, "deployment"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.cfg)
			var cfgErr *providers.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, cfgErr.Field)
			}
		})
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c := newTestClient(t, "https://x")
	if c.cfg.APIVersion != DefaultAPIVersion {
		t.Errorf("expected api version %s, got %s", DefaultAPIVersion, c.cfg.APIVersion)
	}
	if c.cfg.ConnectTimeout != DefaultConnectTimeout {
		t.Errorf("expected connect timeout %s, got %s", DefaultConnectTimeout, c.cfg.ConnectTimeout)
	}
	if c.Name() != ProviderName {
		t.Errorf("expected name %q, got %q", ProviderName, c.Name())
	}
}

func TestClient_Send(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()
	mock.SetResponse(testhelpers.DeploymentPath("mapper"), testhelpers.MockChatResponse(`[{"field_code":"F1"}]`))

	c := newTestClient(t, mock.URL()+"/")
	req := NewMappingRequest("system prompt", `{"Name":"Bob"}`, 1000, 0.1)

	resp, err := c.Send(context.Background(), req)
	testhelpers.AssertNoError(t, err)

	if got := gjson.GetBytes(resp.Body, "choices.0.message.content").String(); got != `[{"field_code":"F1"}]` {
		t.Errorf("unexpected content %q", got)
	}
	want := providers.Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30}
	if resp.Usage != want {
		t.Errorf("expected usage %+v, got %+v", want, resp.Usage)
	}

	captured, ok := mock.LastRequest()
	if !ok {
		t.Fatal("expected a captured request")
	}
	if captured.Query["api-version"] != DefaultAPIVersion {
		t.Errorf("expected api-version %s, got %q", DefaultAPIVersion, captured.Query["api-version"])
	}
	if captured.Header.Get("api-key") != "test-key" {
		t.Errorf("expected api-key header, got %q", captured.Header.Get("api-key"))
	}

	var body struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float64 `json:"temperature"`
	}
	if err := json.Unmarshal(captured.Body, &body); err != nil {
		t.Fatalf("request body is not JSON: %v", err)
	}
	if len(body.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(body.Messages))
	}
	if body.Messages[0].Role != "system" || body.Messages[0].Content != "system prompt" {
		t.Errorf("unexpected system message %+v", body.Messages[0])
	}
	if body.Messages[1].Role != "user" || body.Messages[1].Content != "InputDictionary:\n{\"Name\":\"Bob\"}" {
		t.Errorf("unexpected user message %+v", body.Messages[1])
	}
	if body.MaxTokens != 1000 || body.Temperature != 0.1 {
		t.Errorf("unexpected completion params %d %v", body.MaxTokens, body.Temperature)
	}
}

func TestClient_SendStatusClasses(t *testing.T) {
	tests := []struct {
		name     string
		response testhelpers.MockResponse
		class    providers.StatusClass
	}{
		{"auth", testhelpers.MockAuthError(), providers.ClassAuth},
		{"throttled", testhelpers.MockThrottled(2), providers.ClassThrottled},
		{"upstream", testhelpers.MockServerError(), providers.ClassUpstream},
		{"empty", testhelpers.MockEmptyBody(), providers.ClassEmptyBody},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testhelpers.NewMockServer()
			defer mock.Close()
			mock.SetResponse(testhelpers.DeploymentPath("mapper"), tt.response)

			c := newTestClient(t, mock.URL())
			_, err := c.Send(context.Background(), NewMappingRequest("s", "{}", 10, 0))
			if got := providers.Classify(err); got != tt.class {
				t.Errorf("expected %q, got %q (%v)", tt.class, got, err)
			}
		})
	}
}

func TestClient_WithRetrier(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()
	path := testhelpers.DeploymentPath("mapper")
	mock.Enqueue(path, testhelpers.MockServerError(), testhelpers.MockThrottled(1))
	mock.SetResponse(path, testhelpers.MockChatResponse(`[]`))

	c := newTestClient(t, mock.URL())
	r := providers.NewRetrier(c, providers.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond})

	out, err := r.Call(context.Background(), NewMappingRequest("s", "{}", 10, 0))
	testhelpers.AssertNoError(t, err)
	if out.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", out.Attempts)
	}
	if mock.GetRequestCount() != 3 {
		t.Errorf("expected 3 requests, got %d", mock.GetRequestCount())
	}
}

func TestClient_Timeout(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()
	mock.SetResponse(testhelpers.DeploymentPath("mapper"), testhelpers.MockSlow(500*time.Millisecond))

	c, err := NewClient(Config{
		Endpoint:   mock.URL(),
		APIKey:     "k",
		Deployment: "mapper",
		Timeout:    50 * time.Millisecond,
	})
	testhelpers.AssertNoError(t, err)
	defer c.Close()

	_, err = c.Send(context.Background(), NewMappingRequest("s", "{}", 10, 0))
	testhelpers.AssertErrorAs[*providers.NetworkError](t, err)
}

func TestDecodeUsage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want providers.Usage
	}{
		{"full", `{"usage":{"prompt_tokens":7,"completion_tokens":3,"total_tokens":10}}`, providers.Usage{PromptTokens: 7, CompletionTokens: 3, TotalTokens: 10}},
		{"missing usage", `{"choices":[]}`, providers.Usage{}},
		{"not json", `upstream proxy error`, providers.Usage{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeUsage([]byte(tt.body)); got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}
