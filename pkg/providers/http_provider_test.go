package providers_test

import (
	"context"
	"net/http"
	"testing"

	testhelpers "lcm-hq/intellimap/internal/providers"
	"lcm-hq/intellimap/pkg/providers"
)

const testPath = "/openai/deployments/test/chat/completions"

func TestHTTPProvider_Post(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()
	mock.SetResponse(testPath, testhelpers.MockChatResponse(`[{"a":"b"}]`))

	p := providers.NewHTTPProvider(testhelpers.TestHTTPConfig("azure"))
	defer p.Close()

	resp, err := p.Post(context.Background(), mock.URL()+testPath, []byte(`{}`), map[string]string{"api-key": "secret"})
	testhelpers.AssertNoError(t, err)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	testhelpers.AssertContains(t, string(resp.Body), `"choices"`)

	req, ok := mock.LastRequest()
	if !ok {
		t.Fatal("expected a captured request")
	}
	if req.Header.Get("api-key") != "secret" {
		t.Errorf("expected api-key header, got %q", req.Header.Get("api-key"))
	}
	if req.Header.Get("Content-Type") != "application/json" {
		t.Errorf("expected default content type, got %q", req.Header.Get("Content-Type"))
	}
}

func TestHTTPProvider_Failures(t *testing.T) {
	tests := []struct {
		name     string
		response testhelpers.MockResponse
		class    providers.StatusClass
	}{
		{"auth", testhelpers.MockAuthError(), providers.ClassAuth},
		{"throttled", testhelpers.MockThrottled(1), providers.ClassThrottled},
		{"upstream", testhelpers.MockServerError(), providers.ClassUpstream},
		{"empty body", testhelpers.MockEmptyBody(), providers.ClassEmptyBody},
		{"null body", testhelpers.MockResponse{StatusCode: 200, Body: "null"}, providers.ClassEmptyBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testhelpers.NewMockServer()
			defer mock.Close()
			mock.SetResponse(testPath, tt.response)

			p := providers.NewHTTPProvider(testhelpers.TestHTTPConfig("azure"))
			_, err := p.Post(context.Background(), mock.URL()+testPath, []byte(`{}`), nil)
			testhelpers.AssertError(t, err)

			if got := providers.Classify(err); got != tt.class {
				t.Errorf("expected class %q, got %q (%v)", tt.class, got, err)
			}
			if stats := p.Stats(); stats.FailedRequests != 1 || stats.ConsecutiveFailures != 1 {
				t.Errorf("unexpected stats %+v", stats)
			}
		})
	}
}

func TestHTTPProvider_MisconfiguredDeployment(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	p := providers.NewHTTPProvider(testhelpers.TestHTTPConfig("azure"))
	_, err := p.Post(context.Background(), mock.URL()+"/openai/deployments/missing/chat/completions", nil, nil)

	statusErr := testhelpers.AssertErrorAs[*providers.StatusError](t, err)
	if statusErr.Class() != providers.ClassMisconfiguration {
		t.Errorf("expected misconfiguration, got %q", statusErr.Class())
	}
}

func TestHTTPProvider_NetworkError(t *testing.T) {
	mock := testhelpers.NewMockServer()
	url := mock.URL() + testPath
	mock.Close()

	p := providers.NewHTTPProvider(testhelpers.TestHTTPConfig("azure"))
	_, err := p.Post(context.Background(), url, []byte(`{}`), nil)
	testhelpers.AssertErrorAs[*providers.NetworkError](t, err)
}

func TestHTTPProvider_StatsResetOnSuccess(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()
	mock.Enqueue(testPath, testhelpers.MockServerError())
	mock.SetResponse(testPath, testhelpers.MockChatResponse(`[]`))

	p := providers.NewHTTPProvider(testhelpers.TestHTTPConfig("azure"))
	ctx := context.Background()
	_, _ = p.Post(ctx, mock.URL()+testPath, nil, nil)
	_, err := p.Post(ctx, mock.URL()+testPath, nil, nil)
	testhelpers.AssertNoError(t, err)

	stats := p.Stats()
	if stats.TotalRequests != 2 || stats.FailedRequests != 1 {
		t.Errorf("unexpected counters %+v", stats)
	}
	if stats.ConsecutiveFailures != 0 || stats.LastError != nil {
		t.Errorf("expected failure streak reset, got %+v", stats)
	}
}
