package providers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// HTTPProvider is the base for HTTP completion clients. It owns the pooled
// transport, classifies responses and keeps request counters. Concrete
// clients build the URL, headers and body and call Post.
type HTTPProvider struct {
	config HTTPConfig
	client *http.Client

	stats   ClientStats
	statsMu sync.RWMutex
}

// NewHTTPProvider creates a base HTTP provider with connection pooling.
func NewHTTPProvider(config HTTPConfig) *HTTPProvider {
	dialer := &net.Dialer{
		Timeout:   config.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: config.ConnectTimeout,
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &HTTPProvider{
		config: config,
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
	}
}

// NewHTTPProviderWithClient wraps an existing http.Client.
func NewHTTPProviderWithClient(config HTTPConfig, client *http.Client) *HTTPProvider {
	return &HTTPProvider{config: config, client: client}
}

// Name returns the provider's configured name.
func (p *HTTPProvider) Name() string {
	return p.config.Name
}

// Config returns the transport configuration.
func (p *HTTPProvider) Config() HTTPConfig {
	return p.config
}

// Stats returns a snapshot of the request counters.
func (p *HTTPProvider) Stats() ClientStats {
	p.statsMu.RLock()
	defer p.statsMu.RUnlock()
	return p.stats
}

func (p *HTTPProvider) record(err error) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()

	p.stats.TotalRequests++
	if err == nil {
		p.stats.ConsecutiveFailures = 0
		p.stats.LastError = nil
		p.stats.LastSuccess = time.Now()
		return
	}
	p.stats.FailedRequests++
	p.stats.ConsecutiveFailures++
	p.stats.LastError = err
}

// Post sends body to url and classifies the outcome. Only a 200 with a
// non-empty, non-null body is a success.
func (p *HTTPProvider) Post(ctx context.Context, url string, body []byte, headers map[string]string) (*CompletionResponse, error) {
	resp, err := p.post(ctx, url, body, headers)
	p.record(err)
	return resp, err
}

func (p *HTTPProvider) post(ctx context.Context, url string, body []byte, headers map[string]string) (*CompletionResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	slog.Debug("sending request to provider",
		"provider", p.config.Name,
		"bytes", len(body),
	)

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &NetworkError{Provider: p.config.Name, Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Provider: p.config.Name, Cause: fmt.Errorf("failed to read response: %w", err)}
	}
	latency := time.Since(start)

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{
			Provider: p.config.Name,
			Code:     resp.StatusCode,
			Body:     string(data),
		}
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, &EmptyBodyError{Provider: p.config.Name}
	}

	return &CompletionResponse{
		StatusCode: resp.StatusCode,
		Body:       data,
		Latency:    latency,
	}, nil
}

// Close releases idle connections.
func (p *HTTPProvider) Close() error {
	p.client.CloseIdleConnections()
	slog.Debug("provider closed", "provider", p.config.Name)
	return nil
}
