package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"lcm-hq/intellimap/pkg/providers"
	"lcm-hq/intellimap/pkg/telemetry/tracing"
)

const (
	// ProviderName identifies this client in errors, logs and metrics.
	ProviderName = "azure"

	DefaultAPIVersion     = "2023-05-15"
	DefaultTimeout        = 60 * time.Second
	DefaultConnectTimeout = 30 * time.Second

	tracerName = "lcm-hq/intellimap/azure"
)

// Config holds the connection settings for one deployment.
type Config struct {
	Endpoint       string
	APIKey         string
	Deployment     string
	APIVersion     string
	Timeout        time.Duration
	ConnectTimeout time.Duration
}

// Client calls one Azure OpenAI deployment.
type Client struct {
	*providers.HTTPProvider
	cfg    Config
	url    string
	tracer trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the pooled transport, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.HTTPProvider = providers.NewHTTPProviderWithClient(c.HTTPProvider.Config(), hc)
	}
}

// WithTracer sets the tracer used for completion spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

// NewClient validates cfg and creates a client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	c := &Client{
		HTTPProvider: providers.NewHTTPProvider(providers.HTTPConfig{
			Name:                ProviderName,
			Timeout:             cfg.Timeout,
			ConnectTimeout:      cfg.ConnectTimeout,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		}),
		cfg:    cfg,
		url:    BuildURL(cfg.Endpoint, cfg.Deployment, cfg.APIVersion),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func validateConfig(cfg Config) error {
	switch {
	case strings.TrimSpace(cfg.Endpoint) == "":
		return &providers.ConfigError{Provider: ProviderName, Field: "endpoint", Message: "endpoint is required"}
	case strings.TrimSpace(cfg.APIKey) == "":
		return &providers.ConfigError{Provider: ProviderName, Field: "api_key", Message: "api key is required"}
	case strings.TrimSpace(cfg.Deployment) == "":
		return &providers.ConfigError{Provider: ProviderName, Field: "deployment", Message: "deployment is required"}
	}
	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return &providers.ConfigError{Provider: ProviderName, Field: "endpoint", Message: err.Error()}
	}
	return nil
}

// BuildURL returns the chat completions URL for a deployment. Trailing
// slashes on endpoint are dropped.
func BuildURL(endpoint, deployment, apiVersion string) string {
	return strings.TrimRight(endpoint, "/") +
		"/openai/deployments/" + url.PathEscape(deployment) +
		"/chat/completions?api-version=" + url.QueryEscape(apiVersion)
}

// URL returns the request URL this client posts to.
func (c *Client) URL() string {
	return c.url
}

// Deployment returns the configured deployment name.
func (c *Client) Deployment() string {
	return c.cfg.Deployment
}

// Send implements providers.Client.
func (c *Client) Send(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	ctx, span := c.tracer.Start(ctx, "intellimap.completion",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(tracing.AttrProvider, ProviderName),
			attribute.String(tracing.AttrDeployment, c.cfg.Deployment),
			attribute.Int(tracing.AttrMaxTokens, req.MaxTokens),
		),
	)
	defer span.End()

	body, err := json.Marshal(transformRequest(req))
	if err != nil {
		err = fmt.Errorf("failed to marshal request: %w", err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	headers := map[string]string{
		"Content-Type": "application/json",
		"api-key":      c.cfg.APIKey,
	}
	tracing.InjectToMap(ctx, headers)

	resp, err := c.Post(ctx, c.url, body, headers)
	span.SetAttributes(attribute.String(tracing.AttrStatusClass, string(providers.Classify(err))))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	resp.Usage = decodeUsage(resp.Body)
	span.SetAttributes(
		attribute.Int64(tracing.AttrLatency, resp.Latency.Milliseconds()),
		attribute.Int(tracing.AttrPromptTokens, resp.Usage.PromptTokens),
		attribute.Int(tracing.AttrCompletionTokens, resp.Usage.CompletionTokens),
	)
	span.SetStatus(codes.Ok, "")
	return resp, nil
}
