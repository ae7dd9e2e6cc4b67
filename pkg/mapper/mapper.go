package mapper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"lcm-hq/intellimap/pkg/catalog"
	"lcm-hq/intellimap/pkg/config"
	"lcm-hq/intellimap/pkg/format"
	"lcm-hq/intellimap/pkg/limits/ratelimit"
	"lcm-hq/intellimap/pkg/normalize"
	"lcm-hq/intellimap/pkg/processing/tokens"
	"lcm-hq/intellimap/pkg/providers"
	"lcm-hq/intellimap/pkg/providers/azure"
	"lcm-hq/intellimap/pkg/telemetry/logging"
	"lcm-hq/intellimap/pkg/telemetry/tracing"
)

// ClientIDPrefix starts every generated rate-limit identity.
const ClientIDPrefix = "intellimap_"

// Config collects the tunables of a Mapper.
type Config struct {
	MaxTokens   int
	Temperature float64
	PromptStyle catalog.Style

	Timeout        time.Duration
	ConnectTimeout time.Duration

	Retry providers.RetryConfig

	MaxKeysPerChunk     int
	MaxChunksPerRequest int
	MaxTokensPerChunk   int
	CharsPerToken       float64

	Confidence normalize.Config
	Blacklist  []string
}

// ConfigFrom derives a mapper Config from the loaded configuration.
func ConfigFrom(cfg *config.Config) Config {
	style, ok := catalog.ParseStyle(cfg.Completion.PromptStyle)
	if !ok {
		style = catalog.StyleStrict
	}
	return Config{
		MaxTokens:      cfg.Completion.MaxTokens,
		Temperature:    cfg.Completion.Temperature,
		PromptStyle:    style,
		Timeout:        cfg.Azure.Timeout,
		ConnectTimeout: cfg.Azure.ConnectTimeout,
		Retry: providers.RetryConfig{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
		},
		MaxKeysPerChunk:     cfg.Chunking.MaxKeysPerChunk,
		MaxChunksPerRequest: cfg.Chunking.MaxChunksPerRequest,
		MaxTokensPerChunk:   cfg.Chunking.MaxTokensPerChunk,
		CharsPerToken:       cfg.Chunking.CharsPerToken,
		Confidence: normalize.Config{
			Default:       cfg.Confidence.Default,
			Fallback:      cfg.Confidence.Fallback,
			ErrorFallback: cfg.Confidence.ErrorFallback,
			PerObject:     cfg.Confidence.DefaultPerObject,
		},
		Blacklist: cfg.Parsing.Blacklist,
	}
}

// DefaultConfig returns the mapper settings of config.Default().
func DefaultConfig() Config {
	return ConfigFrom(config.Default())
}

// Recorder observes batch outcomes, typically for metrics.
type Recorder interface {
	RecordCompletion(class string, attempts int, duration time.Duration)
	RecordRecord(state string)
	RecordBatchConfidence(confidence float64)
}

// ClientFactory builds the completion client for one invocation.
type ClientFactory func(cfg azure.Config) (providers.Client, error)

// Mapper runs invocations end to end: parse, chunk, rate-limit, call with
// retry, normalize. A Mapper is safe for concurrent Map calls; they share
// its Limiter.
type Mapper struct {
	cfg       Config
	limiter   *ratelimit.Limiter
	parser    *format.Parser
	norm      *normalize.Normalizer
	estimator *tokens.SimpleEstimator
	logger    *slog.Logger
	tracer    trace.Tracer
	recorder  Recorder
	factory   ClientFactory
	http      *http.Client
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithLogger sets the logger. A logging.Logger handler adds the batch,
// client and record IDs carried by the context.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mapper) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithTracer sets the tracer for batch and record spans.
func WithTracer(t trace.Tracer) Option {
	return func(m *Mapper) {
		if t != nil {
			m.tracer = t
		}
	}
}

// WithRecorder sets the outcome observer. If r also implements
// normalize.PathRecorder it receives recovery paths.
func WithRecorder(r Recorder) Option {
	return func(m *Mapper) { m.recorder = r }
}

// WithHTTPClient makes the default client factory use hc.
func WithHTTPClient(hc *http.Client) Option {
	return func(m *Mapper) { m.http = hc }
}

// WithClientFactory replaces how completion clients are built.
func WithClientFactory(f ClientFactory) Option {
	return func(m *Mapper) { m.factory = f }
}

// New creates a Mapper. limiter is required and is usually shared.
func New(cfg Config, limiter *ratelimit.Limiter, opts ...Option) (*Mapper, error) {
	if limiter == nil {
		return nil, errors.New("mapper: rate limiter is required")
	}
	if cfg.PromptStyle == "" {
		cfg.PromptStyle = catalog.StyleStrict
	}

	m := &Mapper{
		cfg:     cfg,
		limiter: limiter,
		logger:  slog.Default(),
		tracer:  otel.Tracer(tracing.InstrumentationName),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.parser = format.NewParser(format.WithBlacklist(cfg.Blacklist), format.WithLogger(m.logger))
	normOpts := []normalize.Option{
		normalize.WithScanner(m.parser.Scanner()),
		normalize.WithLogger(m.logger),
	}
	if pr, ok := m.recorder.(normalize.PathRecorder); ok {
		normOpts = append(normOpts, normalize.WithRecorder(pr))
	}
	m.norm = normalize.New(cfg.Confidence, normOpts...)
	m.estimator = tokens.NewSimpleEstimator(cfg.CharsPerToken)

	if m.factory == nil {
		m.factory = m.azureClient
	}
	return m, nil
}

func (m *Mapper) azureClient(cfg azure.Config) (providers.Client, error) {
	opts := []azure.Option{azure.WithTracer(m.tracer)}
	if m.http != nil {
		opts = append(opts, azure.WithHTTPClient(m.http))
	}
	return azure.NewClient(cfg, opts...)
}

// Parser returns the parser used for record input.
func (m *Mapper) Parser() *format.Parser {
	return m.parser
}

// run is the per-invocation state shared by every record of a batch.
type run struct {
	batchID  string
	clientID string
	prompt   string
	retrier  *providers.Retrier
}

// Map processes inv. Invalid invocations fail with a *ValidationError before
// any request; input that cannot be parsed at all fails with a
// *format.FormatError. Past that point per-record failures are recorded in
// the result and never fail the call. If ctx ends the partial result is
// returned together with a *CancellationError.
func (m *Mapper) Map(ctx context.Context, inv Invocation) (*AggregateResult, error) {
	started := time.Now()
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	cat, err := catalog.Parse(inv.TargetFields)
	if err != nil {
		return nil, &ValidationError{Errors: []FieldError{{Field: "target_fields", Message: fieldMessages["TargetFields"]}}}
	}

	client, err := m.factory(azure.Config{
		Endpoint:       inv.Endpoint,
		APIKey:         inv.APIKey,
		Deployment:     inv.Deployment,
		APIVersion:     inv.APIVersion,
		Timeout:        m.cfg.Timeout,
		ConnectTimeout: m.cfg.ConnectTimeout,
	})
	if err != nil {
		var cerr *providers.ConfigError
		if errors.As(err, &cerr) {
			return nil, &ValidationError{Errors: []FieldError{{Field: cerr.Field, Message: cerr.Message}}}
		}
		return nil, fmt.Errorf("create completion client: %w", err)
	}

	r := &run{
		batchID:  uuid.NewString(),
		clientID: inv.ClientID,
		prompt:   catalog.Build(m.cfg.PromptStyle, inv.UserPrompt, cat),
		retrier:  providers.NewRetrier(client, m.cfg.Retry, providers.WithRetryLogger(m.logger)),
	}
	if r.clientID == "" {
		r.clientID = ClientIDPrefix + uuid.NewString()
	}

	ctx = logging.WithBatchID(ctx, r.batchID)
	ctx = logging.WithClientID(ctx, r.clientID)
	ctx, span := m.tracer.Start(ctx, "intellimap.batch")
	defer span.End()
	tracing.SetBatchAttributes(span, r.batchID, r.clientID)

	result := &AggregateResult{BatchID: r.batchID, ClientID: r.clientID}

	f, recs, err := m.parser.ParseInput(inv.Input)
	result.Format = f.String()
	span.SetAttributes(attribute.String(tracing.AttrFormat, result.Format))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.logger.ErrorContext(ctx, "input could not be parsed", "format", result.Format, "error", err)
		return nil, err
	}

	span.SetAttributes(attribute.Int(tracing.AttrRecordCount, len(recs)))
	m.logger.InfoContext(ctx, "batch started",
		"format", result.Format,
		"records", len(recs),
		"target_fields", cat.Len(),
	)

	for i, rec := range recs {
		outcome, cerr := m.mapRecord(ctx, r, i, rec)
		if outcome.State.Final() {
			result.add(outcome)
			m.recordState(outcome.State)
		}
		if cerr != nil {
			cerr.Processed = len(result.Records)
			result.finish(started)
			span.RecordError(cerr)
			span.SetStatus(codes.Error, cerr.Error())
			m.logger.WarnContext(ctx, "batch cancelled",
				"processed", cerr.Processed,
				"records", len(recs),
				"error", cerr.Cause,
			)
			return result, cerr
		}
	}

	result.finish(started)
	if m.recorder != nil && result.Succeeded > 0 {
		m.recorder.RecordBatchConfidence(result.Confidence)
	}
	span.SetAttributes(attribute.Int(tracing.AttrFieldCount, len(result.Fields)))
	span.SetAttributes(attribute.Float64(tracing.AttrConfidence, result.Confidence))
	span.SetStatus(codes.Ok, "")

	m.logger.InfoContext(ctx, "batch finished",
		"succeeded", result.Succeeded,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"fields", len(result.Fields),
		"confidence", result.Confidence,
		"duration", result.Duration,
	)
	return result, nil
}

func (m *Mapper) recordState(s State) {
	if m.recorder != nil {
		m.recorder.RecordRecord(string(s))
	}
}
