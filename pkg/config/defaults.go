package config

import (
	"time"

	"lcm-hq/intellimap/pkg/jsonscan"
)

// Default values for configuration fields.
const (
	// Azure defaults
	DefaultAPIVersion     = "2023-05-15"
	DefaultTimeout        = 60 * time.Second
	DefaultConnectTimeout = 30 * time.Second

	// Completion defaults
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.1
	DefaultPromptStyle = "strict"

	// Retry defaults
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second

	// Rate limit defaults
	DefaultPerMinute     = 60
	DefaultPerHour       = 1000
	DefaultRateDelay     = time.Second
	DefaultRateStorage   = "memory"
	DefaultSQLitePath    = "data/ratelimit.db"
	DefaultPruneSchedule = "*/10 * * * *"

	// Chunking defaults
	DefaultMaxKeysPerChunk     = 50
	DefaultMaxChunksPerRequest = 10
	DefaultMaxTokensPerChunk   = 3000
	DefaultCharsPerToken       = 4.0

	// Confidence defaults
	DefaultConfidence       = 0.5
	DefaultFallback         = 0.3
	DefaultErrorFallback    = 0.1
	DefaultPerObjectPercent = 75.0

	// Telemetry defaults
	DefaultLoggingLevel   = "info"
	DefaultLoggingFormat  = "json"
	DefaultMetricsPath    = "/metrics"
	DefaultNamespace      = "intellimap"
	DefaultSampler        = "always"
	DefaultSampleRatio    = 1.0
	DefaultServiceName    = "intellimap"
	DefaultTracingTimeout = 10 * time.Second

	// Batch defaults
	DefaultConcurrency = 2

	// Secrets defaults
	DefaultSecretEnvPrefix = "INTELLIMAP_SECRET_"
	DefaultSecretCacheTTL  = 5 * time.Minute
)

// DefaultDurationBuckets are completion latency buckets in seconds.
var DefaultDurationBuckets = []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60}

// ApplyDefaults fills zero-valued fields with their defaults. It is idempotent.
func ApplyDefaults(cfg *Config) {
	az := &cfg.Azure
	if az.APIVersion == "" {
		az.APIVersion = DefaultAPIVersion
	}
	if az.Timeout == 0 {
		az.Timeout = DefaultTimeout
	}
	if az.ConnectTimeout == 0 {
		az.ConnectTimeout = DefaultConnectTimeout
	}

	if cfg.Completion.MaxTokens == 0 {
		cfg.Completion.MaxTokens = DefaultMaxTokens
	}
	if cfg.Completion.Temperature == 0 {
		cfg.Completion.Temperature = DefaultTemperature
	}
	if cfg.Completion.PromptStyle == "" {
		cfg.Completion.PromptStyle = DefaultPromptStyle
	}

	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Retry.BaseDelay == 0 {
		cfg.Retry.BaseDelay = DefaultBaseDelay
	}

	applyRateDefaults(&cfg.Limits.Rate)
	applyChunkingDefaults(&cfg.Chunking)
	applyConfidenceDefaults(&cfg.Confidence)

	if len(cfg.Parsing.Blacklist) == 0 {
		cfg.Parsing.Blacklist = append([]string(nil), jsonscan.DefaultBlacklist...)
	}

	applyTelemetryDefaults(&cfg.Telemetry)

	if cfg.Batch.Concurrency == 0 {
		cfg.Batch.Concurrency = DefaultConcurrency
	}

	if cfg.Secrets.EnvPrefix == "" {
		cfg.Secrets.EnvPrefix = DefaultSecretEnvPrefix
	}
	if cfg.Secrets.CacheTTL == 0 {
		cfg.Secrets.CacheTTL = DefaultSecretCacheTTL
	}
}

func applyRateDefaults(rate *RateLimitConfig) {
	if rate.PerMinute == 0 {
		rate.PerMinute = DefaultPerMinute
	}
	if rate.PerHour == 0 {
		rate.PerHour = DefaultPerHour
	}
	if rate.Delay == 0 {
		rate.Delay = DefaultRateDelay
	}
	if rate.Storage == "" {
		rate.Storage = DefaultRateStorage
	}
	if rate.SQLitePath == "" {
		rate.SQLitePath = DefaultSQLitePath
	}
	if rate.PruneSchedule == "" {
		rate.PruneSchedule = DefaultPruneSchedule
	}
}

func applyChunkingDefaults(c *ChunkingConfig) {
	if c.MaxKeysPerChunk == 0 {
		c.MaxKeysPerChunk = DefaultMaxKeysPerChunk
	}
	if c.MaxChunksPerRequest == 0 {
		c.MaxChunksPerRequest = DefaultMaxChunksPerRequest
	}
	if c.MaxTokensPerChunk == 0 {
		c.MaxTokensPerChunk = DefaultMaxTokensPerChunk
	}
	if c.CharsPerToken == 0 {
		c.CharsPerToken = DefaultCharsPerToken
	}
}

func applyConfidenceDefaults(c *ConfidenceConfig) {
	if c.Default == 0 {
		c.Default = DefaultConfidence
	}
	if c.Fallback == 0 {
		c.Fallback = DefaultFallback
	}
	if c.ErrorFallback == 0 {
		c.ErrorFallback = DefaultErrorFallback
	}
	if c.DefaultPerObject == 0 {
		c.DefaultPerObject = DefaultPerObjectPercent
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLoggingLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLoggingFormat
	}

	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultNamespace
	}
	if len(t.Metrics.DurationBuckets) == 0 {
		t.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}

	if t.Tracing.Sampler == "" {
		t.Tracing.Sampler = DefaultSampler
	}
	if t.Tracing.SampleRatio == 0 {
		t.Tracing.SampleRatio = DefaultSampleRatio
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultServiceName
	}
	if t.Tracing.Timeout == 0 {
		t.Tracing.Timeout = DefaultTracingTimeout
	}
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
