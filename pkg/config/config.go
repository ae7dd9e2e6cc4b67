package config

import "time"

// Config is the root configuration for IntelliMap.
type Config struct {
	// Azure contains the Azure OpenAI connection settings.
	Azure AzureConfig `yaml:"azure"`

	// Completion contains chat completion request parameters.
	Completion CompletionConfig `yaml:"completion"`

	// Retry controls the completion retry policy.
	Retry RetryConfig `yaml:"retry"`

	// Limits contains rate limiting configuration.
	Limits LimitsConfig `yaml:"limits"`

	// Chunking controls how oversized records are split.
	Chunking ChunkingConfig `yaml:"chunking"`

	// Confidence holds the fixed confidence constants used by normalization.
	Confidence ConfidenceConfig `yaml:"confidence"`

	// Parsing contains input format detection settings.
	Parsing ParsingConfig `yaml:"parsing"`

	// Telemetry contains logging, metrics and tracing configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Batch controls how several inputs are processed together.
	Batch BatchConfig `yaml:"batch"`

	// Secrets controls how ${secret:name} references are resolved.
	Secrets SecretsConfig `yaml:"secrets"`
}

// AzureConfig contains Azure OpenAI connection settings.
type AzureConfig struct {
	// Endpoint is the resource URL, e.g. "https://myres.openai.azure.com".
	Endpoint string `yaml:"endpoint"`

	// APIKey is sent in the api-key header.
	APIKey string `yaml:"api_key"`

	// Deployment is the model deployment name.
	Deployment string `yaml:"deployment"`

	// APIVersion is the api-version query parameter.
	// Default: "2023-05-15"
	APIVersion string `yaml:"api_version"`

	// Timeout is the overall request timeout.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// ConnectTimeout bounds connection establishment.
	// Default: 30s
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// CompletionConfig contains chat completion parameters.
type CompletionConfig struct {
	// MaxTokens is the max_tokens request field.
	// Default: 1000
	MaxTokens int `yaml:"max_tokens"`

	// Temperature is the sampling temperature.
	// Default: 0.1
	Temperature float64 `yaml:"temperature"`

	// PromptStyle selects the system prompt requirements block.
	// Options: "strict", "fields"
	// Default: "strict"
	PromptStyle string `yaml:"prompt_style"`
}

// RetryConfig controls completion retries.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Default: 3
	MaxAttempts int `yaml:"max_attempts"`

	// BaseDelay scales the exponential backoff (2x, 4x, ...).
	// Default: 1s
	BaseDelay time.Duration `yaml:"base_delay"`
}

// LimitsConfig contains limit configuration.
type LimitsConfig struct {
	// Rate contains the fixed-window rate limiter settings.
	Rate RateLimitConfig `yaml:"rate"`
}

// RateLimitConfig contains fixed-window rate limiter settings.
type RateLimitConfig struct {
	// PerMinute is the minute-window capacity.
	// Default: 60
	PerMinute int `yaml:"per_minute"`

	// PerHour is the hour-window capacity.
	// Default: 1000
	PerHour int `yaml:"per_hour"`

	// Delay is the pause after every admitted request.
	// Default: 1s
	Delay time.Duration `yaml:"delay"`

	// Storage selects the window store.
	// Options: "memory", "sqlite"
	// Default: "memory"
	Storage string `yaml:"storage"`

	// SQLitePath is the database file when Storage is "sqlite".
	// Default: "data/ratelimit.db"
	SQLitePath string `yaml:"sqlite_path"`

	// PruneSchedule is the cron expression for window pruning in watch mode.
	// Default: "*/10 * * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// ChunkingConfig controls record splitting.
type ChunkingConfig struct {
	// MaxKeysPerChunk bounds the keys sent in one request.
	// Default: 50
	MaxKeysPerChunk int `yaml:"max_keys_per_chunk"`

	// MaxChunksPerRequest caps the chunks processed per record.
	// Default: 10
	MaxChunksPerRequest int `yaml:"max_chunks_per_request"`

	// MaxTokensPerChunk is the estimate above which a record is chunked.
	// Default: 3000
	MaxTokensPerChunk int `yaml:"max_tokens_per_chunk"`

	// CharsPerToken is the token estimation ratio.
	// Default: 4.0
	CharsPerToken float64 `yaml:"chars_per_token"`
}

// ConfidenceConfig holds fixed confidence constants.
type ConfidenceConfig struct {
	// Default is used for an empty mapped field list.
	// Default: 0.5
	Default float64 `yaml:"default"`

	// Fallback is used when structured output could not be repaired.
	// Default: 0.3
	Fallback float64 `yaml:"fallback"`

	// ErrorFallback is used when output had no structure at all.
	// Default: 0.1
	ErrorFallback float64 `yaml:"error_fallback"`

	// DefaultPerObject is assumed when no object states a confidence.
	// Default: 75
	DefaultPerObject float64 `yaml:"default_per_object"`
}

// ParsingConfig contains input parsing settings.
type ParsingConfig struct {
	// Blacklist lists bare words that never count as JSON tokens.
	// Default: the jsonscan default blacklist
	Blacklist []string `yaml:"blacklist"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	AddSource bool `yaml:"add_source"`

	// Redact masks credentials in log output. Nil means enabled.
	Redact *bool `yaml:"redact"`

	// RedactPatterns contains additional redaction patterns.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactEnabled reports whether redaction is on.
func (c LoggingConfig) RedactEnabled() bool {
	return c.Redact == nil || *c.Redact
}

// RedactPattern defines a custom redaction pattern.
type RedactPattern struct {
	// Name identifies the pattern.
	Name string `yaml:"name"`

	// Pattern is a regular expression.
	Pattern string `yaml:"pattern"`

	// Replacement is substituted for each match.
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are recorded.
	Enabled bool `yaml:"enabled"`

	// Address is the listen address for the metrics endpoint; empty disables it.
	Address string `yaml:"address"`

	// Path is the HTTP path for the Prometheus endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "intellimap"
	Namespace string `yaml:"namespace"`

	// DurationBuckets are histogram buckets for completion latency (seconds).
	// Default: [0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60]
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces sampled when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector address, e.g. "localhost:4317".
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service.name resource attribute.
	// Default: "intellimap"
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS on the exporter connection.
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// BatchConfig controls multi-input processing.
type BatchConfig struct {
	// Concurrency is the number of inputs mapped at once.
	// Default: 2
	Concurrency int `yaml:"concurrency"`
}

// SecretsConfig configures secret reference resolution for the Azure
// settings.
type SecretsConfig struct {
	// EnvPrefix namespaces secrets read from the environment.
	// Default: "INTELLIMAP_SECRET_"
	EnvPrefix string `yaml:"env_prefix"`

	// Dir holds one file per secret. Empty disables the file provider.
	Dir string `yaml:"dir"`

	// Watch clears cached file secrets when files in Dir change.
	Watch bool `yaml:"watch"`

	// CacheTTL is how long a resolved value is reused.
	// Default: 5m
	CacheTTL time.Duration `yaml:"cache_ttl"`
}
