package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "azure.endpoint").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate checks the configuration and returns a ValidationError listing
// every failed rule, or nil. Azure credentials may be absent here; they are
// supplied per invocation and checked by RequireAzure.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateAzure(&cfg.Azure)...)
	errs = append(errs, validateCompletion(&cfg.Completion)...)
	errs = append(errs, validateRetry(&cfg.Retry)...)
	errs = append(errs, validateRate(&cfg.Limits.Rate)...)
	errs = append(errs, validateChunking(&cfg.Chunking)...)
	errs = append(errs, validateConfidence(&cfg.Confidence)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if cfg.Secrets.CacheTTL < 0 {
		errs = append(errs, FieldError{Field: "secrets.cache_ttl", Message: "cache TTL must not be negative"})
	}

	if cfg.Batch.Concurrency < 1 {
		errs = append(errs, FieldError{
			Field:   "batch.concurrency",
			Message: "concurrency must be at least 1",
		})
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// RequireAzure reports missing Azure connection fields.
func RequireAzure(cfg *AzureConfig) error {
	var errs []FieldError
	if cfg.Endpoint == "" {
		errs = append(errs, FieldError{Field: "azure.endpoint", Message: "endpoint is required"})
	}
	if cfg.APIKey == "" {
		errs = append(errs, FieldError{Field: "azure.api_key", Message: "api key is required"})
	}
	if cfg.Deployment == "" {
		errs = append(errs, FieldError{Field: "azure.deployment", Message: "deployment is required"})
	}
	if cfg.APIVersion == "" {
		errs = append(errs, FieldError{Field: "azure.api_version", Message: "api version is required"})
	}
	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateAzure(cfg *AzureConfig) []FieldError {
	var errs []FieldError

	// Secret references are checked once resolved.
	if cfg.Endpoint != "" && !strings.Contains(cfg.Endpoint, "${secret:") {
		u, err := url.Parse(cfg.Endpoint)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, FieldError{
				Field:   "azure.endpoint",
				Message: fmt.Sprintf("invalid endpoint URL %q", cfg.Endpoint),
			})
		}
	}
	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{Field: "azure.timeout", Message: "timeout must not be negative"})
	}
	if cfg.ConnectTimeout < 0 {
		errs = append(errs, FieldError{Field: "azure.connect_timeout", Message: "connect timeout must not be negative"})
	}

	return errs
}

func validateCompletion(cfg *CompletionConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxTokens < 1 {
		errs = append(errs, FieldError{Field: "completion.max_tokens", Message: "max tokens must be at least 1"})
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		errs = append(errs, FieldError{Field: "completion.temperature", Message: "temperature must be between 0 and 2"})
	}
	if cfg.PromptStyle != "strict" && cfg.PromptStyle != "fields" {
		errs = append(errs, FieldError{
			Field:   "completion.prompt_style",
			Message: fmt.Sprintf("invalid prompt style %q: must be 'strict' or 'fields'", cfg.PromptStyle),
		})
	}

	return errs
}

func validateRetry(cfg *RetryConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxAttempts < 1 {
		errs = append(errs, FieldError{Field: "retry.max_attempts", Message: "max attempts must be at least 1"})
	}
	if cfg.BaseDelay < 0 {
		errs = append(errs, FieldError{Field: "retry.base_delay", Message: "base delay must not be negative"})
	}

	return errs
}

func validateRate(cfg *RateLimitConfig) []FieldError {
	var errs []FieldError

	if cfg.PerMinute < 0 {
		errs = append(errs, FieldError{Field: "limits.rate.per_minute", Message: "per-minute limit must not be negative"})
	}
	if cfg.PerHour < 0 {
		errs = append(errs, FieldError{Field: "limits.rate.per_hour", Message: "per-hour limit must not be negative"})
	}
	if cfg.Delay < 0 {
		errs = append(errs, FieldError{Field: "limits.rate.delay", Message: "delay must not be negative"})
	}

	switch cfg.Storage {
	case "memory":
	case "sqlite":
		if cfg.SQLitePath == "" {
			errs = append(errs, FieldError{
				Field:   "limits.rate.sqlite_path",
				Message: "sqlite path is required when storage is 'sqlite'",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "limits.rate.storage",
			Message: fmt.Sprintf("invalid storage %q: must be 'memory' or 'sqlite'", cfg.Storage),
		})
	}

	if _, err := cron.ParseStandard(cfg.PruneSchedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "limits.rate.prune_schedule",
			Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.PruneSchedule, err),
		})
	}

	return errs
}

func validateChunking(cfg *ChunkingConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxKeysPerChunk < 1 {
		errs = append(errs, FieldError{Field: "chunking.max_keys_per_chunk", Message: "must be at least 1"})
	}
	if cfg.MaxChunksPerRequest < 1 {
		errs = append(errs, FieldError{Field: "chunking.max_chunks_per_request", Message: "must be at least 1"})
	}
	if cfg.MaxTokensPerChunk < 1 {
		errs = append(errs, FieldError{Field: "chunking.max_tokens_per_chunk", Message: "must be at least 1"})
	}
	if cfg.CharsPerToken <= 0 {
		errs = append(errs, FieldError{Field: "chunking.chars_per_token", Message: "must be positive"})
	}

	return errs
}

func validateConfidence(cfg *ConfidenceConfig) []FieldError {
	var errs []FieldError

	for field, v := range map[string]float64{
		"confidence.default":        cfg.Default,
		"confidence.fallback":       cfg.Fallback,
		"confidence.error_fallback": cfg.ErrorFallback,
	} {
		if v < 0 || v > 1 {
			errs = append(errs, FieldError{Field: field, Message: "must be between 0.0 and 1.0"})
		}
	}
	if cfg.DefaultPerObject < 0 || cfg.DefaultPerObject > 100 {
		errs = append(errs, FieldError{Field: "confidence.default_per_object", Message: "must be between 0 and 100"})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	for i, p := range cfg.Logging.RedactPatterns {
		if p.Name == "" || p.Pattern == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d]", i),
				Message: "name and pattern are required",
			})
		}
	}

	if cfg.Metrics.Path == "" || !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with '/'",
		})
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	switch cfg.Tracing.Sampler {
	case "always", "never", "ratio":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	return errs
}
