package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "INTELLIMAP_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// Environment variables are not consulted; use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse unmarshals YAML and applies defaults without validating.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides named INTELLIMAP_<SECTION>_<FIELD>, for
// example INTELLIMAP_AZURE_ENDPOINT or INTELLIMAP_LIMITS_RATE_PER_MINUTE.
// Environment variables take precedence over the file.
//
// The loading sequence is:
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv builds a configuration from defaults and environment overrides
// alone, for runs without a configuration file.
func LoadFromEnv() (*Config, error) {
	cfg := Default()

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies INTELLIMAP_* variables to cfg. A variable that is
// set but cannot be parsed is an error.
func applyEnvOverrides(cfg *Config) error {
	var errs []FieldError
	o := &overrider{errs: &errs}

	// Azure
	o.str("AZURE_ENDPOINT", &cfg.Azure.Endpoint)
	o.str("AZURE_API_KEY", &cfg.Azure.APIKey)
	o.str("AZURE_DEPLOYMENT", &cfg.Azure.Deployment)
	o.str("AZURE_API_VERSION", &cfg.Azure.APIVersion)
	o.duration("AZURE_TIMEOUT", &cfg.Azure.Timeout)
	o.duration("AZURE_CONNECT_TIMEOUT", &cfg.Azure.ConnectTimeout)

	// Completion
	o.integer("COMPLETION_MAX_TOKENS", &cfg.Completion.MaxTokens)
	o.float("COMPLETION_TEMPERATURE", &cfg.Completion.Temperature)
	o.str("COMPLETION_PROMPT_STYLE", &cfg.Completion.PromptStyle)

	// Retry
	o.integer("RETRY_MAX_ATTEMPTS", &cfg.Retry.MaxAttempts)
	o.duration("RETRY_BASE_DELAY", &cfg.Retry.BaseDelay)

	// Rate limits
	o.integer("LIMITS_RATE_PER_MINUTE", &cfg.Limits.Rate.PerMinute)
	o.integer("LIMITS_RATE_PER_HOUR", &cfg.Limits.Rate.PerHour)
	o.duration("LIMITS_RATE_DELAY", &cfg.Limits.Rate.Delay)
	o.str("LIMITS_RATE_STORAGE", &cfg.Limits.Rate.Storage)
	o.str("LIMITS_RATE_SQLITE_PATH", &cfg.Limits.Rate.SQLitePath)
	o.str("LIMITS_RATE_PRUNE_SCHEDULE", &cfg.Limits.Rate.PruneSchedule)

	// Chunking
	o.integer("CHUNKING_MAX_KEYS_PER_CHUNK", &cfg.Chunking.MaxKeysPerChunk)
	o.integer("CHUNKING_MAX_CHUNKS_PER_REQUEST", &cfg.Chunking.MaxChunksPerRequest)
	o.integer("CHUNKING_MAX_TOKENS_PER_CHUNK", &cfg.Chunking.MaxTokensPerChunk)
	o.float("CHUNKING_CHARS_PER_TOKEN", &cfg.Chunking.CharsPerToken)

	// Confidence
	o.float("CONFIDENCE_DEFAULT", &cfg.Confidence.Default)
	o.float("CONFIDENCE_FALLBACK", &cfg.Confidence.Fallback)
	o.float("CONFIDENCE_ERROR_FALLBACK", &cfg.Confidence.ErrorFallback)
	o.float("CONFIDENCE_DEFAULT_PER_OBJECT", &cfg.Confidence.DefaultPerObject)

	// Parsing
	if val, ok := lookup("PARSING_BLACKLIST"); ok {
		cfg.Parsing.Blacklist = splitList(val)
	}

	// Telemetry
	o.str("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	o.str("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	o.boolean("TELEMETRY_LOGGING_ADD_SOURCE", &cfg.Telemetry.Logging.AddSource)
	if val, ok := lookup("TELEMETRY_LOGGING_REDACT"); ok {
		b, err := strconv.ParseBool(val)
		if err != nil {
			errs = append(errs, envError("TELEMETRY_LOGGING_REDACT", val, err))
		} else {
			cfg.Telemetry.Logging.Redact = &b
		}
	}
	o.boolean("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	o.str("TELEMETRY_METRICS_ADDRESS", &cfg.Telemetry.Metrics.Address)
	o.str("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	o.boolean("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	o.str("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	o.str("TELEMETRY_TRACING_SAMPLER", &cfg.Telemetry.Tracing.Sampler)
	o.float("TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)
	o.boolean("TELEMETRY_TRACING_INSECURE", &cfg.Telemetry.Tracing.Insecure)

	// Batch
	o.integer("BATCH_CONCURRENCY", &cfg.Batch.Concurrency)

	// Secrets
	o.str("SECRETS_ENV_PREFIX", &cfg.Secrets.EnvPrefix)
	o.str("SECRETS_DIR", &cfg.Secrets.Dir)
	o.boolean("SECRETS_WATCH", &cfg.Secrets.Watch)
	o.duration("SECRETS_CACHE_TTL", &cfg.Secrets.CacheTTL)

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment overrides: %w", ValidationError{Errors: errs})
	}
	return nil
}

// overrider assigns parsed environment values and collects parse failures.
type overrider struct {
	errs *[]FieldError
}

func (o *overrider) str(name string, dst *string) {
	if val, ok := lookup(name); ok {
		*dst = val
	}
}

func (o *overrider) duration(name string, dst *time.Duration) {
	if val, ok := lookup(name); ok {
		d, err := time.ParseDuration(val)
		if err != nil {
			*o.errs = append(*o.errs, envError(name, val, err))
			return
		}
		*dst = d
	}
}

func (o *overrider) integer(name string, dst *int) {
	if val, ok := lookup(name); ok {
		i, err := strconv.Atoi(val)
		if err != nil {
			*o.errs = append(*o.errs, envError(name, val, err))
			return
		}
		*dst = i
	}
}

func (o *overrider) float(name string, dst *float64) {
	if val, ok := lookup(name); ok {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			*o.errs = append(*o.errs, envError(name, val, err))
			return
		}
		*dst = f
	}
}

func (o *overrider) boolean(name string, dst *bool) {
	if val, ok := lookup(name); ok {
		b, err := strconv.ParseBool(val)
		if err != nil {
			*o.errs = append(*o.errs, envError(name, val, err))
			return
		}
		*dst = b
	}
}

func lookup(name string) (string, bool) {
	val := os.Getenv(EnvPrefix + name)
	return val, val != ""
}

func envError(name, val string, err error) FieldError {
	return FieldError{
		Field:   EnvPrefix + name,
		Message: fmt.Sprintf("cannot parse %q: %v", val, err),
	}
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
