package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"lcm-hq/intellimap/pkg/cli"
	"lcm-hq/intellimap/pkg/config"
	"lcm-hq/intellimap/pkg/limits/ratelimit"
	"lcm-hq/intellimap/pkg/limits/storage"
	"lcm-hq/intellimap/pkg/mapper"
	"lcm-hq/intellimap/pkg/secrets"
	"lcm-hq/intellimap/pkg/telemetry/logging"
	"lcm-hq/intellimap/pkg/telemetry/metrics"
	"lcm-hq/intellimap/pkg/telemetry/tracing"
)

// app holds the services one command run shares between its batches.
type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	store   storage.Store
	limiter *ratelimit.Limiter
	mapper  *mapper.Mapper
	secrets *secrets.Resolver
	closers []io.Closer
}

// loadConfig reads --config, or defaults plus environment when it is empty,
// and applies the logging flags.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadConfigWithEnvOverrides(cfgFile)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, cli.NewConfigError("config", err.Error())
	}

	if logLevel != "" {
		cfg.Telemetry.Logging.Level = logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	return cfg, nil
}

func newLogger(cfg *config.LoggingConfig) (*logging.Logger, error) {
	patterns := make([]logging.Pattern, 0, len(cfg.RedactPatterns))
	for _, p := range cfg.RedactPatterns {
		patterns = append(patterns, logging.Pattern{Name: p.Name, Pattern: p.Pattern, Replacement: p.Replacement})
	}
	logger, err := logging.New(logging.Config{
		Level:          cfg.Level,
		Format:         cfg.Format,
		AddSource:      cfg.AddSource,
		Redact:         cfg.RedactEnabled(),
		RedactPatterns: patterns,
		Writer:         os.Stderr,
	})
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	return logger, nil
}

func newStore(cfg *config.RateLimitConfig) (storage.Store, error) {
	switch cfg.Storage {
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create rate limit store directory: %w", err)
			}
		}
		store, err := storage.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open rate limit store: %w", err)
		}
		return store, nil
	default:
		return storage.NewMemoryStore(), nil
	}
}

// newApp wires configuration, telemetry, the shared limiter and the mapper.
func newApp(cfg *config.Config) (*app, error) {
	logger, err := newLogger(&cfg.Telemetry.Logging)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger.Slog())

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return nil, cli.NewCommandError("tracing", err)
	}
	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	store, err := newStore(&cfg.Limits.Rate)
	if err != nil {
		_ = tracer.Shutdown(context.Background())
		return nil, err
	}

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: cfg.Limits.Rate.PerMinute,
		RequestsPerHour:   cfg.Limits.Rate.PerHour,
		Delay:             cfg.Limits.Rate.Delay,
	},
		ratelimit.WithStore(store),
		ratelimit.WithRecorder(collector),
		ratelimit.WithLogger(logger.Slog()),
	)

	m, err := mapper.New(mapper.ConfigFrom(cfg), limiter,
		mapper.WithLogger(logger.Slog()),
		mapper.WithTracer(tracer.Tracer()),
		mapper.WithRecorder(collector),
	)
	if err != nil {
		_ = limiter.Close()
		_ = tracer.Shutdown(context.Background())
		return nil, err
	}

	resolver, closers, err := newResolver(&cfg.Secrets, logger.Slog())
	if err != nil {
		_ = limiter.Close()
		_ = tracer.Shutdown(context.Background())
		return nil, cli.NewConfigError("secrets", err.Error())
	}

	logger.Debug("application initialized",
		"rate_storage", cfg.Limits.Rate.Storage,
		"per_minute", cfg.Limits.Rate.PerMinute,
		"per_hour", cfg.Limits.Rate.PerHour,
		"metrics", collector.Enabled(),
		"tracing", tracer.Enabled(),
	)

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: collector,
		tracer:  tracer,
		store:   store,
		limiter: limiter,
		mapper:  m,
		secrets: resolver,
		closers: closers,
	}, nil
}

// newResolver builds the secret chain: environment first, then the secrets
// directory when one is configured.
func newResolver(cfg *config.SecretsConfig, logger *slog.Logger) (*secrets.Resolver, []io.Closer, error) {
	providers := []secrets.Provider{secrets.NewEnvProvider(cfg.EnvPrefix)}
	var closers []io.Closer
	if cfg.Dir != "" {
		fp, err := secrets.NewFileProvider(cfg.Dir, cfg.Watch, logger)
		if err != nil {
			return nil, nil, err
		}
		providers = append(providers, fp)
		closers = append(closers, fp)
	}
	return secrets.NewResolver(providers, cfg.CacheTTL).WithLogger(logger), closers, nil
}

// resolveAzure returns the Azure settings with secret references replaced.
// It is called per batch so rotated secrets are picked up once the cache
// expires.
func resolveAzure(ctx context.Context, r *secrets.Resolver, az config.AzureConfig) (config.AzureConfig, error) {
	err := r.ResolveAll(ctx, &az.Endpoint, &az.APIKey, &az.Deployment, &az.APIVersion)
	return az, err
}

func (a *app) azure(ctx context.Context) (config.AzureConfig, error) {
	return resolveAzure(ctx, a.secrets, a.cfg.Azure)
}

// Close flushes spans and releases the rate limit store.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.tracer.Shutdown(ctx); err != nil {
		a.logger.Warn("tracer shutdown failed", "error", err)
	}
	if err := a.limiter.Close(); err != nil {
		a.logger.Warn("rate limit store close failed", "error", err)
	}
	for _, c := range a.closers {
		_ = c.Close()
	}
}
