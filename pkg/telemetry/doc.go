// Package telemetry groups IntelliMap's observability packages.
//
// # Components
//
//   - logging: slog handler with credential redaction and batch, client and
//     record IDs taken from the context
//   - metrics: Prometheus collectors on a private registry
//   - tracing: OpenTelemetry spans exported over OTLP gRPC, or a no-op tracer
//   - health: liveness and readiness probes for watch mode
//
// # Usage
//
//	logger, _ := logging.New(logging.Config{Level: "info", Format: "json"})
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	tracer, _ := tracing.New(&cfg.Telemetry.Tracing, version)
//	defer tracer.Shutdown(ctx)
//
// The metrics endpoint, /healthz and /readyz share one HTTP listener, started
// by "intellimap map" when telemetry.metrics.address or --metrics-addr is set.
package telemetry
