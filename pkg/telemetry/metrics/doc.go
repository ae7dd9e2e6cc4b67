// Package metrics provides Prometheus metrics collection for IntelliMap.
//
// # Metrics
//
//   - intellimap_ratelimit_checks_total{tier,result}
//   - intellimap_completion_requests_total{class}
//   - intellimap_completion_attempts
//   - intellimap_completion_duration_seconds
//   - intellimap_records_total{state}
//   - intellimap_normalize_path_total{path}
//   - intellimap_batch_confidence
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	limiter := ratelimit.NewLimiter(rateCfg, ratelimit.WithRecorder(collector))
//	http.Handle("/metrics", collector.Handler())
package metrics
