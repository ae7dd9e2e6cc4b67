package metrics

import (
	"time"

	"lcm-hq/intellimap/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns every IntelliMap metric on a private Prometheus registry.
// It satisfies the recorder interfaces of the rate limiter, the normalizer
// and the mapper, so one instance is shared by all of them.
//
// When the configuration has Enabled false every Record method is a no-op.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	limitMetrics      *LimitMetrics
	completionMetrics *CompletionMetrics
	recordMetrics     *RecordMetrics
}

// NewCollector creates a collector. If registry is nil a fresh registry is
// created; the process-wide default registry is never used.
//
// Example:
//
//	cfg := &config.MetricsConfig{Enabled: true, Namespace: "intellimap"}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultNamespace
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = append([]float64(nil), config.DefaultDurationBuckets...)
	}

	return &Collector{
		config:            cfg,
		registry:          registry,
		limitMetrics:      NewLimitMetrics(cfg, registry),
		completionMetrics: NewCompletionMetrics(cfg, registry),
		recordMetrics:     NewRecordMetrics(cfg, registry),
	}
}

// RecordRateLimitCheck records a rate limiter check for tier.
func (c *Collector) RecordRateLimitCheck(tier string, allowed bool) {
	if !c.config.Enabled {
		return
	}
	c.limitMetrics.RecordCheck(tier, allowed)
}

// RecordCompletion records a finished completion call.
//
// Parameters:
//   - class: outcome class ("ok", "auth", "throttled", "network", ...)
//   - attempts: attempts made, including the first
//   - duration: wall time including backoff
func (c *Collector) RecordCompletion(class string, attempts int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.completionMetrics.Record(class, attempts, duration)
}

// RecordRecord records a record reaching a terminal state.
func (c *Collector) RecordRecord(state string) {
	if !c.config.Enabled {
		return
	}
	c.recordMetrics.RecordState(state)
}

// RecordNormalizePath records the recovery path of one normalization.
func (c *Collector) RecordNormalizePath(path string) {
	if !c.config.Enabled {
		return
	}
	c.recordMetrics.RecordPath(path)
}

// RecordBatchConfidence records the aggregate confidence of a batch.
func (c *Collector) RecordBatchConfidence(confidence float64) {
	if !c.config.Enabled {
		return
	}
	c.recordMetrics.RecordConfidence(confidence)
}

// Enabled reports whether recording is active.
func (c *Collector) Enabled() bool {
	return c.config.Enabled
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
