package metrics

import (
	"lcm-hq/intellimap/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// LimitMetrics tracks rate limiter outcomes.
//
// Metrics:
//   - intellimap_ratelimit_checks_total: Checks by tier and result
type LimitMetrics struct {
	checks *prometheus.CounterVec
}

// NewLimitMetrics creates and registers rate limit metrics.
func NewLimitMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *LimitMetrics {
	lm := &LimitMetrics{
		checks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "ratelimit_checks_total",
				Help:      "Total number of rate limit checks by tier and result",
			},
			[]string{"tier", "result"},
		),
	}

	registry.MustRegister(lm.checks)
	return lm
}

// RecordCheck records one check. The result label is "allowed" or "rejected".
func (lm *LimitMetrics) RecordCheck(tier string, allowed bool) {
	result := "rejected"
	if allowed {
		result = "allowed"
	}
	lm.checks.WithLabelValues(tier, result).Inc()
}
