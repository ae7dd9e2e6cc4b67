package metrics

import (
	"time"

	"lcm-hq/intellimap/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CompletionMetrics tracks completion calls to the model endpoint.
//
// Metrics:
//   - intellimap_completion_requests_total: Calls by final outcome class
//   - intellimap_completion_attempts: Attempts needed per call
//   - intellimap_completion_duration_seconds: Wall time per call, retries included
type CompletionMetrics struct {
	requests *prometheus.CounterVec
	attempts prometheus.Histogram
	duration prometheus.Histogram
}

// NewCompletionMetrics creates and registers completion metrics.
func NewCompletionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CompletionMetrics {
	cm := &CompletionMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "completion_requests_total",
				Help:      "Total number of completion calls by outcome class",
			},
			[]string{"class"},
		),

		attempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "completion_attempts",
				Help:      "Number of attempts made per completion call",
				Buckets:   []float64{1, 2, 3, 4, 5, 8},
			},
		),

		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "completion_duration_seconds",
				Help:      "Duration of completion calls in seconds, including backoff",
				Buckets:   cfg.DurationBuckets,
			},
		),
	}

	registry.MustRegister(cm.requests, cm.attempts, cm.duration)
	return cm
}

// Record records one completion call.
func (cm *CompletionMetrics) Record(class string, attempts int, duration time.Duration) {
	cm.requests.WithLabelValues(class).Inc()
	if attempts > 0 {
		cm.attempts.Observe(float64(attempts))
	}
	cm.duration.Observe(duration.Seconds())
}
