package metrics

import (
	"lcm-hq/intellimap/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RecordMetrics tracks per-record outcomes and result quality.
//
// Metrics:
//   - intellimap_records_total: Records by terminal state
//   - intellimap_normalize_path_total: Normalizations by recovery path
//   - intellimap_batch_confidence: Aggregate confidence per batch
type RecordMetrics struct {
	records    *prometheus.CounterVec
	paths      *prometheus.CounterVec
	confidence prometheus.Histogram
}

// NewRecordMetrics creates and registers record metrics.
func NewRecordMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RecordMetrics {
	rm := &RecordMetrics{
		records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "records_total",
				Help:      "Total number of records by terminal state",
			},
			[]string{"state"},
		),

		paths: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "normalize_path_total",
				Help:      "Total number of normalized responses by recovery path",
			},
			[]string{"path"},
		),

		// Confidence mixes the 0-1 fallback constants and 0-100 model scores.
		confidence: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "batch_confidence",
				Help:      "Aggregate confidence of each completed batch",
				Buckets:   []float64{0.1, 0.3, 0.5, 1, 25, 50, 75, 90, 100},
			},
		),
	}

	registry.MustRegister(rm.records, rm.paths, rm.confidence)
	return rm
}

// RecordState counts a record reaching state.
func (rm *RecordMetrics) RecordState(state string) {
	rm.records.WithLabelValues(state).Inc()
}

// RecordPath counts a normalization that took path.
func (rm *RecordMetrics) RecordPath(path string) {
	rm.paths.WithLabelValues(path).Inc()
}

// RecordConfidence observes a batch's aggregate confidence.
func (rm *RecordMetrics) RecordConfidence(confidence float64) {
	rm.confidence.Observe(confidence)
}
