// Package metrics implements the engine's metrics collection port on
// Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/averen/credence/internal/ports"
)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It tracks assessment throughput, persona scoring outcomes,
// extraction traffic, and score distributions for the evaluation engines.
type PrometheusMetrics struct {
	assessmentsTotal    *prometheus.CounterVec
	personasScoredTotal *prometheus.CounterVec
	extractionRequests  *prometheus.CounterVec
	cacheEvents         *prometheus.CounterVec
	operationCounter    *prometheus.CounterVec
	operationLatency    *prometheus.HistogramVec
	scoreDistribution   *prometheus.HistogramVec
	claimsPerExtraction *prometheus.HistogramVec
	systemGauges        *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance and
// registers all required metrics in the global Prometheus registry.
// Calling it twice in one process panics on duplicate registration, so
// construct it once and share the instance.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		// Engine-specific counters.
		assessmentsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assessments_total",
				Help: "Total number of evidence quality assessments performed.",
			},
			[]string{"mode"},
		),
		personasScoredTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "personas_scored_total",
				Help: "Total number of persona claim sets scored for confidence.",
			},
			[]string{"recommendation"},
		),
		extractionRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "extraction_requests_total",
				Help: "Total number of extraction calls, labeled by outcome.",
			},
			[]string{"status"},
		),
		cacheEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credence_cache_events_total",
				Help: "Cache lookups per engine cache, labeled hit or miss.",
			},
			[]string{"cache", "outcome"},
		),

		// General families shared by all engines.
		operationCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credence_operations_total",
				Help: "Total number of engine operations without a dedicated family.",
			},
			[]string{"metric"},
		),
		operationLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "credence_operation_duration_seconds",
				Help:    "Execution time of engine operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "status"},
		),
		scoreDistribution: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "credence_scores",
				Help:    "Distribution of quality and confidence scores in the unit interval.",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
			[]string{"metric"},
		),
		claimsPerExtraction: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "credence_extraction_claims",
				Help:    "Number of claim fields returned per successful extraction.",
				Buckets: []float64{0, 1, 2, 3, 4, 6, 8, 12, 16},
			},
			[]string{"status"},
		),
		systemGauges: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "credence_system_state",
				Help: "Current state values reported by the engines.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	status := labelOr(labels, "status", "all")
	pm.operationLatency.WithLabelValues(operation, status).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters. Cache hit and miss counters collapse into one
// family labeled by cache so dashboards can compute hit rates directly.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "assessments_total":
		pm.assessmentsTotal.WithLabelValues(labelOr(labels, "mode", "unknown")).Add(value)
	case "personas_scored_total":
		pm.personasScoredTotal.WithLabelValues(labelOr(labels, "recommendation", "unknown")).Add(value)
	case "extraction_requests_total":
		pm.extractionRequests.WithLabelValues(labelOr(labels, "status", "unknown")).Add(value)
	case "assessment_cache_hits_total":
		pm.cacheEvents.WithLabelValues("assessment", "hit").Add(value)
	case "assessment_cache_misses_total":
		pm.cacheEvents.WithLabelValues("assessment", "miss").Add(value)
	case "confidence_cache_hits_total":
		pm.cacheEvents.WithLabelValues("confidence", "hit").Add(value)
	case "confidence_cache_misses_total":
		pm.cacheEvents.WithLabelValues("confidence", "miss").Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	_ = labels
	pm.systemGauges.WithLabelValues(metric).Set(value)
}

// RecordHistogram implements the MetricsCollector interface by recording
// values in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "extraction_claims":
		pm.claimsPerExtraction.WithLabelValues(labelOr(labels, "status", "all")).Observe(value)
	default:
		// The engines only observe unit-interval scores here; anything
		// larger lands in the top bucket of the score distribution.
		pm.scoreDistribution.WithLabelValues(metric).Observe(value)
	}
}

// labelOr returns the named label when present and non-empty, otherwise
// the fallback.
func labelOr(labels map[string]string, key, fallback string) string {
	if value, ok := labels[key]; ok && value != "" {
		return value
	}
	return fallback
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
