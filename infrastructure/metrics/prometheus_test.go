// Package metrics contains the unit tests for the metrics package.
package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/averen/credence/internal/ports"
)

// testPrometheusMetrics provides a global instance to avoid duplicate metric
// registration issues across tests in the same package.
var testPrometheusMetrics *PrometheusMetrics

func init() {
	// Create a single PrometheusMetrics instance to be shared across all tests
	// in this package. This prevents Prometheus from panicking due to duplicate
	// metric registration.
	testPrometheusMetrics = NewPrometheusMetrics()
}

// TestNewPrometheusMetrics verifies that a new PrometheusMetrics instance is
// created with all its internal metrics properly initialized.
func TestNewPrometheusMetrics(t *testing.T) {
	pm := testPrometheusMetrics

	require.NotNil(t, pm, "PrometheusMetrics instance should not be nil")

	assert.NotNil(t, pm.assessmentsTotal, "assessmentsTotal should be initialized")
	assert.NotNil(t, pm.personasScoredTotal, "personasScoredTotal should be initialized")
	assert.NotNil(t, pm.extractionRequests, "extractionRequests should be initialized")
	assert.NotNil(t, pm.cacheEvents, "cacheEvents should be initialized")
	assert.NotNil(t, pm.operationCounter, "operationCounter should be initialized")
	assert.NotNil(t, pm.operationLatency, "operationLatency should be initialized")
	assert.NotNil(t, pm.scoreDistribution, "scoreDistribution should be initialized")
	assert.NotNil(t, pm.claimsPerExtraction, "claimsPerExtraction should be initialized")
	assert.NotNil(t, pm.systemGauges, "systemGauges should be initialized")

	var _ ports.MetricsCollector = pm
}

// TestPrometheusMetrics_RecordCounter tests the routing of counter metrics
// to their dedicated families, including the generic fallback.
func TestPrometheusMetrics_RecordCounter(t *testing.T) {
	pm := testPrometheusMetrics

	tests := []struct {
		name   string
		metric string
		labels map[string]string
	}{
		{
			name:   "assessments with mode label",
			metric: "assessments_total",
			labels: map[string]string{"mode": "balanced"},
		},
		{
			name:   "assessments without mode label",
			metric: "assessments_total",
			labels: nil,
		},
		{
			name:   "personas scored with recommendation",
			metric: "personas_scored_total",
			labels: map[string]string{"recommendation": "accept"},
		},
		{
			name:   "extraction requests with status",
			metric: "extraction_requests_total",
			labels: map[string]string{"status": "success"},
		},
		{
			name:   "assessment cache hit",
			metric: "assessment_cache_hits_total",
			labels: nil,
		},
		{
			name:   "assessment cache miss",
			metric: "assessment_cache_misses_total",
			labels: nil,
		},
		{
			name:   "confidence cache hit",
			metric: "confidence_cache_hits_total",
			labels: nil,
		},
		{
			name:   "confidence cache miss",
			metric: "confidence_cache_misses_total",
			labels: nil,
		},
		{
			name:   "unrecognized counter falls back",
			metric: "some_other_counter",
			labels: map[string]string{"extra": "ignored"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				pm.RecordCounter(tt.metric, 1.0, tt.labels)
			}, "RecordCounter should not panic")
		})
	}
}

// TestPrometheusMetrics_RecordLatency tests the recording of latency metrics
// with various status label combinations.
func TestPrometheusMetrics_RecordLatency(t *testing.T) {
	pm := testPrometheusMetrics

	tests := []struct {
		name      string
		operation string
		duration  time.Duration
		labels    map[string]string
	}{
		{
			name:      "latency with status label",
			operation: "extract",
			duration:  100 * time.Millisecond,
			labels:    map[string]string{"status": "success"},
		},
		{
			name:      "latency with unrelated labels",
			operation: "assess",
			duration:  250 * time.Millisecond,
			labels:    map[string]string{"mode": "thorough"},
		},
		{
			name:      "latency with empty status label",
			operation: "score_persona",
			duration:  50 * time.Millisecond,
			labels:    map[string]string{"status": ""},
		},
		{
			name:      "latency without labels",
			operation: "process_batch",
			duration:  time.Second,
			labels:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				pm.RecordLatency(tt.operation, tt.duration, tt.labels)
			}, "RecordLatency should not panic")
		})
	}
}

// TestPrometheusMetrics_RecordHistogram tests the routing of histogram
// observations between the claim count and score distribution families.
func TestPrometheusMetrics_RecordHistogram(t *testing.T) {
	pm := testPrometheusMetrics

	tests := []struct {
		name   string
		metric string
		value  float64
		labels map[string]string
	}{
		{
			name:   "claims per extraction",
			metric: "extraction_claims",
			value:  7,
			labels: map[string]string{"status": "success"},
		},
		{
			name:   "assessment score",
			metric: "assessment_score",
			value:  0.82,
			labels: nil,
		},
		{
			name:   "persona confidence",
			metric: "persona_confidence",
			value:  0.67,
			labels: nil,
		},
		{
			name:   "unrecognized histogram",
			metric: "some_other_histogram",
			value:  0.5,
			labels: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				pm.RecordHistogram(tt.metric, tt.value, tt.labels)
			}, "RecordHistogram should not panic")
		})
	}
}

// TestPrometheusMetrics_LabelHandling verifies that the metrics collector
// gracefully handles nil, empty, and incomplete label maps.
func TestPrometheusMetrics_LabelHandling(t *testing.T) {
	pm := testPrometheusMetrics

	tests := []struct {
		name   string
		labels map[string]string
	}{
		{"nil labels map", nil},
		{"empty labels map", map[string]string{}},
		{"labels map with status", map[string]string{"status": "success"}},
		{"labels map with empty status", map[string]string{"status": ""}},
		{"labels map without status", map[string]string{"other": "value"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				pm.RecordLatency("test_op", 100*time.Millisecond, tt.labels)
			}, "RecordLatency should handle labels gracefully")

			assert.NotPanics(t, func() {
				pm.RecordCounter("test_counter", 1.0, tt.labels)
			}, "RecordCounter should handle labels gracefully")

			assert.NotPanics(t, func() {
				pm.RecordGauge("test_gauge", 42.0, tt.labels)
			}, "RecordGauge should handle labels gracefully")

			assert.NotPanics(t, func() {
				pm.RecordHistogram("test_hist", 0.5, tt.labels)
			}, "RecordHistogram should handle labels gracefully")
		})
	}
}

// TestPrometheusMetrics_EdgeCases tests various edge cases to ensure the
// metrics collector is robust.
func TestPrometheusMetrics_EdgeCases(t *testing.T) {
	pm := testPrometheusMetrics

	t.Run("zero duration latency", func(t *testing.T) {
		assert.NotPanics(t, func() {
			pm.RecordLatency("zero_duration", 0, nil)
		}, "Should handle zero duration gracefully")
	})

	t.Run("negative counter value", func(t *testing.T) {
		// Prometheus counters cannot be negative, so this should panic.
		assert.Panics(t, func() {
			pm.RecordCounter("negative_counter", -1.0, nil)
		}, "Prometheus counters should panic on negative values")
	})

	t.Run("batch failure gauge", func(t *testing.T) {
		assert.NotPanics(t, func() {
			pm.RecordGauge("batch_failed", 3, nil)
		}, "Should record batch failure counts gracefully")
	})

	t.Run("very large gauge value", func(t *testing.T) {
		assert.NotPanics(t, func() {
			pm.RecordGauge("large_gauge", 1e9, nil)
		}, "Should handle large gauge values gracefully")
	})

	t.Run("score above the unit interval", func(t *testing.T) {
		assert.NotPanics(t, func() {
			pm.RecordHistogram("assessment_score", 1.5, nil)
		}, "Out of range scores should land in the top bucket without panicking")
	})
}
