package extraction

import (
	"context"
	"errors"
	"time"

	"github.com/averen/credence/internal/domain"
	"github.com/averen/credence/internal/ports"
)

// metricsExtractor reports call latency, outcomes, and claim volume
// through the injected collector.
type metricsExtractor struct {
	next      ports.Extractor
	collector ports.MetricsCollector
}

// MetricsMiddleware creates middleware that collects extraction call
// metrics for operational monitoring.
func MetricsMiddleware(collector ports.MetricsCollector) Middleware {
	return func(next ports.Extractor) ports.Extractor {
		return &metricsExtractor{
			next:      next,
			collector: collector,
		}
	}
}

// Extract times the call and labels the outcome by how it ended.
func (m *metricsExtractor) Extract(ctx context.Context, req domain.ExtractionRequest) (domain.ExtractionResponse, error) {
	start := time.Now()
	response, err := m.next.Extract(ctx, req)

	labels := map[string]string{"status": "success"}
	switch {
	case err == nil:
	case errors.Is(err, ErrBudgetExceeded):
		labels["status"] = "budget_exceeded"
	case errors.Is(err, context.DeadlineExceeded):
		labels["status"] = "timeout"
	case errors.Is(err, context.Canceled):
		labels["status"] = "canceled"
	default:
		labels["status"] = "error"
	}

	if m.collector != nil {
		m.collector.RecordLatency("extract", time.Since(start), labels)
		m.collector.RecordCounter("extraction_requests_total", 1, labels)
		if err == nil {
			m.collector.RecordHistogram("extraction_claims", float64(len(response.Claims)), labels)
		}
	}

	return response, err
}
