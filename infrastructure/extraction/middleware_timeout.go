package extraction

import (
	"context"
	"time"

	"github.com/averen/credence/internal/domain"
	"github.com/averen/credence/internal/ports"
)

// timeoutExtractor bounds each extraction call so a slow collaborator
// cannot stall a grounding retry loop indefinitely.
type timeoutExtractor struct {
	next    ports.Extractor
	timeout time.Duration
}

// TimeoutMiddleware creates middleware that enforces a per-call
// timeout on the extraction collaborator.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next ports.Extractor) ports.Extractor {
		return &timeoutExtractor{
			next:    next,
			timeout: timeout,
		}
	}
}

// Extract forwards the request under a deadline-bounded context. If
// the collaborator does not answer within the timeout it returns a
// context deadline exceeded error.
func (t *timeoutExtractor) Extract(ctx context.Context, req domain.ExtractionRequest) (domain.ExtractionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Extract(ctx, req)
}
