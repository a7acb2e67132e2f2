package extraction

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/averen/credence/internal/domain"
	"github.com/averen/credence/internal/ports"
)

// rateLimitedExtractor paces extraction calls with a token bucket so
// batch grounding cannot overwhelm the collaborator's own limits.
type rateLimitedExtractor struct {
	next    ports.Extractor
	limiter *rate.Limiter
}

// RateLimitMiddleware creates middleware that enforces request pacing
// using a token bucket. The limit parameter sets sustained requests
// per second, while burst allows temporary spikes above it.
func RateLimitMiddleware(limit rate.Limit, burst int) Middleware {
	limiter := rate.NewLimiter(limit, burst)

	return func(next ports.Extractor) ports.Extractor {
		return &rateLimitedExtractor{
			next:    next,
			limiter: limiter,
		}
	}
}

// Extract waits for a token before forwarding the request. This
// blocks the calling goroutine until a token is available or the
// request's context ends.
func (r *rateLimitedExtractor) Extract(ctx context.Context, req domain.ExtractionRequest) (domain.ExtractionResponse, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return domain.ExtractionResponse{}, fmt.Errorf("%w: %w", ports.ErrRateLimited, err)
	}
	return r.next.Extract(ctx, req)
}
