// Package ports defines the interfaces that connect the scoring
// engines to their collaborators and infrastructure. Implementations
// live under infrastructure/; engines depend only on these contracts.
package ports

import (
	"context"

	"github.com/averen/credence/internal/domain"
)

// SimilarityBackend computes text similarity in [0.0, 1.0]. The
// default implementation is token-overlap based; embedding-backed
// implementations can be substituted without touching the scorers,
// which is why Compare takes a context even though the default backend
// never blocks.
type SimilarityBackend interface {
	// Compare returns the similarity between two texts in [0.0, 1.0],
	// where 1.0 means semantically identical.
	Compare(ctx context.Context, a, b string) (float64, error)

	// Name identifies the backend for tracing and configuration.
	Name() string
}

// Extractor is the external collaborator that produces cited claims
// from evidence. The engine never performs the generative call itself;
// it validates what the extractor returns and drives retry cycles with
// tightened constraints.
type Extractor interface {
	// Extract produces claim fields with citations for the requested
	// persona, honoring the request's constraints. Implementations
	// must respect context cancellation; a returned error is treated
	// as terminal by retry orchestration.
	Extract(ctx context.Context, req domain.ExtractionRequest) (domain.ExtractionResponse, error)
}
