// Package extraction wraps the extraction collaborator with
// cross-cutting middleware. The engine core never talks to the
// collaborator directly; callers compose the chain they need
// (timeouts, rate limiting, call budgets, metrics) around whatever
// Extractor they inject.
package extraction

import "github.com/averen/credence/internal/ports"

// Middleware wraps an Extractor implementation to add cross-cutting
// functionality. This pattern allows composition of features like
// rate limiting, call budgets, and metrics collection without
// modifying the underlying extractor.
type Middleware func(ports.Extractor) ports.Extractor

// Chain applies middleware around an extractor.
// Middleware is applied in reverse order so the first middleware is
// the outermost.
func Chain(extractor ports.Extractor, middleware ...Middleware) ports.Extractor {
	for i := len(middleware) - 1; i >= 0; i-- {
		extractor = middleware[i](extractor)
	}
	return extractor
}
