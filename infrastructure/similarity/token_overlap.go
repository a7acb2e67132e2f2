package similarity

import (
	"context"
	"fmt"
	"strings"

	"github.com/averen/credence/internal/ports"
)

var _ ports.SimilarityBackend = (*TokenOverlap)(nil)

// TokenOverlap computes Jaccard similarity over case-folded token
// sets. It is the default backend for semantic alignment checks:
// cheap, deterministic, and good enough for the overlap-style
// thresholds the scorers are calibrated against.
type TokenOverlap struct {
	// name identifies the backend instance in traces and config.
	name string
	// config contains the validated configuration parameters.
	config TokenOverlapConfig
}

// TokenOverlapConfig defines the configuration parameters for the
// TokenOverlap backend.
type TokenOverlapConfig struct {
	// MinTokenLength is the minimum rune length a token must have to
	// participate in the comparison. Shorter tokens (articles,
	// single letters) add noise to the overlap.
	MinTokenLength int `yaml:"min_token_length" json:"min_token_length" validate:"min=1,max=5"`
}

// DefaultTokenOverlapConfig returns a TokenOverlapConfig with sensible
// defaults.
func DefaultTokenOverlapConfig() TokenOverlapConfig {
	return TokenOverlapConfig{MinTokenLength: 2}
}

// NewTokenOverlap creates a TokenOverlap backend with the given
// configuration. Returns an error if configuration validation fails.
func NewTokenOverlap(name string, config TokenOverlapConfig) (*TokenOverlap, error) {
	if name == "" {
		return nil, ErrEmptyBackendName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &TokenOverlap{name: name, config: config}, nil
}

// Name returns the backend's identifier.
func (b *TokenOverlap) Name() string { return b.name }

// Compare returns the Jaccard similarity |A∩B| / |A∪B| between the
// token sets of a and b. Two texts that both produce no tokens are
// identical only when both are blank; otherwise an empty side scores
// zero against a non-empty one.
func (b *TokenOverlap) Compare(ctx context.Context, a, c string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	setA := tokenSet(a, b.config.MinTokenLength)
	setB := tokenSet(c, b.config.MinTokenLength)

	if len(setA) == 0 && len(setB) == 0 {
		if strings.TrimSpace(a) == "" && strings.TrimSpace(c) == "" {
			return 1.0, nil
		}
		return 0.0, nil
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0, nil
	}

	intersection := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection

	return float64(intersection) / float64(union), nil
}
