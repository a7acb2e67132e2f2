package similarity

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/averen/credence/internal/ports"
)

var _ ports.SimilarityBackend = (*EditDistance)(nil)

// EditDistance computes normalized Levenshtein similarity between two
// strings. It suits short, near-verbatim fields such as names and
// titles where token overlap is too coarse; for prose the token
// overlap backend remains the better default.
type EditDistance struct {
	// name identifies the backend instance in traces and config.
	name string
	// config contains the validated configuration parameters.
	config EditDistanceConfig
}

// EditDistanceConfig defines the configuration parameters for the
// EditDistance backend.
type EditDistanceConfig struct {
	// CaseSensitive determines whether comparison preserves case.
	// When false, both strings are Unicode case-folded first.
	CaseSensitive bool `yaml:"case_sensitive" json:"case_sensitive"`
}

// DefaultEditDistanceConfig returns an EditDistanceConfig with
// sensible defaults.
func DefaultEditDistanceConfig() EditDistanceConfig {
	return EditDistanceConfig{CaseSensitive: false}
}

// NewEditDistance creates an EditDistance backend with the given
// configuration. Returns an error if configuration validation fails.
func NewEditDistance(name string, config EditDistanceConfig) (*EditDistance, error) {
	if name == "" {
		return nil, ErrEmptyBackendName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &EditDistance{name: name, config: config}, nil
}

// Name returns the backend's identifier.
func (b *EditDistance) Name() string { return b.name }

// Compare returns 1 - distance/maxRuneLen between the two strings.
// Identical strings score 1.0; two empty strings are identical.
func (b *EditDistance) Compare(ctx context.Context, a, c string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if !b.config.CaseSensitive {
		a = foldCaser.String(a)
		c = foldCaser.String(c)
	}

	if a == c {
		return 1.0, nil
	}

	// The levenshtein library operates on runes, so the normalizing
	// length must be a rune count as well.
	distance := levenshtein.ComputeDistance(a, c)
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(c); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1.0, nil
	}

	similarity := 1.0 - float64(distance)/float64(maxLen)
	if similarity < 0 {
		similarity = 0
	}
	return similarity, nil
}
