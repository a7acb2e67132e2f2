// Package scorers provides the evidence quality scoring components:
// authority, content, recency, corroboration, and relevance. Each
// scorer is an independent, deterministic unit with its own validated
// configuration and OpenTelemetry tracing; the quality engine composes
// them into weighted assessments.
package scorers

import (
	"errors"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
)

// validate is the package-level validator instance shared by all
// scorer constructors.
var validate = validator.New()

// foldCaser is a package-level Unicode case folder for performance.
// This avoids creating a new caser for each text profile.
var foldCaser = cases.Fold()

// Common errors returned by scorer constructors and operations.
var (
	// ErrEmptyScorerName indicates a scorer was created without a name.
	ErrEmptyScorerName = errors.New("scorer name cannot be empty")

	// ErrUnknownTier indicates a source carries a tier outside the
	// configured tier weight table.
	ErrUnknownTier = errors.New("unknown source tier")

	// ErrEmptyText indicates text-dependent scoring received no text.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrNilBackend indicates a scorer requiring a similarity backend
	// was constructed without one.
	ErrNilBackend = errors.New("similarity backend cannot be nil")
)

// textProfile is a pre-tokenized view of a text that pattern counting
// operates on. Building it once per scoring call avoids re-folding the
// text for every pattern family.
type textProfile struct {
	// folded is the case-folded text, used for phrase matching.
	folded string
	// words holds the folded tokens in order.
	words []string
	// counts maps each token to its occurrence count.
	counts map[string]int
}

// profileText folds and tokenizes a text for pattern counting.
func profileText(text string) textProfile {
	folded := foldCaser.String(text)
	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '-'
	})
	counts := make(map[string]int, len(words))
	for _, w := range words {
		counts[w]++
	}
	return textProfile{folded: folded, words: words, counts: counts}
}

// isPhrasePattern reports whether a pattern must be matched as a
// substring of the folded text rather than as a whole token. Phrases
// and patterns carrying punctuation (periods, parentheses) can never
// equal a single token.
func isPhrasePattern(pat string) bool {
	for _, r := range pat {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '-' {
			return true
		}
	}
	return false
}

// countHits sums occurrences of the given lowercase patterns in the
// profile. Token patterns match whole tokens; phrase patterns match as
// substrings of the folded text.
func (p textProfile) countHits(patterns []string) int {
	total := 0
	for _, pat := range patterns {
		if isPhrasePattern(pat) {
			total += strings.Count(p.folded, pat)
			continue
		}
		total += p.counts[pat]
	}
	return total
}

// hasAny reports whether any of the patterns occurs in the profile.
func (p textProfile) hasAny(patterns []string) bool {
	for _, pat := range patterns {
		if isPhrasePattern(pat) {
			if strings.Contains(p.folded, pat) {
				return true
			}
			continue
		}
		if p.counts[pat] > 0 {
			return true
		}
	}
	return false
}

// uniqueRatio returns the unique-to-total ratio of a string slice,
// zero when the slice is empty. Comparison is case-folded.
func uniqueRatio(values []string) float64 {
	if len(values) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[foldCaser.String(v)] = struct{}{}
	}
	return float64(len(seen)) / float64(len(values))
}
