// Package similarity provides the text similarity backends the scoring
// engines compare evidence and claims with. The token overlap backend
// is the default; the edit distance backend suits short near-verbatim
// strings. Both are deterministic and safe for concurrent use, and
// both satisfy ports.SimilarityBackend so an embedding-backed
// implementation can be swapped in without touching the scorers.
package similarity

import (
	"errors"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
)

// validate is the package-level validator instance shared by all
// similarity backend constructors.
var validate = validator.New()

// foldCaser is a package-level Unicode case folder for performance.
// This avoids creating a new caser for each comparison.
var foldCaser = cases.Fold()

// ErrEmptyBackendName indicates a backend was created without a name.
var ErrEmptyBackendName = errors.New("backend name cannot be empty")

// tokenize folds case and splits text on non-alphanumeric runes,
// dropping tokens shorter than minLen runes. The result preserves
// duplicates; callers needing a set build one themselves.
func tokenize(text string, minLen int) []string {
	folded := foldCaser.String(text)
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if minLen <= 1 {
		return fields
	}
	tokens := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= minLen {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// tokenSet builds a set from tokenize output.
func tokenSet(text string, minLen int) map[string]struct{} {
	tokens := tokenize(text, minLen)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
