// Package grounding validates that extracted claims cite their
// evidence correctly, judges whether a claim set is grounded, and
// drives extraction retry cycles with progressively tightened
// constraints.
package grounding

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/averen/credence/internal/domain"
	"github.com/averen/credence/internal/ports"
)

// validate is a package-level validator instance shared by all
// configuration validation in this package.
var validate = validator.New()

// Common errors returned by validator constructors and operations.
var (
	// ErrNilBackend indicates a validator was constructed without a
	// similarity backend.
	ErrNilBackend = errors.New("similarity backend cannot be nil")

	// ErrNilCitationValidator indicates the grounding validator was
	// constructed without a citation validator.
	ErrNilCitationValidator = errors.New("citation validator must be provided")

	// ErrNilExtractor indicates retry validation was requested on a
	// validator constructed without an extraction collaborator.
	ErrNilExtractor = errors.New("extractor must be provided for retry validation")
)

// CitationConfig defines the configuration parameters for the
// CitationValidator.
type CitationConfig struct {
	// MinCitationConfidence is the confidence below which a citation
	// is flagged.
	MinCitationConfidence float64 `yaml:"min_citation_confidence" json:"min_citation_confidence" validate:"min=0,max=1"`

	// SemanticThreshold is the minimum similarity a cited sentence
	// must reach against at least one of its cited snippets.
	SemanticThreshold float64 `yaml:"semantic_threshold" json:"semantic_threshold" validate:"min=0,max=1"`

	// NearMargin downgrades semantic mismatches within this distance
	// below the threshold to warnings.
	NearMargin float64 `yaml:"near_margin" json:"near_margin" validate:"min=0,max=1"`

	// MinCitationsPerSentence is the citation count every claim
	// sentence must carry.
	MinCitationsPerSentence int `yaml:"min_citations_per_sentence" json:"min_citations_per_sentence" validate:"min=0"`

	// MaxCitationsPerSentence is the citation count above which a
	// sentence is flagged as redundantly cited.
	MaxCitationsPerSentence int `yaml:"max_citations_per_sentence" json:"max_citations_per_sentence" validate:"min=1"`
}

// CitationOverrides carries optional replacements for individual
// CitationConfig fields. Nil fields keep the current value.
type CitationOverrides struct {
	MinCitationConfidence   *float64 `yaml:"min_citation_confidence" json:"min_citation_confidence"`
	SemanticThreshold       *float64 `yaml:"semantic_threshold" json:"semantic_threshold"`
	NearMargin              *float64 `yaml:"near_margin" json:"near_margin"`
	MinCitationsPerSentence *int     `yaml:"min_citations_per_sentence" json:"min_citations_per_sentence"`
	MaxCitationsPerSentence *int     `yaml:"max_citations_per_sentence" json:"max_citations_per_sentence"`
}

// WithOverrides returns a copy of the config with non-nil override
// fields applied.
func (c CitationConfig) WithOverrides(o CitationOverrides) CitationConfig {
	merged := c
	if o.MinCitationConfidence != nil {
		merged.MinCitationConfidence = *o.MinCitationConfidence
	}
	if o.SemanticThreshold != nil {
		merged.SemanticThreshold = *o.SemanticThreshold
	}
	if o.NearMargin != nil {
		merged.NearMargin = *o.NearMargin
	}
	if o.MinCitationsPerSentence != nil {
		merged.MinCitationsPerSentence = *o.MinCitationsPerSentence
	}
	if o.MaxCitationsPerSentence != nil {
		merged.MaxCitationsPerSentence = *o.MaxCitationsPerSentence
	}
	return merged
}

// DefaultCitationConfig returns a CitationConfig with the standard
// confidence and alignment thresholds and a one-to-three citations
// per sentence band.
func DefaultCitationConfig() CitationConfig {
	return CitationConfig{
		MinCitationConfidence:   0.7,
		SemanticThreshold:       0.75,
		NearMargin:              0.1,
		MinCitationsPerSentence: 1,
		MaxCitationsPerSentence: 3,
	}
}

func validateCitationConfig(config CitationConfig) error {
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if config.MinCitationsPerSentence > config.MaxCitationsPerSentence {
		return fmt.Errorf("%w: min citations per sentence %d exceeds max %d",
			domain.ErrInvalidConfiguration,
			config.MinCitationsPerSentence, config.MaxCitationsPerSentence)
	}
	return nil
}

// CitationValidator checks that every citation in a claim set points
// at real evidence, stays within the claim's sentence range, carries
// enough confidence, and aligns semantically with what it cites.
// Findings come back as a structured report, never as errors; the
// error return is reserved for similarity backend failures.
type CitationValidator struct {
	// mu guards config for live updates.
	mu sync.RWMutex
	// config contains the validated configuration parameters.
	config CitationConfig

	backend ports.SimilarityBackend
	tracer  trace.Tracer
}

// NewCitationValidator creates a CitationValidator with the given
// configuration and similarity backend. Returns an error if the
// backend is nil or the configuration fails validation.
func NewCitationValidator(config CitationConfig, backend ports.SimilarityBackend) (*CitationValidator, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}
	if err := validateCitationConfig(config); err != nil {
		return nil, err
	}
	return &CitationValidator{
		config:  config,
		backend: backend,
		tracer:  otel.Tracer("citation-validator"),
	}, nil
}

// Config returns a copy of the current configuration.
func (v *CitationValidator) Config() CitationConfig {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.config
}

// UpdateConfig applies overrides to the live configuration, validating
// the merged result before swapping it in.
func (v *CitationValidator) UpdateConfig(o CitationOverrides) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	merged := v.config.WithOverrides(o)
	if err := validateCitationConfig(merged); err != nil {
		return err
	}
	v.config = merged
	return nil
}

// Validate checks every citation across the claim set against the
// evidence context. The report is always fully populated; the only
// error source is the similarity backend.
func (v *CitationValidator) Validate(ctx context.Context, claims []domain.ClaimField, ev domain.EvidenceContext) (domain.CitationReport, error) {
	ctx, span := v.tracer.Start(ctx, "CitationValidator.Validate",
		trace.WithAttributes(attribute.Int("claims.count", len(claims))),
	)
	defer span.End()

	config := v.Config()

	var (
		report         domain.CitationReport
		totalCitations int
		confidenceSum  float64
	)
	citedExisting := make(map[string]struct{})

	for _, claim := range claims {
		sentences := claim.Sentences()
		counts := make([]int, len(sentences))
		citedInClaim := make(map[string]struct{})
		for _, id := range claim.CitedUnitIDs() {
			citedInClaim[id] = struct{}{}
		}

		for _, cit := range claim.Citations {
			totalCitations++
			confidenceSum += cit.Confidence

			inRange := cit.SentenceIndex >= 0 && cit.SentenceIndex < len(sentences)
			if inRange {
				counts[cit.SentenceIndex]++
			} else {
				report.Issues = append(report.Issues, domain.ValidationIssue{
					Code:          domain.IssueInvalidFormat,
					Severity:      domain.SeverityHigh,
					ClaimName:     claim.Name,
					SentenceIndex: cit.SentenceIndex,
					Message: fmt.Sprintf("sentence index %d outside the claim's %d sentences",
						cit.SentenceIndex, len(sentences)),
				})
			}

			var known []domain.EvidenceUnit
			for _, id := range cit.EvidenceUnitIDs {
				unit, ok := ev.Unit(id)
				if !ok {
					report.Issues = append(report.Issues, domain.ValidationIssue{
						Code:           domain.IssueMissingEvidence,
						Severity:       domain.SeverityCritical,
						ClaimName:      claim.Name,
						SentenceIndex:  cit.SentenceIndex,
						EvidenceUnitID: id,
						Message:        fmt.Sprintf("cited evidence unit %q is not in the evidence context", id),
					})
					continue
				}
				known = append(known, unit)
				citedExisting[id] = struct{}{}
			}

			if cit.Confidence < config.MinCitationConfidence {
				report.Issues = append(report.Issues, domain.ValidationIssue{
					Code:          domain.IssueConfidenceTooLow,
					Severity:      domain.SeverityMedium,
					ClaimName:     claim.Name,
					SentenceIndex: cit.SentenceIndex,
					Message: fmt.Sprintf("citation confidence %.2f below minimum %.2f",
						cit.Confidence, config.MinCitationConfidence),
				})
			}

			if inRange && len(known) > 0 {
				best, bestID, err := v.bestAlignment(ctx, sentences[cit.SentenceIndex], known)
				if err != nil {
					span.RecordError(err)
					return domain.CitationReport{}, err
				}
				if best < config.SemanticThreshold {
					issue := domain.ValidationIssue{
						Code:           domain.IssueSemanticMismatch,
						Severity:       domain.SeverityMedium,
						ClaimName:      claim.Name,
						SentenceIndex:  cit.SentenceIndex,
						EvidenceUnitID: bestID,
						Message: fmt.Sprintf("best alignment %.2f below threshold %.2f",
							best, config.SemanticThreshold),
					}
					if best >= config.SemanticThreshold-config.NearMargin {
						issue.Severity = domain.SeverityLow
						report.Warnings = append(report.Warnings, issue)
					} else {
						report.Issues = append(report.Issues, issue)
					}
				}
			}
		}

		for idx, count := range counts {
			if count < config.MinCitationsPerSentence {
				issue := domain.ValidationIssue{
					Code:          domain.IssueInsufficientCitations,
					Severity:      domain.SeverityHigh,
					ClaimName:     claim.Name,
					SentenceIndex: idx,
					Message: fmt.Sprintf("sentence has %d citations, need at least %d",
						count, config.MinCitationsPerSentence),
				}
				suggestion, err := v.suggestUncited(ctx, sentences[idx], ev, citedInClaim)
				if err != nil {
					span.RecordError(err)
					return domain.CitationReport{}, err
				}
				issue.Suggestion = suggestion
				report.Issues = append(report.Issues, issue)
			}
			if count > config.MaxCitationsPerSentence {
				report.Warnings = append(report.Warnings, domain.ValidationIssue{
					Code:          domain.IssueRedundantCitations,
					Severity:      domain.SeverityLow,
					ClaimName:     claim.Name,
					SentenceIndex: idx,
					Message: fmt.Sprintf("sentence has %d citations, maximum is %d",
						count, config.MaxCitationsPerSentence),
				})
			}
		}
	}

	report.Stats = citationStats(totalCitations, confidenceSum, len(citedExisting), len(ev.Units))
	report.Valid = !hasBlockingIssues(report.Issues)
	span.SetAttributes(
		attribute.Bool("citation.valid", report.Valid),
		attribute.Int("citation.issues", len(report.Issues)),
	)
	return report, nil
}

// bestAlignment finds the strongest similarity between a sentence and
// the evidence units its citation names.
func (v *CitationValidator) bestAlignment(ctx context.Context, sentence string, units []domain.EvidenceUnit) (float64, string, error) {
	best, bestID := -1.0, ""
	for _, unit := range units {
		sim, err := v.backend.Compare(ctx, sentence, unit.Text)
		if err != nil {
			return 0, "", fmt.Errorf("aligning sentence against unit %q: %w", unit.ID, err)
		}
		if sim > best {
			best, bestID = sim, unit.ID
		}
	}
	return best, bestID, nil
}

// suggestUncited names the best-matching evidence unit the claim has
// not cited, giving retry guidance something concrete to point at.
// Returns an empty suggestion when nothing uncited matches at all.
func (v *CitationValidator) suggestUncited(ctx context.Context, sentence string, ev domain.EvidenceContext, citedInClaim map[string]struct{}) (string, error) {
	best, bestID := 0.0, ""
	for _, unit := range ev.Units {
		if _, cited := citedInClaim[unit.ID]; cited {
			continue
		}
		sim, err := v.backend.Compare(ctx, sentence, unit.Text)
		if err != nil {
			return "", fmt.Errorf("matching uncited unit %q: %w", unit.ID, err)
		}
		if sim > best {
			best, bestID = sim, unit.ID
		}
	}
	if bestID == "" {
		return "", nil
	}
	return fmt.Sprintf("cite evidence unit %q (similarity %.2f)", bestID, best), nil
}

func citationStats(total int, confidenceSum float64, citedUnique, totalUnits int) domain.CitationStats {
	stats := domain.CitationStats{TotalCitations: total}
	if totalUnits > 0 {
		stats.EvidenceUtilization = float64(citedUnique) / float64(totalUnits)
	}
	if total > 0 {
		stats.MeanCitationConfidence = confidenceSum / float64(total)
	}
	return stats
}

// hasBlockingIssues reports whether any issue is severe enough to
// invalidate the report.
func hasBlockingIssues(issues []domain.ValidationIssue) bool {
	for _, issue := range issues {
		if issue.Severity == domain.SeverityCritical || issue.Severity == domain.SeverityHigh {
			return true
		}
	}
	return false
}
