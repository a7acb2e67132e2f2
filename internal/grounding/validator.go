package grounding

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/averen/credence/internal/domain"
	"github.com/averen/credence/internal/ports"
)

// Severity penalties applied per citation issue when computing
// citation quality, normalized by the citation count.
const (
	severityPenaltyCritical = 1.0
	severityPenaltyHigh     = 0.6
	severityPenaltyMedium   = 0.3
)

// utilizationTarget is the evidence utilization at which the
// utilization component of the grounding score saturates.
const utilizationTarget = 0.8

// GroundingWeights distributes the grounding score across its four
// components. Weights must sum to 1.0.
type GroundingWeights struct {
	// CitationQuality weights the severity-penalized citation issue
	// ratio.
	CitationQuality float64 `yaml:"citation_quality" json:"citation_quality" validate:"min=0,max=1"`

	// FormatCompliance weights the share of claims with clean inline
	// markers.
	FormatCompliance float64 `yaml:"format_compliance" json:"format_compliance" validate:"min=0,max=1"`

	// Utilization weights how much of the evidence context the claims
	// actually cite.
	Utilization float64 `yaml:"utilization" json:"utilization" validate:"min=0,max=1"`

	// Confidence weights the mean declared citation confidence.
	Confidence float64 `yaml:"confidence" json:"confidence" validate:"min=0,max=1"`
}

// GroundingConfig defines the configuration parameters for the
// GroundingValidator.
type GroundingConfig struct {
	// Weights controls the component mix of the grounding score.
	Weights GroundingWeights `yaml:"weights" json:"weights"`

	// MinGroundingScore is the score at or above which a claim set
	// counts as grounded, provided both sub-reports are also valid.
	MinGroundingScore float64 `yaml:"min_grounding_score" json:"min_grounding_score" validate:"min=0,max=1"`

	// Retry controls the auto-retry loop driven by ValidateWithRetry.
	Retry RetryConfig `yaml:"retry" json:"retry"`
}

// GroundingOverrides carries optional replacements for individual
// GroundingConfig fields. Nil fields keep the current value.
type GroundingOverrides struct {
	Weights           *GroundingWeights `yaml:"weights" json:"weights"`
	MinGroundingScore *float64          `yaml:"min_grounding_score" json:"min_grounding_score"`
	Retry             *RetryConfig      `yaml:"retry" json:"retry"`
}

// WithOverrides returns a copy of the config with non-nil override
// fields applied.
func (c GroundingConfig) WithOverrides(o GroundingOverrides) GroundingConfig {
	merged := c
	if o.Weights != nil {
		merged.Weights = *o.Weights
	}
	if o.MinGroundingScore != nil {
		merged.MinGroundingScore = *o.MinGroundingScore
	}
	if o.Retry != nil {
		merged.Retry = *o.Retry
	}
	return merged
}

// DefaultGroundingConfig returns a GroundingConfig with the standard
// component weights, grounding threshold, and retry policy.
func DefaultGroundingConfig() GroundingConfig {
	return GroundingConfig{
		Weights: GroundingWeights{
			CitationQuality:  0.4,
			FormatCompliance: 0.2,
			Utilization:      0.2,
			Confidence:       0.2,
		},
		MinGroundingScore: 0.8,
		Retry:             DefaultRetryConfig(),
	}
}

func validateGroundingConfig(config GroundingConfig) error {
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return domain.CheckWeightSum("grounding component weights",
		config.Weights.CitationQuality,
		config.Weights.FormatCompliance,
		config.Weights.Utilization,
		config.Weights.Confidence,
	)
}

// GroundingValidator combines citation validation, inline marker
// format validation, and an overall grounding score into one verdict,
// and can drive re-extraction with progressively stricter constraints
// when an extractor is attached.
type GroundingValidator struct {
	// mu guards config for live updates.
	mu sync.RWMutex
	// config contains the validated configuration parameters.
	config GroundingConfig

	citations *CitationValidator
	extractor ports.Extractor
	tracer    trace.Tracer
}

// Option configures optional GroundingValidator collaborators.
type Option func(*GroundingValidator)

// WithExtractor attaches the extraction collaborator that
// ValidateWithRetry drives. Validate alone never needs one.
func WithExtractor(extractor ports.Extractor) Option {
	return func(v *GroundingValidator) {
		v.extractor = extractor
	}
}

// NewGroundingValidator creates a GroundingValidator from a citation
// validator and configuration. Returns an error if the citation
// validator is nil or the configuration fails validation.
func NewGroundingValidator(config GroundingConfig, citations *CitationValidator, opts ...Option) (*GroundingValidator, error) {
	if citations == nil {
		return nil, ErrNilCitationValidator
	}
	if err := validateGroundingConfig(config); err != nil {
		return nil, err
	}
	v := &GroundingValidator{
		config:    config,
		citations: citations,
		tracer:    otel.Tracer("grounding-validator"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Config returns a copy of the current configuration.
func (v *GroundingValidator) Config() GroundingConfig {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.config
}

// UpdateConfig applies overrides to the live configuration, validating
// the merged result before swapping it in.
func (v *GroundingValidator) UpdateConfig(o GroundingOverrides) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	merged := v.config.WithOverrides(o)
	if err := validateGroundingConfig(merged); err != nil {
		return err
	}
	v.config = merged
	return nil
}

// Validate runs citation and format validation over the claim set and
// folds both into a grounding verdict. A claim set is grounded only
// when the score clears the configured minimum and both sub-reports
// are individually valid.
func (v *GroundingValidator) Validate(ctx context.Context, claims []domain.ClaimField, ev domain.EvidenceContext) (domain.GroundingReport, error) {
	ctx, span := v.tracer.Start(ctx, "GroundingValidator.Validate",
		trace.WithAttributes(attribute.Int("claims.count", len(claims))),
	)
	defer span.End()

	config := v.Config()

	citation, err := v.citations.Validate(ctx, claims, ev)
	if err != nil {
		span.RecordError(err)
		return domain.GroundingReport{}, fmt.Errorf("validating citations: %w", err)
	}
	format := ValidateFormat(claims)

	score := groundingScore(citation, format, config.Weights)
	report := domain.GroundingReport{
		Grounded:     score >= config.MinGroundingScore && citation.Valid && format.Valid,
		Score:        score,
		Citation:     citation,
		Format:       format,
		Improvements: improvementsFor(citation, format),
	}
	span.SetAttributes(
		attribute.Bool("grounding.grounded", report.Grounded),
		attribute.Float64("eval.score", report.Score),
	)
	return report, nil
}

// ValidateWithRetry asks the extractor for claims and validates them,
// re-extracting with tightened constraints until the result grounds,
// retries run out, or the extractor fails. Extractor failure is
// terminal and returns the last completed report alongside the
// wrapped error. Parent cancellation between attempts returns the
// last completed report without an error so partial progress is not
// discarded.
func (v *GroundingValidator) ValidateWithRetry(ctx context.Context, req domain.ExtractionRequest, ev domain.EvidenceContext) (domain.GroundingReport, error) {
	if v.extractor == nil {
		return domain.GroundingReport{}, ErrNilExtractor
	}

	ctx, span := v.tracer.Start(ctx, "GroundingValidator.ValidateWithRetry",
		trace.WithAttributes(attribute.String("persona.id", req.PersonaID)),
	)
	defer span.End()

	config := v.Config()
	request := req
	if request.Attempt < 1 {
		request.Attempt = 1
	}

	var last domain.GroundingReport
	for {
		report, err := v.attempt(ctx, request, ev, config.Retry)
		if err != nil {
			// An attempt sunk by parent cancellation must not discard
			// the progress of earlier completed attempts.
			if ctx.Err() != nil && last.Attempts > 0 {
				span.SetAttributes(attribute.String("grounding.state", string(StateFailed)))
				return last, nil
			}
			last.Attempts = request.Attempt
			span.RecordError(err)
			return last, err
		}
		report.Attempts = request.Attempt
		last = report

		decision := Transition(report, request, config.Retry)
		if decision.State != StateRetrying {
			span.SetAttributes(
				attribute.String("grounding.state", string(decision.State)),
				attribute.Int("grounding.attempts", last.Attempts),
			)
			return last, nil
		}
		if ctx.Err() != nil {
			span.SetAttributes(attribute.String("grounding.state", string(StateFailed)))
			return last, nil
		}
		request = decision.Next
	}
}

// attempt runs one extract-and-validate cycle bounded by the attempt
// timeout.
func (v *GroundingValidator) attempt(ctx context.Context, request domain.ExtractionRequest, ev domain.EvidenceContext, retry RetryConfig) (domain.GroundingReport, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, retry.AttemptTimeout)
	defer cancel()

	response, err := v.extractor.Extract(attemptCtx, request)
	if err != nil {
		return domain.GroundingReport{}, ports.NewExtractionError(request.PersonaID, request.Attempt, err)
	}
	report, err := v.Validate(attemptCtx, response.Claims, ev)
	if err != nil {
		return domain.GroundingReport{}, fmt.Errorf("validating extraction attempt %d: %w", request.Attempt, err)
	}
	return report, nil
}

// groundingScore folds the two sub-reports into one weighted score.
func groundingScore(citation domain.CitationReport, format domain.FormatReport, weights GroundingWeights) float64 {
	quality := citationQuality(citation)
	utilization := math.Min(1, citation.Stats.EvidenceUtilization/utilizationTarget)
	score := weights.CitationQuality*quality +
		weights.FormatCompliance*format.Compliance +
		weights.Utilization*utilization +
		weights.Confidence*citation.Stats.MeanCitationConfidence
	return domain.Clamp01(score)
}

// citationQuality converts citation issues into a quality score by
// charging a severity-scaled penalty per issue, normalized by the
// citation count. Warnings carry no penalty.
func citationQuality(citation domain.CitationReport) float64 {
	if len(citation.Issues) == 0 {
		return 1.0
	}
	var penalty float64
	for _, issue := range citation.Issues {
		switch issue.Severity {
		case domain.SeverityCritical:
			penalty += severityPenaltyCritical
		case domain.SeverityHigh:
			penalty += severityPenaltyHigh
		case domain.SeverityMedium:
			penalty += severityPenaltyMedium
		}
	}
	citations := max(citation.Stats.TotalCitations, 1)
	return math.Max(0, 1-penalty/float64(citations))
}

// improvementHints maps issue codes to the retry guidance they
// suggest, in the order guidance should be emitted.
var improvementHints = []struct {
	code domain.IssueCode
	hint string
}{
	{domain.IssueMissingEvidence, "cite only evidence units present in the provided context"},
	{domain.IssueInvalidFormat, "keep citation sentence indexes inside the claim's sentence range"},
	{domain.IssueInsufficientCitations, "add citations so every sentence is backed by evidence"},
	{domain.IssueSemanticMismatch, "align each sentence more closely with the evidence it cites"},
	{domain.IssueConfidenceTooLow, "strengthen weakly supported statements or drop them"},
	{domain.IssueRedundantCitations, "trim citations that repeat the same support"},
	{domain.IssueMissingMarker, "mark every cited unit inline with its [unit_id]"},
	{domain.IssueDuplicateMarker, "remove repeated inline markers for the same unit"},
	{domain.IssueMalformedMarker, "write inline markers as [unit_id] using the unit's exact ID"},
}

// improvementsFor derives deduplicated guidance from every issue and
// warning across both sub-reports.
func improvementsFor(citation domain.CitationReport, format domain.FormatReport) []string {
	present := make(map[domain.IssueCode]struct{})
	for _, issue := range citation.Issues {
		present[issue.Code] = struct{}{}
	}
	for _, issue := range citation.Warnings {
		present[issue.Code] = struct{}{}
	}
	for _, issue := range format.Issues {
		present[issue.Code] = struct{}{}
	}

	var hints []string
	for _, h := range improvementHints {
		if _, ok := present[h.code]; ok {
			hints = append(hints, h.hint)
		}
	}
	return hints
}
