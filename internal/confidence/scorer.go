// Package confidence scores how well extracted claims are backed by
// their cited evidence and aggregates claim scores into persona-level
// confidence judgments with approve/review/reject recommendations.
package confidence

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"

	"github.com/averen/credence/internal/domain"
	"github.com/averen/credence/internal/ports"
)

// validate is a package-level validator instance shared by all
// configuration validation in this package.
var validate = validator.New()

// foldCaser performs Unicode case folding for negation matching.
var foldCaser = cases.Fold()

// ErrNilBackend indicates the scorer was constructed without a
// similarity backend.
var ErrNilBackend = errors.New("similarity backend cannot be nil")

// intervalZ is the z-value that turns uncertainty into a 95%-style
// confidence interval.
const intervalZ = 1.96

// Weights control how the four evidential components combine into a
// claim's confidence score. They must sum to 1.0.
type Weights struct {
	// SourceAgreement weights support versus conflict among evidence.
	SourceAgreement float64 `yaml:"source_agreement" json:"source_agreement" validate:"min=0,max=1"`

	// EvidenceVolume weights how much supporting evidence exists.
	EvidenceVolume float64 `yaml:"evidence_volume" json:"evidence_volume" validate:"min=0,max=1"`

	// SourceQuality weights the assessed quality of supporting
	// evidence.
	SourceQuality float64 `yaml:"source_quality" json:"source_quality" validate:"min=0,max=1"`

	// Recency weights the freshness of supporting evidence.
	Recency float64 `yaml:"recency" json:"recency" validate:"min=0,max=1"`
}

// ScorerConfig defines the configuration parameters for the claim
// confidence Scorer.
type ScorerConfig struct {
	// Weights blend the four component scores.
	Weights Weights `yaml:"weights" json:"weights"`

	// MinEvidenceCount is the supporting-evidence count below which
	// the volume component stays fractional and scarcity raises
	// uncertainty.
	MinEvidenceCount int `yaml:"min_evidence_count" json:"min_evidence_count" validate:"min=1"`

	// MaxEvidenceCount is the supporting-evidence count at which the
	// volume component saturates.
	MaxEvidenceCount int `yaml:"max_evidence_count" json:"max_evidence_count" validate:"min=1"`

	// MinSourceQuality is the quality floor the source quality
	// component normalizes against.
	MinSourceQuality float64 `yaml:"min_source_quality" json:"min_source_quality" validate:"min=0,lt=1"`

	// RecencyDecayDays is the exponential decay constant for the
	// recency component, in days.
	RecencyDecayDays float64 `yaml:"recency_decay_days" json:"recency_decay_days" validate:"gt=0"`

	// DisagreementPenalty scales how hard conflicting evidence drags
	// down source agreement.
	DisagreementPenalty float64 `yaml:"disagreement_penalty" json:"disagreement_penalty" validate:"min=0,max=1"`

	// SimilarityThreshold is the minimum similarity for cited evidence
	// to count as supporting.
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold" validate:"min=0,max=1"`

	// ConflictThreshold is the minimum similarity for uncited,
	// negation-mismatched evidence to count as conflicting.
	ConflictThreshold float64 `yaml:"conflict_threshold" json:"conflict_threshold" validate:"min=0,max=1"`
}

// ScorerOverrides carries optional replacements for individual
// ScorerConfig fields. Nil fields keep the current value.
type ScorerOverrides struct {
	Weights             *Weights `yaml:"weights" json:"weights"`
	MinEvidenceCount    *int     `yaml:"min_evidence_count" json:"min_evidence_count"`
	MaxEvidenceCount    *int     `yaml:"max_evidence_count" json:"max_evidence_count"`
	MinSourceQuality    *float64 `yaml:"min_source_quality" json:"min_source_quality"`
	RecencyDecayDays    *float64 `yaml:"recency_decay_days" json:"recency_decay_days"`
	DisagreementPenalty *float64 `yaml:"disagreement_penalty" json:"disagreement_penalty"`
	SimilarityThreshold *float64 `yaml:"similarity_threshold" json:"similarity_threshold"`
	ConflictThreshold   *float64 `yaml:"conflict_threshold" json:"conflict_threshold"`
}

// WithOverrides returns a copy of the config with non-nil override
// fields applied.
func (c ScorerConfig) WithOverrides(o ScorerOverrides) ScorerConfig {
	merged := c
	if o.Weights != nil {
		merged.Weights = *o.Weights
	}
	if o.MinEvidenceCount != nil {
		merged.MinEvidenceCount = *o.MinEvidenceCount
	}
	if o.MaxEvidenceCount != nil {
		merged.MaxEvidenceCount = *o.MaxEvidenceCount
	}
	if o.MinSourceQuality != nil {
		merged.MinSourceQuality = *o.MinSourceQuality
	}
	if o.RecencyDecayDays != nil {
		merged.RecencyDecayDays = *o.RecencyDecayDays
	}
	if o.DisagreementPenalty != nil {
		merged.DisagreementPenalty = *o.DisagreementPenalty
	}
	if o.SimilarityThreshold != nil {
		merged.SimilarityThreshold = *o.SimilarityThreshold
	}
	if o.ConflictThreshold != nil {
		merged.ConflictThreshold = *o.ConflictThreshold
	}
	return merged
}

// DefaultScorerConfig returns a ScorerConfig with standard component
// weights, a two-to-five supporting evidence band and a one year
// recency decay.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		Weights: Weights{
			SourceAgreement: 0.4,
			EvidenceVolume:  0.3,
			SourceQuality:   0.2,
			Recency:         0.1,
		},
		MinEvidenceCount:    2,
		MaxEvidenceCount:    5,
		MinSourceQuality:    0.3,
		RecencyDecayDays:    365,
		DisagreementPenalty: 0.5,
		SimilarityThreshold: 0.7,
		ConflictThreshold:   0.8,
	}
}

func validateScorerConfig(config ScorerConfig) error {
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if config.MinEvidenceCount > config.MaxEvidenceCount {
		return fmt.Errorf("%w: min evidence count %d exceeds max %d",
			domain.ErrInvalidConfiguration,
			config.MinEvidenceCount, config.MaxEvidenceCount)
	}
	w := config.Weights
	return domain.CheckWeightSum("confidence component weights",
		w.SourceAgreement, w.EvidenceVolume, w.SourceQuality, w.Recency)
}

// Scorer computes a claim's confidence from its cited evidence. It
// partitions the evidence context into supporting and conflicting
// items, derives four evidential components, and reports the weighted
// score with an uncertainty-based interval.
type Scorer struct {
	// mu guards config for live updates.
	mu sync.RWMutex
	// config contains the validated configuration parameters.
	config ScorerConfig

	backend ports.SimilarityBackend
	tracer  trace.Tracer

	// now is injectable for deterministic recency tests.
	now func() time.Time
}

// NewScorer creates a claim confidence Scorer with the given
// configuration and similarity backend. Returns an error if the
// backend is nil or the configuration fails validation.
func NewScorer(config ScorerConfig, backend ports.SimilarityBackend) (*Scorer, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}
	if err := validateScorerConfig(config); err != nil {
		return nil, err
	}
	return &Scorer{
		config:  config,
		backend: backend,
		tracer:  otel.Tracer("confidence-scorer"),
		now:     time.Now,
	}, nil
}

// Config returns a copy of the current configuration.
func (s *Scorer) Config() ScorerConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// UpdateConfig applies overrides to the live configuration, validating
// the merged result before swapping it in.
func (s *Scorer) UpdateConfig(o ScorerOverrides) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := s.config.WithOverrides(o)
	if err := validateScorerConfig(merged); err != nil {
		return err
	}
	s.config = merged
	return nil
}

// supportingEvidence is one cited unit that backs the claim, carrying
// the similarity that qualified it plus the quality and freshness
// weights the component scores draw on.
type supportingEvidence struct {
	similarity float64
	quality    float64
	freshness  float64
}

// Score computes the confidence breakdown for one claim against the
// evidence context. Cited units with similarity at or above the
// similarity threshold support the claim; uncited units with
// similarity at or above the conflict threshold and a negation
// mismatch contradict it.
func (s *Scorer) Score(ctx context.Context, claim domain.ClaimField, ev domain.EvidenceContext) (domain.ConfidenceBreakdown, error) {
	ctx, span := s.tracer.Start(ctx, "Scorer.Score",
		trace.WithAttributes(attribute.String("claim.name", claim.Name)),
	)
	defer span.End()

	config := s.Config()

	supporting, conflicting, err := s.partition(ctx, claim, ev, config)
	if err != nil {
		span.RecordError(err)
		return domain.ConfidenceBreakdown{}, err
	}

	agreement := agreementScore(len(supporting), conflicting, config)
	volume := volumeScore(len(supporting), config)
	quality := qualityScore(supporting, config)
	recency := recencyScore(supporting)

	w := config.Weights
	score := domain.Clamp01(w.SourceAgreement*agreement + w.EvidenceVolume*volume +
		w.SourceQuality*quality + w.Recency*recency)
	uncertainty := uncertaintyFor(len(supporting), conflicting, score, config)

	span.SetAttributes(
		attribute.Float64("eval.score", score),
		attribute.Int("evidence.supporting", len(supporting)),
		attribute.Int("evidence.conflicting", conflicting),
	)
	return domain.ConfidenceBreakdown{
		ClaimName:       claim.Name,
		Score:           score,
		SourceAgreement: agreement,
		EvidenceVolume:  volume,
		SourceQuality:   quality,
		Recency:         recency,
		Uncertainty:     uncertainty,
		Interval: domain.ConfidenceInterval{
			Lower: domain.Clamp01(score - intervalZ*uncertainty),
			Upper: domain.Clamp01(score + intervalZ*uncertainty),
		},
		SupportingCount:  len(supporting),
		ConflictingCount: conflicting,
	}, nil
}

// partition walks the evidence context once, collecting supporting
// evidence and counting conflicts.
func (s *Scorer) partition(ctx context.Context, claim domain.ClaimField, ev domain.EvidenceContext, config ScorerConfig) ([]supportingEvidence, int, error) {
	cited := make(map[string]struct{})
	for _, id := range claim.CitedUnitIDs() {
		cited[id] = struct{}{}
	}

	claimNegated := hasNegation(claim.Text)
	now := s.now()

	var supporting []supportingEvidence
	conflicting := 0
	for _, unit := range ev.Units {
		sim, err := s.backend.Compare(ctx, claim.Text, unit.Text)
		if err != nil {
			return nil, 0, fmt.Errorf("comparing claim %q against unit %q: %w",
				claim.Name, unit.ID, err)
		}
		if _, isCited := cited[unit.ID]; isCited {
			if sim >= config.SimilarityThreshold {
				supporting = append(supporting, s.assess(unit, ev, sim, now, config))
			}
			continue
		}
		if sim >= config.ConflictThreshold && claimNegated != hasNegation(unit.Text) {
			conflicting++
		}
	}
	return supporting, conflicting, nil
}

// assess resolves one supporting unit's quality and freshness. An
// assessed QualityScore wins over the tier-derived default; a unit
// whose source is unknown keeps the informal default and contributes
// zero freshness.
func (s *Scorer) assess(unit domain.EvidenceUnit, ev domain.EvidenceContext, sim float64, now time.Time, config ScorerConfig) supportingEvidence {
	source, known := ev.SourceFor(unit.SourceID)

	quality := tierQuality(source.Tier)
	if unit.QualityScore != nil {
		quality = domain.Clamp01(*unit.QualityScore)
	}

	freshness := 0.0
	if known {
		age := now.Sub(source.EffectiveDate()).Hours() / 24
		if age < 0 {
			age = 0
		}
		freshness = math.Exp(-age / config.RecencyDecayDays)
	}
	return supportingEvidence{similarity: sim, quality: quality, freshness: freshness}
}

// agreementScore is the supporting ratio minus the configured penalty
// scaled by the conflicting ratio. No assessed evidence scores zero.
func agreementScore(supporting, conflicting int, config ScorerConfig) float64 {
	total := supporting + conflicting
	if total == 0 {
		return 0
	}
	supportRatio := float64(supporting) / float64(total)
	conflictRatio := float64(conflicting) / float64(total)
	return domain.Clamp01(supportRatio - config.DisagreementPenalty*conflictRatio)
}

// volumeScore measures supporting count against the evidence band,
// saturating at the max count.
func volumeScore(supporting int, config ScorerConfig) float64 {
	if supporting >= config.MaxEvidenceCount {
		return 1.0
	}
	return math.Min(1, float64(supporting)/float64(config.MinEvidenceCount))
}

// qualityScore is the similarity-weighted mean quality of supporting
// evidence, normalized against the configured quality floor.
func qualityScore(supporting []supportingEvidence, config ScorerConfig) float64 {
	if len(supporting) == 0 {
		return 0
	}
	var weighted, totalSim float64
	for _, s := range supporting {
		weighted += s.similarity * s.quality
		totalSim += s.similarity
	}
	if totalSim == 0 {
		return 0
	}
	raw := weighted / totalSim
	return math.Max(0, (raw-config.MinSourceQuality)/(1-config.MinSourceQuality))
}

// recencyScore is the quality-weighted mean freshness of supporting
// evidence.
func recencyScore(supporting []supportingEvidence) float64 {
	if len(supporting) == 0 {
		return 0
	}
	var weighted, totalQuality float64
	for _, s := range supporting {
		weighted += s.quality * s.freshness
		totalQuality += s.quality
	}
	if totalQuality == 0 {
		return 0
	}
	return weighted / totalQuality
}

// uncertaintyFor combines three doubt signals: scarcity when
// supporting evidence falls below the minimum count, conflict in
// proportion to the conflicting ratio, and ambiguity peaking as the
// score approaches 0.5. Capped at 0.5.
func uncertaintyFor(supporting, conflicting int, score float64, config ScorerConfig) float64 {
	uncertainty := 0.0
	if supporting < config.MinEvidenceCount {
		deficit := float64(config.MinEvidenceCount-supporting) / float64(config.MinEvidenceCount)
		uncertainty += deficit * 0.25
	}
	if total := supporting + conflicting; total > 0 {
		uncertainty += float64(conflicting) / float64(total) * 0.3
	}
	uncertainty += (0.5 - math.Abs(score-0.5)) * 0.2
	return math.Min(0.5, uncertainty)
}

// tierQuality is the fallback unit quality when no assessed
// QualityScore is present, derived from the source tier. Unknown
// sources take the informal default.
func tierQuality(tier domain.SourceTier) float64 {
	switch tier {
	case domain.TierCanonical:
		return 1.0
	case domain.TierReputable:
		return 0.85
	case domain.TierCommunity:
		return 0.65
	default:
		return 0.4
	}
}

// negationTokens are the markers the contradiction heuristic looks
// for. The heuristic is deliberately shallow; downstream thresholds
// are tuned against exactly this strength, so keep it in sync with
// them rather than broadening it.
var negationTokens = map[string]struct{}{
	"no": {}, "not": {}, "never": {}, "none": {},
	"neither": {}, "nor": {}, "cannot": {},
}

// hasNegation reports whether the text carries a negation marker,
// matching whole tokens and n't contractions.
func hasNegation(text string) bool {
	folded := foldCaser.String(text)
	for _, token := range strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	}) {
		if _, ok := negationTokens[token]; ok {
			return true
		}
		if strings.HasSuffix(token, "n't") {
			return true
		}
	}
	return false
}
