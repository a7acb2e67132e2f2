package scorers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/averen/credence/internal/domain"
	"github.com/averen/credence/internal/ports"
)

// CorroborationWeights control how the four corroboration components
// combine. They must sum to 1.0.
type CorroborationWeights struct {
	// SourceCount weights how many distinct sources corroborate.
	SourceCount float64 `yaml:"source_count" json:"source_count" validate:"min=0,max=1"`

	// Diversity weights the spread of domains, tiers, authors and
	// publication dates among corroborators.
	Diversity float64 `yaml:"diversity" json:"diversity" validate:"min=0,max=1"`

	// Consistency weights how tightly corroborator similarities
	// cluster.
	Consistency float64 `yaml:"consistency" json:"consistency" validate:"min=0,max=1"`

	// Independence weights how many corroborators are editorially
	// independent of the target.
	Independence float64 `yaml:"independence" json:"independence" validate:"min=0,max=1"`
}

// CorroborationConfig defines the configuration parameters for the
// CorroborationScorer.
type CorroborationConfig struct {
	// Weights blend the component scores.
	Weights CorroborationWeights `yaml:"weights" json:"weights"`

	// SimilarityThreshold is the minimum similarity for a candidate
	// to count as corroborating.
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold" validate:"min=0,max=1"`

	// NearDuplicateThreshold marks candidates so similar to the
	// target that they are presumed copies, not independent accounts.
	NearDuplicateThreshold float64 `yaml:"near_duplicate_threshold" json:"near_duplicate_threshold" validate:"min=0,max=1"`

	// MaxCandidates caps how many related units are compared.
	MaxCandidates int `yaml:"max_candidates" json:"max_candidates" validate:"min=1"`
}

// CorroborationOverrides carries optional replacements for individual
// CorroborationConfig fields. Nil fields keep the current value.
type CorroborationOverrides struct {
	Weights                *CorroborationWeights `yaml:"weights" json:"weights"`
	SimilarityThreshold    *float64              `yaml:"similarity_threshold" json:"similarity_threshold"`
	NearDuplicateThreshold *float64              `yaml:"near_duplicate_threshold" json:"near_duplicate_threshold"`
	MaxCandidates          *int                  `yaml:"max_candidates" json:"max_candidates"`
}

// WithOverrides returns a copy of the config with non-nil override
// fields applied.
func (c CorroborationConfig) WithOverrides(o CorroborationOverrides) CorroborationConfig {
	merged := c
	if o.Weights != nil {
		merged.Weights = *o.Weights
	}
	if o.SimilarityThreshold != nil {
		merged.SimilarityThreshold = *o.SimilarityThreshold
	}
	if o.NearDuplicateThreshold != nil {
		merged.NearDuplicateThreshold = *o.NearDuplicateThreshold
	}
	if o.MaxCandidates != nil {
		merged.MaxCandidates = *o.MaxCandidates
	}
	return merged
}

// DefaultCorroborationConfig returns a CorroborationConfig with
// standard thresholds and weights.
func DefaultCorroborationConfig() CorroborationConfig {
	return CorroborationConfig{
		Weights: CorroborationWeights{
			SourceCount:  0.4,
			Diversity:    0.25,
			Consistency:  0.2,
			Independence: 0.15,
		},
		SimilarityThreshold:    0.7,
		NearDuplicateThreshold: 0.95,
		MaxCandidates:          50,
	}
}

// CorroboratingUnit records one piece of evidence found to corroborate
// the target.
type CorroboratingUnit struct {
	// UnitID is the corroborating evidence unit.
	UnitID string `json:"unit_id"`

	// SourceID is the corroborating unit's source.
	SourceID string `json:"source_id"`

	// Similarity is the backend similarity to the target text.
	Similarity float64 `json:"similarity"`

	// Independent reports whether the corroborator passed the
	// independence heuristics.
	Independent bool `json:"independent"`
}

// CorroborationComponents carries the four component scores behind a
// corroboration result.
type CorroborationComponents struct {
	// SourceCount scores the number of distinct corroborating sources.
	SourceCount float64 `json:"source_count"`

	// Diversity scores domain, tier, author and date spread.
	Diversity float64 `json:"diversity"`

	// Consistency scores how tightly similarities cluster.
	Consistency float64 `json:"consistency"`

	// Independence scores the share of independent corroborators.
	Independence float64 `json:"independence"`
}

// CorroborationResult carries the corroboration score together with
// the component breakdown and the corroborators that produced it.
type CorroborationResult struct {
	// Score is the final corroboration score (0.0 to 1.0).
	Score float64 `json:"score"`

	// Components is the per-component breakdown.
	Components CorroborationComponents `json:"components"`

	// Corroborating lists the matched units, in candidate order.
	Corroborating []CorroboratingUnit `json:"corroborating"`

	// Reasoning explains the component scores.
	Reasoning []string `json:"reasoning"`
}

// CorroborationScorer measures how well independent evidence backs the
// target unit. Candidates from the target's own source never count;
// matches are screened for shared domains, shared authors, syndication
// language and near-duplication before they earn independence credit.
type CorroborationScorer struct {
	// name is the unique identifier for this scorer instance.
	name string
	// mu guards config for live updates.
	mu sync.RWMutex
	// config contains the validated configuration parameters.
	config CorroborationConfig
	// backend computes text similarity between target and candidates.
	backend ports.SimilarityBackend
	// tracer is the OpenTelemetry tracer for observability.
	tracer trace.Tracer
}

// NewCorroborationScorer creates a CorroborationScorer with the given
// similarity backend and configuration. Returns an error if the
// backend is nil or configuration validation fails.
func NewCorroborationScorer(name string, backend ports.SimilarityBackend, config CorroborationConfig) (*CorroborationScorer, error) {
	if name == "" {
		return nil, ErrEmptyScorerName
	}
	if backend == nil {
		return nil, ErrNilBackend
	}
	if err := validateCorroborationConfig(config); err != nil {
		return nil, err
	}
	return &CorroborationScorer{
		name:    name,
		config:  config,
		backend: backend,
		tracer:  otel.Tracer("corroboration-scorer"),
	}, nil
}

func validateCorroborationConfig(config CorroborationConfig) error {
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	w := config.Weights
	if err := domain.CheckWeightSum("corroboration weights",
		w.SourceCount, w.Diversity, w.Consistency, w.Independence); err != nil {
		return err
	}
	if config.NearDuplicateThreshold < config.SimilarityThreshold {
		return fmt.Errorf("%w: near-duplicate threshold %.2f below similarity threshold %.2f",
			domain.ErrInvalidConfiguration,
			config.NearDuplicateThreshold, config.SimilarityThreshold)
	}
	return nil
}

// Name returns the unique identifier for this scorer instance.
func (s *CorroborationScorer) Name() string { return s.name }

// Config returns a copy of the current configuration.
func (s *CorroborationScorer) Config() CorroborationConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// UpdateConfig applies overrides to the live configuration, validating
// the merged result before swapping it in.
func (s *CorroborationScorer) UpdateConfig(o CorroborationOverrides) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := s.config.WithOverrides(o)
	if err := validateCorroborationConfig(merged); err != nil {
		return err
	}
	s.config = merged
	return nil
}

// Score evaluates how well the related evidence corroborates the
// target unit. The target's source provides the domain and author used
// by the independence heuristics.
func (s *CorroborationScorer) Score(ctx context.Context, target domain.EvidenceUnit, targetSource domain.Source, related domain.EvidenceContext) (CorroborationResult, error) {
	ctx, span := s.tracer.Start(ctx, "CorroborationScorer.Score",
		trace.WithAttributes(
			attribute.String("scorer.id", s.name),
			attribute.String("unit.id", target.ID),
		),
	)
	defer span.End()

	start := time.Now()
	config := s.Config()

	candidates := make([]domain.EvidenceUnit, 0, len(related.Units))
	for _, cand := range related.Units {
		if cand.ID == target.ID || cand.SourceID == target.SourceID {
			continue
		}
		candidates = append(candidates, cand)
		if len(candidates) == config.MaxCandidates {
			break
		}
	}

	corroborating := make([]CorroboratingUnit, 0, len(candidates))
	for _, cand := range candidates {
		sim, err := s.backend.Compare(ctx, target.Text, cand.Text)
		if err != nil {
			span.RecordError(err)
			return CorroborationResult{}, fmt.Errorf("comparing unit %q: %w", cand.ID, err)
		}
		if sim < config.SimilarityThreshold {
			continue
		}
		candSource, hasSource := related.SourceFor(cand.SourceID)
		corroborating = append(corroborating, CorroboratingUnit{
			UnitID:      cand.ID,
			SourceID:    cand.SourceID,
			Similarity:  sim,
			Independent: s.independent(targetSource, candSource, hasSource, cand.Text, sim, config),
		})
	}

	if len(corroborating) == 0 {
		span.SetAttributes(
			attribute.Float64("eval.score", 0),
			attribute.Int("eval.corroborating_count", 0),
			attribute.Int64("eval.latency_ms", time.Since(start).Milliseconds()),
		)
		return CorroborationResult{
			Corroborating: corroborating,
			Reasoning: []string{fmt.Sprintf(
				"no corroborating evidence among %d candidates", len(candidates))},
		}, nil
	}

	components, reasoning := s.components(corroborating, related, config)
	w := config.Weights
	score := domain.Clamp01(w.SourceCount*components.SourceCount +
		w.Diversity*components.Diversity +
		w.Consistency*components.Consistency +
		w.Independence*components.Independence)

	span.SetAttributes(
		attribute.Float64("eval.score", score),
		attribute.Int("eval.corroborating_count", len(corroborating)),
		attribute.Int64("eval.latency_ms", time.Since(start).Milliseconds()),
	)

	return CorroborationResult{
		Score:         score,
		Components:    components,
		Corroborating: corroborating,
		Reasoning:     reasoning,
	}, nil
}

// independent applies the independence heuristics between the target's
// source and one corroborator. Any single hit marks the pair
// dependent.
func (s *CorroborationScorer) independent(target domain.Source, cand domain.Source, hasSource bool, candText string, sim float64, config CorroborationConfig) bool {
	if sim > config.NearDuplicateThreshold {
		return false
	}
	if profileText(candText).hasAny(syndicationPatterns) {
		return false
	}
	if !hasSource {
		return true
	}
	if td, cd := registrableDomain(target), registrableDomain(cand); td != "" && td == cd {
		return false
	}
	if sameAuthor(target.Author, cand.Author) {
		return false
	}
	return true
}

// components computes the four corroboration components from the
// matched units.
func (s *CorroborationScorer) components(corroborating []CorroboratingUnit, related domain.EvidenceContext, config CorroborationConfig) (CorroborationComponents, []string) {
	uniqueSources := make(map[string]struct{}, len(corroborating))
	domains := make([]string, 0, len(corroborating))
	tiers := make([]string, 0, len(corroborating))
	authors := make([]string, 0, len(corroborating))
	var earliest, latest time.Time
	independentCount := 0
	sims := make([]float64, 0, len(corroborating))

	for _, cu := range corroborating {
		uniqueSources[cu.SourceID] = struct{}{}
		sims = append(sims, cu.Similarity)
		if cu.Independent {
			independentCount++
		}
		src, ok := related.SourceFor(cu.SourceID)
		if !ok {
			// Unknown sources still count toward diversity under
			// their IDs so they are never conflated with each other.
			domains = append(domains, cu.SourceID)
			tiers = append(tiers, cu.SourceID)
			authors = append(authors, cu.SourceID)
			continue
		}
		domains = append(domains, registrableDomain(src))
		tiers = append(tiers, src.Tier.String())
		authors = append(authors, src.Author)
		date := src.EffectiveDate()
		if earliest.IsZero() || date.Before(earliest) {
			earliest = date
		}
		if latest.IsZero() || date.After(latest) {
			latest = date
		}
	}

	sourceCount := sourceCountScore(len(uniqueSources))

	spreadDays := 0.0
	if !earliest.IsZero() {
		spreadDays = latest.Sub(earliest).Hours() / 24
	}
	dateSpread := spreadDays / 30
	if dateSpread > 1 {
		dateSpread = 1
	}
	diversity := 0.4*uniqueRatio(domains) + 0.2*uniqueRatio(tiers) +
		0.2*uniqueRatio(authors) + 0.2*dateSpread

	mean := 0.0
	for _, v := range sims {
		mean += v
	}
	mean /= float64(len(sims))
	variance := 0.0
	for _, v := range sims {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(sims))
	consistency := domain.Clamp01(mean - 2*variance)

	independence := float64(independentCount) / float64(len(corroborating))
	if independentCount > 0 {
		independence += 0.2
	}
	if independence > 1 {
		independence = 1
	}

	reasoning := []string{
		fmt.Sprintf("%d corroborating units across %d sources (%d independent)",
			len(corroborating), len(uniqueSources), independentCount),
		fmt.Sprintf("similarity mean %.2f variance %.3f", mean, variance),
		fmt.Sprintf("publication spread %.0f days", spreadDays),
	}

	return CorroborationComponents{
		SourceCount:  sourceCount,
		Diversity:    diversity,
		Consistency:  consistency,
		Independence: independence,
	}, reasoning
}

// sourceCountScore steps the distinct-source count onto [0,1]. Returns
// diminish sharply after three sources.
func sourceCountScore(n int) float64 {
	switch {
	case n <= 0:
		return 0
	case n == 1:
		return 0.3
	case n == 2:
		return 0.6
	case n == 3:
		return 0.8
	case n == 4:
		return 0.85
	case n == 5:
		return 0.9
	default:
		return 1.0
	}
}

// registrableDomain reduces a source to its registrable base domain:
// "www.news.example.co.uk" and "example.co.uk" compare equal. Falls
// back to the URL host when the Domain field is empty.
func registrableDomain(src domain.Source) string {
	host := strings.ToLower(strings.TrimSpace(src.Domain))
	if host == "" && src.URL != "" {
		if u, err := url.Parse(src.URL); err == nil {
			host = strings.ToLower(u.Hostname())
		}
	}
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return ""
	}

	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return host
	}
	tail := strings.Join(labels[len(labels)-2:], ".")
	if _, ok := secondLevelTLDs[tail]; ok {
		return strings.Join(labels[len(labels)-3:], ".")
	}
	return tail
}

// secondLevelTLDs lists common registries that sell third-level
// domains, so "bbc.co.uk" keeps three labels instead of two.
var secondLevelTLDs = map[string]struct{}{
	"co.uk": {}, "ac.uk": {}, "gov.uk": {}, "org.uk": {},
	"co.jp": {}, "co.nz": {}, "co.in": {}, "co.kr": {},
	"com.au": {}, "net.au": {}, "org.au": {}, "com.br": {},
}

// sameAuthor reports whether two author strings plausibly name the
// same person: exact match after folding, or shared surname plus
// matching first initial ("J. Smith" vs "Jane Smith").
func sameAuthor(a, b string) bool {
	a = strings.TrimSpace(foldCaser.String(a))
	b = strings.TrimSpace(foldCaser.String(b))
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}

	aParts, bParts := strings.Fields(a), strings.Fields(b)
	if len(aParts) < 2 || len(bParts) < 2 {
		return false
	}
	if aParts[len(aParts)-1] != bParts[len(bParts)-1] {
		return false
	}
	ar, _ := utf8.DecodeRuneInString(aParts[0])
	br, _ := utf8.DecodeRuneInString(bParts[0])
	return ar == br
}
