package scorers

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/averen/credence/internal/domain"
	"github.com/averen/credence/internal/ports"
)

// Specificity markers: concrete identifiers that rarely appear in
// filler prose.
var (
	reAcronym = regexp.MustCompile(`\b[A-Z]{2,}\b`)
	reMeasure = regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s*(?:%|km|kg|mg|ml|mm|cm|gb|mb|tb|ghz|mhz|ms)`)
	reCamel   = regexp.MustCompile(`\b[a-z]+[A-Z][A-Za-z]*\b`)
	reURL     = regexp.MustCompile(`https?://\S+`)
	reEmail   = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
)

// RelevanceWeights control how the four relevance components combine.
// They must sum to 1.0.
type RelevanceWeights struct {
	// DirectMatch weights explicit topic, field and keyword hits.
	DirectMatch float64 `yaml:"direct_match" json:"direct_match" validate:"min=0,max=1"`

	// Semantic weights backend similarity between text and the
	// target's context description.
	Semantic float64 `yaml:"semantic" json:"semantic" validate:"min=0,max=1"`

	// Contextual weights the strongest detected usage context.
	Contextual float64 `yaml:"contextual" json:"contextual" validate:"min=0,max=1"`

	// Specificity weights the density of concrete markers in the text.
	Specificity float64 `yaml:"specificity" json:"specificity" validate:"min=0,max=1"`
}

// RelevanceConfig defines the configuration parameters for the
// RelevanceScorer.
type RelevanceConfig struct {
	// Weights blend the component scores.
	Weights RelevanceWeights `yaml:"weights" json:"weights"`
}

// RelevanceOverrides carries optional replacements for individual
// RelevanceConfig fields. Nil fields keep the current value.
type RelevanceOverrides struct {
	Weights *RelevanceWeights `yaml:"weights" json:"weights"`
}

// WithOverrides returns a copy of the config with non-nil override
// fields applied.
func (c RelevanceConfig) WithOverrides(o RelevanceOverrides) RelevanceConfig {
	merged := c
	if o.Weights != nil {
		merged.Weights = *o.Weights
	}
	return merged
}

// DefaultRelevanceConfig returns a RelevanceConfig with the standard
// component weights.
func DefaultRelevanceConfig() RelevanceConfig {
	return RelevanceConfig{
		Weights: RelevanceWeights{
			DirectMatch: 0.4,
			Semantic:    0.3,
			Contextual:  0.2,
			Specificity: 0.1,
		},
	}
}

// RelevanceComponents carries the four component scores behind a
// relevance result.
type RelevanceComponents struct {
	// DirectMatch is the matched/requested ratio over topics, fields
	// and keywords.
	DirectMatch float64 `json:"direct_match"`

	// Semantic is the similarity to the target context.
	Semantic float64 `json:"semantic"`

	// Contextual is the weight of the strongest detected context.
	Contextual float64 `json:"contextual"`

	// Specificity is the scaled concrete-marker density.
	Specificity float64 `json:"specificity"`
}

// RelevanceResult carries the relevance score with what matched and
// why.
type RelevanceResult struct {
	// Score is the final relevance score (0.0 to 1.0).
	Score float64 `json:"score"`

	// Components is the per-component breakdown.
	Components RelevanceComponents `json:"components"`

	// MatchedTopics lists requested topics found in the text.
	MatchedTopics []string `json:"matched_topics,omitempty"`

	// MatchedFields lists requested persona fields found in the text.
	MatchedFields []string `json:"matched_fields,omitempty"`

	// MatchedKeywords lists requested keywords found in the text.
	MatchedKeywords []string `json:"matched_keywords,omitempty"`

	// DetectedContexts lists detected usage contexts, strongest first.
	DetectedContexts []string `json:"detected_contexts,omitempty"`

	// Reasoning explains the component scores.
	Reasoning []string `json:"reasoning"`
}

// RelevanceScorer measures how well evidence text serves a stated
// need: requested topics, persona fields and keywords, a free-text
// context compared semantically, detectable usage contexts, and the
// density of concrete markers.
type RelevanceScorer struct {
	// name is the unique identifier for this scorer instance.
	name string
	// mu guards config for live updates.
	mu sync.RWMutex
	// config contains the validated configuration parameters.
	config RelevanceConfig
	// backend computes similarity between text and target context.
	backend ports.SimilarityBackend
	// tracer is the OpenTelemetry tracer for observability.
	tracer trace.Tracer
}

// NewRelevanceScorer creates a RelevanceScorer with the given
// similarity backend and configuration. Returns an error if the
// backend is nil or configuration validation fails.
func NewRelevanceScorer(name string, backend ports.SimilarityBackend, config RelevanceConfig) (*RelevanceScorer, error) {
	if name == "" {
		return nil, ErrEmptyScorerName
	}
	if backend == nil {
		return nil, ErrNilBackend
	}
	if err := validateRelevanceConfig(config); err != nil {
		return nil, err
	}
	return &RelevanceScorer{
		name:    name,
		config:  config,
		backend: backend,
		tracer:  otel.Tracer("relevance-scorer"),
	}, nil
}

func validateRelevanceConfig(config RelevanceConfig) error {
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	w := config.Weights
	return domain.CheckWeightSum("relevance weights",
		w.DirectMatch, w.Semantic, w.Contextual, w.Specificity)
}

// Name returns the unique identifier for this scorer instance.
func (s *RelevanceScorer) Name() string { return s.name }

// Config returns a copy of the current configuration.
func (s *RelevanceScorer) Config() RelevanceConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// UpdateConfig applies overrides to the live configuration, validating
// the merged result before swapping it in.
func (s *RelevanceScorer) UpdateConfig(o RelevanceOverrides) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := s.config.WithOverrides(o)
	if err := validateRelevanceConfig(merged); err != nil {
		return err
	}
	s.config = merged
	return nil
}

// Score evaluates how relevant the text is to the target. An empty
// target yields neutral direct-match and semantic components rather
// than an error.
func (s *RelevanceScorer) Score(ctx context.Context, text string, target domain.RelevanceTarget) (RelevanceResult, error) {
	ctx, span := s.tracer.Start(ctx, "RelevanceScorer.Score",
		trace.WithAttributes(attribute.String("scorer.id", s.name)),
	)
	defer span.End()

	if strings.TrimSpace(text) == "" {
		span.RecordError(ErrEmptyText)
		return RelevanceResult{}, ErrEmptyText
	}

	start := time.Now()
	config := s.Config()
	profile := profileText(text)

	direct, topics, fields, keywords := directMatchScore(profile, target)

	semantic := 0.5
	if strings.TrimSpace(target.Context) != "" {
		sim, err := s.backend.Compare(ctx, text, target.Context)
		if err != nil {
			span.RecordError(err)
			return RelevanceResult{}, fmt.Errorf("comparing against context: %w", err)
		}
		semantic = sim
	}

	contexts, contextual := detectContexts(profile)
	specificity, markers := specificityScore(text, len(profile.words))

	w := config.Weights
	score := domain.Clamp01(w.DirectMatch*direct + w.Semantic*semantic +
		w.Contextual*contextual + w.Specificity*specificity)

	reasoning := []string{
		fmt.Sprintf("direct match %.2f (%d topics, %d fields, %d keywords)",
			direct, len(topics), len(fields), len(keywords)),
		fmt.Sprintf("semantic %.2f, contextual %.2f, specificity %.2f (%d markers)",
			semantic, contextual, specificity, markers),
	}

	span.SetAttributes(
		attribute.Float64("eval.score", score),
		attribute.Int64("eval.latency_ms", time.Since(start).Milliseconds()),
	)

	return RelevanceResult{
		Score: score,
		Components: RelevanceComponents{
			DirectMatch: direct,
			Semantic:    semantic,
			Contextual:  contextual,
			Specificity: specificity,
		},
		MatchedTopics:    topics,
		MatchedFields:    fields,
		MatchedKeywords:  keywords,
		DetectedContexts: contexts,
		Reasoning:        reasoning,
	}, nil
}

// directMatchScore computes the matched/requested ratio. Topics and
// persona fields match through their pattern tables; labels outside
// the tables match on the label itself. Nothing requested scores
// neutral.
func directMatchScore(profile textProfile, target domain.RelevanceTarget) (float64, []string, []string, []string) {
	requested := len(target.Topics) + len(target.PersonaFields) + len(target.Keywords)
	if requested == 0 {
		return 0.5, nil, nil, nil
	}

	var topics []string
	for _, topic := range target.Topics {
		key := foldCaser.String(strings.TrimSpace(topic))
		patterns, ok := topicCategoryTable[key]
		if !ok {
			patterns = []string{key}
		}
		if profile.hasAny(patterns) {
			topics = append(topics, topic)
		}
	}

	var fields []string
	for _, field := range target.PersonaFields {
		key := foldCaser.String(strings.TrimSpace(field))
		patterns, ok := personaFieldTable[key]
		if !ok {
			patterns = []string{key}
		}
		if profile.hasAny(patterns) {
			fields = append(fields, field)
		}
	}

	var keywords []string
	for _, kw := range target.Keywords {
		key := foldCaser.String(strings.TrimSpace(kw))
		if key != "" && profile.hasAny([]string{key}) {
			keywords = append(keywords, kw)
		}
	}

	matched := len(topics) + len(fields) + len(keywords)
	return float64(matched) / float64(requested), topics, fields, keywords
}

// detectContexts finds usage contexts in the text and returns their
// names (strongest first) with the strongest weight. No detected
// context scores neutral.
func detectContexts(profile textProfile) ([]string, float64) {
	var detected []string
	weight := 0.0
	for _, cat := range contextCategoryTable {
		if profile.hasAny(cat.patterns) {
			detected = append(detected, cat.name)
			if cat.weight > weight {
				weight = cat.weight
			}
		}
	}
	if len(detected) == 0 {
		return nil, 0.5
	}
	return detected, weight
}

// specificityScore scales concrete-marker density onto [0,1]. One
// marker per ten words saturates the component.
func specificityScore(text string, wordCount int) (float64, int) {
	if wordCount == 0 {
		return 0, 0
	}
	markers := len(reAcronym.FindAllString(text, -1)) +
		len(reMeasure.FindAllString(text, -1)) +
		len(reCamel.FindAllString(text, -1)) +
		len(reURL.FindAllString(text, -1)) +
		len(reEmail.FindAllString(text, -1))
	density := float64(markers) / float64(wordCount)
	score := density * 10
	if score > 1 {
		score = 1
	}
	return score, markers
}
