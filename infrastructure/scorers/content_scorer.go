package scorers

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/averen/credence/internal/domain"
)

// reNumeric matches numbers, decimals, and percentages, the strongest
// specificity signal.
var reNumeric = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?%?`)

// ContentScorer scores the intrinsic quality of evidence text across
// five components: specificity, completeness, readability, information
// density, and coherence. Every component starts at a neutral 0.5 and
// moves with observed signals, so absent signals never zero a text
// out. The scorer is deterministic and safe for concurrent use.
type ContentScorer struct {
	// name is the unique identifier for this scorer instance.
	name string
	// mu guards config for live updates.
	mu sync.RWMutex
	// config contains the validated configuration parameters.
	config ContentConfig
	// tracer is the OpenTelemetry tracer for observability.
	tracer trace.Tracer
}

// ContentWeights assigns the relative importance of the five content
// components. Weights must sum to 1.0 within tolerance.
type ContentWeights struct {
	// Specificity weights concrete, verifiable detail.
	Specificity float64 `yaml:"specificity" json:"specificity" validate:"min=0,max=1"`

	// Completeness weights adequate length and whole-sentence
	// boundaries.
	Completeness float64 `yaml:"completeness" json:"completeness" validate:"min=0,max=1"`

	// Readability weights digestible sentence structure.
	Readability float64 `yaml:"readability" json:"readability" validate:"min=0,max=1"`

	// Density weights vocabulary richness against filler.
	Density float64 `yaml:"density" json:"density" validate:"min=0,max=1"`

	// Coherence weights discourse structure and tense consistency.
	Coherence float64 `yaml:"coherence" json:"coherence" validate:"min=0,max=1"`
}

// ContentConfig defines the configuration parameters for the
// ContentScorer.
type ContentConfig struct {
	// Weights assigns component weights; they must sum to 1.0.
	Weights ContentWeights `yaml:"weights" json:"weights"`
}

// ContentOverrides carries optional replacements for individual
// ContentConfig fields. Nil fields keep the current value.
type ContentOverrides struct {
	Weights *ContentWeights `yaml:"weights" json:"weights"`
}

// WithOverrides returns a copy of the config with non-nil override
// fields applied.
func (c ContentConfig) WithOverrides(o ContentOverrides) ContentConfig {
	merged := c
	if o.Weights != nil {
		merged.Weights = *o.Weights
	}
	return merged
}

// DefaultContentConfig returns a ContentConfig with the standard
// component weighting.
func DefaultContentConfig() ContentConfig {
	return ContentConfig{
		Weights: ContentWeights{
			Specificity:  0.30,
			Completeness: 0.25,
			Readability:  0.20,
			Density:      0.15,
			Coherence:    0.10,
		},
	}
}

// ContentInput is the text plus the structural hints content scoring
// needs. Zero counts are derived from the text; boundary flags declare
// whether the span starts and ends on sentence boundaries.
type ContentInput struct {
	// Text is the evidence text to score.
	Text string `json:"text"`

	// WordCount is the word count, derived from Text when zero.
	WordCount int `json:"word_count,omitempty"`

	// SentenceCount is the sentence count, derived from Text when
	// zero.
	SentenceCount int `json:"sentence_count,omitempty"`

	// CompleteStart is true when the span begins at a sentence start.
	CompleteStart bool `json:"complete_start"`

	// CompleteEnd is true when the span ends at a sentence end.
	CompleteEnd bool `json:"complete_end"`
}

// ContentInputForText builds a ContentInput with counts and boundary
// flags derived from the text itself.
func ContentInputForText(text string) ContentInput {
	trimmed := strings.TrimSpace(text)
	input := ContentInput{
		Text:          text,
		WordCount:     len(strings.Fields(trimmed)),
		SentenceCount: len(domain.SplitSentences(trimmed)),
	}
	if trimmed == "" {
		return input
	}
	first := []rune(trimmed)[0]
	input.CompleteStart = unicode.IsUpper(first) || unicode.IsDigit(first)
	last := []rune(trimmed)[len([]rune(trimmed))-1]
	input.CompleteEnd = last == '.' || last == '!' || last == '?'
	return input
}

// ContentComponents holds the five component scores before weighting.
type ContentComponents struct {
	// Specificity measures concrete, verifiable detail (0.0 to 1.0).
	Specificity float64 `json:"specificity"`

	// Completeness measures length adequacy and boundary wholeness.
	Completeness float64 `json:"completeness"`

	// Readability measures sentence-length digestibility.
	Readability float64 `json:"readability"`

	// Density measures vocabulary richness against filler.
	Density float64 `json:"density"`

	// Coherence measures discourse structure and tense consistency.
	Coherence float64 `json:"coherence"`
}

// ContentResult carries the weighted content score, its component
// breakdown, and reasoning.
type ContentResult struct {
	// Score is the weighted content quality score (0.0 to 1.0).
	Score float64 `json:"score"`

	// Components holds the per-component scores.
	Components ContentComponents `json:"components"`

	// Reasoning explains each component's movement from neutral.
	Reasoning []string `json:"reasoning"`
}

// NewContentScorer creates a ContentScorer with the specified
// configuration. Returns an error if the weights fail validation or
// do not sum to 1.0.
func NewContentScorer(name string, config ContentConfig) (*ContentScorer, error) {
	if name == "" {
		return nil, ErrEmptyScorerName
	}
	if err := validateContentConfig(config); err != nil {
		return nil, err
	}
	return &ContentScorer{
		name:   name,
		config: config,
		tracer: otel.Tracer("content-scorer"),
	}, nil
}

func validateContentConfig(config ContentConfig) error {
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	w := config.Weights
	return domain.CheckWeightSum("content",
		w.Specificity, w.Completeness, w.Readability, w.Density, w.Coherence)
}

// Name returns the unique identifier for this scorer instance.
func (s *ContentScorer) Name() string { return s.name }

// Config returns a copy of the current configuration.
func (s *ContentScorer) Config() ContentConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// UpdateConfig applies overrides to the live configuration, validating
// the merged result before swapping it in.
func (s *ContentScorer) UpdateConfig(o ContentOverrides) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := s.config.WithOverrides(o)
	if err := validateContentConfig(merged); err != nil {
		return err
	}
	s.config = merged
	return nil
}

// Score evaluates the intrinsic quality of the input text. Empty text
// is an error; everything else produces a complete component
// breakdown.
func (s *ContentScorer) Score(ctx context.Context, input ContentInput) (ContentResult, error) {
	_, span := s.tracer.Start(ctx, "ContentScorer.Score",
		trace.WithAttributes(
			attribute.String("scorer.id", s.name),
			attribute.Int("input.word_count", input.WordCount),
		),
	)
	defer span.End()

	start := time.Now()

	if strings.TrimSpace(input.Text) == "" {
		err := fmt.Errorf("%s: %w", s.name, ErrEmptyText)
		span.RecordError(err)
		return ContentResult{}, err
	}

	words := input.WordCount
	if words == 0 {
		words = len(strings.Fields(input.Text))
	}
	sentences := input.SentenceCount
	if sentences == 0 {
		sentences = len(domain.SplitSentences(input.Text))
	}
	if sentences == 0 {
		sentences = 1
	}

	profile := profileText(input.Text)
	var reasoning []string

	specificity, why := s.specificity(input.Text, profile)
	reasoning = append(reasoning, why)

	completeness, why := s.completeness(words, input.CompleteStart, input.CompleteEnd)
	reasoning = append(reasoning, why)

	readability, why := s.readability(words, sentences)
	reasoning = append(reasoning, why)

	density, why := s.density(profile, words)
	reasoning = append(reasoning, why)

	coherence, why := s.coherence(profile, sentences)
	reasoning = append(reasoning, why)

	components := ContentComponents{
		Specificity:  specificity,
		Completeness: completeness,
		Readability:  readability,
		Density:      density,
		Coherence:    coherence,
	}

	w := s.Config().Weights
	score := domain.Clamp01(
		components.Specificity*w.Specificity +
			components.Completeness*w.Completeness +
			components.Readability*w.Readability +
			components.Density*w.Density +
			components.Coherence*w.Coherence)

	span.SetAttributes(
		attribute.Float64("eval.score", score),
		attribute.Int64("eval.latency_ms", time.Since(start).Milliseconds()),
	)

	return ContentResult{Score: score, Components: components, Reasoning: reasoning}, nil
}

// specificity rewards numbers, dates, and precision cues, and
// penalizes vague quantifiers.
func (s *ContentScorer) specificity(text string, p textProfile) (float64, string) {
	specific := len(reNumeric.FindAllString(text, -1)) + p.countHits(specificityCues)
	vague := p.countHits(vaguenessTerms)

	score := domain.Clamp01(0.5 + 0.04*float64(specific) - 0.05*float64(vague))
	return score, fmt.Sprintf("specificity %.2f (%d specific signals, %d vague)",
		score, specific, vague)
}

// completeness rewards evidence long enough to carry a claim and
// whole at both span boundaries.
func (s *ContentScorer) completeness(words int, completeStart, completeEnd bool) (float64, string) {
	score := 0.5
	switch {
	case words < 20:
		score -= 0.2
	case words < 40:
		score -= 0.05
	case words <= 150:
		score += 0.15
	case words <= 300:
		score += 0.05
	default:
		score -= 0.05
	}
	for _, complete := range []bool{completeStart, completeEnd} {
		if complete {
			score += 0.1
		} else {
			score -= 0.1
		}
	}
	score = domain.Clamp01(score)
	return score, fmt.Sprintf("completeness %.2f (%d words, start=%t end=%t)",
		score, words, completeStart, completeEnd)
}

// readability bands on mean sentence length.
func (s *ContentScorer) readability(words, sentences int) (float64, string) {
	mean := float64(words) / float64(sentences)
	score := 0.5
	switch {
	case mean < 8:
		score -= 0.1
	case mean <= 25:
		score += 0.2
	case mean <= 40:
		// acceptable but not rewarded
	default:
		score -= 0.2
	}
	score = domain.Clamp01(score)
	return score, fmt.Sprintf("readability %.2f (%.1f words per sentence)", score, mean)
}

// density rewards vocabulary uniqueness and penalizes filler words.
func (s *ContentScorer) density(p textProfile, words int) (float64, string) {
	score := 0.5
	uniqueness := 0.0
	if len(p.words) > 0 {
		uniqueness = float64(len(p.counts)) / float64(len(p.words))
	}
	switch {
	case uniqueness >= 0.7:
		score += 0.25
	case uniqueness >= 0.5:
		score += 0.1
	case uniqueness < 0.3:
		score -= 0.2
	}

	fillerPenalty := 0.0
	if words > 0 {
		ratio := float64(p.countHits(fillerTerms)) / float64(words)
		fillerPenalty = ratio * 1.5
		if fillerPenalty > 0.3 {
			fillerPenalty = 0.3
		}
	}
	score = domain.Clamp01(score - fillerPenalty)
	return score, fmt.Sprintf("density %.2f (uniqueness %.2f, filler penalty %.2f)",
		score, uniqueness, fillerPenalty)
}

// coherence rewards transition structure and consistent tense.
func (s *ContentScorer) coherence(p textProfile, sentences int) (float64, string) {
	score := 0.5

	transitions := p.countHits(transitionTerms)
	transitionDensity := float64(transitions) / float64(sentences)
	switch {
	case transitionDensity >= 0.3:
		score += 0.2
	case transitionDensity >= 0.1:
		score += 0.1
	}

	past := p.countHits(pastTenseMarkers)
	for w, n := range p.counts {
		if len(w) > 3 && strings.HasSuffix(w, "ed") {
			past += n
		}
	}
	present := p.countHits(presentTenseMarkers)
	tense := "n/a"
	if total := past + present; total > 0 {
		dominant := float64(past)
		if present > past {
			dominant = float64(present)
		}
		share := dominant / float64(total)
		switch {
		case share >= 0.8:
			score += 0.1
			tense = "consistent"
		case share < 0.65:
			score -= 0.1
			tense = "mixed"
		default:
			tense = "leaning"
		}
	}

	score = domain.Clamp01(score)
	return score, fmt.Sprintf("coherence %.2f (%d transitions, tense %s)",
		score, transitions, tense)
}
