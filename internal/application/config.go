package application

import (
	"github.com/averen/credence/infrastructure/scorers"
	"github.com/averen/credence/infrastructure/similarity"
	"github.com/averen/credence/internal/confidence"
	"github.com/averen/credence/internal/grounding"
	"github.com/averen/credence/internal/quality"
)

// EngineConfig defines the complete specification for the evaluation
// engines and serves as the primary configuration entry point for the
// system. Every section carries the defaults of its component package,
// so a partial YAML file only needs the fields it changes.
type EngineConfig struct {
	// Similarity selects and configures the text similarity backend
	// shared by the scorers and validators.
	Similarity SimilarityConfig `yaml:"similarity" json:"similarity" validate:"required"`
	// Scorers configures the five evidence quality component scorers.
	Scorers ScorersConfig `yaml:"scorers" json:"scorers" validate:"required"`
	// Quality configures the evidence quality engine that blends the
	// component scores.
	Quality quality.Config `yaml:"quality" json:"quality" validate:"required"`
	// Confidence configures claim confidence scoring and persona
	// aggregation.
	Confidence ConfidenceConfig `yaml:"confidence" json:"confidence" validate:"required"`
	// Grounding configures citation validation and the grounding
	// verdict with its retry policy.
	Grounding GroundingConfig `yaml:"grounding" json:"grounding" validate:"required"`
}

// SimilarityConfig selects the similarity backend by name and carries
// the configuration for whichever backend is chosen. The section for
// the unselected backend is ignored.
type SimilarityConfig struct {
	// Backend names the similarity implementation to construct.
	Backend string `yaml:"backend" json:"backend" validate:"required,oneof=token_overlap edit_distance"`
	// TokenOverlap configures the Jaccard token overlap backend.
	TokenOverlap similarity.TokenOverlapConfig `yaml:"token_overlap" json:"token_overlap"`
	// EditDistance configures the normalized Levenshtein backend.
	EditDistance similarity.EditDistanceConfig `yaml:"edit_distance" json:"edit_distance"`
}

// ScorersConfig bundles the per-component scorer configurations used
// to build the quality engine's scorer set.
type ScorersConfig struct {
	// Authority configures source tier and credential scoring.
	Authority scorers.AuthorityConfig `yaml:"authority" json:"authority"`
	// Content configures intrinsic text quality scoring.
	Content scorers.ContentConfig `yaml:"content" json:"content"`
	// Recency configures age decay scoring per content type.
	Recency scorers.RecencyConfig `yaml:"recency" json:"recency"`
	// Corroboration configures independent confirmation scoring.
	Corroboration scorers.CorroborationConfig `yaml:"corroboration" json:"corroboration"`
	// Relevance configures target fit scoring.
	Relevance scorers.RelevanceConfig `yaml:"relevance" json:"relevance"`
}

// ConfidenceConfig pairs the claim-level scorer configuration with the
// persona-level engine configuration.
type ConfidenceConfig struct {
	// Scorer configures per-claim confidence breakdowns.
	Scorer confidence.ScorerConfig `yaml:"scorer" json:"scorer"`
	// Engine configures persona aggregation, recommendation thresholds
	// and batch processing.
	Engine confidence.EngineConfig `yaml:"engine" json:"engine"`
}

// GroundingConfig pairs citation validation with the grounding verdict
// configuration that consumes it.
type GroundingConfig struct {
	// Citation configures per-citation and per-sentence checks.
	Citation grounding.CitationConfig `yaml:"citation" json:"citation"`
	// Validator configures the grounding score weights, threshold and
	// retry policy.
	Validator grounding.GroundingConfig `yaml:"validator" json:"validator"`
}

// DefaultEngineConfig returns an EngineConfig assembled from every
// component package's defaults, with the token overlap backend
// selected.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Similarity: SimilarityConfig{
			Backend:      "token_overlap",
			TokenOverlap: similarity.DefaultTokenOverlapConfig(),
			EditDistance: similarity.DefaultEditDistanceConfig(),
		},
		Scorers: ScorersConfig{
			Authority:     scorers.DefaultAuthorityConfig(),
			Content:       scorers.DefaultContentConfig(),
			Recency:       scorers.DefaultRecencyConfig(),
			Corroboration: scorers.DefaultCorroborationConfig(),
			Relevance:     scorers.DefaultRelevanceConfig(),
		},
		Quality: quality.DefaultConfig(),
		Confidence: ConfidenceConfig{
			Scorer: confidence.DefaultScorerConfig(),
			Engine: confidence.DefaultEngineConfig(),
		},
		Grounding: GroundingConfig{
			Citation:  grounding.DefaultCitationConfig(),
			Validator: grounding.DefaultGroundingConfig(),
		},
	}
}
