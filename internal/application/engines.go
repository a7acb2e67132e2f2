package application

import (
	"fmt"

	"github.com/averen/credence/infrastructure/scorers"
	"github.com/averen/credence/infrastructure/similarity"
	"github.com/averen/credence/internal/confidence"
	"github.com/averen/credence/internal/grounding"
	"github.com/averen/credence/internal/ports"
	"github.com/averen/credence/internal/quality"
)

// Dependencies carries the infrastructure collaborators the engines
// are built with. Every field is optional; nil fields simply leave
// the corresponding capability unwired.
type Dependencies struct {
	// Cache serves repeated assessments and claim scores when the
	// engine configs enable caching.
	Cache ports.CacheStore
	// Metrics receives operational counters and latencies.
	Metrics ports.MetricsCollector
	// Extractor is the collaborator the grounding validator drives
	// during validate-with-retry cycles.
	Extractor ports.Extractor
}

// Engines bundles the constructed evaluation engines behind one
// composition point shared by the CLI and examples.
type Engines struct {
	// Similarity is the text similarity backend every scorer and
	// validator shares.
	Similarity ports.SimilarityBackend
	// Quality assesses evidence units.
	Quality *quality.Engine
	// Confidence scores claims and aggregates personas.
	Confidence *confidence.Engine
	// Citations validates citations against evidence.
	Citations *grounding.CitationValidator
	// Grounding combines citation, format, and score checks into a
	// grounding verdict and drives retries.
	Grounding *grounding.GroundingValidator
}

// BuildEngines constructs the full engine set from a validated
// configuration, wiring the shared similarity backend through the
// scorers and validators and attaching the optional dependencies.
// BuildEngines returns an error if any component rejects its
// configuration.
func BuildEngines(config EngineConfig, deps Dependencies) (*Engines, error) {
	backend, err := newSimilarityBackend(config.Similarity)
	if err != nil {
		return nil, fmt.Errorf("failed to create similarity backend: %w", err)
	}

	authority, err := scorers.NewAuthorityScorer("authority", config.Scorers.Authority)
	if err != nil {
		return nil, fmt.Errorf("failed to create authority scorer: %w", err)
	}
	content, err := scorers.NewContentScorer("content", config.Scorers.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to create content scorer: %w", err)
	}
	recency, err := scorers.NewRecencyScorer("recency", config.Scorers.Recency)
	if err != nil {
		return nil, fmt.Errorf("failed to create recency scorer: %w", err)
	}
	corroboration, err := scorers.NewCorroborationScorer("corroboration", backend, config.Scorers.Corroboration)
	if err != nil {
		return nil, fmt.Errorf("failed to create corroboration scorer: %w", err)
	}
	relevance, err := scorers.NewRelevanceScorer("relevance", backend, config.Scorers.Relevance)
	if err != nil {
		return nil, fmt.Errorf("failed to create relevance scorer: %w", err)
	}

	var qualityOpts []quality.Option
	if deps.Cache != nil {
		qualityOpts = append(qualityOpts, quality.WithCache(deps.Cache))
	}
	if deps.Metrics != nil {
		qualityOpts = append(qualityOpts, quality.WithMetrics(deps.Metrics))
	}
	qualityEngine, err := quality.NewEngine(config.Quality, quality.Scorers{
		Authority:     authority,
		Content:       content,
		Recency:       recency,
		Corroboration: corroboration,
		Relevance:     relevance,
	}, qualityOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create quality engine: %w", err)
	}

	claimScorer, err := confidence.NewScorer(config.Confidence.Scorer, backend)
	if err != nil {
		return nil, fmt.Errorf("failed to create confidence scorer: %w", err)
	}
	var confidenceOpts []confidence.Option
	if deps.Cache != nil {
		confidenceOpts = append(confidenceOpts, confidence.WithCache(deps.Cache))
	}
	if deps.Metrics != nil {
		confidenceOpts = append(confidenceOpts, confidence.WithMetrics(deps.Metrics))
	}
	confidenceEngine, err := confidence.NewEngine(config.Confidence.Engine, claimScorer, confidenceOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create confidence engine: %w", err)
	}

	citations, err := grounding.NewCitationValidator(config.Grounding.Citation, backend)
	if err != nil {
		return nil, fmt.Errorf("failed to create citation validator: %w", err)
	}
	var groundingOpts []grounding.Option
	if deps.Extractor != nil {
		groundingOpts = append(groundingOpts, grounding.WithExtractor(deps.Extractor))
	}
	groundingValidator, err := grounding.NewGroundingValidator(config.Grounding.Validator, citations, groundingOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create grounding validator: %w", err)
	}

	return &Engines{
		Similarity: backend,
		Quality:    qualityEngine,
		Confidence: confidenceEngine,
		Citations:  citations,
		Grounding:  groundingValidator,
	}, nil
}

// newSimilarityBackend constructs the backend the config section
// selects. The backend's instance name doubles as its selector so
// traces identify which implementation produced a comparison.
func newSimilarityBackend(config SimilarityConfig) (ports.SimilarityBackend, error) {
	switch config.Backend {
	case "token_overlap":
		return similarity.NewTokenOverlap(config.Backend, config.TokenOverlap)
	case "edit_distance":
		return similarity.NewEditDistance(config.Backend, config.EditDistance)
	default:
		return nil, fmt.Errorf("unknown similarity backend: %s", config.Backend)
	}
}
