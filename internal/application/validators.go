package application

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/averen/credence/infrastructure/scorers"
	"github.com/averen/credence/internal/confidence"
	"github.com/averen/credence/internal/domain"
	"github.com/averen/credence/internal/grounding"
	"github.com/averen/credence/internal/quality"
)

// RegisterEngineValidators registers custom validation functions with
// the validator instance for use in engine configuration validation.
// RegisterEngineValidators adds the perfmode field rule plus
// struct-level weight-sum validation for every weight struct that must
// total 1.0, so a misweighted config fails at parse time rather than
// at engine construction.
// RegisterEngineValidators returns an error if validator registration
// fails.
func RegisterEngineValidators(v *validator.Validate) error {
	// Register the performance mode validator.
	if err := v.RegisterValidation("perfmode", validatePerformanceMode); err != nil {
		return fmt.Errorf("failed to register perfmode validator: %w", err)
	}

	// The weight structs live in their component packages, so their
	// validation attaches by type instead of by struct tag.
	v.RegisterStructValidation(validateQualityMode, quality.Config{})
	v.RegisterStructValidation(validateComponentWeights, quality.ComponentWeights{})
	v.RegisterStructValidation(validateConfidenceWeights, confidence.Weights{})
	v.RegisterStructValidation(validateGroundingWeights, grounding.GroundingWeights{})
	v.RegisterStructValidation(validateContentWeights, scorers.ContentWeights{})
	v.RegisterStructValidation(validateCorroborationWeights, scorers.CorroborationWeights{})
	v.RegisterStructValidation(validateRelevanceWeights, scorers.RelevanceWeights{})

	return nil
}

// validatePerformanceMode is a validator.Func for the perfmode tag
// that accepts the known performance mode names.
func validatePerformanceMode(fl validator.FieldLevel) bool {
	return quality.PerformanceMode(fl.Field().String()).Valid()
}

// validateQualityMode reports an unknown performance mode under the
// perfmode tag. The required tag on the field already rejects an empty
// mode.
func validateQualityMode(sl validator.StructLevel) {
	config := sl.Current().Interface().(quality.Config)
	if config.Mode != "" && !config.Mode.Valid() {
		sl.ReportError(config.Mode, "Mode", "Mode", "perfmode", "")
	}
}

// reportWeightSum surfaces a weight-sum violation as a structured
// validation error on the weights struct.
func reportWeightSum(sl validator.StructLevel, label string, weights ...float64) {
	if err := domain.CheckWeightSum(label, weights...); err != nil {
		sl.ReportError(weights, "Weights", "Weights", "weightsum", label)
	}
}

func validateComponentWeights(sl validator.StructLevel) {
	w := sl.Current().Interface().(quality.ComponentWeights)
	reportWeightSum(sl, "quality component weights",
		w.Authority, w.Content, w.Recency, w.Corroboration, w.Relevance)
}

func validateConfidenceWeights(sl validator.StructLevel) {
	w := sl.Current().Interface().(confidence.Weights)
	reportWeightSum(sl, "confidence component weights",
		w.SourceAgreement, w.EvidenceVolume, w.SourceQuality, w.Recency)
}

func validateGroundingWeights(sl validator.StructLevel) {
	w := sl.Current().Interface().(grounding.GroundingWeights)
	reportWeightSum(sl, "grounding component weights",
		w.CitationQuality, w.FormatCompliance, w.Utilization, w.Confidence)
}

func validateContentWeights(sl validator.StructLevel) {
	w := sl.Current().Interface().(scorers.ContentWeights)
	reportWeightSum(sl, "content component weights",
		w.Specificity, w.Completeness, w.Readability, w.Density, w.Coherence)
}

func validateCorroborationWeights(sl validator.StructLevel) {
	w := sl.Current().Interface().(scorers.CorroborationWeights)
	reportWeightSum(sl, "corroboration component weights",
		w.SourceCount, w.Diversity, w.Consistency, w.Independence)
}

func validateRelevanceWeights(sl validator.StructLevel) {
	w := sl.Current().Interface().(scorers.RelevanceWeights)
	reportWeightSum(sl, "relevance component weights",
		w.DirectMatch, w.Semantic, w.Contextual, w.Specificity)
}
