package application

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// configValidator is the shared validator instance with the engine's
// custom validators registered.
var configValidator = newConfigValidator()

func newConfigValidator() *validator.Validate {
	v := validator.New()
	if err := RegisterEngineValidators(v); err != nil {
		// Registration fails only on an empty tag name or nil function,
		// never on user input.
		panic(fmt.Sprintf("application: registering config validators: %v", err))
	}
	return v
}

// LoadEngineConfig loads and validates an engine configuration from a
// YAML file. Sections omitted from the file keep their defaults, so a
// deployment only writes the fields it changes.
// LoadEngineConfig returns an error if file reading, parsing, or
// validation fails.
func LoadEngineConfig(path string) (EngineConfig, error) {
	// Clean the path to prevent directory traversal attacks.
	cleanPath := filepath.Clean(path)

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseEngineConfig(data)
}

// ParseEngineConfig unmarshals YAML byte data into an EngineConfig
// seeded with defaults, then validates the result.
// ParseEngineConfig uses strict decoding to detect unknown fields,
// preventing configuration typos from being silently ignored. An empty
// document yields the default configuration.
// ParseEngineConfig returns an error if YAML syntax is invalid, if
// unknown fields are present, or if any validation rule is violated.
func ParseEngineConfig(data []byte) (EngineConfig, error) {
	config := DefaultEngineConfig()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Strict mode - fail on unknown fields.

	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return EngineConfig{}, fmt.Errorf("YAML decode failed: %w", err)
	}

	if err := ValidateEngineConfig(config); err != nil {
		return EngineConfig{}, err
	}
	return config, nil
}

// ValidateEngineConfig performs comprehensive validation on an engine
// configuration, combining struct field validation, registered
// weight-sum validation, and cross-field semantic rules.
// ValidateEngineConfig returns an error if any validation rule fails.
func ValidateEngineConfig(config EngineConfig) error {
	if err := configValidator.Struct(config); err != nil {
		return fmt.Errorf("struct validation failed: %w", err)
	}

	if err := validateSemantics(config); err != nil {
		return fmt.Errorf("semantic validation failed: %w", err)
	}

	return nil
}

// validateSemantics enforces the cross-field rules that struct tags
// cannot express. The component constructors repeat these checks, but
// running them here surfaces every problem at parse time with the
// config file still in hand.
func validateSemantics(config EngineConfig) error {
	engine := config.Confidence.Engine
	if engine.ApproveThreshold < engine.ReviewThreshold {
		return fmt.Errorf("confidence approve threshold %.2f below review threshold %.2f",
			engine.ApproveThreshold, engine.ReviewThreshold)
	}

	scorer := config.Confidence.Scorer
	if scorer.MaxEvidenceCount < scorer.MinEvidenceCount {
		return fmt.Errorf("confidence max evidence count %d below min %d",
			scorer.MaxEvidenceCount, scorer.MinEvidenceCount)
	}

	citation := config.Grounding.Citation
	if citation.MinCitationsPerSentence > citation.MaxCitationsPerSentence {
		return fmt.Errorf("min citations per sentence %d exceeds max %d",
			citation.MinCitationsPerSentence, citation.MaxCitationsPerSentence)
	}

	return nil
}
