package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/averen/credence/internal/domain"
)

// evidenceFile is the on-disk evidence shape: flat lists of units and
// sources. Sources are an array rather than the context's internal map
// so files stay order-stable and diffable.
type evidenceFile struct {
	Units   []domain.EvidenceUnit `json:"units"`
	Sources []domain.Source       `json:"sources"`
}

// personaFile is the on-disk claims shape. The ID is informational for
// the ground command, which validates claims rather than personas.
type personaFile struct {
	ID     string              `json:"id"`
	Claims []domain.ClaimField `json:"claims"`
}

func readEvidenceFile(path string) (domain.EvidenceContext, error) {
	var file evidenceFile
	if err := readJSONFile(path, &file); err != nil {
		return domain.EvidenceContext{}, err
	}
	if len(file.Units) == 0 {
		return domain.EvidenceContext{}, fmt.Errorf("%s contains no evidence units", path)
	}

	evidence := domain.NewEvidenceContext(file.Units, file.Sources)

	// Accumulate every reference problem before failing; hand-edited
	// files tend to have more than one.
	problems := domain.NewValidationError(path)
	seen := make(map[string]struct{}, len(evidence.Units))
	for _, unit := range evidence.Units {
		if _, dup := seen[unit.ID]; dup {
			problems.AddError(fmt.Sprintf("duplicate evidence unit ID %q", unit.ID))
		}
		seen[unit.ID] = struct{}{}
		if _, ok := evidence.SourceFor(unit.SourceID); !ok {
			problems.AddError(fmt.Sprintf(
				"evidence unit %q references unknown source %q", unit.ID, unit.SourceID))
		}
	}
	if problems.HasErrors() {
		return domain.EvidenceContext{}, problems
	}
	return evidence, nil
}

func readPersonaFile(path string) (personaFile, error) {
	var file personaFile
	if err := readJSONFile(path, &file); err != nil {
		return personaFile{}, err
	}
	if len(file.Claims) == 0 {
		return personaFile{}, fmt.Errorf("%s contains no claims", path)
	}
	return file, nil
}

func readPointsFile(path string) ([]domain.CalibrationPoint, error) {
	var points []domain.CalibrationPoint
	if err := readJSONFile(path, &points); err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%s contains no calibration points", path)
	}
	return points, nil
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// writeJSON renders a report to stdout with stable indentation.
func writeJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
