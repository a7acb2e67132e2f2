package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/averen/credence/internal/application"
	"github.com/averen/credence/internal/domain"
	"github.com/averen/credence/internal/quality"
)

var (
	assessEvidencePath string
	assessMode         string
	assessTopics       []string
)

// assessCmd represents the assess command.
var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Score the quality of every evidence unit in a file",
	Long: `Assess scores each evidence unit on authority, content, recency,
corroboration against the rest of the file, and (when --topic is given)
relevance, then prints the weighted assessments as JSON.

Units that fail to score are reported individually; one bad unit does
not abort the batch.

Example:
  credence assess --evidence evidence.json
  credence assess --evidence evidence.json --mode thorough --topic technology`,
	RunE: runAssess,
}

func init() {
	rootCmd.AddCommand(assessCmd)

	assessCmd.Flags().StringVar(&assessEvidencePath, "evidence", "", "evidence JSON file (units + sources)")
	assessCmd.Flags().StringVar(&assessMode, "mode", "", "performance mode: fast, balanced, or thorough (overrides config)")
	assessCmd.Flags().StringSliceVar(&assessTopics, "topic", nil, "relevance topic (repeatable; enables relevance scoring)")
	_ = assessCmd.MarkFlagRequired("evidence")
}

// assessReport is the assess command's stdout document.
type assessReport struct {
	Mode        string                     `json:"mode"`
	Assessments []domain.QualityAssessment `json:"assessments"`
	Failures    []assessFailure            `json:"failures,omitempty"`
}

type assessFailure struct {
	UnitID string `json:"unit_id"`
	Error  string `json:"error"`
}

func runAssess(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	if assessMode != "" {
		mode := quality.PerformanceMode(assessMode)
		if !mode.Valid() {
			return fmt.Errorf("unknown performance mode %q (want fast, balanced, or thorough)", assessMode)
		}
		config.Quality.Mode = mode
	}

	evidence, err := readEvidenceFile(assessEvidencePath)
	if err != nil {
		return err
	}

	engines, err := application.BuildEngines(config, application.Dependencies{})
	if err != nil {
		return err
	}

	var target *domain.RelevanceTarget
	if len(assessTopics) > 0 {
		target = &domain.RelevanceTarget{Topics: assessTopics}
	}

	inputs := make([]quality.Input, 0, len(evidence.Units))
	for _, unit := range evidence.Units {
		source, _ := evidence.SourceFor(unit.SourceID)
		inputs = append(inputs, quality.Input{
			Unit:    unit,
			Source:  source,
			Related: &evidence,
			Target:  target,
		})
	}

	items := engines.Quality.AssessBatch(cmd.Context(), inputs)

	report := assessReport{Mode: string(config.Quality.Mode)}
	for _, item := range items {
		if item.Err != nil {
			report.Failures = append(report.Failures, assessFailure{
				UnitID: inputs[item.Index].Unit.ID,
				Error:  item.Err.Error(),
			})
			continue
		}
		report.Assessments = append(report.Assessments, item.Assessment)
	}
	return writeJSON(report)
}
