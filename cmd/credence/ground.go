package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/averen/credence/internal/application"
)

var (
	groundClaimsPath   string
	groundEvidencePath string
)

// groundCmd represents the ground command.
var groundCmd = &cobra.Command{
	Use:   "ground",
	Short: "Validate that claims are grounded in their cited evidence",
	Long: `Ground checks every claim against the evidence file: citation
structure, semantic alignment with the cited spans, inline marker
format, evidence utilization, and extraction confidence, combined into
a single grounding score. The full report is printed as JSON.

The command exits non-zero when the claims are not grounded, so it can
gate pipelines.

Example:
  credence ground --claims claims.json --evidence evidence.json`,
	RunE: runGround,
}

func init() {
	rootCmd.AddCommand(groundCmd)

	groundCmd.Flags().StringVar(&groundClaimsPath, "claims", "", "claims JSON file (persona document)")
	groundCmd.Flags().StringVar(&groundEvidencePath, "evidence", "", "evidence JSON file (units + sources)")
	_ = groundCmd.MarkFlagRequired("claims")
	_ = groundCmd.MarkFlagRequired("evidence")
}

func runGround(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}

	persona, err := readPersonaFile(groundClaimsPath)
	if err != nil {
		return err
	}
	evidence, err := readEvidenceFile(groundEvidencePath)
	if err != nil {
		return err
	}

	engines, err := application.BuildEngines(config, application.Dependencies{})
	if err != nil {
		return err
	}

	report, err := engines.Grounding.Validate(cmd.Context(), persona.Claims, evidence)
	if err != nil {
		return err
	}
	if err := writeJSON(report); err != nil {
		return err
	}

	if !report.Grounded {
		return fmt.Errorf("claims are not grounded (score %.2f, minimum %.2f)",
			report.Score, config.Grounding.Validator.MinGroundingScore)
	}
	return nil
}
