package main

import (
	"github.com/spf13/cobra"

	"github.com/averen/credence/internal/application"
)

var calibratePointsPath string

// calibrateCmd represents the calibrate command.
var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Analyze predicted-versus-observed confidence calibration",
	Long: `Calibrate loads predicted/observed confidence pairs and reports the
calibration error (MAE, RMSE), the correlation between predictions and
outcomes, and a ten-bin reliability curve as JSON.

Example:
  credence calibrate --points calibration.json`,
	RunE: runCalibrate,
}

func init() {
	rootCmd.AddCommand(calibrateCmd)

	calibrateCmd.Flags().StringVar(&calibratePointsPath, "points", "", "calibration points JSON file (array of {predicted, observed})")
	_ = calibrateCmd.MarkFlagRequired("points")
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}

	points, err := readPointsFile(calibratePointsPath)
	if err != nil {
		return err
	}

	engines, err := application.BuildEngines(config, application.Dependencies{})
	if err != nil {
		return err
	}

	for _, point := range points {
		engines.Confidence.RecordCalibration(point)
	}

	report, err := engines.Confidence.AnalyzeCalibration()
	if err != nil {
		return err
	}
	return writeJSON(report)
}
