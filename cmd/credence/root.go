package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/averen/credence/internal/application"
)

// version is stamped at release time via -ldflags "-X main.version=...".
var version = "0.1.0"

var cfgFile string

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "credence",
	Short: "Evidence quality, confidence, and grounding scoring",
	Long: `Credence scores the quality of evidence, derives calibrated confidence
for claims extracted from that evidence, and validates that claims stay
grounded in the citations that back them.

All input is JSON read from files; every report is JSON written to
stdout so the commands compose with other tooling. Configuration is
optional: omit --config to run with the built-in defaults.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("credence v" + version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "engine config file (YAML; built-in defaults when omitted)")
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves the engine configuration from --config, falling
// back to the package defaults when the flag is unset.
func loadConfig() (application.EngineConfig, error) {
	if cfgFile == "" {
		return application.DefaultEngineConfig(), nil
	}
	return application.LoadEngineConfig(cfgFile)
}
