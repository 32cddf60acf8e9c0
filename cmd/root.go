package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logLevel     string // Log verbosity level
	scenarioPath string // Scenario YAML; empty means the reference Beer Game
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "beergame",
	Short: "Digital twin and discrete-event policy simulator for the Beer Game supply chain",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// loadScenario returns the scenario named by --config, or the default one.
func loadScenario() Scenario {
	if scenarioPath == "" {
		return DefaultScenario()
	}
	sc, err := LoadScenario(scenarioPath)
	if err != nil {
		logrus.Fatalf("Failed to load scenario: %v", err)
	}
	return sc
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&scenarioPath, "config", "", "Scenario YAML file (default: reference Beer Game)")

	rootCmd.AddCommand(twinCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(erpCmd)
}
