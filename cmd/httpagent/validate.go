package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/httpagent/httpagent/config"
)

// validateCmd validates a config file without starting the agent.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a configuration file without starting the agent.

This command parses the YAML, expands environment variables, validates all
fields, and builds the SDK objects (which checks template syntax and sensor
definitions). It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  httpagent validate -c config.yaml
  httpagent validate --config /etc/httpagent/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// building entries exercises template and sensor validation too
	entries, err := config.BuildEntries(cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	sensors := 0
	for _, e := range cfg.Entries {
		sensors += len(e.Sensors)
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Publisher: %s\n", cfg.Publisher.Type)
	fmt.Printf("  Entries:   %d\n", len(entries))
	fmt.Printf("  Sensors:   %d\n", sensors)

	return nil
}
