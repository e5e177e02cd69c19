// Package main is the entry point for the httpagent CLI.
//
// The engine can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	httpagent serve -c config.yaml    # Start polling
//	httpagent validate -c config.yaml # Validate configuration
//	httpagent version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "httpagent",
	Short: "Poll HTTP endpoints and publish sensor entities",
	Long: `httpagent polls arbitrary HTTP endpoints at fixed intervals, extracts
values from the responses, and publishes them as sensor entities to a
home automation host (Home Assistant over its REST API, or a structured
log for local runs).

Quick start:
  1. Create a config file (httpagent.yaml)
  2. Run: httpagent serve -c httpagent.yaml

Example config:
  publisher:
    type: home_assistant
    url: ${HASS_URL}
    token: ${HASS_TOKEN}
  entries:
    - name: weather
      url: "https://wttr.in/Seattle?format=j1"
      interval: 5m
      sensors:
        - name: Seattle Temperature
          expression: current_condition.0.temp_C
          kind: number
          unit: "°C"`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this httpagent binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("httpagent %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
