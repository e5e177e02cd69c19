package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/httpagent/httpagent"
	"github.com/httpagent/httpagent/config"
	"github.com/httpagent/httpagent/internal/hass"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for CLI use.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// serveCmd starts the polling agent.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the polling agent",
	Long: `Start the polling agent.

The agent will:
  - Load configuration from the specified YAML file
  - Register all configured sensor entities with the publisher
  - Poll every entry on its fixed interval and publish extracted values
  - Serve the diagnostics API if api_port is configured

The agent runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  httpagent serve -c config.yaml
  httpagent serve --config /etc/httpagent/config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = serveCmd.MarkFlagRequired("config")
}

// buildPublisher selects the publisher from config.
func buildPublisher(cfg *config.Config, logger *slog.Logger) (httpagent.Publisher, error) {
	if cfg.Publisher.Type == "home_assistant" {
		return hass.New(cfg.Publisher.URL, cfg.Publisher.Token, logger)
	}
	return httpagent.NewLogPublisher(logger), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Info("config loaded",
		"entries", len(cfg.Entries),
		"publisher", cfg.Publisher.Type,
	)

	// convert config to SDK entries
	entries, err := config.BuildEntries(cfg)
	if err != nil {
		return fmt.Errorf("failed to build entries: %w", err)
	}

	publisher, err := buildPublisher(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create publisher: %w", err)
	}

	opts := []httpagent.Option{
		httpagent.WithEntries(entries),
		httpagent.WithPublisher(publisher),
		httpagent.WithLogger(logger),
	}
	if cfg.APIPort != 0 {
		opts = append(opts, httpagent.WithAPIPort(cfg.APIPort))
	}

	agent, err := httpagent.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start agent - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- agent.Start(ctx)
	}()

	// wait for agent to finish
	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("agent error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("agent error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
