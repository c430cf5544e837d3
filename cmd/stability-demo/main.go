// Package main provides the entry point for the Stability demo UI.
package main

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/grant-king/stability-demo/internal/bootstrap"
	"github.com/grant-king/stability-demo/internal/config"
	"github.com/grant-king/stability-demo/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration from .env and the environment
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create structured logger. It writes to stderr so the terminal UI
	// keeps stdout to itself.
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting stability demo",
		slog.String("video_dir", cfg.VideoDir),
		slog.String("image_dir", cfg.ImageDir),
		slog.Duration("poll_interval", cfg.PollInterval),
		slog.Duration("poll_timeout", cfg.PollTimeout),
		slog.Bool("s3_enabled", cfg.S3Enabled()),
	)

	// Initialize dependencies using bootstrap
	deps, err := bootstrap.NewDependencies(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}

	model := tui.New(deps.Service, deps.Store)
	program := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run UI: %w", err)
	}

	logger.Info("stability demo stopped")
	return nil
}
