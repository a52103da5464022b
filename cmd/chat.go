package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/dapurkita/chefchimi/internal/app"
	"github.com/dapurkita/chefchimi/internal/config"
	"github.com/dapurkita/chefchimi/internal/tui"
)

// runChat starts the interactive terminal client. Unlike serve, a broken
// setup is fatal here: there is nothing useful to do degraded.
func runChat() error {
	logger := slog.Default()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	a, err := app.Initialize(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close(context.Background())

	return tui.Run(a.Pipeline)
}
