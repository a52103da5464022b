package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dapurkita/chefchimi/api"
	"github.com/dapurkita/chefchimi/internal/app"
	"github.com/dapurkita/chefchimi/internal/config"
)

// runServe starts the HTTP API server. An initialization failure does not
// abort startup: the server comes up degraded, answering chat requests
// with the captured error while the health probes keep working.
func runServe() error {
	logger := slog.Default()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var a *app.App
	var initErr error

	cfg, err := config.Load()
	if err != nil {
		initErr = fmt.Errorf("loading config: %w", err)
		cfg = nil
	} else {
		a, initErr = app.Initialize(ctx, cfg, logger)
	}

	addr := api.DefaultAddr
	if cfg != nil {
		addr = cfg.ServeAddr
	}
	if parsed, err := parseServeAddr(addr); err != nil {
		return err
	} else {
		addr = parsed
	}

	var pool *pgxpool.Pool
	var responder api.Responder
	if initErr != nil {
		logger.Error("initialization failed, serving degraded", "error", initErr)
	} else {
		pool = a.Pool
		responder = a.Pipeline
		defer a.Close(context.Background())
	}

	srv := api.NewServer(
		api.NewHealthHandler(pool, logger),
		api.NewChatHandler(responder, initErr, logger),
		logger,
	)
	return srv.Run(ctx, addr)
}
