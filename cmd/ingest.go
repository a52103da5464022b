package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/dapurkita/chefchimi/internal/app"
	"github.com/dapurkita/chefchimi/internal/config"
	"github.com/dapurkita/chefchimi/internal/ingest"
)

// runIngest builds the vector corpus from the text documents in the
// corpus directory. Chunk IDs are deterministic, so re-running over an
// unchanged directory leaves the corpus size unchanged.
func runIngest() error {
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

	ing := ingest.New(a.Corpus, ingest.Config{
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
	}, logger)

	result, err := ing.Run(ctx, cfg.CorpusDir)
	if err != nil {
		return fmt.Errorf("ingesting corpus: %w", err)
	}

	total, err := a.Corpus.Count(ctx)
	if err != nil {
		logger.Warn("failed to count corpus chunks", "error", err)
		total = -1
	}

	fmt.Printf("Ingest selesai: %d dokumen, %d potongan, total di korpus: %d (%.1fs)\n",
		result.Documents, result.Chunks, total, result.Duration.Seconds())
	return nil
}
