package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/dapurkita/chefchimi/internal/config"
	"github.com/dapurkita/chefchimi/internal/crawler"
)

// runCrawl harvests recipe pages into the corpus directory. It needs no
// API key and no database, only network access and the output directory.
func runCrawl() error {
	logger := slog.Default()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ValidateCrawl(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	c := crawler.New(crawler.Config{
		BaseURL:   cfg.CrawlBaseURL,
		StartPage: cfg.CrawlStart,
		EndPage:   cfg.CrawlEnd,
		OutDir:    cfg.CorpusDir,
		Delay:     time.Duration(cfg.CrawlDelayMs) * time.Millisecond,
	}, logger)

	result, err := c.Run(ctx)
	if err != nil {
		return fmt.Errorf("crawling recipes: %w", err)
	}

	fmt.Printf("Crawl selesai: %d link, %d baru, %d dilewati, %d gagal\n",
		result.Links, result.Scraped, result.Skipped, result.Failed)
	return nil
}
