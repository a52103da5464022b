// Package cmd provides the CLI commands for Chef Chimi.
//
// Commands:
//   - serve: HTTP API server with streaming chat
//   - chat: interactive terminal chat client
//   - crawl: harvest recipe pages into the corpus directory
//   - ingest: build the vector corpus from the text documents
//
// All long-running commands shut down gracefully on SIGINT/SIGTERM via
// context cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dapurkita/chefchimi/internal/log"
)

// Execute is the entry point for the chefchimi CLI.
func Execute() error {
	cfg := log.Config{Level: slog.LevelInfo}
	if os.Getenv("DEBUG") != "" {
		cfg.Level = slog.LevelDebug
	}
	slog.SetDefault(log.New(cfg))

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "serve":
		return runServe()
	case "chat":
		return runChat()
	case "crawl":
		return runCrawl()
	case "ingest":
		return runIngest()
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

func runHelp() {
	fmt.Println("Chef Chimi - asisten resep masakan Indonesia")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  chefchimi serve [addr]  Start the HTTP API server")
	fmt.Println("  chefchimi chat          Start the interactive chat client")
	fmt.Println("  chefchimi crawl         Harvest recipe pages into the corpus directory")
	fmt.Println("  chefchimi ingest        Build the vector corpus from the text documents")
	fmt.Println("  chefchimi --version     Show version information")
	fmt.Println("  chefchimi --help        Show this help")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY     Required for serve/chat/ingest: Gemini API key")
	fmt.Println("  DATABASE_URL       Optional: overrides the postgres_* settings")
	fmt.Println("  DEBUG              Optional: enable debug logging")
}
