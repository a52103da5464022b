// Package ingest builds the recipe corpus from a directory of plain-text
// documents: load, split into overlapping windows, embed, persist.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dapurkita/chefchimi/internal/corpus"
	"github.com/dapurkita/chefchimi/internal/log"
)

// ChunkAdder is the slice of the corpus store the ingester needs.
type ChunkAdder interface {
	Add(ctx context.Context, chunk corpus.Chunk) error
}

// Document is one loaded source file.
type Document struct {
	// Title is the file name without its extension.
	Title string
	Text  string
}

// Result summarizes one ingestion run.
type Result struct {
	Documents int
	Chunks    int
	Duration  time.Duration
}

// Ingester populates the corpus store from a source directory.
type Ingester struct {
	store   ChunkAdder
	size    int
	overlap int
	logger  log.Logger
}

// Config carries the chunking parameters.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
}

// New creates an ingester writing to the given store.
func New(store ChunkAdder, cfg Config, logger log.Logger) *Ingester {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Ingester{
		store:   store,
		size:    cfg.ChunkSize,
		overlap: cfg.ChunkOverlap,
		logger:  logger,
	}
}

// Run loads every .txt document under dir, splits each into overlapping
// windows and adds them to the store. Chunk IDs derive from the source
// title and window offset, so re-running over an unchanged directory
// upserts the same rows instead of growing the corpus.
func (ing *Ingester) Run(ctx context.Context, dir string) (Result, error) {
	start := time.Now()

	docs, err := loadDocuments(dir)
	if err != nil {
		return Result{}, err
	}
	if len(docs) == 0 {
		return Result{}, fmt.Errorf("no .txt documents found in %s", dir)
	}

	chunks := 0
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		windows := splitText(doc.Text, ing.size, ing.overlap)
		for i, window := range windows {
			chunk := corpus.Chunk{
				ID:          chunkID(doc.Title, i),
				SourceTitle: doc.Title,
				Content:     window,
			}
			if err := ing.store.Add(ctx, chunk); err != nil {
				return Result{}, fmt.Errorf("add chunk %s: %w", chunk.ID, err)
			}
			chunks++
		}
		ing.logger.Debug("ingested document", "title", doc.Title, "chunks", len(windows))
	}

	result := Result{Documents: len(docs), Chunks: chunks, Duration: time.Since(start)}
	ing.logger.Info("ingestion complete",
		"documents", result.Documents,
		"chunks", result.Chunks,
		"duration", result.Duration)
	return result, nil
}

// loadDocuments reads every .txt file directly under dir, sorted by name.
func loadDocuments(dir string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read corpus directory: %w", err)
	}

	var docs []Document
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".txt") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read document %s: %w", entry.Name(), err)
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			continue
		}
		docs = append(docs, Document{
			Title: strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())),
			Text:  text,
		})
	}
	return docs, nil
}

// chunkID derives a stable identifier from the source title and window
// index. Identical input produces identical IDs across runs.
func chunkID(title string, index int) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s:%d", title, index))
	return hex.EncodeToString(sum[:])
}
