package chat

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dapurkita/chefchimi/internal/corpus"
	"github.com/dapurkita/chefchimi/internal/log"
)

// Searcher is the slice of the corpus store the retriever needs.
type Searcher interface {
	Search(ctx context.Context, query string, opts ...corpus.SearchOption) ([]corpus.Result, error)
}

const paraphraseSystemPrompt = `Anda adalah asisten pencarian resep. Buat %d variasi dari pertanyaan pengguna agar pencarian di basis data resep menemukan lebih banyak hasil yang relevan. Tulis satu variasi per baris, tanpa penomoran dan tanpa penjelasan.`

// Retriever expands a query into paraphrases, searches the corpus with
// each, and merges the hits.
type Retriever struct {
	llm         CompletionClient
	searcher    Searcher
	paraphrases int
	topK        int
	logger      log.Logger
}

// RetrieverConfig carries the knobs for NewRetriever.
type RetrieverConfig struct {
	// Paraphrases is how many query variants to generate on top of the
	// original. Zero disables expansion.
	Paraphrases int
	// TopK is the per-query hit limit.
	TopK int
}

// NewRetriever creates a multi-query retriever over the given searcher.
func NewRetriever(llm CompletionClient, searcher Searcher, cfg RetrieverConfig, logger log.Logger) *Retriever {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Retriever{
		llm:         llm,
		searcher:    searcher,
		paraphrases: cfg.Paraphrases,
		topK:        cfg.TopK,
		logger:      logger,
	}
}

// Retrieve searches the corpus with the query and its paraphrases and
// returns the deduplicated union, original-query hits first. Paraphrase
// generation is best-effort: if it fails the retriever degrades to a
// single-query search. Corpus lookup failures always propagate.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]corpus.Chunk, error) {
	queries := []string{query}
	if r.paraphrases > 0 {
		variants, err := r.expand(ctx, query)
		if err != nil {
			r.logger.Warn("query expansion failed, falling back to single query", "error", err)
		} else {
			queries = append(queries, variants...)
		}
	}

	seen := make(map[string]struct{})
	var merged []corpus.Chunk
	for _, q := range queries {
		results, err := r.searcher.Search(ctx, q, corpus.WithTopK(r.topK))
		if err != nil {
			return nil, fmt.Errorf("search corpus for %q: %w", q, err)
		}
		for _, res := range results {
			key := res.Chunk.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, res.Chunk)
		}
	}

	r.logger.Debug("retrieved context", "queries", len(queries), "chunks", len(merged))
	return merged, nil
}

func (r *Retriever) expand(ctx context.Context, query string) ([]string, error) {
	raw, err := r.llm.Complete(ctx, Request{
		System: fmt.Sprintf(paraphraseSystemPrompt, r.paraphrases),
		Prompt: query,
	})
	if err != nil {
		return nil, err
	}

	variants := parseVariants(raw, r.paraphrases)
	if len(variants) == 0 {
		return nil, fmt.Errorf("no usable variants in model output")
	}
	return variants, nil
}

// parseVariants splits model output into clean query lines, dropping
// empties and any leading list markers, capped at limit.
func parseVariants(raw string, limit int) []string {
	var variants []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• \t")
		if i := listNumberEnd(line); i > 0 {
			line = strings.TrimSpace(line[i:])
		}
		if line == "" {
			continue
		}
		variants = append(variants, line)
		if len(variants) == limit {
			break
		}
	}
	return variants
}

// listNumberEnd returns the index just past a "1." or "1)" prefix, or 0.
func listNumberEnd(s string) int {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(s) {
		return 0
	}
	if s[i] == '.' || s[i] == ')' {
		if _, err := strconv.Atoi(s[:i]); err == nil {
			return i + 1
		}
	}
	return 0
}
