package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"
)

// Store manages recipe chunks with vector search. It handles embedding
// generation and cosine similarity search over PostgreSQL + pgvector.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	queries  Querier
	embedder ai.Embedder
	logger   *slog.Logger
}

// New creates a new Store.
func New(querier Querier, embedder ai.Embedder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		queries:  querier,
		embedder: embedder,
		logger:   logger,
	}
}

// Add embeds a chunk's content and upserts it. Re-adding a chunk with the
// same ID replaces the stored row.
func (s *Store) Add(ctx context.Context, chunk Chunk) error {
	embedding, err := s.embed(ctx, chunk.Content)
	if err != nil {
		return fmt.Errorf("embedding chunk %q: %w", chunk.ID, err)
	}

	createdAt := pgtype.Timestamptz{
		Time:  chunk.CreatedAt,
		Valid: !chunk.CreatedAt.IsZero(),
	}

	if err := s.queries.UpsertChunk(ctx, UpsertChunkParams{
		ID:          chunk.ID,
		SourceTitle: chunk.SourceTitle,
		Content:     chunk.Content,
		Embedding:   embedding,
		CreatedAt:   createdAt,
	}); err != nil {
		return err
	}

	s.logger.Debug("added chunk", "id", chunk.ID, "source", chunk.SourceTitle,
		"content_length", len(chunk.Content))
	return nil
}

// Search returns the chunks most similar to query, ordered by similarity.
// A timeout bounds the embedding call and the vector query together.
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	cfg := buildSearchConfig(opts)

	queryCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	embedding, err := s.embed(queryCtx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("query embedding timeout: %w", err)
		}
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	if cfg.topK > math.MaxInt32 {
		return nil, fmt.Errorf("top-k %d out of range", cfg.topK)
	}
	rows, err := s.queries.SearchChunks(queryCtx, embedding, int32(cfg.topK))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("similarity search timeout: %w", err)
		}
		return nil, err
	}

	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		chunk := Chunk{
			ID:          row.ID,
			SourceTitle: row.SourceTitle,
			Content:     row.Content,
		}
		if row.CreatedAt.Valid {
			chunk.CreatedAt = row.CreatedAt.Time
		}
		results = append(results, Result{Chunk: chunk, Similarity: row.Similarity})
	}
	return results, nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	count, err := s.queries.CountChunks(ctx)
	if err != nil {
		return 0, err
	}
	if count > math.MaxInt {
		return 0, fmt.Errorf("chunk count %d exceeds platform int capacity", count)
	}
	return int(count), nil
}

// embed turns text into a pgvector value via the configured embedder.
func (s *Store) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			{Content: []*ai.Part{ai.NewTextPart(text)}},
		},
	})
	if err != nil {
		return pgvector.Vector{}, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return pgvector.Vector{}, errors.New("empty embedding returned")
	}
	return pgvector.NewVector(resp.Embeddings[0].Embedding), nil
}
