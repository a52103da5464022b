package corpus

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// UpsertChunkParams carries one chunk plus its embedding to the database.
type UpsertChunkParams struct {
	ID          string
	SourceTitle string
	Content     string
	Embedding   pgvector.Vector
	CreatedAt   pgtype.Timestamptz
}

// ChunkRow is one similarity search row.
type ChunkRow struct {
	ID          string
	SourceTitle string
	Content     string
	CreatedAt   pgtype.Timestamptz
	Similarity  float32
}

// Querier defines the database operations needed by Store. The interface
// is defined by the consumer so tests can substitute a mock.
type Querier interface {
	UpsertChunk(ctx context.Context, arg UpsertChunkParams) error
	SearchChunks(ctx context.Context, embedding pgvector.Vector, limit int32) ([]ChunkRow, error)
	CountChunks(ctx context.Context) (int64, error)
}

// PoolQuerier implements Querier on a pgx connection pool.
type PoolQuerier struct {
	pool *pgxpool.Pool
}

// NewPoolQuerier wraps a pgx pool as a Querier.
func NewPoolQuerier(pool *pgxpool.Pool) *PoolQuerier {
	return &PoolQuerier{pool: pool}
}

const upsertChunkSQL = `
INSERT INTO recipe_chunks (id, source_title, content, embedding, created_at)
VALUES ($1, $2, $3, $4, COALESCE($5, now()))
ON CONFLICT (id) DO UPDATE SET
    source_title = EXCLUDED.source_title,
    content      = EXCLUDED.content,
    embedding    = EXCLUDED.embedding`

// UpsertChunk inserts or updates one chunk row.
func (q *PoolQuerier) UpsertChunk(ctx context.Context, arg UpsertChunkParams) error {
	_, err := q.pool.Exec(ctx, upsertChunkSQL,
		arg.ID, arg.SourceTitle, arg.Content, arg.Embedding, arg.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert chunk %q: %w", arg.ID, err)
	}
	return nil
}

const searchChunksSQL = `
SELECT id, source_title, content, created_at,
       1 - (embedding <=> $1) AS similarity
FROM recipe_chunks
ORDER BY embedding <=> $1
LIMIT $2`

// SearchChunks returns the top rows by cosine similarity to embedding.
func (q *PoolQuerier) SearchChunks(ctx context.Context, embedding pgvector.Vector, limit int32) ([]ChunkRow, error) {
	rows, err := q.pool.Query(ctx, searchChunksSQL, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	defer rows.Close()

	var out []ChunkRow
	for rows.Next() {
		var r ChunkRow
		if err := rows.Scan(&r.ID, &r.SourceTitle, &r.Content, &r.CreatedAt, &r.Similarity); err != nil {
			return nil, fmt.Errorf("scan chunk row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunk rows: %w", err)
	}
	return out, nil
}

// CountChunks returns the total number of stored chunks.
func (q *PoolQuerier) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	if err := q.pool.QueryRow(ctx, "SELECT COUNT(*) FROM recipe_chunks").Scan(&count); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return count, nil
}
