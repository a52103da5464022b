package corpus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"

	"github.com/dapurkita/chefchimi/internal/log"
)

// mockEmbedder implements ai.Embedder for testing.
type mockEmbedder struct {
	embedErr    error
	returnEmpty bool
	delay       time.Duration
	callCount   int
	lastInput   string
}

func (m *mockEmbedder) Name() string { return "mock-embedder" }

func (m *mockEmbedder) Register(api.Registry) {}

func (m *mockEmbedder) Embed(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	m.callCount++
	if len(req.Input) > 0 && len(req.Input[0].Content) > 0 {
		m.lastInput = req.Input[0].Content[0].Text
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.returnEmpty {
		return &ai.EmbedResponse{Embeddings: []*ai.Embedding{{Embedding: []float32{}}}}, nil
	}
	return &ai.EmbedResponse{
		Embeddings: []*ai.Embedding{{Embedding: []float32{0.1, 0.2, 0.3}}},
	}, nil
}

// mockQuerier implements Querier for testing.
type mockQuerier struct {
	upserts   []UpsertChunkParams
	upsertErr error
	rows      []ChunkRow
	searchErr error
	count     int64
}

func (m *mockQuerier) UpsertChunk(_ context.Context, arg UpsertChunkParams) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserts = append(m.upserts, arg)
	return nil
}

func (m *mockQuerier) SearchChunks(_ context.Context, _ pgvector.Vector, limit int32) ([]ChunkRow, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if int(limit) < len(m.rows) {
		return m.rows[:limit], nil
	}
	return m.rows, nil
}

func (m *mockQuerier) CountChunks(context.Context) (int64, error) {
	return m.count, nil
}

func TestStore_Add(t *testing.T) {
	querier := &mockQuerier{}
	embedder := &mockEmbedder{}
	store := New(querier, embedder, log.NewNop())

	chunk := Chunk{
		ID:          "abc123",
		SourceTitle: "Resep Ayam Goreng",
		Content:     "Judul: Resep Ayam Goreng\nBahan:\n- 1 ekor ayam",
		CreatedAt:   time.Now(),
	}
	if err := store.Add(context.Background(), chunk); err != nil {
		t.Fatalf("Add() = %v", err)
	}

	if len(querier.upserts) != 1 {
		t.Fatalf("upserts = %d, want 1", len(querier.upserts))
	}
	got := querier.upserts[0]
	if got.ID != chunk.ID || got.SourceTitle != chunk.SourceTitle || got.Content != chunk.Content {
		t.Errorf("upsert params mismatch: %+v", got)
	}
	if embedder.lastInput != chunk.Content {
		t.Errorf("embedded %q, want chunk content", embedder.lastInput)
	}
}

func TestStore_Add_EmbedError(t *testing.T) {
	wantErr := errors.New("quota exceeded")
	store := New(&mockQuerier{}, &mockEmbedder{embedErr: wantErr}, log.NewNop())

	err := store.Add(context.Background(), Chunk{ID: "x", Content: "text"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Add() = %v, want wrapped %v", err, wantErr)
	}
}

func TestStore_Add_EmptyEmbedding(t *testing.T) {
	store := New(&mockQuerier{}, &mockEmbedder{returnEmpty: true}, log.NewNop())

	if err := store.Add(context.Background(), Chunk{ID: "x", Content: "text"}); err == nil {
		t.Fatal("Add() accepted empty embedding")
	}
}

func TestStore_Search(t *testing.T) {
	querier := &mockQuerier{
		rows: []ChunkRow{
			{
				ID:          "c1",
				SourceTitle: "Resep Ayam Goreng",
				Content:     "bumbu halus bawang putih",
				CreatedAt:   pgtype.Timestamptz{Time: time.Now(), Valid: true},
				Similarity:  0.92,
			},
			{
				ID:          "c2",
				SourceTitle: "Resep Ayam Bakar",
				Content:     "lumuri ayam dengan kecap",
				Similarity:  0.81,
			},
		},
	}
	store := New(querier, &mockEmbedder{}, log.NewNop())

	results, err := store.Search(context.Background(), "cara membuat ayam goreng", WithTopK(5))
	if err != nil {
		t.Fatalf("Search() = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].Chunk.ID != "c1" || results[0].Similarity != 0.92 {
		t.Errorf("first result = %+v", results[0])
	}
	if results[1].Chunk.CreatedAt != (time.Time{}) {
		t.Errorf("invalid timestamp should map to zero time, got %v", results[1].Chunk.CreatedAt)
	}
}

func TestStore_Search_TopKLimitsRows(t *testing.T) {
	querier := &mockQuerier{
		rows: []ChunkRow{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}},
	}
	store := New(querier, &mockEmbedder{}, log.NewNop())

	results, err := store.Search(context.Background(), "soto", WithTopK(1))
	if err != nil {
		t.Fatalf("Search() = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
}

func TestStore_Search_EmbedTimeout(t *testing.T) {
	embedder := &mockEmbedder{delay: 200 * time.Millisecond}
	store := New(&mockQuerier{}, embedder, log.NewNop())

	_, err := store.Search(context.Background(), "rendang", WithTimeout(10*time.Millisecond))
	if err == nil {
		t.Fatal("Search() did not time out")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Search() = %v, want deadline exceeded", err)
	}
}

func TestStore_Search_QueryError(t *testing.T) {
	wantErr := errors.New("connection refused")
	store := New(&mockQuerier{searchErr: wantErr}, &mockEmbedder{}, log.NewNop())

	_, err := store.Search(context.Background(), "gulai")
	if !errors.Is(err, wantErr) {
		t.Fatalf("Search() = %v, want wrapped %v", err, wantErr)
	}
}

func TestStore_Count(t *testing.T) {
	store := New(&mockQuerier{count: 42}, &mockEmbedder{}, log.NewNop())

	n, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() = %v", err)
	}
	if n != 42 {
		t.Errorf("Count() = %d, want 42", n)
	}
}

func TestChunk_Key(t *testing.T) {
	a := Chunk{ID: "1", SourceTitle: "Soto Ayam", Content: "bagian satu"}
	b := Chunk{ID: "2", SourceTitle: "Soto Ayam", Content: "bagian satu"}
	c := Chunk{ID: "3", SourceTitle: "Soto Ayam", Content: "bagian dua"}

	if a.Key() != b.Key() {
		t.Error("chunks with same source and content must share a key")
	}
	if a.Key() == c.Key() {
		t.Error("chunks with different content must not share a key")
	}
}
