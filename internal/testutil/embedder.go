package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/binary"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
)

// MockEmbedder implements ai.Embedder with deterministic vectors derived
// from the input text, so identical text always embeds identically and
// similarity search in tests behaves reproducibly without an API key.
type MockEmbedder struct {
	// Dim is the vector dimensionality. Defaults to 768, matching the
	// recipe_chunks schema.
	Dim int
}

func (m *MockEmbedder) Name() string { return "mock-embedder" }

func (m *MockEmbedder) Register(api.Registry) {}

func (m *MockEmbedder) Embed(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	dim := m.Dim
	if dim == 0 {
		dim = 768
	}

	resp := &ai.EmbedResponse{}
	for _, doc := range req.Input {
		var text string
		for _, part := range doc.Content {
			text += part.Text
		}
		resp.Embeddings = append(resp.Embeddings, &ai.Embedding{
			Embedding: deterministicVector(text, dim),
		})
	}
	return resp, nil
}

// deterministicVector expands a SHA-256 digest of the text into a unit-ish
// float vector. Similar enough for exact-text matching in tests; it makes
// no claim about semantic similarity.
func deterministicVector(text string, dim int) []float32 {
	seed := sha256.Sum256([]byte(text))
	vec := make([]float32, dim)
	for i := range vec {
		word := binary.BigEndian.Uint32(seed[(i*4)%28 : (i*4)%28+4])
		// Mix in the index so dimensions differ even with a short digest.
		word ^= uint32(i) * 2654435761
		vec[i] = float32(word%2000)/1000 - 1
	}
	return vec
}
