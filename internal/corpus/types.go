// Package corpus provides the recipe corpus store: a PostgreSQL +
// pgvector backed similarity index over recipe text chunks.
//
// The store is written once by the offline ingestion pipeline and
// read-only at serve time. Store is safe for concurrent use.
package corpus

import "time"

// Chunk is one embedded text window cut from a scraped recipe document.
type Chunk struct {
	ID          string    // deterministic identifier (hash of source + offset)
	SourceTitle string    // recipe document the chunk came from
	Content     string    // text fragment
	CreatedAt   time.Time // ingestion timestamp
}

// Key returns the identity used for retrieval dedup: two chunks with the
// same source title and text fragment are the same chunk.
func (c Chunk) Key() string {
	return c.SourceTitle + "\x00" + c.Content
}

// Result is a single similarity search hit.
type Result struct {
	Chunk      Chunk
	Similarity float32 // cosine similarity (0-1)
}

// SearchOption configures search behavior using the functional options
// pattern.
type SearchOption func(*searchConfig)

// searchConfig holds internal search configuration.
type searchConfig struct {
	topK    int
	timeout time.Duration
}

// WithTopK sets the maximum number of results to return. Default is 2.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithTimeout bounds the embedding call and vector query. Default 10s.
func WithTimeout(d time.Duration) SearchOption {
	return func(c *searchConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// buildSearchConfig applies search options over the defaults.
func buildSearchConfig(opts []SearchOption) *searchConfig {
	cfg := &searchConfig{
		topK:    2,
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
