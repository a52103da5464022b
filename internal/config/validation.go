package config

import (
	"fmt"
	"os"
	"slices"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// API key presence (required for all model and embedding calls)
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
			"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
			ErrMissingAPIKey)
	}

	// Model configuration
	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	// Retrieval configuration
	if c.TopK < 1 || c.TopK > 20 {
		return fmt.Errorf("%w: must be between 1 and 20, got %d", ErrInvalidTopK, c.TopK)
	}
	if c.Paraphrases < 0 || c.Paraphrases > 10 {
		return fmt.Errorf("%w: must be between 0 and 10, got %d", ErrInvalidParaphrases, c.Paraphrases)
	}
	if c.ModelRPS < 0 {
		return fmt.Errorf("%w: model_rps cannot be negative, got %v", ErrInvalidModelRPS, c.ModelRPS)
	}

	// Chunking configuration: overlap must leave forward progress.
	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidChunking, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must be in [0, chunk_size), got %d (chunk_size %d)",
			ErrInvalidChunking, c.ChunkOverlap, c.ChunkSize)
	}

	// PostgreSQL configuration
	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}

	// Modern SSL modes only; allow/prefer are deprecated.
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidPostgresSSLMode, c.PostgresSSLMode, validSSLModes)
	}

	return c.ValidateCrawl()
}

// ValidateCrawl validates only what the crawler needs; it runs without an
// API key or a database.
func (c *Config) ValidateCrawl() error {
	if c == nil {
		return ErrConfigNil
	}
	if c.CrawlBaseURL == "" {
		return fmt.Errorf("%w: crawl_base_url cannot be empty", ErrInvalidCrawlPages)
	}
	if c.CrawlStart < 1 || c.CrawlEnd < c.CrawlStart {
		return fmt.Errorf("%w: start %d, end %d", ErrInvalidCrawlPages, c.CrawlStart, c.CrawlEnd)
	}
	return nil
}
