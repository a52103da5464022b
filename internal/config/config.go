// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.chefchimi/config.yaml or ./config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: model and embedder selection, temperature
//   - Storage: PostgreSQL connection for the recipe corpus (see storage.go)
//   - Retrieval: top-k, paraphrase count, per-call timeout
//   - Ingest: corpus directory, chunk size and overlap
//   - Crawler: category base URL, page range, politeness delay
//   - Serve: listen address, OTLP tracing
//
// Sensitive data (the Postgres password) is never logged. The Gemini API
// key is read directly by Genkit from GEMINI_API_KEY; validation only
// checks its presence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates the model API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidTopK indicates the retrieval top-k is out of range.
	ErrInvalidTopK = errors.New("invalid retrieval top-k")

	// ErrInvalidParaphrases indicates the paraphrase count is out of range.
	ErrInvalidParaphrases = errors.New("invalid paraphrase count")

	// ErrInvalidModelRPS indicates a negative model rate limit.
	ErrInvalidModelRPS = errors.New("invalid model rate limit")

	// ErrInvalidChunking indicates chunk size/overlap are inconsistent.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrInvalidCrawlPages indicates the crawl page range is invalid.
	ErrInvalidCrawlPages = errors.New("invalid crawl page range")
)

const (
	// DefaultModelName is the Gemini chat model used for classification,
	// rewriting, paraphrasing and synthesis.
	DefaultModelName = "googleai/gemini-2.0-flash"

	// DefaultEmbedderModel is the Gemini embedder for corpus vectors.
	DefaultEmbedderModel = "text-embedding-004"

	// DefaultChunkSize is the character window used when splitting
	// recipe documents for embedding.
	DefaultChunkSize = 2000

	// DefaultChunkOverlap is the character overlap between adjacent windows.
	DefaultChunkOverlap = 400

	// DefaultTopK is the per-query nearest-neighbor count.
	DefaultTopK = 2

	// DefaultParaphrases is the number of query paraphrases generated
	// for multi-query retrieval.
	DefaultParaphrases = 3
)

// Config stores application configuration.
type Config struct {
	// AI model configuration
	ModelName     string  `mapstructure:"model_name"`
	EmbedderModel string  `mapstructure:"embedder_model"`
	Temperature   float32 `mapstructure:"temperature"`

	// Retrieval configuration
	TopK          int `mapstructure:"top_k"`
	Paraphrases   int `mapstructure:"paraphrases"`
	CallTimeoutMs int `mapstructure:"call_timeout_ms"`

	// ModelRPS throttles outbound model calls. Zero disables throttling.
	ModelRPS float64 `mapstructure:"model_rps"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"` // SENSITIVE: never logged
	PostgresDBName   string `mapstructure:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode"`

	// Ingest configuration
	CorpusDir    string `mapstructure:"corpus_dir"`
	ChunkSize    int    `mapstructure:"chunk_size"`
	ChunkOverlap int    `mapstructure:"chunk_overlap"`

	// Crawler configuration
	CrawlBaseURL string `mapstructure:"crawl_base_url"`
	CrawlStart   int    `mapstructure:"crawl_start_page"`
	CrawlEnd     int    `mapstructure:"crawl_end_page"`
	CrawlDelayMs int    `mapstructure:"crawl_delay_ms"`

	// Serve configuration
	ServeAddr string `mapstructure:"serve_addr"`

	// Tracing configuration
	Tracing TracingConfig `mapstructure:"tracing"`
}

// TracingConfig holds OTLP trace export settings.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
	Environment string `mapstructure:"environment"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".chefchimi")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL overrides the individual postgres_* settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	// Validation happens per command: Validate covers everything the
	// pipeline needs, ValidateCrawl only the crawler's subset.
	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// AI defaults
	viper.SetDefault("model_name", DefaultModelName)
	viper.SetDefault("embedder_model", DefaultEmbedderModel)
	viper.SetDefault("temperature", 0.2)

	// Retrieval defaults
	viper.SetDefault("top_k", DefaultTopK)
	viper.SetDefault("paraphrases", DefaultParaphrases)
	viper.SetDefault("call_timeout_ms", 30000)
	viper.SetDefault("model_rps", 5.0)

	// PostgreSQL defaults (matching docker-compose.yml)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "chefchimi")
	viper.SetDefault("postgres_password", "chefchimi_dev_password")
	viper.SetDefault("postgres_db_name", "chefchimi")
	viper.SetDefault("postgres_ssl_mode", "disable")

	// Ingest defaults
	viper.SetDefault("corpus_dir", "resep")
	viper.SetDefault("chunk_size", DefaultChunkSize)
	viper.SetDefault("chunk_overlap", DefaultChunkOverlap)

	// Crawler defaults
	viper.SetDefault("crawl_base_url", "https://www.masakapahariini.com/resep/")
	viper.SetDefault("crawl_start_page", 1)
	viper.SetDefault("crawl_end_page", 1)
	viper.SetDefault("crawl_delay_ms", 3000)

	// Serve defaults
	viper.SetDefault("serve_addr", "127.0.0.1:8000")

	// Tracing defaults
	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.endpoint", "localhost:4318")
	viper.SetDefault("tracing.environment", "dev")
	viper.SetDefault("tracing.service_name", "chefchimi")
}

// bindEnvVariables binds environment overrides explicitly.
func bindEnvVariables() {
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("model_name", "CHEFCHIMI_MODEL_NAME")
	mustBind("embedder_model", "CHEFCHIMI_EMBEDDER_MODEL")
	mustBind("serve_addr", "CHEFCHIMI_SERVE_ADDR")
	mustBind("corpus_dir", "CHEFCHIMI_CORPUS_DIR")
	mustBind("tracing.enabled", "CHEFCHIMI_TRACING")

	// NOTE: GEMINI_API_KEY is read directly by Genkit, not via Viper.
	// NOTE: DATABASE_URL is parsed separately in parseDatabaseURL.
}
