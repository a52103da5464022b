// Package app assembles the assistant's collaborators: Genkit, the
// database pool, the corpus store and the conversation pipeline.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dapurkita/chefchimi/db"
	"github.com/dapurkita/chefchimi/internal/chat"
	"github.com/dapurkita/chefchimi/internal/config"
	"github.com/dapurkita/chefchimi/internal/corpus"
	"github.com/dapurkita/chefchimi/internal/log"
	"github.com/dapurkita/chefchimi/internal/observability"
	"github.com/dapurkita/chefchimi/internal/session"
)

// App holds the initialized collaborators. Built once at startup; an
// initialization failure is captured by the caller rather than retried,
// so the HTTP layer can serve degraded.
type App struct {
	Config   *config.Config
	Logger   log.Logger
	Pool     *pgxpool.Pool
	Genkit   *genkit.Genkit
	Corpus   *corpus.Store
	Sessions *session.Store
	Pipeline *chat.Pipeline

	traceShutdown func(context.Context) error
}

// Initialize builds the full collaborator graph: Genkit with the Google
// AI plugin, the pgx pool with migrations applied, the corpus store and
// the conversation pipeline.
func Initialize(ctx context.Context, cfg *config.Config, logger log.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = log.NewNop()
	}

	var traceShutdown func(context.Context) error
	if cfg.Tracing.Enabled {
		var err error
		traceShutdown, err = observability.Setup(ctx, observability.Config{
			Endpoint:    cfg.Tracing.Endpoint,
			ServiceName: cfg.Tracing.ServiceName,
			Environment: cfg.Tracing.Environment,
		})
		if err != nil {
			return nil, fmt.Errorf("setup tracing: %w", err)
		}
	}

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := corpus.New(corpus.NewPoolQuerier(pool), embedder, logger)
	sessions := session.New()

	llm := chat.NewModelClient(g, chat.ModelClientConfig{
		ModelName:         cfg.ModelName,
		Temperature:       float64(cfg.Temperature),
		CallTimeout:       time.Duration(cfg.CallTimeoutMs) * time.Millisecond,
		RequestsPerSecond: cfg.ModelRPS,
	})

	pipeline := chat.NewPipeline(
		chat.NewClassifier(llm, logger),
		chat.NewRewriter(llm, logger),
		chat.NewRetriever(llm, store, chat.RetrieverConfig{
			Paraphrases: cfg.Paraphrases,
			TopK:        cfg.TopK,
		}, logger),
		chat.NewSynthesizer(llm, logger),
		sessions,
		logger,
	)

	logger.Info("application initialized",
		"model", cfg.ModelName,
		"embedder", cfg.EmbedderModel,
		"top_k", cfg.TopK,
		"paraphrases", cfg.Paraphrases)

	return &App{
		Config:        cfg,
		Logger:        logger,
		Pool:          pool,
		Genkit:        g,
		Corpus:        store,
		Sessions:      sessions,
		Pipeline:      pipeline,
		traceShutdown: traceShutdown,
	}, nil
}

// Close releases the pool and flushes pending trace spans.
func (a *App) Close(ctx context.Context) {
	if a.Pool != nil {
		a.Pool.Close()
	}
	if a.traceShutdown != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.traceShutdown(shutdownCtx); err != nil {
			a.Logger.Warn("trace shutdown failed", "error", err)
		}
	}
}
