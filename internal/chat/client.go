package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/dapurkita/chefchimi/internal/session"
)

// Request is one model invocation: an optional system instruction, prior
// turns for context, and the final user prompt.
type Request struct {
	System  string
	History []session.Turn
	Prompt  string
}

// StreamFunc receives answer fragments as the model produces them.
// Returning an error aborts the generation.
type StreamFunc func(ctx context.Context, text string) error

// CompletionClient is the model-call capability the pipeline stages share.
type CompletionClient interface {
	Complete(ctx context.Context, req Request) (string, error)
	Stream(ctx context.Context, req Request, fn StreamFunc) (string, error)
}

// ModelClient calls the configured Gemini model through Genkit. All model
// traffic goes through a shared rate limiter and a per-call timeout.
type ModelClient struct {
	g           *genkit.Genkit
	modelName   string
	temperature float64
	limiter     *rate.Limiter
	timeout     time.Duration
}

// ModelClientConfig carries the knobs for NewModelClient.
type ModelClientConfig struct {
	ModelName   string
	Temperature float64
	// CallTimeout bounds each model invocation. Zero disables the bound.
	CallTimeout time.Duration
	// RequestsPerSecond throttles outbound model calls. Zero or negative
	// disables throttling.
	RequestsPerSecond float64
}

// NewModelClient wires a Genkit instance into a CompletionClient.
func NewModelClient(g *genkit.Genkit, cfg ModelClientConfig) *ModelClient {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &ModelClient{
		g:           g,
		modelName:   cfg.ModelName,
		temperature: cfg.Temperature,
		limiter:     limiter,
		timeout:     cfg.CallTimeout,
	}
}

// Complete runs a single blocking generation.
func (c *ModelClient) Complete(ctx context.Context, req Request) (string, error) {
	return c.generate(ctx, req, nil)
}

// Stream runs a generation and forwards fragments to fn as they arrive.
// The full accumulated text is returned alongside any error.
func (c *ModelClient) Stream(ctx context.Context, req Request, fn StreamFunc) (string, error) {
	return c.generate(ctx, req, fn)
}

func (c *ModelClient) generate(ctx context.Context, req Request, fn StreamFunc) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("wait for model slot: %w", err)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	opts := []ai.GenerateOption{
		ai.WithModelName(c.modelName),
		ai.WithMessages(buildMessages(req)...),
		ai.WithConfig(map[string]any{"temperature": c.temperature}),
	}
	if req.System != "" {
		opts = append(opts, ai.WithSystem(req.System))
	}
	if fn != nil {
		opts = append(opts, ai.WithStreaming(func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
			return fn(ctx, chunk.Text())
		}))
	}

	resp, err := genkit.Generate(ctx, c.g, opts...)
	if err != nil {
		return "", fmt.Errorf("generate with %s: %w", c.modelName, err)
	}
	return resp.Text(), nil
}

func buildMessages(req Request) []*ai.Message {
	msgs := make([]*ai.Message, 0, len(req.History)+1)
	for _, turn := range req.History {
		part := ai.NewTextPart(turn.Text)
		if turn.Role == session.RoleAssistant {
			msgs = append(msgs, ai.NewModelMessage(part))
		} else {
			msgs = append(msgs, ai.NewUserMessage(part))
		}
	}
	return append(msgs, ai.NewUserMessage(ai.NewTextPart(req.Prompt)))
}
