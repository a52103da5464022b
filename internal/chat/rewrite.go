package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/dapurkita/chefchimi/internal/log"
	"github.com/dapurkita/chefchimi/internal/session"
)

const rewriteSystemPrompt = `Diberikan riwayat obrolan dan pertanyaan lanjutan, tulis ulang pertanyaan tersebut menjadi pertanyaan mandiri yang dapat dipahami tanpa riwayat obrolan. JANGAN menjawab pertanyaannya, cukup tulis ulang jika perlu, atau kembalikan apa adanya.`

// Rewriter turns follow-up questions into standalone ones so retrieval
// does not depend on conversational context.
type Rewriter struct {
	llm    CompletionClient
	logger log.Logger
}

// NewRewriter creates a history-aware query rewriter.
func NewRewriter(llm CompletionClient, logger log.Logger) *Rewriter {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Rewriter{llm: llm, logger: logger}
}

// Rewrite returns a standalone form of the utterance. With no history there
// is nothing to resolve, so the utterance comes back untouched without a
// model call.
func (r *Rewriter) Rewrite(ctx context.Context, utterance string, history []session.Turn) (string, error) {
	if len(history) == 0 {
		return utterance, nil
	}

	rewritten, err := r.llm.Complete(ctx, Request{
		System:  rewriteSystemPrompt,
		History: history,
		Prompt:  utterance,
	})
	if err != nil {
		return "", fmt.Errorf("rewrite query: %w", err)
	}

	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return utterance, nil
	}
	if rewritten != utterance {
		r.logger.Debug("rewrote follow-up question", "original", utterance, "rewritten", rewritten)
	}
	return rewritten, nil
}
