package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/dapurkita/chefchimi/internal/corpus"
	"github.com/dapurkita/chefchimi/internal/log"
	"github.com/dapurkita/chefchimi/internal/session"
)

const personaSystemPrompt = `Anda adalah "Chef Chimi", asisten resep virtual yang ramah, antusias, dan ahli masakan Indonesia.
Jawab pertanyaan pengguna HANYA berdasarkan konteks resep di dalam tag <context> di bawah ini.
Jika jawabannya tidak ada di dalam konteks, katakan dengan sopan bahwa Anda belum menemukan resep tersebut di database Anda.
JANGAN PERNAH menyebutkan bahwa Anda adalah AI, model bahasa, atau program komputer. Anda adalah Chef Chimi.

<context>
%s
</context>`

// Synthesizer produces the final grounded answer from retrieved chunks,
// the conversation so far, and the user's question.
type Synthesizer struct {
	llm    CompletionClient
	logger log.Logger
}

// NewSynthesizer creates an answer synthesizer backed by the given client.
func NewSynthesizer(llm CompletionClient, logger log.Logger) *Synthesizer {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Synthesizer{llm: llm, logger: logger}
}

// Synthesize generates the answer in one shot.
func (s *Synthesizer) Synthesize(ctx context.Context, chunks []corpus.Chunk, utterance string, history []session.Turn) (string, error) {
	answer, err := s.llm.Complete(ctx, Request{
		System:  buildPersonaPrompt(chunks),
		History: history,
		Prompt:  utterance,
	})
	if err != nil {
		return "", fmt.Errorf("synthesize answer: %w", err)
	}
	return answer, nil
}

// SynthesizeStream generates the answer while forwarding fragments to fn.
// The accumulated text produced before any failure is returned alongside
// the error so callers can keep partial answers.
func (s *Synthesizer) SynthesizeStream(ctx context.Context, chunks []corpus.Chunk, utterance string, history []session.Turn, fn StreamFunc) (string, error) {
	var sb strings.Builder
	full, err := s.llm.Stream(ctx, Request{
		System:  buildPersonaPrompt(chunks),
		History: history,
		Prompt:  utterance,
	}, func(ctx context.Context, text string) error {
		sb.WriteString(text)
		return fn(ctx, text)
	})
	if err != nil {
		return sb.String(), fmt.Errorf("synthesize answer: %w", err)
	}
	if full == "" {
		full = sb.String()
	}
	return full, nil
}

// buildPersonaPrompt inlines the retrieved chunks into the persona
// instruction. Chunk contents go in verbatim, separated by blank lines.
func buildPersonaPrompt(chunks []corpus.Chunk) string {
	if len(chunks) == 0 {
		return fmt.Sprintf(personaSystemPrompt, "(tidak ada resep yang ditemukan)")
	}
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Content
	}
	return fmt.Sprintf(personaSystemPrompt, strings.Join(parts, "\n\n"))
}
