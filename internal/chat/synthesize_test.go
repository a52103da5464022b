package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dapurkita/chefchimi/internal/corpus"
	"github.com/dapurkita/chefchimi/internal/log"
)

// haltingLLM streams scripted fragments and then fails.
type haltingLLM struct {
	fragments []string
	err       error
}

func (h *haltingLLM) Complete(context.Context, Request) (string, error) {
	return "", h.err
}

func (h *haltingLLM) Stream(ctx context.Context, _ Request, fn StreamFunc) (string, error) {
	for _, frag := range h.fragments {
		if err := fn(ctx, frag); err != nil {
			return "", err
		}
	}
	return "", h.err
}

func TestSynthesize_InlinesContext(t *testing.T) {
	llm := &fakeLLM{fallback: "Berikut resep rendang untuk Anda."}
	s := NewSynthesizer(llm, log.NewNop())

	chunks := []corpus.Chunk{
		{SourceTitle: "Resep Rendang", Content: "Bahan: daging sapi, santan."},
		{SourceTitle: "Resep Rendang", Content: "Langkah: tumis bumbu halus."},
	}
	answer, err := s.Synthesize(context.Background(), chunks, "resep rendang?", nil)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if answer != "Berikut resep rendang untuk Anda." {
		t.Errorf("answer = %q", answer)
	}

	if len(llm.calls) != 1 {
		t.Fatalf("model calls = %d, want 1", len(llm.calls))
	}
	system := llm.calls[0].System
	for _, want := range []string{"Chef Chimi", "<context>", "Bahan: daging sapi, santan.", "Langkah: tumis bumbu halus."} {
		if !strings.Contains(system, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
}

func TestSynthesize_EmptyContextUsesPlaceholder(t *testing.T) {
	llm := &fakeLLM{fallback: "Maaf, saya belum menemukan resep tersebut."}
	s := NewSynthesizer(llm, log.NewNop())

	if _, err := s.Synthesize(context.Background(), nil, "resep nasi goreng?", nil); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if !strings.Contains(llm.calls[0].System, "(tidak ada resep yang ditemukan)") {
		t.Errorf("system prompt missing the empty-context placeholder")
	}
}

func TestSynthesize_ModelErrorWrapped(t *testing.T) {
	wantErr := errors.New("model down")
	s := NewSynthesizer(&fakeLLM{err: wantErr}, log.NewNop())

	if _, err := s.Synthesize(context.Background(), nil, "resep?", nil); !errors.Is(err, wantErr) {
		t.Fatalf("Synthesize() error = %v, want wrapped %v", err, wantErr)
	}
}

func TestSynthesizeStream_AccumulatesFragments(t *testing.T) {
	llm := &fakeLLM{fallback: "Resep rendang: tumis bumbu."}
	s := NewSynthesizer(llm, log.NewNop())

	var got []string
	answer, err := s.SynthesizeStream(context.Background(), nil, "resep rendang?", nil,
		func(_ context.Context, text string) error {
			got = append(got, text)
			return nil
		})
	if err != nil {
		t.Fatalf("SynthesizeStream() error = %v", err)
	}
	if answer != "Resep rendang: tumis bumbu." {
		t.Errorf("answer = %q", answer)
	}
	if strings.Join(got, "") != answer {
		t.Errorf("forwarded fragments = %q, want the full answer", strings.Join(got, ""))
	}
}

func TestSynthesizeStream_ReturnsPartialOnError(t *testing.T) {
	wantErr := errors.New("stream cut")
	llm := &haltingLLM{fragments: []string{"Resep ", "soto "}, err: wantErr}
	s := NewSynthesizer(llm, log.NewNop())

	partial, err := s.SynthesizeStream(context.Background(), nil, "resep soto?", nil,
		func(context.Context, string) error { return nil })
	if !errors.Is(err, wantErr) {
		t.Fatalf("SynthesizeStream() error = %v, want wrapped %v", err, wantErr)
	}
	if partial != "Resep soto " {
		t.Errorf("partial = %q, want the accumulated fragments", partial)
	}
}
