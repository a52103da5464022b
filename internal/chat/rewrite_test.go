package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/dapurkita/chefchimi/internal/log"
	"github.com/dapurkita/chefchimi/internal/session"
)

func TestRewrite_EmptyHistorySkipsModel(t *testing.T) {
	llm := &fakeLLM{fallback: "should not be used"}
	r := NewRewriter(llm, log.NewNop())

	got, err := r.Rewrite(context.Background(), "carikan resep ayam goreng", nil)
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}
	if got != "carikan resep ayam goreng" {
		t.Errorf("Rewrite() = %q, want the utterance unchanged", got)
	}
	if len(llm.calls) != 0 {
		t.Errorf("model calls = %d, want 0 for empty history", len(llm.calls))
	}
}

func TestRewrite_WithHistory(t *testing.T) {
	llm := &fakeLLM{fallback: "bagaimana cara membuat rendang daging sapi?"}
	r := NewRewriter(llm, log.NewNop())

	history := []session.Turn{
		{Role: session.RoleUser, Text: "carikan resep rendang"},
		{Role: session.RoleAssistant, Text: "Ini resep rendang daging sapi..."},
	}
	got, err := r.Rewrite(context.Background(), "bagaimana cara membuatnya?", history)
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}
	if got != "bagaimana cara membuat rendang daging sapi?" {
		t.Errorf("Rewrite() = %q, want the model's standalone form", got)
	}
	if len(llm.calls) != 1 {
		t.Fatalf("model calls = %d, want 1", len(llm.calls))
	}
}

func TestRewrite_BlankModelOutputKeepsOriginal(t *testing.T) {
	llm := &fakeLLM{fallback: "  \n "}
	r := NewRewriter(llm, log.NewNop())

	history := []session.Turn{{Role: session.RoleUser, Text: "halo"}}
	got, err := r.Rewrite(context.Background(), "resep soto?", history)
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}
	if got != "resep soto?" {
		t.Errorf("Rewrite() = %q, want the original utterance", got)
	}
}

func TestRewrite_ModelErrorPropagates(t *testing.T) {
	wantErr := errors.New("quota exceeded")
	r := NewRewriter(&fakeLLM{err: wantErr}, log.NewNop())

	history := []session.Turn{{Role: session.RoleUser, Text: "halo"}}
	if _, err := r.Rewrite(context.Background(), "resep soto?", history); !errors.Is(err, wantErr) {
		t.Fatalf("Rewrite() error = %v, want wrapped %v", err, wantErr)
	}
}
