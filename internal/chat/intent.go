package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/dapurkita/chefchimi/internal/log"
	"github.com/dapurkita/chefchimi/internal/session"
)

// Intent is the coarse category assigned to a user utterance. It decides
// whether a request goes through retrieval or gets a canned reply.
type Intent int

const (
	IntentRecipeQuery Intent = iota
	IntentGreeting
	IntentSelfIntro
	IntentOffTopic
)

func (i Intent) String() string {
	switch i {
	case IntentGreeting:
		return "greeting"
	case IntentSelfIntro:
		return "self_intro"
	case IntentOffTopic:
		return "off_topic"
	default:
		return "recipe_query"
	}
}

// Labels the model is asked to answer with. The conversation with users is
// in Indonesian, so the labels are too.
const (
	labelGreeting    = "SAPAAN"
	labelSelfIntro   = "TENTANG_DIRI"
	labelRecipeQuery = "TENTANG_RESEP"
	labelOffTopic    = "DILUAR_TOPIK"
)

const intentSystemPrompt = `Anda adalah pengklasifikasi niat untuk asisten resep masakan Indonesia.
Klasifikasikan pesan terakhir pengguna ke dalam salah satu kategori berikut dan jawab HANYA dengan nama kategorinya:

- ` + labelGreeting + `: sapaan, basa-basi, atau ucapan terima kasih.
- ` + labelSelfIntro + `: pertanyaan tentang siapa atau apa asisten ini.
- ` + labelRecipeQuery + `: pertanyaan atau permintaan seputar resep dan masakan.
- ` + labelOffTopic + `: hal lain di luar topik resep masakan.

Contoh:
- "halo" -> ` + labelGreeting + `
- "terima kasih" -> ` + labelGreeting + `
- "siapa kamu?" -> ` + labelSelfIntro + `
- "carikan resep ayam goreng" -> ` + labelRecipeQuery + `
- "apa itu pemrograman?" -> ` + labelOffTopic

// Classifier assigns an Intent to each incoming utterance using the model.
type Classifier struct {
	llm    CompletionClient
	logger log.Logger
}

// NewClassifier creates an intent classifier backed by the given model client.
func NewClassifier(llm CompletionClient, logger log.Logger) *Classifier {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Classifier{llm: llm, logger: logger}
}

// Classify asks the model for an intent label and maps it to an Intent.
// Labels are matched as substrings so chatty model output still resolves;
// greeting wins over self-intro, which wins over off-topic, and anything
// unrecognised falls back to a recipe query.
func (c *Classifier) Classify(ctx context.Context, utterance string, history []session.Turn) (Intent, error) {
	raw, err := c.llm.Complete(ctx, Request{
		System:  intentSystemPrompt,
		History: history,
		Prompt:  utterance,
	})
	if err != nil {
		return IntentRecipeQuery, fmt.Errorf("classify intent: %w", err)
	}

	label := strings.ToUpper(raw)
	var intent Intent
	switch {
	case strings.Contains(label, labelGreeting):
		intent = IntentGreeting
	case strings.Contains(label, labelSelfIntro):
		intent = IntentSelfIntro
	case strings.Contains(label, labelOffTopic):
		intent = IntentOffTopic
	default:
		intent = IntentRecipeQuery
	}

	c.logger.Debug("classified utterance", "intent", intent.String(), "label", strings.TrimSpace(raw))
	return intent, nil
}
