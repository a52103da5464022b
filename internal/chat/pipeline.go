package chat

import (
	"context"
	"fmt"

	"github.com/dapurkita/chefchimi/internal/corpus"
	"github.com/dapurkita/chefchimi/internal/log"
	"github.com/dapurkita/chefchimi/internal/session"
)

// IntentClassifier assigns categories to utterances.
type IntentClassifier interface {
	Classify(ctx context.Context, utterance string, history []session.Turn) (Intent, error)
}

// QueryRewriter makes follow-up questions standalone.
type QueryRewriter interface {
	Rewrite(ctx context.Context, utterance string, history []session.Turn) (string, error)
}

// ContextRetriever fetches recipe chunks relevant to a query.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string) ([]corpus.Chunk, error)
}

// AnswerSynthesizer produces the grounded final answer.
type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, chunks []corpus.Chunk, utterance string, history []session.Turn) (string, error)
	SynthesizeStream(ctx context.Context, chunks []corpus.Chunk, utterance string, history []session.Turn, fn StreamFunc) (string, error)
}

// Pipeline is the conversation orchestrator. Each request is classified
// once, then either answered from a fixed reply or sent through the
// rewrite, retrieve and synthesize path. Both turns of every completed
// exchange land in the session transcript.
type Pipeline struct {
	classifier  IntentClassifier
	rewriter    QueryRewriter
	retriever   ContextRetriever
	synthesizer AnswerSynthesizer
	sessions    *session.Store
	logger      log.Logger
}

// NewPipeline wires the pipeline stages together.
func NewPipeline(
	classifier IntentClassifier,
	rewriter QueryRewriter,
	retriever ContextRetriever,
	synthesizer AnswerSynthesizer,
	sessions *session.Store,
	logger log.Logger,
) *Pipeline {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Pipeline{
		classifier:  classifier,
		rewriter:    rewriter,
		retriever:   retriever,
		synthesizer: synthesizer,
		sessions:    sessions,
		logger:      logger,
	}
}

// Respond answers one question in the given session.
func (p *Pipeline) Respond(ctx context.Context, sessionID, question string) (string, error) {
	return p.respond(ctx, sessionID, question, nil)
}

// RespondStream answers one question, forwarding answer fragments to fn
// as they are produced. Canned replies arrive as a single fragment. If
// the stream fails after fragments were emitted, the partial answer is
// still recorded in the transcript.
func (p *Pipeline) RespondStream(ctx context.Context, sessionID, question string, fn StreamFunc) (string, error) {
	if fn == nil {
		return "", fmt.Errorf("nil stream callback")
	}
	return p.respond(ctx, sessionID, question, fn)
}

// route is the dispatch decision taken exactly once per request. An empty
// canned text means the request takes the retrieval path.
type route struct {
	canned string
}

func (p *Pipeline) respond(ctx context.Context, sessionID, question string, fn StreamFunc) (string, error) {
	sess := p.sessions.Get(sessionID)
	release := sess.Serialize()
	defer release()

	history := sess.Snapshot()

	intent, err := p.classifier.Classify(ctx, question, history)
	if err != nil {
		return "", err
	}
	decision := route{canned: cannedReply(intent)}

	var answer string
	var genErr error
	if decision.canned != "" {
		answer = decision.canned
		if fn != nil {
			genErr = fn(ctx, answer)
		}
	} else {
		answer, genErr = p.retrieveAndSynthesize(ctx, question, history, fn)
	}

	// Record the exchange whenever any answer text was produced, partial
	// streamed answers included.
	if answer != "" {
		sess.Append(
			session.Turn{Role: session.RoleUser, Text: question},
			session.Turn{Role: session.RoleAssistant, Text: answer},
		)
	}
	if genErr != nil {
		return answer, genErr
	}

	p.logger.Info("answered question",
		"session_id", sessionID,
		"intent", intent.String(),
		"canned", decision.canned != "",
		"answer_len", len(answer),
	)
	return answer, nil
}

func (p *Pipeline) retrieveAndSynthesize(ctx context.Context, question string, history []session.Turn, fn StreamFunc) (string, error) {
	query, err := p.rewriter.Rewrite(ctx, question, history)
	if err != nil {
		return "", err
	}

	chunks, err := p.retriever.Retrieve(ctx, query)
	if err != nil {
		return "", err
	}

	if fn != nil {
		return p.synthesizer.SynthesizeStream(ctx, chunks, question, history, fn)
	}
	return p.synthesizer.Synthesize(ctx, chunks, question, history)
}
