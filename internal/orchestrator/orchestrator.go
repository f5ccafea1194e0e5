// Package orchestrator runs one conversation turn end to end: optional
// context retrieval, streaming generation with tools, message sanitization
// and batch persistence. The turn moves through ContextBuilding, Streaming
// and Finishing; the outbound stream is closed exactly once on every path.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/scribeapp/scribe/internal/classifier"
	"github.com/scribeapp/scribe/internal/knowledge"
	"github.com/scribeapp/scribe/internal/prompt"
	"github.com/scribeapp/scribe/internal/session"
	"github.com/scribeapp/scribe/internal/store"
	"github.com/scribeapp/scribe/internal/stream"
	"github.com/scribeapp/scribe/internal/tools"
)

// DefaultMaxTurns bounds the generate loop's tool round trips.
const DefaultMaxTurns = 5

// Config wires the orchestrator's collaborators.
type Config struct {
	Genkit   *genkit.Genkit
	Registry *tools.Registry

	// Retriever is optional; nil disables retrieval regardless of request.
	Retriever *knowledge.Retriever

	// Store is optional; nil disables persistence.
	Store *store.Store

	// ClassifierMode selects the self-containment strategy.
	ClassifierMode classifier.Mode

	// Limiter throttles model calls across all turns. Optional.
	Limiter *rate.Limiter

	MaxTurns int
	Logger   *slog.Logger
}

// Orchestrator executes conversation turns. Safe for concurrent use; all
// fields are read-only after construction.
type Orchestrator struct {
	g         *genkit.Genkit
	registry  *tools.Registry
	retriever *knowledge.Retriever
	store     *store.Store
	mode      classifier.Mode
	limiter   *rate.Limiter
	maxTurns  int
	logger    *slog.Logger
}

// New creates an orchestrator.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	mode := cfg.ClassifierMode
	if mode == "" {
		mode = classifier.ModeHeuristic
	}
	return &Orchestrator{
		g:         cfg.Genkit,
		registry:  cfg.Registry,
		retriever: cfg.Retriever,
		store:     cfg.Store,
		mode:      mode,
		limiter:   cfg.Limiter,
		maxTurns:  maxTurns,
		logger:    logger.With("component", "orchestrator"),
	}
}

// Request is one conversation turn.
type Request struct {
	ChatID uuid.UUID

	// Messages is the full conversation, latest user message last. No
	// system messages; the orchestrator prepends its own.
	Messages []*ai.Message

	// UserMessage is the text of the latest user message.
	UserMessage string

	// History is the prior turns' text, oldest first, for the classifier
	// and the query embedding.
	History []string

	// ModelName is the resolved genkit model name for this turn.
	ModelName string

	Session *session.Session

	// RAG requests retrieval; the classifier may still skip it.
	RAG bool

	// ForceRAG bypasses the classifier when RAG is set.
	ForceRAG bool

	// Language hints the classifier's locale table.
	Language string

	// ActiveTools limits the tool set for this turn; empty means all.
	ActiveTools []string

	// Data receives the turn's envelopes and is closed when the turn ends.
	Data *stream.Data
}

// Run executes the turn. The stream is closed on every exit path; the error
// reports the streaming outcome, after the stream has already carried an
// error envelope to the client.
func (o *Orchestrator) Run(ctx context.Context, req Request) error {
	defer req.Data.Close()

	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	summarized := o.buildContext(ctx, req)

	system := prompt.BuildSystemPrompt(req.ModelName, summarized)
	messages := prompt.PrependSystemPrompt(system, req.Messages)

	ec := &tools.ExecutionContext{
		Stream:    req.Data,
		ModelName: req.ModelName,
		Session:   req.Session,
		RAG:       req.RAG,
	}
	ctx = tools.ContextWithExecution(ctx, ec)

	resp, err := genkit.Generate(ctx, o.g,
		ai.WithModelName(req.ModelName),
		ai.WithMessages(messages...),
		ai.WithTools(o.registry.Active(req.ActiveTools)...),
		ai.WithMaxTurns(o.maxTurns),
		ai.WithStreaming(func(_ context.Context, chunk *ai.ModelResponseChunk) error {
			for _, part := range chunk.Content {
				if part.IsText() && part.Text != "" {
					req.Data.AppendDelta(part.Text)
				}
			}
			return nil
		}),
	)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Client went away mid-stream. Partial output is discarded, not
			// persisted: the client never acknowledged it.
			o.logger.Info("turn canceled", "chat", req.ChatID)
			return err
		}
		req.Data.Append(stream.Envelope{Type: stream.TypeError, Content: "generation failed"})
		return fmt.Errorf("generating response: %w", err)
	}

	req.Data.Append(stream.Envelope{Type: stream.TypeFinish, Content: ""})
	o.finish(ctx, req, resp)
	return nil
}

// buildContext runs the ContextBuilding phase. Any failure degrades to no
// context rather than failing the turn.
func (o *Orchestrator) buildContext(ctx context.Context, req Request) string {
	if !req.RAG || o.retriever == nil {
		return ""
	}

	if !req.ForceRAG {
		selfContained, err := classifier.IsSelfContained(req.UserMessage, req.History, req.Language, o.mode)
		if err != nil {
			o.logger.Warn("classifier failed, retrieving anyway", "error", err)
		} else if selfContained {
			o.logger.Debug("message self-contained, skipping retrieval", "chat", req.ChatID)
			return ""
		}
	}

	summarized, err := o.retriever.BuildContext(ctx, req.UserMessage, req.History)
	if err != nil {
		o.logger.Warn("context building failed, continuing without context",
			"chat", req.ChatID, "error", err)
		return ""
	}
	return summarized
}

// finish sanitizes the turn's new messages, persists them as a batch and
// annotates assistant messages with their server ids. Persistence failures
// are logged, never surfaced: the stream already committed the content.
func (o *Orchestrator) finish(ctx context.Context, req Request, resp *ai.ModelResponse) {
	if o.store == nil || !req.Session.HasUser() || req.ChatID == uuid.Nil {
		return
	}

	produced := newMessages(req.Messages, resp)
	kept := sanitizeMessages(produced)
	if len(kept) == 0 {
		return
	}

	rows := make([]store.Message, 0, len(kept))
	var assistantIDs []uuid.UUID
	for _, m := range kept {
		// Tool round trips carry no text; only text-bearing messages become
		// chat history rows.
		text := m.Text()
		if text == "" {
			continue
		}
		id := uuid.New()
		role := string(m.Role)
		if m.Role == ai.RoleModel {
			role = "assistant"
			assistantIDs = append(assistantIDs, id)
		}
		rows = append(rows, store.Message{
			ID:      id,
			ChatID:  req.ChatID,
			Role:    role,
			Content: text,
		})
	}
	if len(rows) == 0 {
		return
	}

	if err := o.store.SaveMessages(ctx, rows); err != nil {
		o.logger.Error("persisting turn failed", "chat", req.ChatID, "error", err)
		return
	}

	for _, id := range assistantIDs {
		req.Data.Append(stream.Envelope{
			Type:    stream.TypeMessageID,
			Content: map[string]string{"messageId": id.String()},
		})
	}
}

// newMessages returns the messages this turn produced: everything in the
// response transcript past the inbound conversation, plus the final message.
func newMessages(inbound []*ai.Message, resp *ai.ModelResponse) []*ai.Message {
	var out []*ai.Message
	if resp.Request != nil {
		transcript := resp.Request.Messages
		// The inbound count includes the prepended system message.
		skip := len(inbound) + 1
		if skip < len(transcript) {
			out = append(out, transcript[skip:]...)
		}
	}
	if resp.Message != nil {
		out = append(out, resp.Message)
	}
	return out
}
