package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"

	"github.com/scribeapp/scribe/internal/config"
	"github.com/scribeapp/scribe/internal/orchestrator"
	"github.com/scribeapp/scribe/internal/session"
	"github.com/scribeapp/scribe/internal/store"
	"github.com/scribeapp/scribe/internal/stream"
)

// SessionResolver resolves the caller's session from a request.
type SessionResolver interface {
	FromRequest(ctx context.Context, r *http.Request) (*session.Session, error)
}

// ChatHandler serves the chat endpoints.
type ChatHandler struct {
	cfg      *config.Config
	sessions SessionResolver
	store    *store.Store
	orch     *orchestrator.Orchestrator
	logger   *slog.Logger
}

// NewChatHandler creates the handler. store may be nil, which disables chat
// and message persistence but leaves streaming fully functional.
func NewChatHandler(cfg *config.Config, sessions SessionResolver, st *store.Store, orch *orchestrator.Orchestrator, logger *slog.Logger) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandler{
		cfg:      cfg,
		sessions: sessions,
		store:    st,
		orch:     orch,
		logger:   logger.With("component", "api"),
	}
}

// Routes registers the handler's endpoints on mux.
func (h *ChatHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", h.postChat)
	mux.HandleFunc("DELETE /api/chat", h.deleteChat)
	mux.HandleFunc("GET /healthz", h.health)
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	ID       string       `json:"id"`
	Messages []apiMessage `json:"messages"`
	ModelID  string       `json:"modelId"`
	RAG      bool         `json:"rag"`
	Language string       `json:"language,omitempty"`
	Tools    []string     `json:"tools,omitempty"`
}

func (h *ChatHandler) postChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, err := h.sessions.FromRequest(ctx, r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	model, err := h.cfg.ModelByID(req.ModelID)
	if err != nil {
		writeError(w, http.StatusNotFound, "model not found")
		return
	}

	chatID, err := uuid.Parse(req.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid chat id")
		return
	}

	userMessage, messages, history := convertMessages(req.Messages)
	if userMessage == "" {
		writeError(w, http.StatusBadRequest, "no user message")
		return
	}

	if req.Language == "" {
		req.Language = h.cfg.Language
	}

	if !h.prepareChat(ctx, w, sess, chatID, model.APIIdentifier, userMessage) {
		return
	}

	writer, err := stream.NewWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	data := stream.NewData()
	done := make(chan error, 1)
	go func() {
		done <- h.orch.Run(ctx, orchestrator.Request{
			ChatID:      chatID,
			Messages:    messages,
			UserMessage: userMessage,
			History:     history,
			ModelName:   model.APIIdentifier,
			Session:     sess,
			RAG:         req.RAG,
			Language:    req.Language,
			ActiveTools: req.Tools,
			Data:        data,
		})
	}()

	if err := writer.Drain(ctx, data); err != nil {
		h.logger.Debug("stream ended early", "chat", chatID, "error", err)
	}
	if err := <-done; err != nil {
		h.logger.Error("turn failed", "chat", chatID, "error", err)
	}
}

// prepareChat validates ownership for existing chats and, on a chat's first
// turn, creates the row with a generated title and persists the inbound user
// message before streaming begins. Returns false when the response has
// already been written.
func (h *ChatHandler) prepareChat(ctx context.Context, w http.ResponseWriter, sess *session.Session, chatID uuid.UUID, modelName, userMessage string) bool {
	if h.store == nil || !sess.HasUser() {
		return true
	}

	chat, err := h.store.GetChatByID(ctx, chatID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		title := h.orch.GenerateTitle(ctx, modelName, userMessage)
		if err := h.store.SaveChat(ctx, store.Chat{ID: chatID, UserID: sess.UserID, Title: title}); err != nil {
			h.logger.Error("creating chat failed", "chat", chatID, "error", err)
			writeError(w, http.StatusInternalServerError, "could not create chat")
			return false
		}
	case err != nil:
		h.logger.Error("chat lookup failed", "chat", chatID, "error", err)
		writeError(w, http.StatusInternalServerError, "chat lookup failed")
		return false
	case chat.UserID != sess.UserID:
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return false
	}

	err = h.store.SaveMessages(ctx, []store.Message{{
		ID: uuid.New(), ChatID: chatID, Role: "user", Content: userMessage,
	}})
	if err != nil {
		h.logger.Error("persisting user message failed", "chat", chatID, "error", err)
	}
	return true
}

func (h *ChatHandler) deleteChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, err := h.sessions.FromRequest(ctx, r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if h.store == nil {
		writeError(w, http.StatusNotFound, "chat not found")
		return
	}

	chatID, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "chat not found")
		return
	}

	chat, err := h.store.GetChatByID(ctx, chatID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "chat not found")
		return
	}
	if err != nil {
		h.logger.Error("chat lookup failed", "chat", chatID, "error", err)
		writeError(w, http.StatusInternalServerError, "chat lookup failed")
		return
	}
	if chat.UserID != sess.UserID {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.store.DeleteChatByID(ctx, chatID); err != nil {
		h.logger.Error("deleting chat failed", "chat", chatID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not delete chat")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *ChatHandler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// convertMessages maps the wire messages onto model messages, returning the
// latest user text and the prior turns' text for the classifier.
func convertMessages(msgs []apiMessage) (userMessage string, out []*ai.Message, history []string) {
	out = make([]*ai.Message, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "user":
			out = append(out, ai.NewUserMessage(ai.NewTextPart(m.Content)))
		case "assistant", "model":
			out = append(out, ai.NewModelMessage(ai.NewTextPart(m.Content)))
		default:
			// System messages are the orchestrator's business; drop them.
			continue
		}
	}

	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "user" {
			userMessage = msgs[i].Content
			for _, m := range msgs[:i] {
				if m.Role == "user" || m.Role == "assistant" || m.Role == "model" {
					history = append(history, m.Content)
				}
			}
			break
		}
	}
	return userMessage, out, history
}
