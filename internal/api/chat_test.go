package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribeapp/scribe/internal/config"
	"github.com/scribeapp/scribe/internal/orchestrator"
	"github.com/scribeapp/scribe/internal/session"
	"github.com/scribeapp/scribe/internal/stream"
	"github.com/scribeapp/scribe/internal/testutil"
	"github.com/scribeapp/scribe/internal/tools"
)

type staticSessions struct {
	sess *session.Session
	err  error
}

func (s staticSessions) FromRequest(context.Context, *http.Request) (*session.Session, error) {
	return s.sess, s.err
}

func newTestHandler(t *testing.T, sessions SessionResolver) *ChatHandler {
	t.Helper()

	g := testutil.NewGenkit(t)
	llm := testutil.NewMockLLM("a streamed answer")
	llm.Register(g)

	registry := tools.NewRegistry(tools.Deps{Genkit: g, Logger: testutil.NewLogger(t)})
	orch := orchestrator.New(orchestrator.Config{
		Genkit:   g,
		Registry: registry,
		Logger:   testutil.NewLogger(t),
	})

	cfg := &config.Config{
		Models: []config.Model{
			{ID: "standard", Label: "Standard", APIIdentifier: "mock/chat-model"},
		},
	}
	return NewChatHandler(cfg, sessions, nil, orch, testutil.NewLogger(t))
}

func newMux(h *ChatHandler) *http.ServeMux {
	mux := http.NewServeMux()
	h.Routes(mux)
	return mux
}

func chatBody(t *testing.T, modelID string) *strings.Reader {
	t.Helper()
	body, err := json.Marshal(chatRequest{
		ID:      uuid.NewString(),
		ModelID: modelID,
		Messages: []apiMessage{
			{Role: "user", Content: "tell me something"},
		},
	})
	require.NoError(t, err)
	return strings.NewReader(string(body))
}

func TestPostChatRequiresSession(t *testing.T) {
	h := newTestHandler(t, staticSessions{err: session.ErrNoSession})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", chatBody(t, "standard"))
	newMux(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPostChatUnknownModel(t *testing.T) {
	h := newTestHandler(t, staticSessions{sess: &session.Session{}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", chatBody(t, "no-such-model"))
	newMux(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostChatMalformedBody(t *testing.T) {
	h := newTestHandler(t, staticSessions{sess: &session.Session{}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{not json"))
	newMux(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostChatStreamsEnvelopes(t *testing.T) {
	h := newTestHandler(t, staticSessions{sess: &session.Session{}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", chatBody(t, "standard"))
	newMux(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	var sawDelta, sawFinish bool
	for _, line := range strings.Split(rec.Body.String(), "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var env stream.Envelope
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &env))
		switch env.Type {
		case stream.TypeTextDelta:
			sawDelta = true
		case stream.TypeFinish:
			sawFinish = true
		}
	}
	assert.True(t, sawDelta, "expected at least one text delta")
	assert.True(t, sawFinish, "expected a finish envelope")
}

func TestDeleteChatRequiresSession(t *testing.T) {
	h := newTestHandler(t, staticSessions{err: session.ErrInvalidSession})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/chat?id="+uuid.NewString(), nil)
	newMux(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeleteChatUnknown(t *testing.T) {
	h := newTestHandler(t, staticSessions{sess: &session.Session{UserID: uuid.New()}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/chat?id="+uuid.NewString(), nil)
	newMux(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t, staticSessions{err: session.ErrNoSession})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	newMux(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestConvertMessages(t *testing.T) {
	user, msgs, history := convertMessages([]apiMessage{
		{Role: "system", Content: "ignored"},
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "reply"},
		{Role: "user", Content: "second"},
	})

	assert.Equal(t, "second", user)
	assert.Len(t, msgs, 3)
	assert.Equal(t, []string{"first", "reply"}, history)
}
