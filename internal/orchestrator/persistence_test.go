package orchestrator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribeapp/scribe/internal/session"
	"github.com/scribeapp/scribe/internal/store"
	"github.com/scribeapp/scribe/internal/stream"
	"github.com/scribeapp/scribe/internal/testutil"
	"github.com/scribeapp/scribe/internal/tools"
)

// The Finishing phase against a real database: a weather turn persists
// exactly one assistant message, the prepended system prompt never reaches
// stored history, and the server id announced on the stream matches the
// persisted row.
func TestRunWeatherTurnPersistsAssistantMessage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	db := testutil.SetupTestDB(t)
	st := store.New(db.Pool, testutil.NewLogger(t))
	ctx := context.Background()

	userID := uuid.New()
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO users (id, email) VALUES ($1, $2)`,
		userID, userID.String()+"@example.com")
	require.NoError(t, err)

	chatID := uuid.New()
	require.NoError(t, st.SaveChat(ctx, store.Chat{ID: chatID, UserID: userID, Title: "Weather"}))

	forecast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"current": map[string]any{"temperature_2m": 11.2},
		})
	}))
	defer forecast.Close()

	g := testutil.NewGenkit(t)
	llm := testutil.NewMockLLM("fallback answer")
	llm.Register(g)
	llm.AddToolResponse("weather",
		[]*ai.ToolRequest{{
			Name:  "getWeather",
			Input: map[string]any{"latitude": 51.5, "longitude": -0.12},
		}},
		"It is 11.2 degrees in London right now.")

	registry := tools.NewRegistry(tools.Deps{
		Genkit:         g,
		Store:          st,
		WeatherBaseURL: forecast.URL,
		Logger:         testutil.NewLogger(t),
	})
	orch := New(Config{
		Genkit:   g,
		Registry: registry,
		Store:    st,
		Logger:   testutil.NewLogger(t),
	})

	userMsg := "What's the weather at latitude 51.5, longitude -0.12?"
	data := stream.NewData()
	err = orch.Run(ctx, Request{
		ChatID:      chatID,
		Messages:    []*ai.Message{ai.NewUserMessage(ai.NewTextPart(userMsg))},
		UserMessage: userMsg,
		ModelName:   "mock/chat-model",
		Session:     &session.Session{Token: "token", UserID: userID},
		Language:    "en",
		Data:        data,
	})
	require.NoError(t, err)

	envs := drain(t, data)
	assert.Equal(t, 1, countType(envs, stream.TypeFinish))
	assert.Zero(t, countType(envs, stream.TypeError))

	msgs, err := st.GetMessagesByChatID(ctx, chatID)
	require.NoError(t, err)
	require.Len(t, msgs, 1, "only the final answer becomes a history row")
	assert.Equal(t, "assistant", msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "11.2 degrees")

	for _, m := range msgs {
		assert.NotEqual(t, "system", m.Role)
	}

	var ids []string
	for _, e := range envs {
		if e.Type == stream.TypeMessageID {
			content, ok := e.Content.(map[string]string)
			require.True(t, ok)
			ids = append(ids, content["messageId"])
		}
	}
	require.Len(t, ids, 1)
	assert.Equal(t, msgs[0].ID.String(), ids[0])
}
