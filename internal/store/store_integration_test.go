package store_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribeapp/scribe/internal/store"
	"github.com/scribeapp/scribe/internal/testutil"
)

func insertUser(t *testing.T, db *testutil.TestDB) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := db.Pool.Exec(context.Background(),
		`INSERT INTO users (id, email) VALUES ($1, $2)`,
		id, id.String()+"@example.com")
	require.NoError(t, err)
	return id
}

func TestChatLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	db := testutil.SetupTestDB(t)
	s := store.New(db.Pool, testutil.NewLogger(t))
	ctx := context.Background()
	userID := insertUser(t, db)

	chat := store.Chat{ID: uuid.New(), UserID: userID, Title: "Trip planning"}
	require.NoError(t, s.SaveChat(ctx, chat))

	got, err := s.GetChatByID(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, chat.Title, got.Title)
	assert.Equal(t, userID, got.UserID)
	assert.False(t, got.CreatedAt.IsZero())

	msgs := []store.Message{
		{ID: uuid.New(), ChatID: chat.ID, Role: "user", Content: "hello"},
		{ID: uuid.New(), ChatID: chat.ID, Role: "assistant", Content: "hi there"},
	}
	require.NoError(t, s.SaveMessages(ctx, msgs))

	stored, err := s.GetMessagesByChatID(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "user", stored[0].Role)
	assert.Equal(t, "hi there", stored[1].Content)

	require.NoError(t, s.DeleteChatByID(ctx, chat.ID))

	_, err = s.GetChatByID(ctx, chat.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Cascade removed the messages too.
	stored, err = s.GetMessagesByChatID(ctx, chat.ID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestDeleteChatNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	db := testutil.SetupTestDB(t)
	s := store.New(db.Pool, testutil.NewLogger(t))

	err := s.DeleteChatByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDocumentUpsertReplacesContent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	db := testutil.SetupTestDB(t)
	s := store.New(db.Pool, testutil.NewLogger(t))
	ctx := context.Background()
	userID := insertUser(t, db)

	doc := store.Document{
		ID: uuid.New(), Title: "Essay", Content: "first draft",
		Kind: store.KindText, UserID: userID,
	}
	require.NoError(t, s.SaveDocument(ctx, doc))

	doc.Content = "second draft"
	require.NoError(t, s.SaveDocument(ctx, doc))

	got, err := s.GetDocumentByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "second draft", got.Content)
	assert.Equal(t, store.KindText, got.Kind)
}

func TestDocumentNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	db := testutil.SetupTestDB(t)
	s := store.New(db.Pool, testutil.NewLogger(t))

	_, err := s.GetDocumentByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSaveSuggestionsBatch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	db := testutil.SetupTestDB(t)
	s := store.New(db.Pool, testutil.NewLogger(t))
	ctx := context.Background()
	userID := insertUser(t, db)

	doc := store.Document{ID: uuid.New(), Title: "Email", Kind: store.KindEmail, UserID: userID}
	require.NoError(t, s.SaveDocument(ctx, doc))

	suggestions := []store.Suggestion{
		{ID: uuid.New(), DocumentID: doc.ID, OriginalText: "a", SuggestedText: "b", Description: "clarify", UserID: userID},
		{ID: uuid.New(), DocumentID: doc.ID, OriginalText: "c", SuggestedText: "d", UserID: userID},
	}
	require.NoError(t, s.SaveSuggestions(ctx, suggestions))

	var count int
	require.NoError(t, db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM suggestions WHERE document_id = $1`, doc.ID).Scan(&count))
	assert.Equal(t, 2, count)

	// A suggestion against a missing document violates the reference.
	err := s.SaveSuggestions(ctx, []store.Suggestion{
		{ID: uuid.New(), DocumentID: uuid.New(), OriginalText: "x", SuggestedText: "y", UserID: userID},
	})
	assert.Error(t, err)
}
