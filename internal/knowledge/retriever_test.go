package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribeapp/scribe/internal/testutil"
	"github.com/scribeapp/scribe/internal/vecstore"
)

type fakeStore struct {
	matches []vecstore.Match
	err     error
	gotTopK int
}

func (f *fakeStore) Query(_ context.Context, _ []float32, topK int) ([]vecstore.Match, error) {
	f.gotTopK = topK
	return f.matches, f.err
}

func newTestRetriever(t *testing.T, store VectorStore) *Retriever {
	t.Helper()
	g := testutil.NewGenkit(t)
	embedder := testutil.NewMockEmbedder(8).Register(g)
	qe := NewQueryEmbedder(embedder, 8, 0)
	sum := NewSummarizer(g, "mock/chat-model", 1000, testutil.NewLogger(t))
	return NewRetriever(qe, store, sum, 3, testutil.NewLogger(t))
}

func TestBuildContext(t *testing.T) {
	store := &fakeStore{matches: []vecstore.Match{
		{ID: "a", Score: 0.9, Metadata: map[string]any{"text": "refunds take 5 days"}},
		{ID: "b", Score: 0.7, Metadata: map[string]any{"text": "contact support first"}},
	}}

	got, err := newTestRetriever(t, store).BuildContext(t.Context(), "refund policy?", nil)
	require.NoError(t, err)
	assert.Equal(t, "refunds take 5 days\n\ncontact support first", got)
	assert.Equal(t, 3, store.gotTopK)
}

func TestBuildContextSkipsMatchesWithoutText(t *testing.T) {
	store := &fakeStore{matches: []vecstore.Match{
		{ID: "a", Metadata: map[string]any{"text": "kept"}},
		{ID: "b", Metadata: map[string]any{"other": 1}},
		{ID: "c"},
	}}

	got, err := newTestRetriever(t, store).BuildContext(t.Context(), "q", nil)
	require.NoError(t, err)
	assert.Equal(t, "kept", got)
}

func TestBuildContextNoMatches(t *testing.T) {
	got, err := newTestRetriever(t, &fakeStore{}).BuildContext(t.Context(), "q", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBuildContextStoreError(t *testing.T) {
	store := &fakeStore{err: vecstore.ErrUnavailable}

	_, err := newTestRetriever(t, store).BuildContext(t.Context(), "q", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, vecstore.ErrUnavailable))
}
