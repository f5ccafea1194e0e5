package knowledge

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribeapp/scribe/internal/testutil"
)

func TestSummarizeEmptyInput(t *testing.T) {
	s := NewSummarizer(nil, "", 100, testutil.NewLogger(t))

	got, err := s.Summarize(t.Context(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.Summarize(t.Context(), []string{"", "   "})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSummarizeWithinBudgetPassesThrough(t *testing.T) {
	s := NewSummarizer(nil, "", 100, testutil.NewLogger(t))

	got, err := s.Summarize(t.Context(), []string{"alpha", "beta"})
	require.NoError(t, err)
	assert.Equal(t, "alpha\n\nbeta", got)
}

func TestSummarizeCompressesOverBudget(t *testing.T) {
	g := testutil.NewGenkit(t)
	llm := testutil.NewMockLLM("condensed briefing")
	llm.Register(g)

	s := NewSummarizer(g, "mock/chat-model", 20, testutil.NewLogger(t))

	long := strings.Repeat("fact ", 20)
	got, err := s.Summarize(t.Context(), []string{long})
	require.NoError(t, err)
	assert.Equal(t, "condensed briefing", got)
}

func TestSummarizeTruncatesWhenCompressionFails(t *testing.T) {
	g := testutil.NewGenkit(t)

	// No model registered under this name, so the compression call errors
	// and the summarizer falls back to truncation.
	s := NewSummarizer(g, "mock/absent-model", 10, testutil.NewLogger(t))

	long := strings.Repeat("x", 50)
	got, err := s.Summarize(t.Context(), []string{long})
	require.NoError(t, err)
	assert.Equal(t, 10, utf8.RuneCountInString(got))
	assert.Equal(t, strings.Repeat("x", 10), got)
}
