package classifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribeapp/scribe/internal/locale"
)

func TestSimpleMode(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    bool
	}{
		{"question mark", "what happened?", true},
		{"long statement", strings.Repeat("a", 51), true},
		{"exactly at threshold", strings.Repeat("a", 50), false},
		{"short statement", "do it again", false},
		{"empty", "", false},
		{"multibyte runes below threshold", strings.Repeat("ä", 50), false},
		{"multibyte runes above threshold", strings.Repeat("ä", 51), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsSelfContained(tt.message, nil, "en", ModeSimple)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHeuristicMode(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    bool
	}{
		{
			name:    "fully self contained question",
			message: "What is the capital of France?",
			want:    true,
		},
		{
			name:    "unresolved pronoun and continuation",
			message: "and what about it...",
			want:    false,
		},
		{
			name:    "temporal follow-up",
			message: "and what about next week",
			want:    false,
		},
		{
			name:    "explicit dependency keyword",
			message: "as I said, summarize that again",
			want:    false,
		},
		{
			name:    "imperative without references",
			message: "Write a haiku about autumn rain",
			want:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsSelfContained(tt.message, nil, "en", ModeHeuristic)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestHeuristicThresholdBoundary pins the 3-of-5 cutoff: flipping a single
// signal moves the message across the decision boundary.
func TestHeuristicThresholdBoundary(t *testing.T) {
	// Fails reference resolution ("it"), logical completeness (no question
	// opener) and temporal dependency ("yesterday"): score 2, below cutoff.
	below, err := IsSelfContained("Summarize it from yesterday", nil, "en", ModeHeuristic)
	require.NoError(t, err)
	assert.False(t, below)

	// Same shape without the temporal keyword: score 3, at the cutoff.
	at, err := IsSelfContained("Summarize it for me", nil, "en", ModeHeuristic)
	require.NoError(t, err)
	assert.True(t, at)
}

// TestHeuristicSignalsIndependent drives each signal to its fail state in
// isolation. The pass/fail pair for a signal differs only in the indicator
// that signal inspects.
func TestHeuristicSignalsIndependent(t *testing.T) {
	cfg, err := locale.Resolve("en")
	require.NoError(t, err)

	tests := []struct {
		name   string
		signal func(string, locale.LanguageConfig) int
		passes string
		fails  string
	}{
		{
			name:   "dependency keywords",
			signal: dependencyAnalysis,
			passes: "What is the capital of France?",
			fails:  "again, what is the capital of France?",
		},
		{
			name:   "unresolved references",
			signal: referenceResolution,
			passes: "Explain the item in detail",
			fails:  "Explain it in detail",
		},
		{
			name:   "logical completeness",
			signal: logicalCompleteness,
			passes: "What is the capital of France?",
			fails:  "What is the capital of France",
		},
		{
			name:   "dependent punctuation",
			signal: punctuationAndStructure,
			passes: "What is the capital of France?",
			fails:  "What is the capital of France...",
		},
		{
			name:   "temporal keywords",
			signal: temporalDependency,
			passes: "What is the capital of France?",
			fails:  "What was the capital of France yesterday?",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, 1, tt.signal(tt.passes, cfg), "expected signal to pass: %q", tt.passes)
			assert.Equal(t, 0, tt.signal(tt.fails, cfg), "expected signal to fail: %q", tt.fails)
		})
	}
}

func TestReferenceResolutionWholeWords(t *testing.T) {
	// "item" contains "it" but must not trip the reference signal.
	got, err := IsSelfContained("What is the cheapest item in the catalog?", nil, "en", ModeHeuristic)
	require.NoError(t, err)
	assert.True(t, got)

	// Punctuation-adjacent references still count as whole words.
	got, err = IsSelfContained("Explain it.", nil, "en", ModeHeuristic)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestHeuristicUnknownLanguageFallsBack(t *testing.T) {
	en, err := IsSelfContained("What is the capital of France?", nil, "en", ModeHeuristic)
	require.NoError(t, err)

	unknown, err := IsSelfContained("What is the capital of France?", nil, "xx", ModeHeuristic)
	require.NoError(t, err)
	assert.Equal(t, en, unknown)
}

func TestHeuristicOtherLanguages(t *testing.T) {
	tests := []struct {
		name     string
		language string
		message  string
		want     bool
	}{
		{"spanish question", "es", "¿Cuál es la capital de Francia?", true},
		{"spanish dependent", "es", "como dije, hazlo otra vez con eso", false},
		{"german question", "de", "Was ist die Hauptstadt von Frankreich?", true},
		{"german dependent", "de", "wie gesagt, mach das nochmal", false},
		{"french dependent", "fr", "comme avant, continue avec cela", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsSelfContained(tt.message, nil, tt.language, ModeHeuristic)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
