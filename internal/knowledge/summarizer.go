package knowledge

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// DefaultContextBudget is the rune budget for the summarized context block
// when the caller passes zero.
const DefaultContextBudget = 4000

const compressPrompt = `Condense the following reference passages into a short briefing that preserves every concrete fact, name, number and date. Drop repetition and filler. Do not add information that is not in the passages.`

// Summarizer condenses retrieved passages into a context block that fits a
// rune budget. Small result sets pass through verbatim; oversized ones are
// compressed by the model, with plain truncation as the fallback when the
// compression call fails.
type Summarizer struct {
	g         *genkit.Genkit
	modelName string
	budget    int
	logger    *slog.Logger
}

// NewSummarizer creates a summarizer that compresses with modelName when the
// joined passages exceed budget runes.
func NewSummarizer(g *genkit.Genkit, modelName string, budget int, logger *slog.Logger) *Summarizer {
	if budget <= 0 {
		budget = DefaultContextBudget
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{g: g, modelName: modelName, budget: budget, logger: logger}
}

// Summarize returns the context block for the given passages. Empty input
// yields an empty string, never an error: no context is a valid outcome.
func (s *Summarizer) Summarize(ctx context.Context, passages []string) (string, error) {
	kept := make([]string, 0, len(passages))
	for _, p := range passages {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return "", nil
	}

	digest := strings.Join(kept, "\n\n")
	if utf8.RuneCountInString(digest) <= s.budget {
		return digest, nil
	}

	resp, err := genkit.Generate(ctx, s.g,
		ai.WithModelName(s.modelName),
		ai.WithSystem(compressPrompt),
		ai.WithMessages(ai.NewUserMessage(ai.NewTextPart(digest))),
	)
	if err != nil {
		s.logger.Warn("context compression failed, truncating",
			"runes", utf8.RuneCountInString(digest), "budget", s.budget, "error", err)
		return truncateRunes(digest, s.budget), nil
	}

	out := strings.TrimSpace(resp.Text())
	if out == "" || utf8.RuneCountInString(out) > s.budget {
		return truncateRunes(digest, s.budget), nil
	}
	return out, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
