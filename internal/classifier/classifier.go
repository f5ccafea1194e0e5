// Package classifier decides whether a user message is self-contained, i.e.
// answerable without conversational history. A self-contained message skips
// the retrieval phase entirely, saving an embedding call and a vector query.
//
// Two modes are supported: ModeSimple is a constant-time check on length and
// terminal punctuation; ModeHeuristic scores five independent signals against
// the locale indicator tables. Both are pure and make no external calls.
package classifier

import (
	"strings"
	"unicode/utf8"

	"github.com/scribeapp/scribe/internal/locale"
)

// Mode selects the classification strategy.
type Mode string

const (
	// ModeSimple: self-contained iff the message ends with a question mark
	// or exceeds SimpleLengthThreshold runes.
	ModeSimple Mode = "simple"

	// ModeHeuristic: five weighted signals against the locale table.
	ModeHeuristic Mode = "heuristic"
)

// SimpleLengthThreshold is the rune count above which a message is treated
// as self-contained in simple mode.
const SimpleLengthThreshold = 50

// heuristicThreshold is the minimum signal sum for self-containment.
// Five signals, weight 1 each, 3 of 5 required.
const heuristicThreshold = 3

// IsSelfContained reports whether message can be answered without history.
//
// history is accepted for signal implementations that compare against prior
// turns; the current signal set inspects only the message itself. Unknown
// languages fall back to the default locale table; an error is returned only
// when the default table is missing (a startup configuration bug).
func IsSelfContained(message string, history []string, language string, mode Mode) (bool, error) {
	if mode == ModeSimple {
		return strings.HasSuffix(message, "?") ||
			utf8.RuneCountInString(message) > SimpleLengthThreshold, nil
	}

	cfg, err := locale.Resolve(language)
	if err != nil {
		return false, err
	}

	score := dependencyAnalysis(message, cfg) +
		referenceResolution(message, cfg) +
		logicalCompleteness(message, cfg) +
		punctuationAndStructure(message, cfg) +
		temporalDependency(message, cfg)

	return score >= heuristicThreshold, nil
}

// dependencyAnalysis scores 1 when no dependency-indicating keyword occurs
// anywhere in the message.
func dependencyAnalysis(message string, cfg locale.LanguageConfig) int {
	lower := strings.ToLower(message)
	for _, kw := range cfg.DependentKeywords {
		if strings.Contains(lower, kw) {
			return 0
		}
	}
	return 1
}

// referenceResolution scores 1 when no unresolved-reference word appears as
// a whole word. Substring matching would misfire ("item" contains "it").
func referenceResolution(message string, cfg locale.LanguageConfig) int {
	words := strings.Fields(strings.ToLower(message))
	for _, w := range words {
		w = strings.Trim(w, ".,!?;:\"'()")
		for _, ref := range cfg.UnresolvedReferences {
			if w == ref {
				return 0
			}
		}
	}
	return 1
}

// logicalCompleteness scores 1 when the message opens with a question word
// AND carries a clear-intent marker (question mark or politeness marker).
func logicalCompleteness(message string, cfg locale.LanguageConfig) int {
	lower := strings.ToLower(message)

	hasQuestionWord := false
	for _, qw := range cfg.QuestionWords {
		if strings.HasPrefix(lower, qw) {
			hasQuestionWord = true
			break
		}
	}

	hasClearIntent := strings.Contains(message, "?") || strings.Contains(lower, "please")

	if hasQuestionWord && hasClearIntent {
		return 1
	}
	return 0
}

// punctuationAndStructure scores 1 when no continuation punctuation occurs.
func punctuationAndStructure(message string, cfg locale.LanguageConfig) int {
	for _, p := range cfg.DependentPunctuation {
		if strings.Contains(message, p) {
			return 0
		}
	}
	return 1
}

// temporalDependency scores 1 when no temporal-dependency keyword occurs.
func temporalDependency(message string, cfg locale.LanguageConfig) int {
	lower := strings.ToLower(message)
	for _, kw := range cfg.TemporalKeywords {
		if strings.Contains(lower, kw) {
			return 0
		}
	}
	return 1
}
