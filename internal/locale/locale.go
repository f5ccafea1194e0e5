// Package locale holds the per-language indicator tables used by the
// self-containment classifier.
//
// The table is built once at package init and is read-only afterwards, so it
// is safe to share across concurrent requests without locking.
package locale

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultLanguage is the fallback when a requested language has no table.
const DefaultLanguage = "en"

// ErrMissingDefault indicates the default language table is absent. This is
// a startup configuration bug, not a per-request condition.
var ErrMissingDefault = errors.New("default language config missing")

// LanguageConfig lists the heuristic indicators for one language. All lists
// are matched case-insensitively against lowercased input.
type LanguageConfig struct {
	// DependentKeywords signal the message leans on earlier conversation
	// ("as I said", "the previous one").
	DependentKeywords []string

	// UnresolvedReferences are pronouns and deictics with no antecedent in a
	// standalone message ("it", "that", "those").
	UnresolvedReferences []string

	// QuestionWords open a fully-formed question ("what", "how").
	QuestionWords []string

	// DependentPunctuation marks continuations ("...", leading dashes).
	DependentPunctuation []string

	// TemporalKeywords tie the message to a prior timeframe ("next week",
	// "before that").
	TemporalKeywords []string
}

// configs is the process-wide table. Never mutated after init.
var configs = map[string]LanguageConfig{
	"en": {
		DependentKeywords: []string{
			"as i said", "as mentioned", "like before", "the previous",
			"the above", "aforementioned", "same as", "again", "also",
			"instead", "the other one", "what about", "continue",
			"keep going",
		},
		UnresolvedReferences: []string{
			"it", "this", "that", "these", "those", "they", "them",
			"he", "she", "him", "her", "its", "their", "one",
		},
		QuestionWords: []string{
			"what", "who", "where", "when", "why", "how", "which",
			"is", "are", "do", "does", "can", "could", "would", "should",
		},
		DependentPunctuation: []string{"...", "…", "->", "—"},
		TemporalKeywords: []string{
			"next week", "last time", "yesterday", "tomorrow", "earlier",
			"before that", "after that", "then", "meanwhile", "later",
			"next", "previously",
		},
	},
	"es": {
		DependentKeywords: []string{
			"como dije", "como mencioné", "igual que antes", "el anterior",
			"lo anterior", "otra vez", "también", "en cambio", "continúa",
		},
		UnresolvedReferences: []string{
			"lo", "la", "eso", "esto", "esos", "esas", "ellos", "ellas",
			"él", "ella", "aquello", "uno",
		},
		QuestionWords: []string{
			"qué", "quién", "dónde", "cuándo", "por qué", "cómo", "cuál",
			"es", "son", "puede", "podría", "debería",
		},
		DependentPunctuation: []string{"...", "…", "->", "—"},
		TemporalKeywords: []string{
			"la próxima semana", "la última vez", "ayer", "mañana", "antes",
			"después", "entonces", "mientras tanto", "luego", "previamente",
		},
	},
	"fr": {
		DependentKeywords: []string{
			"comme je l'ai dit", "comme mentionné", "comme avant",
			"le précédent", "ci-dessus", "encore", "aussi", "à la place",
			"continue",
		},
		UnresolvedReferences: []string{
			"le", "la", "ça", "cela", "ceci", "ceux", "celles", "ils",
			"elles", "il", "elle", "celui",
		},
		QuestionWords: []string{
			"que", "qui", "où", "quand", "pourquoi", "comment", "quel",
			"quelle", "est", "sont", "peut", "pourrait", "devrait",
		},
		DependentPunctuation: []string{"...", "…", "->", "—"},
		TemporalKeywords: []string{
			"la semaine prochaine", "la dernière fois", "hier", "demain",
			"plus tôt", "avant cela", "après cela", "ensuite", "pendant ce temps",
			"plus tard", "précédemment",
		},
	},
	"de": {
		DependentKeywords: []string{
			"wie gesagt", "wie erwähnt", "wie zuvor", "das vorherige",
			"das obige", "nochmal", "auch", "stattdessen", "weiter",
		},
		UnresolvedReferences: []string{
			"es", "das", "dies", "diese", "jene", "sie", "er", "ihn",
			"ihr", "dessen", "deren", "eins",
		},
		QuestionWords: []string{
			"was", "wer", "wo", "wann", "warum", "wie", "welche",
			"ist", "sind", "kann", "könnte", "sollte",
		},
		DependentPunctuation: []string{"...", "…", "->", "—"},
		TemporalKeywords: []string{
			"nächste woche", "letztes mal", "gestern", "morgen", "früher",
			"davor", "danach", "dann", "inzwischen", "später", "zuvor",
		},
	},
}

// Supported returns the language codes with a dedicated table.
func Supported() []string {
	out := make([]string, 0, len(configs))
	for k := range configs {
		out = append(out, k)
	}
	return out
}

// Resolve returns the table for lang, falling back to the default language
// for unknown codes. It fails only when the default table itself is missing.
func Resolve(lang string) (LanguageConfig, error) {
	lang = normalize(lang)
	if cfg, ok := configs[lang]; ok {
		return cfg, nil
	}
	cfg, ok := configs[DefaultLanguage]
	if !ok {
		return LanguageConfig{}, fmt.Errorf("%w: %q", ErrMissingDefault, DefaultLanguage)
	}
	return cfg, nil
}

// normalize maps regional variants onto their base table ("en-US" -> "en").
func normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	return lang
}
