package orchestrator

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// maxTitleRunes bounds generated chat titles.
const maxTitleRunes = 80

const titlePrompt = `Generate a short title summarizing the user's first message. At most 80 characters. Do not use quotes or colons. Return only the title.`

// GenerateTitle produces a chat title from the first user message. The model
// call is best-effort; on failure the message itself is truncated into a
// title so chat creation never blocks on a flaky model.
func (o *Orchestrator) GenerateTitle(ctx context.Context, modelName, userMessage string) string {
	resp, err := genkit.Generate(ctx, o.g,
		ai.WithModelName(modelName),
		ai.WithSystem(titlePrompt),
		ai.WithMessages(ai.NewUserMessage(ai.NewTextPart(userMessage))),
	)
	if err != nil {
		o.logger.Warn("title generation failed, truncating message", "error", err)
		return fallbackTitle(userMessage)
	}

	title := strings.TrimSpace(strings.Trim(strings.TrimSpace(resp.Text()), `"'`))
	if title == "" || utf8.RuneCountInString(title) > maxTitleRunes {
		return fallbackTitle(userMessage)
	}
	return title
}

func fallbackTitle(message string) string {
	message = strings.TrimSpace(message)
	if utf8.RuneCountInString(message) <= maxTitleRunes {
		return message
	}
	return string([]rune(message)[:maxTitleRunes])
}
