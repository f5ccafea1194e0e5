// Package prompt assembles the system prompt for a conversation turn: the
// tool-usage template, the retrieved-context block, and the static guidance
// registered by tools.
package prompt

import (
	"strings"

	"github.com/firebase/genkit/go/ai"
)

// toolsTemplate enumerates the tool-selection protocol the model follows.
const toolsTemplate = `### Tool Identification Block:
You have access to specialized tools, each designed for specific tasks.
Based on the user's request, identify which tool is most suitable and explain why it fits the task.
### Switching Command Block:
If the user's goal changes or a specific tool is not adequate, seamlessly switch to another tool.
Maintain continuity by preserving key details from the previous interaction.
### Task Execution Block:
You are now using [Tool Name]. Perform the following task: [Detailed User Input].
### Error Handling Block:
If the selected tool cannot complete the task, return to the Tool Identification Block and suggest alternatives.`

// documentGuidance covers the document drafting surface. Drafts render in a
// panel beside the conversation and update in real time as tools stream.
const documentGuidance = `Documents are a special user interface mode that helps users with writing, editing, and other content creation tasks.
When a document is open, it is beside the conversation; changes stream to it in real time.
Use createDocument and updateDocument for substantial writing tasks, and createEmail and updateEmail for email drafts.
Do not update a document right after creating it. Wait for user feedback or a request to update it.`

// weatherGuidance limits the forecast tool to explicit requests.
const weatherGuidance = `**When to use getWeather:**
- When explicitly requested to get the weather`

// BuildSystemPrompt builds the system prompt for one turn. summarizedContext
// may be empty, in which case the context block is omitted entirely rather
// than left as a dangling header.
func BuildSystemPrompt(modelID, summarizedContext string) string {
	var b strings.Builder

	if summarizedContext != "" {
		b.WriteString("## Context\n")
		b.WriteString(summarizedContext)
		b.WriteString("\n\n## Context Instructions\nUse the context above to answer the following question concisely.\n\n")
	}

	b.WriteString("## Tool Instructions\n")
	b.WriteString(toolsTemplate)
	b.WriteString("\n\n")
	b.WriteString(documentGuidance)
	b.WriteString("\n\n")
	b.WriteString(weatherGuidance)

	return b.String()
}

// PrependSystemPrompt returns a new message sequence with exactly one system
// message at position 0. Any system messages already present are dropped, so
// repeated application replaces rather than accumulates.
func PrependSystemPrompt(systemPrompt string, messages []*ai.Message) []*ai.Message {
	out := make([]*ai.Message, 0, len(messages)+1)
	out = append(out, ai.NewSystemMessage(ai.NewTextPart(systemPrompt)))
	for _, m := range messages {
		if m == nil || m.Role == ai.RoleSystem {
			continue
		}
		out = append(out, m)
	}
	return out
}
