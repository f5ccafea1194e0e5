package prompt

import (
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSystemPromptWithContext(t *testing.T) {
	got := BuildSystemPrompt("standard", "Paris is the capital of France.")
	assert.Contains(t, got, "## Context\n")
	assert.Contains(t, got, "Paris is the capital of France.")
	assert.Contains(t, got, "Tool Identification Block")
	assert.Contains(t, got, "getWeather")
}

func TestBuildSystemPromptOmitsEmptyContext(t *testing.T) {
	got := BuildSystemPrompt("standard", "")
	assert.NotContains(t, got, "## Context\n")
	assert.Contains(t, got, "Tool Identification Block")
}

func TestPrependSystemPrompt(t *testing.T) {
	msgs := []*ai.Message{
		ai.NewUserMessage(ai.NewTextPart("hello")),
		ai.NewModelMessage(ai.NewTextPart("hi")),
	}

	out := PrependSystemPrompt("be brief", msgs)
	require.Len(t, out, 3)
	assert.Equal(t, ai.RoleSystem, out[0].Role)
	assert.Equal(t, "be brief", out[0].Content[0].Text)
	assert.Equal(t, ai.RoleUser, out[1].Role)
	assert.Equal(t, ai.RoleModel, out[2].Role)
}

// Applying the prompt twice must replace the system message, not stack a
// second one.
func TestPrependSystemPromptIdempotent(t *testing.T) {
	msgs := []*ai.Message{ai.NewUserMessage(ai.NewTextPart("hello"))}

	once := PrependSystemPrompt("v1", msgs)
	twice := PrependSystemPrompt("v2", once)

	require.Len(t, twice, 2)
	assert.Equal(t, ai.RoleSystem, twice[0].Role)
	assert.Equal(t, "v2", twice[0].Content[0].Text)
	assert.Equal(t, ai.RoleUser, twice[1].Role)
}

func TestPrependSystemPromptSkipsNil(t *testing.T) {
	out := PrependSystemPrompt("sys", []*ai.Message{nil, ai.NewUserMessage(ai.NewTextPart("x"))})
	require.Len(t, out, 2)
	assert.Equal(t, ai.RoleSystem, out[0].Role)
}
