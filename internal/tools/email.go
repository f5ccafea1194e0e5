package tools

import (
	"context"

	"github.com/firebase/genkit/go/genkit"

	"github.com/scribeapp/scribe/internal/store"
)

type createEmailInput struct {
	Subject string `json:"subject" jsonschema_description:"Subject of the email to draft"`
}

type updateEmailInput struct {
	ID          string `json:"id" jsonschema_description:"ID of the email to update"`
	Description string `json:"description" jsonschema_description:"Description of the changes to make"`
}

type emailSuggestionsInput struct {
	EmailID string `json:"emailId" jsonschema_description:"ID of the email to suggest edits for"`
}

// Email tools are the document tools over drafts stored with the email kind;
// they share the streaming and persistence path and differ only in prompts.
func (r *Registry) defineEmailTools() {
	r.add("createEmail", genkit.DefineTool(r.g,
		"createEmail",
		"Draft an email on the given subject. Streams the draft to the user as it is written.",
		wrap(r, "createEmail", func(ctx context.Context, ec *ExecutionContext, in createEmailInput) (draftResult, error) {
			return r.createDraft(ctx, ec, in.Subject, store.KindEmail)
		})))

	r.add("updateEmail", genkit.DefineTool(r.g,
		"updateEmail",
		"Update an existing email draft with the described changes. Rewrites the full email.",
		wrap(r, "updateEmail", func(ctx context.Context, ec *ExecutionContext, in updateEmailInput) (draftResult, error) {
			return r.updateDraft(ctx, ec, in.ID, in.Description, store.KindEmail)
		})))

	r.add("requestEmailSuggestions", genkit.DefineTool(r.g,
		"requestEmailSuggestions",
		"Request writing suggestions for an existing email draft.",
		wrap(r, "requestEmailSuggestions", func(ctx context.Context, ec *ExecutionContext, in emailSuggestionsInput) (draftResult, error) {
			return r.suggestEdits(ctx, ec, in.EmailID, store.KindEmail)
		})))
}
