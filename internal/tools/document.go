package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"

	"github.com/scribeapp/scribe/internal/store"
	"github.com/scribeapp/scribe/internal/stream"
)

// MaxSuggestions caps how many edit suggestions one request produces.
const MaxSuggestions = 5

const (
	draftDocumentPrompt = `Write about the given topic. Markdown is supported. Use headings wherever appropriate.`
	draftEmailPrompt    = `Write a complete, well-structured email on the given subject. Include a greeting and a sign-off. Keep the tone professional.`

	updateDocumentPrompt = `Update the following contents of the document based on the given description. Return the full updated document.`
	updateEmailPrompt    = `Update the following email based on the given description. Return the full updated email.`

	suggestionsPrompt = `You are a writing assistant. Given a piece of writing, propose improvements for individual sentences. Each suggestion replaces one original sentence with an improved one and explains the change briefly.`
)

type createDocumentInput struct {
	Title string `json:"title" jsonschema_description:"Title of the document to create"`
}

type updateDocumentInput struct {
	ID          string `json:"id" jsonschema_description:"ID of the document to update"`
	Description string `json:"description" jsonschema_description:"Description of the changes to make"`
}

type suggestionsInput struct {
	DocumentID string `json:"documentId" jsonschema_description:"ID of the document to suggest edits for"`
}

// draftResult is what the model sees after a drafting tool returns. Error is
// a tool-level outcome ("Document not found"), not a Go error: the model
// should read it and recover, not have its turn aborted.
type draftResult struct {
	ID      string `json:"id,omitempty"`
	Title   string `json:"title,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// suggestionDraft is the structured output schema for suggestion generation.
type suggestionDraft struct {
	OriginalSentence  string `json:"originalSentence" jsonschema_description:"The original sentence"`
	SuggestedSentence string `json:"suggestedSentence" jsonschema_description:"The improved sentence"`
	Description       string `json:"description" jsonschema_description:"Why the change improves the text"`
}

type suggestionBatch struct {
	Suggestions []suggestionDraft `json:"suggestions"`
}

// SuggestionEvent is the envelope payload for one streamed suggestion.
type SuggestionEvent struct {
	ID            string `json:"id"`
	DocumentID    string `json:"documentId"`
	OriginalText  string `json:"originalText"`
	SuggestedText string `json:"suggestedText"`
	Description   string `json:"description"`
	IsResolved    bool   `json:"isResolved"`
}

func (r *Registry) defineDocumentTools() {
	r.add("createDocument", genkit.DefineTool(r.g,
		"createDocument",
		"Create a document for writing tasks. Streams the draft to the user as it is written.",
		wrap(r, "createDocument", func(ctx context.Context, ec *ExecutionContext, in createDocumentInput) (draftResult, error) {
			return r.createDraft(ctx, ec, in.Title, store.KindText)
		})))

	r.add("updateDocument", genkit.DefineTool(r.g,
		"updateDocument",
		"Update an existing document with the described changes. Rewrites the full document.",
		wrap(r, "updateDocument", func(ctx context.Context, ec *ExecutionContext, in updateDocumentInput) (draftResult, error) {
			return r.updateDraft(ctx, ec, in.ID, in.Description, store.KindText)
		})))

	r.add("requestSuggestions", genkit.DefineTool(r.g,
		"requestSuggestions",
		"Request writing suggestions for an existing document.",
		wrap(r, "requestSuggestions", func(ctx context.Context, ec *ExecutionContext, in suggestionsInput) (draftResult, error) {
			return r.suggestEdits(ctx, ec, in.DocumentID, store.KindText)
		})))
}

// createDraft streams a fresh draft and persists it when a user is present.
// Envelope order per draft: id, title, clear, text-delta*, finish.
func (r *Registry) createDraft(ctx context.Context, ec *ExecutionContext, title, kind string) (draftResult, error) {
	id := uuid.New()

	ec.Stream.Append(stream.Envelope{Type: stream.TypeID, Content: id.String()})
	ec.Stream.Append(stream.Envelope{Type: stream.TypeTitle, Content: title})
	ec.Stream.Append(stream.Envelope{Type: stream.TypeClear, Content: ""})

	system := draftDocumentPrompt
	if kind == store.KindEmail {
		system = draftEmailPrompt
	}

	content, err := r.streamGeneration(ctx, ec, system, title)

	// The draft panel is closed regardless of outcome so the client never
	// waits on a finish that will not come.
	ec.Stream.Append(stream.Envelope{Type: stream.TypeFinish, Content: ""})

	if err != nil {
		return draftResult{}, fmt.Errorf("drafting %q: %w", title, err)
	}

	r.persistDocument(ctx, ec, store.Document{
		ID: id, Title: title, Content: content, Kind: kind,
	})

	return draftResult{
		ID:      id.String(),
		Title:   title,
		Kind:    kind,
		Content: "A document was created and is now visible to the user.",
	}, nil
}

// updateDraft redrafts an existing document in full.
func (r *Registry) updateDraft(ctx context.Context, ec *ExecutionContext, rawID, description, kind string) (draftResult, error) {
	doc, result := r.lookupDocument(ctx, rawID, kind)
	if doc == nil {
		return result, nil
	}

	ec.Stream.Append(stream.Envelope{Type: stream.TypeClear, Content: doc.Title})

	system := updateDocumentPrompt
	if kind == store.KindEmail {
		system = updateEmailPrompt
	}
	prompt := fmt.Sprintf("Current content:\n\n%s\n\nRequested change: %s", doc.Content, description)

	content, err := r.streamGeneration(ctx, ec, system, prompt)
	ec.Stream.Append(stream.Envelope{Type: stream.TypeFinish, Content: ""})
	if err != nil {
		return draftResult{}, fmt.Errorf("redrafting %s: %w", doc.ID, err)
	}

	doc.Content = content
	r.persistDocument(ctx, ec, *doc)

	return draftResult{
		ID:      doc.ID.String(),
		Title:   doc.Title,
		Kind:    kind,
		Content: "The document has been updated successfully.",
	}, nil
}

// suggestEdits generates up to MaxSuggestions structured suggestions,
// streams each as a suggestion envelope, and persists the batch.
func (r *Registry) suggestEdits(ctx context.Context, ec *ExecutionContext, rawID, kind string) (draftResult, error) {
	doc, result := r.lookupDocument(ctx, rawID, kind)
	if doc == nil {
		return result, nil
	}

	resp, err := genkit.Generate(ctx, r.g,
		ai.WithModelName(ec.ModelName),
		ai.WithSystem(suggestionsPrompt),
		ai.WithMessages(ai.NewUserMessage(ai.NewTextPart(doc.Content))),
		ai.WithOutputType(suggestionBatch{}),
	)
	if err != nil {
		return draftResult{}, fmt.Errorf("generating suggestions for %s: %w", doc.ID, err)
	}

	var batch suggestionBatch
	if err := resp.Output(&batch); err != nil {
		return draftResult{}, fmt.Errorf("decoding suggestions for %s: %w", doc.ID, err)
	}

	drafts := batch.Suggestions
	if len(drafts) > MaxSuggestions {
		drafts = drafts[:MaxSuggestions]
	}

	rows := make([]store.Suggestion, 0, len(drafts))
	for _, d := range drafts {
		sg := store.Suggestion{
			ID:            uuid.New(),
			DocumentID:    doc.ID,
			OriginalText:  d.OriginalSentence,
			SuggestedText: d.SuggestedSentence,
			Description:   d.Description,
		}
		ec.Stream.Append(stream.Envelope{Type: stream.TypeSuggestion, Content: SuggestionEvent{
			ID:            sg.ID.String(),
			DocumentID:    doc.ID.String(),
			OriginalText:  sg.OriginalText,
			SuggestedText: sg.SuggestedText,
			Description:   sg.Description,
		}})
		rows = append(rows, sg)
	}

	if ec.Session.HasUser() && r.store != nil {
		for i := range rows {
			rows[i].UserID = ec.Session.UserID
		}
		if err := r.store.SaveSuggestions(ctx, rows); err != nil {
			r.logger.Error("persisting suggestions failed", "document", doc.ID, "error", err)
		}
	}

	return draftResult{
		ID:      doc.ID.String(),
		Title:   doc.Title,
		Kind:    kind,
		Content: "Suggestions have been added to the document.",
	}, nil
}

// lookupDocument resolves a document by its raw id. A missing or malformed
// id yields a nil document and a tool-level error result.
func (r *Registry) lookupDocument(ctx context.Context, rawID, kind string) (*store.Document, draftResult) {
	notFound := "Document not found"
	if kind == store.KindEmail {
		notFound = "Email not found"
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, draftResult{Error: notFound}
	}
	if r.store == nil {
		return nil, draftResult{Error: notFound}
	}

	doc, err := r.store.GetDocumentByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, draftResult{Error: notFound}
	}
	if err != nil {
		r.logger.Error("document lookup failed", "id", rawID, "error", err)
		return nil, draftResult{Error: notFound}
	}
	if doc.Kind != kind {
		return nil, draftResult{Error: notFound}
	}
	return doc, draftResult{}
}

// streamGeneration runs a nested generation, forwarding text chunks as
// text-delta envelopes, and returns the accumulated content.
func (r *Registry) streamGeneration(ctx context.Context, ec *ExecutionContext, system, prompt string) (string, error) {
	resp, err := genkit.Generate(ctx, r.g,
		ai.WithModelName(ec.ModelName),
		ai.WithSystem(system),
		ai.WithMessages(ai.NewUserMessage(ai.NewTextPart(prompt))),
		ai.WithStreaming(func(_ context.Context, chunk *ai.ModelResponseChunk) error {
			for _, part := range chunk.Content {
				if part.IsText() && part.Text != "" {
					ec.Stream.AppendDelta(part.Text)
				}
			}
			return nil
		}),
	)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// persistDocument saves the draft when the caller has a user; anonymous
// drafts stream but are not stored.
func (r *Registry) persistDocument(ctx context.Context, ec *ExecutionContext, doc store.Document) {
	if !ec.Session.HasUser() || r.store == nil {
		return
	}
	doc.UserID = ec.Session.UserID
	if err := r.store.SaveDocument(ctx, doc); err != nil {
		r.logger.Error("persisting document failed", "id", doc.ID, "error", err)
	}
}
