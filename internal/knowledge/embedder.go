// Package knowledge implements the retrieval phase of a conversation turn:
// embedding the query, fetching nearest neighbors from the vector index, and
// condensing the hits into a context block for the system prompt.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
)

// ErrEmbedding indicates the embedding call failed or returned a vector of
// the wrong shape.
var ErrEmbedding = errors.New("embedding failed")

// DefaultHistoryTail is how many trailing history messages are folded into
// the query embedding when the caller passes zero.
const DefaultHistoryTail = 3

// QueryEmbedder turns a user message, plus a short tail of conversation
// history, into a single query vector.
//
// History is included because a non-self-contained message ("and what about
// next week") only embeds meaningfully alongside the turns it leans on.
type QueryEmbedder struct {
	embedder    ai.Embedder
	dimension   int
	historyTail int
}

// NewQueryEmbedder creates a query embedder. dimension is the expected vector
// width; a mismatch from the provider is an error, not a silent truncation.
func NewQueryEmbedder(embedder ai.Embedder, dimension, historyTail int) *QueryEmbedder {
	if historyTail <= 0 {
		historyTail = DefaultHistoryTail
	}
	return &QueryEmbedder{
		embedder:    embedder,
		dimension:   dimension,
		historyTail: historyTail,
	}
}

// Embed returns the query vector for message given the conversation history.
func (q *QueryEmbedder) Embed(ctx context.Context, message string, history []string) ([]float32, error) {
	text := q.queryText(message, history)

	resp, err := q.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText(text, nil)},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", ErrEmbedding)
	}

	vec := resp.Embeddings[0].Embedding
	if q.dimension > 0 && len(vec) != q.dimension {
		return nil, fmt.Errorf("%w: got dimension %d, want %d", ErrEmbedding, len(vec), q.dimension)
	}
	return vec, nil
}

// queryText joins the history tail and the message, oldest first, so the
// message itself carries the most recent position.
func (q *QueryEmbedder) queryText(message string, history []string) string {
	tail := history
	if len(tail) > q.historyTail {
		tail = tail[len(tail)-q.historyTail:]
	}

	parts := make([]string, 0, len(tail)+1)
	for _, h := range tail {
		if h = strings.TrimSpace(h); h != "" {
			parts = append(parts, h)
		}
	}
	parts = append(parts, message)
	return strings.Join(parts, "\n")
}
