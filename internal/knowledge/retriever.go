package knowledge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/scribeapp/scribe/internal/vecstore"
)

// DefaultTopK is the nearest-neighbor count when the caller passes zero.
const DefaultTopK = 5

// MetadataTextKey is the vector metadata field holding the passage text.
const MetadataTextKey = "text"

// VectorStore is the query surface the retriever needs from the index client.
type VectorStore interface {
	Query(ctx context.Context, vector []float32, topK int) ([]vecstore.Match, error)
}

// Retriever runs the full retrieval pipeline for one conversation turn.
type Retriever struct {
	embedder   *QueryEmbedder
	store      VectorStore
	summarizer *Summarizer
	topK       int
	logger     *slog.Logger
}

// NewRetriever wires the retrieval pipeline together.
func NewRetriever(embedder *QueryEmbedder, store VectorStore, summarizer *Summarizer, topK int, logger *slog.Logger) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		embedder:   embedder,
		store:      store,
		summarizer: summarizer,
		topK:       topK,
		logger:     logger,
	}
}

// BuildContext embeds the query, fetches nearest neighbors and condenses
// their text into a context block. An empty result is valid; errors are for
// the caller to degrade on, typically by proceeding without context.
func (r *Retriever) BuildContext(ctx context.Context, message string, history []string) (string, error) {
	vec, err := r.embedder.Embed(ctx, message, history)
	if err != nil {
		return "", fmt.Errorf("embedding query: %w", err)
	}

	matches, err := r.store.Query(ctx, vec, r.topK)
	if err != nil {
		return "", fmt.Errorf("querying index: %w", err)
	}

	passages := make([]string, 0, len(matches))
	for _, m := range matches {
		text, ok := m.Metadata[MetadataTextKey].(string)
		if !ok || text == "" {
			r.logger.Debug("match without text metadata, skipping", "id", m.ID)
			continue
		}
		passages = append(passages, text)
	}

	out, err := r.summarizer.Summarize(ctx, passages)
	if err != nil {
		return "", fmt.Errorf("summarizing context: %w", err)
	}
	return out, nil
}
