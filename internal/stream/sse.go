package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Writer streams JSON envelopes over Server-Sent Events.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewWriter wraps w for SSE streaming and sets the response headers. It fails
// when the writer cannot flush, which would silently buffer the whole stream.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support flushing")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering

	return &Writer{w: w, flusher: flusher}, nil
}

// Write sends one envelope as a data-only SSE event and flushes.
func (w *Writer) Write(env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if _, err := fmt.Fprintf(w.w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	w.flusher.Flush()
	return nil
}

// Drain writes envelopes from d until it is closed and empty, the client
// goes away, or ctx is done. Write errors mean a dead client and are
// returned so the caller can stop producing.
func (w *Writer) Drain(ctx context.Context, d *Data) error {
	for {
		env, ok, err := d.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := w.Write(env); err != nil {
			return err
		}
	}
}
