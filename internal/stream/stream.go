// Package stream carries the envelope protocol between a running
// conversation turn and the HTTP response. Producers (the orchestrator and
// tool handlers) append typed envelopes; the SSE writer drains them in order.
package stream

import (
	"context"
	"sync"
)

// EnvelopeType tags a stream envelope.
type EnvelopeType string

const (
	// TypeID announces the draft document id a tool is writing to.
	TypeID EnvelopeType = "id"

	// TypeTitle announces the draft document title.
	TypeTitle EnvelopeType = "title"

	// TypeClear resets the draft panel before a rewrite.
	TypeClear EnvelopeType = "clear"

	// TypeTextDelta is an incremental piece of draft or assistant text.
	TypeTextDelta EnvelopeType = "text-delta"

	// TypeSuggestion carries one structured edit suggestion.
	TypeSuggestion EnvelopeType = "suggestion"

	// TypeMessageID maps a persisted assistant message to its server id.
	TypeMessageID EnvelopeType = "messageIdFromServer"

	// TypeFinish marks the end of a tool's draft output.
	TypeFinish EnvelopeType = "finish"

	// TypeError reports a terminal failure of the turn.
	TypeError EnvelopeType = "error"
)

// Envelope is one unit of the stream protocol.
type Envelope struct {
	Type    EnvelopeType `json:"type"`
	Content any          `json:"content,omitempty"`
}

// Data is an ordered, unbounded envelope queue for one conversation turn.
// Appends after Close are dropped silently: producers may still be unwinding
// when the turn finishes, and a late envelope has nowhere to go.
//
// Safe for concurrent use by multiple producers and one consumer.
type Data struct {
	mu        sync.Mutex
	queue     []Envelope
	closed    bool
	closeOnce sync.Once
	notify    chan struct{}
}

// NewData creates an empty envelope queue.
func NewData() *Data {
	return &Data{notify: make(chan struct{}, 1)}
}

// Append enqueues one envelope. No-op after Close.
func (d *Data) Append(env Envelope) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.queue = append(d.queue, env)
	d.mu.Unlock()
	d.wake()
}

// AppendDelta enqueues a text-delta envelope.
func (d *Data) AppendDelta(text string) {
	d.Append(Envelope{Type: TypeTextDelta, Content: text})
}

// Close marks the queue complete. Idempotent; already-queued envelopes remain
// drainable.
func (d *Data) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()
		d.wake()
	})
}

// Closed reports whether Close has been called.
func (d *Data) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Next blocks until an envelope is available, the queue is closed and
// drained (ok=false), or ctx is done.
func (d *Data) Next(ctx context.Context) (Envelope, bool, error) {
	for {
		d.mu.Lock()
		if len(d.queue) > 0 {
			env := d.queue[0]
			d.queue = d.queue[1:]
			d.mu.Unlock()
			return env, true, nil
		}
		if d.closed {
			d.mu.Unlock()
			return Envelope{}, false, nil
		}
		d.mu.Unlock()

		select {
		case <-ctx.Done():
			return Envelope{}, false, ctx.Err()
		case <-d.notify:
		}
	}
}

// wake nudges the consumer without blocking the producer.
func (d *Data) wake() {
	select {
	case d.notify <- struct{}{}:
	default:
	}
}
