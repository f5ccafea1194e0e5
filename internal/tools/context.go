// Package tools defines the side-effecting tools the model can call during a
// conversation turn, the registry that owns them, and the execution wrapper
// that traces and quarantines every invocation.
package tools

import (
	"context"

	"github.com/scribeapp/scribe/internal/session"
	"github.com/scribeapp/scribe/internal/stream"
)

// ExecutionContext carries the per-request state a tool handler needs. It is
// built once per request and treated as read-only; handlers receive it
// explicitly rather than digging values out of context one by one.
type ExecutionContext struct {
	// Stream receives the envelopes a tool emits while it works.
	Stream *stream.Data

	// ModelName is the model driving the turn; nested generations use it.
	ModelName string

	// Session is the caller. A session without a user disables persistence.
	Session *session.Session

	// RAG reports whether retrieval was requested for this turn.
	RAG bool
}

// execKey is an unexported context key for zero-allocation type safety.
type execKey struct{}

// ContextWithExecution stores the per-request execution context. The
// orchestrator injects it before the generate loop so the tool wrapper can
// recover it inside genkit's callback.
func ContextWithExecution(ctx context.Context, ec *ExecutionContext) context.Context {
	return context.WithValue(ctx, execKey{}, ec)
}

// ExecutionFromContext retrieves the execution context, or nil if absent.
func ExecutionFromContext(ctx context.Context) *ExecutionContext {
	ec, _ := ctx.Value(execKey{}).(*ExecutionContext)
	return ec
}
