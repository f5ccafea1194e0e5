package tools

import (
	"context"
	"errors"

	"github.com/firebase/genkit/go/ai"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// errNoExecutionContext indicates a tool was invoked outside a conversation
// turn. Only reachable through a wiring bug.
var errNoExecutionContext = errors.New("no execution context")

// wrap adapts a typed handler into a genkit tool function. It recovers the
// per-request ExecutionContext, records an entry/exit span, and quarantines
// failures: a tool error is logged and the model sees the zero result, so a
// single bad tool call never aborts the whole turn.
func wrap[In, Out any](r *Registry, name string, fn func(ctx context.Context, ec *ExecutionContext, in In) (Out, error)) func(*ai.ToolContext, In) (Out, error) {
	return func(toolCtx *ai.ToolContext, in In) (Out, error) {
		var zero Out

		ctx, span := r.tracer.Start(toolCtx.Context, "tool."+name)
		span.SetAttributes(attribute.String("tool.name", name))
		defer span.End()

		ec := ExecutionFromContext(ctx)
		if ec == nil {
			span.SetStatus(codes.Error, errNoExecutionContext.Error())
			r.logger.Error("tool invoked without execution context", "tool", name)
			return zero, nil
		}

		r.logger.Debug("tool start", "tool", name)
		out, err := fn(ctx, ec, in)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			r.logger.Error("tool failed", "tool", name, "error", err)
			return zero, nil
		}

		r.logger.Debug("tool done", "tool", name)
		return out, nil
	}
}
