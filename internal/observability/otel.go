// Package observability wires OpenTelemetry tracing. Spans are exported over
// OTLP HTTP to a local collector; the tool execution wrapper is the main
// span producer.
package observability

import (
	"context"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ServiceName tags every exported span.
const ServiceName = "scribe"

// Setup registers a global tracer provider exporting to the given OTLP HTTP
// endpoint. An empty endpoint disables tracing; exporter construction
// failures degrade to disabled tracing rather than failing startup.
//
// The returned shutdown function flushes pending spans.
func Setup(ctx context.Context, endpoint string, logger *slog.Logger) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if endpoint == "" {
		return noop, nil
	}

	// The SDK resource detector reads the service name from the environment.
	_ = os.Setenv("OTEL_SERVICE_NAME", ServiceName)

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(), // local collector, no TLS
	)
	if err != nil {
		logger.Warn("creating trace exporter failed, tracing disabled", "error", err)
		return noop, nil
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)

	logger.Debug("tracing enabled", "endpoint", endpoint, "service", ServiceName)
	return tp.Shutdown, nil
}
