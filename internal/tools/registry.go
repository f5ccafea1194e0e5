package tools

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/scribeapp/scribe/internal/store"
)

// Deps are the collaborators the tool handlers share.
type Deps struct {
	Genkit *genkit.Genkit

	// Store persists documents and suggestions. Nil disables persistence
	// entirely; tools still stream their output.
	Store *store.Store

	// WeatherBaseURL is the forecast service endpoint.
	WeatherBaseURL string

	// HTTPClient overrides the default client (tests). Optional.
	HTTPClient *http.Client

	// Tracer defaults to the global tracer provider when nil.
	Tracer trace.Tracer

	Logger *slog.Logger
}

// Registry owns the defined tools. It is populated once at construction and
// never mutated afterwards, so concurrent turns can resolve tool refs
// without locking.
type Registry struct {
	g       *genkit.Genkit
	store   *store.Store
	weather string
	httpc   *http.Client
	tracer  trace.Tracer
	logger  *slog.Logger

	refs  map[string]ai.ToolRef
	names []string
}

// NewRegistry defines every tool against the genkit instance and returns the
// populated registry.
func NewRegistry(deps Deps) *Registry {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = otel.Tracer("scribe/tools")
	}
	httpc := deps.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}

	r := &Registry{
		g:       deps.Genkit,
		store:   deps.Store,
		weather: deps.WeatherBaseURL,
		httpc:   httpc,
		tracer:  tracer,
		logger:  logger.With("component", "tools"),
		refs:    make(map[string]ai.ToolRef),
	}

	r.defineDocumentTools()
	r.defineEmailTools()
	r.defineWeatherTool()

	r.names = make([]string, 0, len(r.refs))
	for name := range r.refs {
		r.names = append(r.names, name)
	}
	slices.Sort(r.names)
	return r
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// Active returns refs for the named tools, skipping unknown names. An empty
// list means all tools.
func (r *Registry) Active(names []string) []ai.ToolRef {
	if len(names) == 0 {
		names = r.names
	}
	out := make([]ai.ToolRef, 0, len(names))
	for _, name := range names {
		if ref, ok := r.refs[name]; ok {
			out = append(out, ref)
		} else {
			r.logger.Warn("unknown tool requested", "tool", name)
		}
	}
	return out
}

// add records a defined tool. Called only during construction.
func (r *Registry) add(name string, ref ai.ToolRef) {
	r.refs[name] = ref
}
