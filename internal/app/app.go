// Package app assembles the application: configuration in, a wired object
// graph out. Call Close to release everything Setup acquired.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	"github.com/scribeapp/scribe/internal/api"
	"github.com/scribeapp/scribe/internal/classifier"
	"github.com/scribeapp/scribe/internal/config"
	"github.com/scribeapp/scribe/internal/database"
	"github.com/scribeapp/scribe/internal/knowledge"
	"github.com/scribeapp/scribe/internal/observability"
	"github.com/scribeapp/scribe/internal/orchestrator"
	"github.com/scribeapp/scribe/internal/session"
	"github.com/scribeapp/scribe/internal/store"
	"github.com/scribeapp/scribe/internal/tools"
	"github.com/scribeapp/scribe/internal/vecstore"
)

// Model-call throttle shared across all turns.
const (
	rateLimit = 5  // calls per second
	rateBurst = 10 // burst capacity
)

// shutdownFlushTimeout bounds the final trace flush on Close.
const shutdownFlushTimeout = 5 * time.Second

// App is the wired application.
type App struct {
	Config       *config.Config
	Genkit       *genkit.Genkit
	Pool         *pgxpool.Pool
	Store        *store.Store
	Sessions     *session.Manager
	Registry     *tools.Registry
	Orchestrator *orchestrator.Orchestrator
	Handler      http.Handler

	logger      *slog.Logger
	otelCleanup func(context.Context) error
}

// Setup builds the application graph. On error, everything already acquired
// is released.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	a := &App{Config: cfg, logger: logger}

	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	otelCleanup, err := observability.Setup(ctx, cfg.OTLPEndpoint, logger)
	if err != nil {
		return nil, fmt.Errorf("setting up tracing: %w", err)
	}
	a.otelCleanup = otelCleanup

	if err := database.Migrate(cfg.ConnString(), logger); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	pool, err := database.Connect(ctx, cfg.ConnString(), logger)
	if err != nil {
		return nil, fmt.Errorf("connecting database: %w", err)
	}
	a.Pool = pool
	a.Store = store.New(pool, logger)
	a.Sessions = session.NewManager(pool, logger)

	a.Genkit = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))

	embedder := googlegenai.GoogleAIEmbedder(a.Genkit, cfg.EmbedderModel)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}

	vectors, err := vecstore.New(vecstore.Config{
		BaseURL:   cfg.VectorIndex.BaseURL,
		APIKey:    cfg.VectorIndex.APIKey,
		Index:     cfg.VectorIndex.Index,
		Namespace: cfg.VectorIndex.Namespace,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating vector store client: %w", err)
	}

	defaultModel, err := cfg.ModelByID(config.DefaultModelID)
	if err != nil {
		return nil, fmt.Errorf("resolving default model: %w", err)
	}

	retriever := knowledge.NewRetriever(
		knowledge.NewQueryEmbedder(embedder, cfg.Dimension, 0),
		vectors,
		knowledge.NewSummarizer(a.Genkit, defaultModel.APIIdentifier, cfg.ContextBudget, logger),
		0,
		logger,
	)

	a.Registry = tools.NewRegistry(tools.Deps{
		Genkit:         a.Genkit,
		Store:          a.Store,
		WeatherBaseURL: cfg.WeatherBaseURL,
		Tracer:         otel.Tracer("scribe/tools"),
		Logger:         logger,
	})

	a.Orchestrator = orchestrator.New(orchestrator.Config{
		Genkit:         a.Genkit,
		Registry:       a.Registry,
		Retriever:      retriever,
		Store:          a.Store,
		ClassifierMode: classifier.Mode(cfg.ClassifierMode),
		Limiter:        rate.NewLimiter(rate.Limit(rateLimit), rateBurst),
		MaxTurns:       cfg.MaxTurns,
		Logger:         logger,
	})

	mux := http.NewServeMux()
	api.NewChatHandler(cfg, a.Sessions, a.Store, a.Orchestrator, logger).Routes(mux)
	a.Handler = api.RequestLogger(logger, mux)

	return a, nil
}

// Close releases the application's resources in reverse acquisition order.
func (a *App) Close() error {
	if a.Pool != nil {
		a.Pool.Close()
	}
	if a.otelCleanup != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownFlushTimeout)
		defer cancel()
		if err := a.otelCleanup(ctx); err != nil {
			return fmt.Errorf("flushing traces: %w", err)
		}
	}
	return nil
}
