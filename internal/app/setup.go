package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/tracing"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/zolve/advisor/internal/chat"
	"github.com/zolve/advisor/internal/config"
	"github.com/zolve/advisor/internal/knowledge"
	"github.com/zolve/advisor/internal/log"
	"github.com/zolve/advisor/internal/rag"
	"github.com/zolve/advisor/internal/session"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup — call Close() to release.
//
// Any failure here is fatal: the index must be fully built before the
// service answers chat traffic, so there is no degraded mode.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.ValidateServe(); err != nil {
		return nil, err
	}

	a := &App{Config: cfg, logger: logger}

	// On error, clean up everything already initialized
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	a.otelCleanup = provideOtelShutdown(ctx, cfg, logger)

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}
	a.Embedder = embedder

	ix, err := provideIndex(ctx, cfg, embedder, logger)
	if err != nil {
		return nil, err
	}
	a.Index = ix

	a.Retriever = rag.DefineRetriever(g, ix)

	engine, err := chat.New(chat.Config{
		Genkit:     g,
		Retriever:  a.Retriever,
		Logger:     logger,
		ModelName:  cfg.ModelName,
		TopK:       cfg.RetrievalTopK,
		AskTimeout: time.Duration(cfg.AskTimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("creating chat engine: %w", err)
	}
	a.Engine = engine

	a.Sessions = session.NewStore(cfg.MemoryTokenLimit, logger)
	a.Sessions.SetReady()

	logger.Info("application ready",
		"model", cfg.ModelName,
		"embedder", cfg.EmbedderModel,
		"documents", ix.Count())
	return a, nil
}

// provideOtelShutdown registers an OTLP trace exporter on Genkit's tracer
// provider. Must run before provideGenkit so the TracerProvider is ready.
// Tracing is disabled unless an OTLP endpoint is configured.
func provideOtelShutdown(ctx context.Context, cfg *config.Config, logger log.Logger) func() {
	if cfg.OTLPEndpoint == "" {
		return func() {}
	}

	// SAFETY: os.Setenv is not concurrent-safe, but this function is called
	// exactly once during startup in Setup, before goroutines are spawned.
	if cfg.ServiceName != "" {
		_ = os.Setenv("OTEL_SERVICE_NAME", cfg.ServiceName)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
		otlptracehttp.WithInsecure(), // local collectors don't need TLS
	)
	if err != nil {
		logger.Warn("creating OTLP exporter, tracing disabled", "error", err)
		return func() {}
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	logger.Debug("tracing enabled", "endpoint", cfg.OTLPEndpoint, "service", cfg.ServiceName)

	shutdown := tracing.TracerProvider().Shutdown

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideGenkit initializes Genkit with the Google AI plugin.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit")
	}
	logger.Info("initialized Genkit", "model", cfg.ModelName)
	return g, nil
}

// provideIndex seeds the knowledge directory if needed and builds the
// in-memory index from every loadable file in it.
func provideIndex(ctx context.Context, cfg *config.Config, embedder ai.Embedder, logger log.Logger) (*knowledge.Index, error) {
	if err := knowledge.EnsureCorpus(cfg.KnowledgeDir, logger); err != nil {
		return nil, fmt.Errorf("preparing knowledge directory: %w", err)
	}

	ix, err := knowledge.New(knowledge.NewEmbeddingFunc(embedder), logger)
	if err != nil {
		return nil, fmt.Errorf("creating knowledge index: %w", err)
	}

	logger.Info("building knowledge index", "dir", cfg.KnowledgeDir)
	n, err := ix.Load(ctx, cfg.KnowledgeDir)
	if err != nil {
		return nil, fmt.Errorf("loading knowledge base: %w", err)
	}
	logger.Info("knowledge index built", "documents", n)
	return ix, nil
}
