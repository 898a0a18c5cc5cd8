// Package app wires the advisor's components together at startup.
//
// Setup builds everything the server needs, in dependency order: tracing,
// Genkit, the embedder, the knowledge index (loaded synchronously from
// disk), the retriever, the chat engine, and the session store. Serving
// starts only after Setup returns, so a half-initialized service never
// answers chat traffic.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/zolve/advisor/internal/chat"
	"github.com/zolve/advisor/internal/config"
	"github.com/zolve/advisor/internal/knowledge"
	"github.com/zolve/advisor/internal/log"
	"github.com/zolve/advisor/internal/session"
)

// App is the core application container.
type App struct {
	Config *config.Config

	Genkit    *genkit.Genkit
	Embedder  ai.Embedder
	Index     *knowledge.Index
	Retriever ai.Retriever
	Engine    *chat.Engine
	Sessions  *session.Store

	logger      log.Logger
	otelCleanup func()
}

// Close gracefully releases all resources.
func (a *App) Close() error {
	logger := a.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("shutting down application")

	if a.Sessions != nil {
		a.Sessions.Clear()
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
	}
	return nil
}
