package api

import (
	"net/http"

	"github.com/zolve/advisor/internal/session"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	store *session.Store
}

// NewHealthHandler creates a new health handler. The store's readiness
// flag backs the /ready probe.
func NewHealthHandler(store *session.Store) *HealthHandler {
	return &HealthHandler{store: store}
}

// RegisterRoutes registers health routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.liveness)
	mux.HandleFunc("GET /ready", h.readiness)
}

// liveness is a liveness probe endpoint.
// Returns 200 OK if the process is alive.
func (h *HealthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readiness is a readiness probe endpoint.
// Returns 200 OK once the knowledge index is built and chats can start.
func (h *HealthHandler) readiness(w http.ResponseWriter, _ *http.Request) {
	if h.store == nil || !h.store.Ready() {
		http.Error(w, "index not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
