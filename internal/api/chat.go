package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/zolve/advisor/internal/chat"
	"github.com/zolve/advisor/internal/log"
	"github.com/zolve/advisor/internal/session"
)

const (
	// MaxRequestBody caps chat request bodies at 1 MB.
	MaxRequestBody = 1 << 20

	newChatMessage = "New chat session created successfully."
	welcomeMessage = "Welcome to the Zolve financial advisor API. POST /chat/new to start a conversation."
)

// NewChatResponse is the body returned by POST /chat/new.
type NewChatResponse struct {
	ChatID  string `json:"chat_id"`
	Message string `json:"message"`
}

// ChatRequest is the body accepted by POST /chat/{chat_id}.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the body returned by POST /chat/{chat_id}.
type ChatResponse struct {
	Response string `json:"response"`
	ChatID   string `json:"chat_id"`
}

// ChatHandler handles chat session endpoints.
type ChatHandler struct {
	store  *session.Store
	engine session.Asker
	logger log.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(store *session.Store, engine session.Asker, logger log.Logger) *ChatHandler {
	return &ChatHandler{store: store, engine: engine, logger: logger}
}

// RegisterRoutes registers chat routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.welcome)
	mux.HandleFunc("POST /chat/new", h.create)
	mux.HandleFunc("POST /chat/{chat_id}", h.send)
}

// welcome returns a static greeting payload. Idempotent, no side effects.
func (h *ChatHandler) welcome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": welcomeMessage})
}

// create starts a new chat session.
// Returns 503 while the knowledge index is still being built.
func (h *ChatHandler) create(w http.ResponseWriter, r *http.Request) {
	sess, err := h.store.Create(r.Context())
	if err != nil {
		if errors.Is(err, session.ErrNotReady) {
			writeError(w, http.StatusServiceUnavailable, "not_ready", "knowledge index is not initialized yet")
			return
		}
		h.logger.Error("failed to create session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create chat session")
		return
	}

	h.logger.Info("chat session created", "chat_id", sess.ID)
	writeJSON(w, http.StatusOK, NewChatResponse{
		ChatID:  sess.ID.String(),
		Message: newChatMessage,
	})
}

// send runs one conversational turn against an existing session.
func (h *ChatHandler) send(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("chat_id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "chat session not found")
		return
	}

	sess, err := h.store.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "chat session not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBody)
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON with a message field")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "message must not be empty")
		return
	}

	answer, err := sess.Ask(r.Context(), h.engine, req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrGenerationFailed) {
			h.logger.Error("generation failed", "chat_id", sess.ID, "error", err)
			writeError(w, http.StatusBadGateway, "generation_failed", "the model could not produce a response")
			return
		}
		h.logger.Error("chat turn failed", "chat_id", sess.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "chat turn failed")
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{Response: answer, ChatID: sess.ID.String()})
}
