package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()

	data := NewChatResponse{ChatID: "abc", Message: newChatMessage}
	writeJSON(w, http.StatusOK, data)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var result NewChatResponse
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)
	assert.Equal(t, "abc", result.ChatID)
	assert.Equal(t, newChatMessage, result.Message)
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()

	writeError(w, http.StatusNotFound, "not_found", "Chat session not found.")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var result ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)
	assert.Equal(t, "not_found", result.Error)
	assert.Equal(t, "Chat session not found.", result.Message)
}

func TestWriteError_OmitsEmptyMessage(t *testing.T) {
	w := httptest.NewRecorder()

	writeError(w, http.StatusServiceUnavailable, "not_ready", "")

	assert.NotContains(t, w.Body.String(), "message")
}
