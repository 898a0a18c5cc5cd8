// Package client is the HTTP client side of the advisor API,
// used by the chat TUI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrUnreachable indicates the advisor server could not be reached at
// all: no TCP connection, DNS failure, timeout. Distinct from an error
// response the server itself produced.
var ErrUnreachable = errors.New("advisor server unreachable")

// APIError is an error response produced by the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server error (status %d): %s", e.Status, e.Code)
}

// NewChatResponse is the body returned by POST /chat/new.
type NewChatResponse struct {
	ChatID  string `json:"chat_id"`
	Message string `json:"message"`
}

// ChatResponse is the body returned by POST /chat/{chat_id}.
type ChatResponse struct {
	Response string `json:"response"`
	ChatID   string `json:"chat_id"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Client talks to a running advisor server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// NewChat creates a chat session and returns its ID.
func (c *Client) NewChat(ctx context.Context) (string, error) {
	var resp NewChatResponse
	if err := c.post(ctx, "/chat/new", nil, &resp); err != nil {
		return "", err
	}
	return resp.ChatID, nil
}

// Send runs one conversational turn and returns the assistant's answer.
func (c *Client) Send(ctx context.Context, chatID, message string) (string, error) {
	var resp ChatResponse
	if err := c.post(ctx, "/chat/"+chatID, chatRequest{Message: message}, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// post sends a JSON POST and decodes the response. Transport failures
// wrap ErrUnreachable, non-2xx responses become *APIError, and a
// canceled or expired context surfaces as the context error.
func (c *Client) post(ctx context.Context, path string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// A canceled or timed-out request is the caller's doing, not a
		// server outage. Keep the context error detectable.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("request aborted: %w", err)
		}
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var parsed errorResponse
		if json.Unmarshal(respBody, &parsed) == nil {
			apiErr.Code = parsed.Error
			apiErr.Message = parsed.Message
		}
		return apiErr
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}
