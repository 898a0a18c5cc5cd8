// Package api exposes the advisor over HTTP.
//
// Routes:
//
//	POST /chat/new        create a chat session
//	POST /chat/{chat_id}  one conversational turn
//	GET  /                welcome payload
//	GET  /health          liveness probe
//	GET  /ready           readiness probe (knowledge index built)
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: HTTP middleware (logging, recovery)
//   - health.go: Health check endpoints (/health, /ready)
//   - chat.go: Chat session endpoints
//   - response.go: JSON response helpers
package api
