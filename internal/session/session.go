package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zolve/advisor/internal/chat"
)

// Asker answers one conversational turn against a session's memory.
// *chat.Engine satisfies this; tests substitute stubs.
type Asker interface {
	Ask(ctx context.Context, mem *chat.Memory, input string) (string, error)
}

// Session is one live conversation: a stable ID plus its token-bounded
// memory. The inflight mutex serializes turns so two concurrent requests
// on the same chat cannot interleave their history.
type Session struct {
	ID        uuid.UUID
	Memory    *chat.Memory
	CreatedAt time.Time

	inflight sync.Mutex
}

// Ask runs one turn through the given Asker while holding the session's
// turn lock. A second Ask on the same session blocks until the first
// completes; asks on different sessions proceed in parallel.
func (s *Session) Ask(ctx context.Context, asker Asker, input string) (string, error) {
	s.inflight.Lock()
	defer s.inflight.Unlock()
	return asker.Ask(ctx, s.Memory, input)
}
