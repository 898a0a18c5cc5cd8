package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zolve/advisor/internal/chat"
)

// Store maps session IDs to live sessions.
//
// A freshly constructed Store refuses Create with [ErrNotReady] until
// SetReady is called, so the HTTP layer can answer 503 while the
// knowledge index is still being built.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	mu         sync.RWMutex
	sessions   map[uuid.UUID]*Session
	ready      bool
	tokenLimit int
	logger     *slog.Logger
}

// NewStore creates an empty, not-yet-ready Store. tokenLimit is the
// conversation memory budget handed to each new session's [chat.Memory].
func NewStore(tokenLimit int, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		sessions:   make(map[uuid.UUID]*Session),
		tokenLimit: tokenLimit,
		logger:     logger,
	}
}

// SetReady opens the store for session creation. Called once after
// startup finishes building the knowledge index.
func (s *Store) SetReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
}

// Ready reports whether the store accepts new sessions.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Create registers a new session with a fresh ID and empty memory.
// Returns [ErrNotReady] before SetReady has been called.
func (s *Store) Create(_ context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return nil, ErrNotReady
	}

	sess := &Session{
		ID:        uuid.New(),
		Memory:    chat.NewMemory(s.tokenLimit),
		CreatedAt: time.Now(),
	}
	s.sessions[sess.ID] = sess

	s.logger.Debug("created session", "id", sess.ID)
	return sess, nil
}

// Get retrieves a session by ID. Returns [ErrNotFound] for unknown IDs.
func (s *Store) Get(id uuid.UUID) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Clear drops all sessions. Used at shutdown.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[uuid.UUID]*Session)
}
