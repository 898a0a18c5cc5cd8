package chat

import (
	"sync"

	"github.com/firebase/genkit/go/ai"
)

// Memory is the token-bounded conversation history of one chat session.
//
// Turns are appended in call order and trimmed oldest-first once the
// token budget is exceeded. The newest message is always retained even
// if it alone exceeds the budget, so a long question cannot wedge the
// session.
//
// Memory is safe for concurrent use, but callers that need a whole
// turn (user + assistant) to stay ordered must serialize at a higher
// level; see session.Session.
type Memory struct {
	mu         sync.Mutex
	tokenLimit int
	messages   []*ai.Message
}

// NewMemory creates an empty Memory bounded by tokenLimit.
func NewMemory(tokenLimit int) *Memory {
	return &Memory{tokenLimit: tokenLimit}
}

// AddUser appends a user turn.
func (m *Memory) AddUser(text string) {
	m.add(ai.NewUserMessage(ai.NewTextPart(text)))
}

// AddAssistant appends an assistant turn.
func (m *Memory) AddAssistant(text string) {
	m.add(ai.NewModelMessage(ai.NewTextPart(text)))
}

func (m *Memory) add(msg *ai.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	m.trimLocked()
}

// trimLocked drops oldest messages until the history fits the budget.
// Caller must hold mu.
func (m *Memory) trimLocked() {
	if m.tokenLimit <= 0 {
		return
	}
	for len(m.messages) > 1 && estimateMessagesTokens(m.messages) > m.tokenLimit {
		m.messages = m.messages[1:]
	}
}

// Messages returns a copy of the history for thread-safe reads.
func (m *Memory) Messages() []*ai.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*ai.Message, len(m.messages))
	copy(result, m.messages)
	return result
}

// Len returns the number of stored messages.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}
