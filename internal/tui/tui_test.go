package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/zolve/advisor/internal/client"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	m, err := New(context.Background(), client.New("http://127.0.0.1:0"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

// apply runs one Update cycle and returns the model.
func apply(t *testing.T, m *Model, msg any) *Model {
	t.Helper()
	updated, _ := m.Update(msg)
	model, ok := updated.(*Model)
	if !ok {
		t.Fatalf("Update returned %T, want *Model", updated)
	}
	return model
}

func TestNew_RequiresDependencies(t *testing.T) {
	if _, err := New(context.Background(), nil); err == nil {
		t.Error("New with nil client succeeded")
	}
	if _, err := New(nil, client.New("http://x")); err == nil { //nolint:staticcheck // nil ctx is the case under test
		t.Error("New with nil context succeeded")
	}
}

func TestUpdate_ChatCreatedSeedsGreeting(t *testing.T) {
	m := newTestModel(t)

	m = apply(t, m, chatCreatedMsg{chatID: "chat-1"})

	if m.state != StateInput {
		t.Errorf("state = %d, want StateInput", m.state)
	}
	if m.current != "chat-1" {
		t.Errorf("current = %q, want chat-1", m.current)
	}
	msgs := m.chats["chat-1"]
	if len(msgs) != 1 || msgs[0].Role != roleAssistant {
		t.Fatalf("new chat messages = %+v, want one assistant greeting", msgs)
	}
	if !strings.Contains(msgs[0].Text, "Zolve") {
		t.Errorf("greeting = %q, want the assistant to introduce itself", msgs[0].Text)
	}
}

func TestUpdate_AnswerRoutesToOwningChat(t *testing.T) {
	m := newTestModel(t)
	m = apply(t, m, chatCreatedMsg{chatID: "chat-1"})
	m = apply(t, m, chatCreatedMsg{chatID: "chat-2"})

	// Answer for chat-1 arrives while chat-2 is active.
	m = apply(t, m, answerMsg{chatID: "chat-1", text: "stick to your budget"})

	if m.current != "chat-2" {
		t.Errorf("current = %q, want chat-2 (answer must not steal focus)", m.current)
	}
	last := m.chats["chat-1"][len(m.chats["chat-1"])-1]
	if last.Role != roleAssistant || last.Text != "stick to your budget" {
		t.Errorf("chat-1 last message = %+v", last)
	}
	if len(m.chats["chat-2"]) != 1 {
		t.Errorf("chat-2 has %d messages, want just its greeting", len(m.chats["chat-2"]))
	}
}

func TestUpdate_UnreachableHaltsInput(t *testing.T) {
	m := newTestModel(t)
	m = apply(t, m, chatCreatedMsg{chatID: "chat-1"})

	m = apply(t, m, requestErrorMsg{err: client.ErrUnreachable})

	if m.state != StateHalted {
		t.Fatalf("state = %d, want StateHalted", m.state)
	}
	last := m.chats["chat-1"][len(m.chats["chat-1"])-1]
	if last.Role != roleError {
		t.Errorf("last message role = %q, want error", last.Role)
	}
}

func TestUpdate_APIErrorKeepsInputAlive(t *testing.T) {
	m := newTestModel(t)
	m = apply(t, m, chatCreatedMsg{chatID: "chat-1"})

	m = apply(t, m, requestErrorMsg{err: &client.APIError{Status: 502, Message: "the model could not produce a response"}})

	if m.state != StateInput {
		t.Errorf("state = %d, want StateInput after a server-side error", m.state)
	}
	last := m.chats["chat-1"][len(m.chats["chat-1"])-1]
	if last.Role != roleError || !strings.Contains(last.Text, "could not produce") {
		t.Errorf("last message = %+v", last)
	}
}

func TestUpdate_CanceledTurnsIntoSystemNote(t *testing.T) {
	m := newTestModel(t)
	m = apply(t, m, chatCreatedMsg{chatID: "chat-1"})

	m = apply(t, m, requestErrorMsg{err: context.Canceled})

	if m.state != StateInput {
		t.Errorf("state = %d, want StateInput", m.state)
	}
	last := m.chats["chat-1"][len(m.chats["chat-1"])-1]
	if last.Role != roleSystem {
		t.Errorf("last message role = %q, want system", last.Role)
	}
}

func TestUpdate_CanceledRequestRestoresInput(t *testing.T) {
	m := newTestModel(t)
	m = apply(t, m, chatCreatedMsg{chatID: "chat-1"})
	m.state = StateThinking
	m.reqCancel = func() {}

	// The client wraps the context error on an aborted request; the
	// wrapped form must still land in the cancel branch, not halt.
	err := fmt.Errorf("request aborted: %w", context.Canceled)
	m = apply(t, m, requestErrorMsg{err: err})

	if m.state != StateInput {
		t.Fatalf("state = %d, want StateInput after cancel", m.state)
	}
	last := m.chats["chat-1"][len(m.chats["chat-1"])-1]
	if last.Role != roleSystem {
		t.Errorf("last message role = %q, want system", last.Role)
	}
}

func TestUpdate_TimedOutRequestRestoresInput(t *testing.T) {
	m := newTestModel(t)
	m = apply(t, m, chatCreatedMsg{chatID: "chat-1"})
	m.state = StateThinking

	err := fmt.Errorf("request aborted: %w", context.DeadlineExceeded)
	m = apply(t, m, requestErrorMsg{err: err})

	if m.state != StateInput {
		t.Fatalf("state = %d, want StateInput after timeout", m.state)
	}
	last := m.chats["chat-1"][len(m.chats["chat-1"])-1]
	if last.Role != roleError || !strings.Contains(last.Text, "timed out") {
		t.Errorf("last message = %+v", last)
	}
}

func TestHandleRequestError_OnlyUnreachableHalts(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want State
	}{
		{"unreachable", fmt.Errorf("%w: connection refused", client.ErrUnreachable), StateHalted},
		{"canceled", context.Canceled, StateInput},
		{"deadline", context.DeadlineExceeded, StateInput},
		{"api error", &client.APIError{Status: 502, Message: "generation failed"}, StateInput},
		{"plain", errors.New("boom"), StateInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t)
			m = apply(t, m, chatCreatedMsg{chatID: "chat-1"})

			updated, _ := m.handleRequestError(tt.err)
			m = updated.(*Model)
			if m.state != tt.want {
				t.Errorf("state = %d, want %d", m.state, tt.want)
			}
		})
	}
}

func TestHandleNextChat_Cycles(t *testing.T) {
	m := newTestModel(t)
	m = apply(t, m, chatCreatedMsg{chatID: "a"})
	m = apply(t, m, chatCreatedMsg{chatID: "b"})
	m = apply(t, m, chatCreatedMsg{chatID: "c"})

	want := []string{"a", "b", "c", "a"}
	for _, next := range want {
		updated, _ := m.handleNextChat()
		m = updated.(*Model)
		if m.current != next {
			t.Fatalf("current = %q, want %q", m.current, next)
		}
	}
}

func TestHandleNextChat_SingleChatNoop(t *testing.T) {
	m := newTestModel(t)
	m = apply(t, m, chatCreatedMsg{chatID: "only"})

	updated, _ := m.handleNextChat()
	m = updated.(*Model)
	if m.current != "only" {
		t.Errorf("current = %q, want only", m.current)
	}
}

func TestAddMessage_Bounded(t *testing.T) {
	m := newTestModel(t)
	m = apply(t, m, chatCreatedMsg{chatID: "chat-1"})

	for range maxMessages + 20 {
		m.addMessage(Message{Role: roleUser, Text: "overflow"})
	}
	if got := len(m.chats["chat-1"]); got != maxMessages {
		t.Errorf("chat holds %d messages, want cap %d", got, maxMessages)
	}
}

func TestNavigateHistory(t *testing.T) {
	m := newTestModel(t)
	m = apply(t, m, chatCreatedMsg{chatID: "chat-1"})
	m.history = append(m.history, "first", "second")
	m.historyIdx = len(m.history)

	updated, _ := m.navigateHistory(-1)
	m = updated.(*Model)
	if got := m.input.Value(); got != "second" {
		t.Errorf("input = %q, want second", got)
	}

	updated, _ = m.navigateHistory(-1)
	m = updated.(*Model)
	if got := m.input.Value(); got != "first" {
		t.Errorf("input = %q, want first", got)
	}

	updated, _ = m.navigateHistory(1)
	m = updated.(*Model)
	if got := m.input.Value(); got != "second" {
		t.Errorf("input = %q, want second", got)
	}
}

func TestHandleSlashCommand_Unknown(t *testing.T) {
	m := newTestModel(t)
	m = apply(t, m, chatCreatedMsg{chatID: "chat-1"})

	updated, _ := m.handleSlashCommand("/bogus")
	m = updated.(*Model)

	last := m.chats["chat-1"][len(m.chats["chat-1"])-1]
	if last.Role != roleError || !strings.Contains(last.Text, "/bogus") {
		t.Errorf("last message = %+v", last)
	}
}

func TestHandleSlashCommand_ClearEmptiesActiveChatOnly(t *testing.T) {
	m := newTestModel(t)
	m = apply(t, m, chatCreatedMsg{chatID: "a"})
	m = apply(t, m, chatCreatedMsg{chatID: "b"})

	updated, _ := m.handleSlashCommand(cmdClear)
	m = updated.(*Model)

	if len(m.chats["b"]) != 0 {
		t.Errorf("active chat not cleared: %d messages", len(m.chats["b"]))
	}
	if len(m.chats["a"]) == 0 {
		t.Error("inactive chat was cleared too")
	}
}

func TestHandleRequestError_Unwrapped(t *testing.T) {
	m := newTestModel(t)
	m = apply(t, m, chatCreatedMsg{chatID: "chat-1"})

	updated, _ := m.handleRequestError(errors.New("boom"))
	m = updated.(*Model)

	if m.state != StateInput {
		t.Errorf("state = %d, want StateInput", m.state)
	}
}
