package tui

import (
	"context"

	tea "charm.land/bubbletea/v2"
)

// chatCreatedMsg reports a new server-side chat session.
type chatCreatedMsg struct {
	chatID string
}

// answerMsg carries the assistant's reply for one turn. chatID routes
// the reply to the right local chat even if the user switched away while
// waiting.
type answerMsg struct {
	chatID string
	text   string
}

// requestErrorMsg reports a failed API call.
type requestErrorMsg struct {
	err error
}

// startChat creates a new chat session on the server.
func (m *Model) startChat() tea.Cmd {
	ctx := m.ctx
	api := m.api
	return func() tea.Msg {
		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()

		id, err := api.NewChat(reqCtx)
		if err != nil {
			return requestErrorMsg{err: err}
		}
		return chatCreatedMsg{chatID: id}
	}
}

// sendMessage runs one turn against the active chat. The context comes
// from handleSubmit so Esc can cancel the in-flight request.
func (m *Model) sendMessage(ctx context.Context, chatID, query string) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		answer, err := api.Send(ctx, chatID, query)
		if err != nil {
			return requestErrorMsg{err: err}
		}
		return answerMsg{chatID: chatID, text: answer}
	}
}
