package tui

import (
	"context"
	"errors"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"

	"github.com/zolve/advisor/internal/client"
)

// Update implements tea.Model.
//
//nolint:gocognit,gocyclo // Bubble Tea Update requires type switch on all message types
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Calculate viewport height: total - input - separators - help
		inputHeight := m.input.Height() + promptLines
		fixedHeight := separatorLines + inputHeight + helpLines
		vpHeight := max(msg.Height-fixedHeight, minViewport)

		m.viewport.SetWidth(msg.Width)
		m.viewport.SetHeight(vpHeight)
		m.input.SetWidth(msg.Width - 4) // Room for "> " prompt
		m.help.SetWidth(msg.Width)
		m.markdown.UpdateWidth(msg.Width)

		// Rebuild viewport content with new dimensions
		m.rebuildViewportContent()
		return m, nil

	case tea.MouseWheelMsg:
		// Forward mouse wheel to viewport for scrolling
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		// Rebuild viewport to update spinner animation while waiting
		if m.state == StateThinking {
			m.rebuildViewportContent()
		}
		return m, cmd

	case chatCreatedMsg:
		m.order = append(m.order, msg.chatID)
		m.current = msg.chatID
		m.chats[msg.chatID] = []Message{{Role: roleAssistant, Text: greeting}}
		m.state = StateInput
		m.rebuildViewportContent()
		m.viewport.GotoBottom()
		return m, m.input.Focus()

	case answerMsg:
		m.cancelRequest()

		// Route to the owning chat: the user may have switched away
		// with Ctrl+O while waiting.
		msgs := append(m.chats[msg.chatID], Message{Role: roleAssistant, Text: msg.text})
		if len(msgs) > maxMessages {
			msgs = msgs[len(msgs)-maxMessages:]
		}
		m.chats[msg.chatID] = msgs

		m.state = StateInput
		m.rebuildViewportContent()
		m.viewport.GotoBottom()
		return m, m.input.Focus()

	case requestErrorMsg:
		m.cancelRequest()
		return m.handleRequestError(msg.err)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleRequestError classifies a failed API call. An unreachable
// server halts the TUI: the session state behind any open chat lives in
// the server process, so reconnecting cannot resume the conversation.
func (m *Model) handleRequestError(err error) (tea.Model, tea.Cmd) {
	var apiErr *client.APIError

	switch {
	// Cancel and timeout are checked before unreachable: both mean the
	// request was abandoned on our side, not that the server is gone.
	case errors.Is(err, context.Canceled):
		m.state = StateInput
		m.addMessage(Message{Role: roleSystem, Text: "(Canceled)"})
	case errors.Is(err, context.DeadlineExceeded):
		m.state = StateInput
		m.addMessage(Message{Role: roleError, Text: "Request timed out. Try again with a simpler question."})
	case errors.Is(err, client.ErrUnreachable):
		m.state = StateHalted
		m.addMessage(Message{Role: roleError, Text: "Cannot reach the advisor server. Restart it and reopen the chat. Conversations do not survive a server restart."})
	case errors.As(err, &apiErr):
		m.state = StateInput
		m.addMessage(Message{Role: roleError, Text: apiErr.Message})
	default:
		m.state = StateInput
		m.addMessage(Message{Role: roleError, Text: err.Error()})
	}

	m.rebuildViewportContent()
	m.viewport.GotoBottom()
	if m.state == StateHalted {
		return m, nil
	}
	return m, m.input.Focus()
}
