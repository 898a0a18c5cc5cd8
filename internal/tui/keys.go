package tui

import (
	"context"
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
)

// Slash command constants.
const (
	cmdHelp  = "/help"
	cmdClear = "/clear"
	cmdNew   = "/new"
	cmdExit  = "/exit"
	cmdQuit  = "/quit"
)

// keyMap holds key bindings for help bar display.
type keyMap struct {
	Submit     key.Binding
	NewLine    key.Binding
	History    key.Binding
	NewChat    key.Binding
	NextChat   key.Binding
	Cancel     key.Binding
	Quit       key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	EscCancel  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		NewLine:    key.NewBinding(key.WithKeys("shift+enter"), key.WithHelp("s+enter", "newline")),
		History:    key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "history")),
		NewChat:    key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new chat")),
		NextChat:   key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "next chat")),
		Cancel:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "cancel")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "exit")),
		ScrollUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		ScrollDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		EscCancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

//nolint:gocyclo // Keyboard handler requires branching for all key combinations
func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	k := msg.Key()

	// Check for Ctrl modifier
	if k.Mod&tea.ModCtrl != 0 {
		switch k.Code {
		case 'c':
			return m.handleCtrlC()
		case 'd':
			cmd := m.cleanup()
			return m, cmd
		case 'n':
			return m.handleNewChat()
		case 'o':
			return m.handleNextChat()
		}
	}

	// Check special keys
	switch k.Code {
	case tea.KeyEnter:
		if m.state == StateInput {
			// Enter without Shift = submit
			// Shift+Enter = newline (pass through to textarea)
			if k.Mod&tea.ModShift == 0 {
				return m.handleSubmit()
			}
		}

	case tea.KeyUp:
		// Up at first line navigates history, otherwise pass to textarea
		if m.state == StateInput && m.input.Line() == 0 {
			return m.navigateHistory(-1)
		}

	case tea.KeyDown:
		// Down at last line navigates history, otherwise pass to textarea
		if m.state == StateInput && m.input.Line() == m.input.LineCount()-1 {
			return m.navigateHistory(1)
		}

	case tea.KeyEscape:
		if m.state == StateThinking {
			m.cancelRequest()
			return m, nil
		}

	case tea.KeyPgUp:
		m.viewport.PageUp()
		return m, nil

	case tea.KeyPgDown:
		m.viewport.PageDown()
		return m, nil
	}

	if m.state == StateHalted {
		// Input is dead once the server is unreachable.
		return m, nil
	}

	// Pass keys to textarea for typing — users can prepare the next
	// message while waiting for an answer.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleCtrlC() (tea.Model, tea.Cmd) {
	now := time.Now()

	// Double Ctrl+C within 1 second = quit
	if now.Sub(m.lastCtrlC) < time.Second {
		cmd := m.cleanup()
		return m, cmd
	}
	m.lastCtrlC = now

	switch m.state {
	case StateInput:
		m.input.Reset()
		return m, nil

	case StateThinking:
		m.cancelRequest()
		return m, nil

	case StateHalted:
		cmd := m.cleanup()
		return m, cmd
	}

	return m, nil
}

func (m *Model) handleSubmit() (tea.Model, tea.Cmd) {
	query := strings.TrimSpace(m.input.Value())
	if query == "" {
		return m, nil
	}

	// Handle slash commands
	if strings.HasPrefix(query, "/") {
		return m.handleSlashCommand(query)
	}

	if m.current == "" {
		return m, nil
	}

	// Add to history (enforce maxHistory cap)
	m.history = append(m.history, query)
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
	m.historyIdx = len(m.history)

	m.addMessage(Message{Role: roleUser, Text: query})
	m.input.Reset()
	m.state = StateThinking
	m.rebuildViewportContent()
	m.viewport.GotoBottom()

	reqCtx, cancel := context.WithTimeout(m.ctx, requestTimeout)
	m.reqCancel = cancel

	return m, tea.Batch(
		m.spinner.Tick,
		m.sendMessage(reqCtx, m.current, query),
	)
}

// handleNewChat opens a fresh server-side session. The current chat
// stays open and reachable via Ctrl+O.
func (m *Model) handleNewChat() (tea.Model, tea.Cmd) {
	if m.state != StateInput {
		return m, nil
	}
	m.state = StateThinking
	m.rebuildViewportContent()
	return m, tea.Batch(m.spinner.Tick, m.startChat())
}

// handleNextChat cycles to the next open chat. Purely local.
func (m *Model) handleNextChat() (tea.Model, tea.Cmd) {
	if m.state != StateInput || len(m.order) < 2 {
		return m, nil
	}
	for i, id := range m.order {
		if id == m.current {
			m.current = m.order[(i+1)%len(m.order)]
			break
		}
	}
	m.rebuildViewportContent()
	m.viewport.GotoBottom()
	return m, nil
}

func (m *Model) handleSlashCommand(cmd string) (tea.Model, tea.Cmd) {
	switch cmd {
	case cmdHelp:
		m.addMessage(Message{
			Role: roleSystem,
			Text: "Commands: " + cmdHelp + ", " + cmdClear + ", " + cmdNew + ", " + cmdExit + "\nShortcuts:\n  Enter: send message\n  Shift+Enter: new line\n  Ctrl+N: new chat\n  Ctrl+O: next chat\n  Ctrl+C: cancel/clear\n  Ctrl+D: exit\n  Up/Down: history\n  PgUp/PgDn: scroll",
		})
	case cmdClear:
		if m.current != "" {
			m.chats[m.current] = nil
		}
	case cmdNew:
		m.input.Reset()
		return m.handleNewChat()
	case cmdExit, cmdQuit:
		cleanupCmd := m.cleanup()
		return m, cleanupCmd
	default:
		m.addMessage(Message{
			Role: roleError,
			Text: "Unknown command: " + cmd,
		})
	}
	m.input.Reset()
	m.rebuildViewportContent()
	m.viewport.GotoBottom()
	return m, nil
}

func (m *Model) navigateHistory(delta int) (tea.Model, tea.Cmd) {
	if len(m.history) == 0 {
		return m, nil
	}

	m.historyIdx += delta

	if m.historyIdx < 0 {
		m.historyIdx = 0
	}
	if m.historyIdx > len(m.history) {
		m.historyIdx = len(m.history)
	}

	if m.historyIdx == len(m.history) {
		m.input.SetValue("")
	} else {
		m.input.SetValue(m.history[m.historyIdx])
		// Move cursor to end of text
		m.input.CursorEnd()
	}

	return m, nil
}

func (m *Model) cancelRequest() {
	if m.reqCancel != nil {
		m.reqCancel()
		m.reqCancel = nil
	}
}

// cleanup cancels any in-flight request and returns the quit command.
func (m *Model) cleanup() tea.Cmd {
	// Cancel main context first — this covers in-flight requests too
	if m.ctxCancel != nil {
		m.ctxCancel()
		m.ctxCancel = nil
	}
	m.cancelRequest()

	return tea.Quit
}
