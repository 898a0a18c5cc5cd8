// Package tui provides the Bubble Tea terminal interface for Zolve.
//
// The TUI is a thin client: every turn goes through the HTTP API via
// internal/client. Chat history shown on screen is a display-only
// mirror; the authoritative conversation memory lives server-side.
// Multiple chats can be open at once — switching between them is purely
// local and never touches the server.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/zolve/advisor/internal/client"
)

// State represents TUI state machine.
type State int

// TUI state machine states.
const (
	StateInput    State = iota // Awaiting user input
	StateThinking              // Waiting for the server to answer
	StateHalted                // Server unreachable, input disabled
)

// Memory bounds to prevent unbounded growth.
const (
	maxMessages = 100 // Maximum messages stored per chat
	maxHistory  = 100 // Maximum command history entries
)

// requestTimeout bounds a single chat request. The server's own ask
// timeout is shorter, so this mostly covers slow networks.
const requestTimeout = 2 * time.Minute

// Message role constants for consistent display.
const (
	roleUser      = "user"
	roleAssistant = "assistant"
	roleSystem    = "system"
	roleError     = "error"
)

// greeting seeds every new chat's display history. The server does not
// send it; the assistant's opening line is a client-side nicety.
const greeting = "Hello! I'm Zolve, your personal financial guide. How can I help you today?"

// Layout constants for viewport height calculation.
const (
	separatorLines = 2 // Two separator lines (above and below input)
	helpLines      = 1 // Help bar height
	promptLines    = 1 // Prompt prefix line
	minViewport    = 3 // Minimum viewport height
)

// Message represents a conversation message for display.
type Message struct {
	Role string // "user", "assistant", "system", "error"
	Text string
}

// Model is the Bubble Tea model for the Zolve terminal interface.
type Model struct {
	// Input (textarea for multi-line support, Shift+Enter for newline)
	input      textarea.Model
	history    []string
	historyIdx int

	// State
	state     State
	lastCtrlC time.Time

	// Open chats: display-only mirrors keyed by server chat ID.
	// order preserves creation order for Ctrl+O cycling.
	chats   map[string][]Message
	order   []string
	current string // active chat ID, "" until the first chat exists

	// Output
	spinner spinner.Model
	viewBuf strings.Builder // Reusable buffer for View() to reduce allocations

	// Scrollable message viewport
	viewport viewport.Model

	// Help bar for keyboard shortcuts
	help help.Model
	keys keyMap

	// In-flight request cancellation (nil when idle)
	reqCancel context.CancelFunc

	// Dependencies (direct, no interface)
	api       *client.Client
	ctx       context.Context
	ctxCancel context.CancelFunc // For canceling all operations on exit

	// Dimensions
	width  int
	height int

	// Styles
	styles Styles

	// Markdown rendering (nil = graceful degradation to plain text)
	markdown *markdownRenderer
}

// addMessage appends a message to the current chat and enforces the
// maxMessages bound.
func (m *Model) addMessage(msg Message) {
	if m.current == "" {
		return
	}
	msgs := append(m.chats[m.current], msg)
	if len(msgs) > maxMessages {
		msgs = msgs[len(msgs)-maxMessages:]
	}
	m.chats[m.current] = msgs
}

// New creates a Model for chat interaction.
// Returns error if required dependencies are nil.
//
// IMPORTANT: ctx MUST be the same context passed to tea.WithContext()
// to ensure consistent cancellation behavior.
func New(ctx context.Context, api *client.Client) (*Model, error) {
	if api == nil {
		return nil, errors.New("tui.New: client is required")
	}
	if ctx == nil {
		return nil, errors.New("tui.New: ctx is required")
	}

	// Create cancellable context for cleanup on exit
	ctx, cancel := context.WithCancel(ctx)

	// Create textarea for multi-line input
	// Enter submits, Shift+Enter adds newline (default behavior)
	ta := textarea.New()
	ta.Placeholder = "Ask about your finances..."
	ta.SetHeight(1)  // Single line by default
	ta.SetWidth(120) // Wide enough for long text, updated on WindowSizeMsg
	ta.MaxWidth = 0  // No max width limit
	ta.ShowLineNumbers = false

	// Clean, minimal styling: no background colors, just simple text
	cleanStyle := textarea.StyleState{
		Base:        lipgloss.NewStyle(),
		Text:        lipgloss.NewStyle(),
		Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color("240")), // Gray placeholder
		Prompt:      lipgloss.NewStyle(),
	}
	ta.SetStyles(textarea.Styles{
		Focused: cleanStyle,
		Blurred: cleanStyle,
	})
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	// Create viewport for scrollable message history.
	// Disable built-in keyboard handling — we route keys explicitly
	// in handleKey to avoid conflicts with textarea/history navigation.
	vp := viewport.New(viewport.WithWidth(80), viewport.WithHeight(20))
	vp.MouseWheelEnabled = true
	vp.SoftWrap = true
	vp.KeyMap = viewport.KeyMap{} // Disable default key bindings

	h := help.New()

	return &Model{
		api:       api,
		ctx:       ctx,
		ctxCancel: cancel,
		input:     ta,
		spinner:   sp,
		viewport:  vp,
		help:      h,
		keys:      newKeyMap(),
		styles:    DefaultStyles(),
		chats:     make(map[string][]Message),
		history:   make([]string, 0, maxHistory),
		markdown:  newMarkdownRenderer(80),
		width:     80, // Default width until WindowSizeMsg arrives
		state:     StateThinking,
	}, nil
}

// Init implements tea.Model. The first chat session is created before
// any input is accepted.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.input.Focus(),
		m.startChat(),
	)
}
