package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// markdownRenderer styles the advisor's answers for the terminal. The
// glamour renderer is recreated only when the viewport width changes.
type markdownRenderer struct {
	renderer *glamour.TermRenderer
	width    int
}

// newMarkdownRenderer builds a renderer for the given width. A nil
// renderer is valid: answers then display as plain text.
func newMarkdownRenderer(width int) *markdownRenderer {
	if width <= 0 {
		width = 80
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Detect light/dark terminal
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}

	return &markdownRenderer{renderer: r, width: width}
}

// UpdateWidth rewraps to the new width. Reports whether the renderer
// was rebuilt; an unchanged width or a build failure leaves it as is.
func (m *markdownRenderer) UpdateWidth(width int) bool {
	if m == nil || width <= 0 || m.width == width {
		return false
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return false
	}

	m.renderer = r
	m.width = width
	return true
}

// Render styles one answer. Any rendering failure falls back to the
// raw text rather than losing the answer.
func (m *markdownRenderer) Render(markdown string) string {
	if m == nil || m.renderer == nil {
		return markdown
	}

	rendered, err := m.renderer.Render(markdown)
	if err != nil {
		return markdown
	}

	// glamour appends a trailing newline
	return strings.TrimSuffix(rendered, "\n")
}
