package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// markdownRenderer wraps glamour with graceful degradation: if the renderer
// cannot be built or a render fails, the raw text is returned unchanged.
type markdownRenderer struct {
	renderer *glamour.TermRenderer
	width    int
}

func newMarkdownRenderer(width int) *markdownRenderer {
	m := &markdownRenderer{width: width}
	m.rebuild()
	return m
}

func (m *markdownRenderer) rebuild() {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(m.width),
	)
	if err != nil {
		m.renderer = nil
		return
	}
	m.renderer = r
}

// SetWidth rebuilds the renderer for a new wrap width.
func (m *markdownRenderer) SetWidth(width int) {
	if width == m.width || width <= 0 {
		return
	}
	m.width = width
	m.rebuild()
}

// Render renders markdown to styled terminal text, falling back to the
// input on any failure.
func (m *markdownRenderer) Render(text string) string {
	if m == nil || m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	// Glamour pads output with leading/trailing blank lines that fight
	// the chat layout
	return strings.Trim(out, "\n")
}
