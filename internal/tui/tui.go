// Package tui provides the Bubble Tea terminal interface for the Genie chat client.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/geniechat/geniechat/internal/chat"
	"github.com/geniechat/geniechat/internal/session"
)

// State represents TUI state machine.
type State int

// TUI state machine states. Submission is disabled while an exchange is
// pending, which is what serializes exchanges.
const (
	StateInput    State = iota // Awaiting user input
	StateThinking              // Exchange in flight
)

// maxHistory bounds the input history to prevent unbounded growth.
const maxHistory = 100

// maxResultRows is the number of result rows rendered per table. The full
// row count stays visible in the "more rows" note.
const maxResultRows = 10

// Layout constants for viewport height calculation.
const (
	separatorLines = 2 // Two separator lines (above and below input)
	helpLines      = 1 // Help bar height
	promptLines    = 1 // Prompt prefix line
	minViewport    = 3 // Minimum viewport height
)

// Model is the Bubble Tea model for the Genie chat interface.
// The session store is the single source of truth for rendered messages;
// the model only holds presentation state on top of it.
type Model struct {
	// Input (textarea for multi-line support, Shift+Enter for newline)
	input      textarea.Model
	history    []string
	historyIdx int

	// State
	state     State
	lastCtrlC time.Time

	// Presentation
	spinner  spinner.Model
	viewBuf  strings.Builder // Reusable buffer for View() to reduce allocations
	revealed map[string]bool // Message IDs with their SQL revealed

	// Scrollable message viewport
	viewport viewport.Model

	// Help bar for keyboard shortcuts
	help help.Model
	keys keyMap

	// Dependencies (direct, no interface)
	session    *session.Session
	controller *chat.Controller
	ctx        context.Context
	ctxCancel  context.CancelFunc // For canceling all operations on exit

	// Dimensions
	width  int
	height int

	// Styles
	styles Styles

	// Markdown rendering (nil = graceful degradation to plain text)
	markdown *markdownRenderer
}

// New creates a Model for chat interaction.
// Returns error if required dependencies are nil.
//
// IMPORTANT: ctx MUST be the same context passed to tea.WithContext()
// to ensure consistent cancellation behavior.
func New(ctx context.Context, sess *session.Session, controller *chat.Controller) (*Model, error) {
	if ctx == nil {
		return nil, errors.New("tui.New: ctx is required")
	}
	if sess == nil {
		return nil, errors.New("tui.New: session is required")
	}
	if controller == nil {
		return nil, errors.New("tui.New: controller is required")
	}

	// Create cancellable context for cleanup on exit
	ctx, cancel := context.WithCancel(ctx)

	// Create textarea for multi-line input
	// Enter submits, Shift+Enter adds newline (default behavior)
	ta := textarea.New()
	ta.Placeholder = "Ask about your data..."
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

	m := &Model{
		session:    sess,
		controller: controller,
		ctx:        ctx,
		ctxCancel:  cancel,
		input:      ta,
		spinner:    sp,
		viewport:   vp,
		help:       h,
		keys:       newKeyMap(),
		styles:     DefaultStyles(),
		history:    make([]string, 0, maxHistory),
		revealed:   make(map[string]bool),
		markdown:   newMarkdownRenderer(80),
		width:      80, // Default width until WindowSizeMsg arrives
	}
	m.rebuildViewportContent()
	return m, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.input.Focus(), // Ensure textarea is focused on startup
	)
}

// View implements tea.Model.
// Uses AltScreen with viewport for scrollable message history.
func (m *Model) View() tea.View {
	m.viewBuf.Reset()

	// Viewport (scrollable message area)
	_, _ = m.viewBuf.WriteString(m.viewport.View())
	_, _ = m.viewBuf.WriteString("\n")

	// Separator line above input
	_, _ = m.viewBuf.WriteString(m.renderSeparator())
	_, _ = m.viewBuf.WriteString("\n")

	// Input prompt - users can type the next question while Genie thinks
	_, _ = m.viewBuf.WriteString(m.styles.Prompt.Render("> "))
	_, _ = m.viewBuf.WriteString(m.input.View())
	_, _ = m.viewBuf.WriteString("\n")

	// Separator line below input
	_, _ = m.viewBuf.WriteString(m.renderSeparator())
	_, _ = m.viewBuf.WriteString("\n")

	// Help bar (keyboard shortcuts)
	_, _ = m.viewBuf.WriteString(m.renderStatusBar())

	v := tea.NewView(m.viewBuf.String())
	v.AltScreen = true
	return v
}

// rebuildViewportContent reconstructs the viewport content from the session
// and presentation state. Called when the session, reveal flags, or state change.
func (m *Model) rebuildViewportContent() {
	var b strings.Builder

	// Banner (ASCII art) and tips
	_, _ = b.WriteString(m.styles.RenderBanner())
	_, _ = b.WriteString("\n")
	_, _ = b.WriteString(m.styles.RenderWelcomeTips())
	_, _ = b.WriteString("\n")

	for _, msg := range m.session.Messages() {
		m.renderMessage(&b, msg)
	}

	// Session-level error from the last failed exchange
	if errText := m.session.Err(); errText != "" {
		_, _ = b.WriteString(m.styles.Error.Render("Error: " + errText))
		_, _ = b.WriteString("\n\n")
	}

	// Thinking indicator
	if m.state == StateThinking {
		_, _ = b.WriteString(m.spinner.View())
		_, _ = b.WriteString(" Thinking...\n\n")
	}

	m.viewport.SetContent(b.String())
}

// renderMessage writes one message, including its optional SQL block and
// result table, to the viewport buffer.
func (m *Model) renderMessage(b *strings.Builder, msg session.Message) {
	switch msg.Sender {
	case session.SenderUser:
		_, _ = b.WriteString(m.styles.User.Render("You> "))
		_, _ = b.WriteString(msg.Content)
		switch msg.Status {
		case session.StatusSending:
			_, _ = b.WriteString(m.styles.System.Render("  (sending)"))
		case session.StatusError:
			_, _ = b.WriteString(m.styles.Error.Render("  ✗ not delivered"))
		}

	case session.SenderAssistant:
		_, _ = b.WriteString(m.styles.Assistant.Render("Genie> "))
		_, _ = b.WriteString(m.markdown.Render(msg.Content))

		if msg.Query != "" {
			_, _ = b.WriteString("\n")
			if m.revealed[msg.ID] {
				_, _ = b.WriteString(m.styles.SQL.Render(msg.Query))
			} else {
				_, _ = b.WriteString(m.styles.System.Render("[generated SQL hidden — ctrl+s to show]"))
			}
		}

		if msg.Results != nil {
			_, _ = b.WriteString("\n")
			_, _ = b.WriteString(renderTable(m.styles, msg.Results, maxResultRows))
		}
	}
	_, _ = b.WriteString("\n\n")
}

// toggleLatestSQL flips the reveal flag of the most recent query-bearing
// message. No-op when no message carries a query.
func (m *Model) toggleLatestSQL() {
	messages := m.session.Messages()
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Query != "" {
			m.revealed[messages[i].ID] = !m.revealed[messages[i].ID]
			m.rebuildViewportContent()
			return
		}
	}
}

// renderSeparator returns a horizontal line separator.
func (m *Model) renderSeparator() string {
	width := m.width
	if width <= 0 {
		width = 80 // Default width
	}
	return m.styles.Separator.Render(strings.Repeat("─", width))
}

// renderStatusBar returns state-appropriate keyboard shortcut help.
func (m *Model) renderStatusBar() string {
	var bindings []key.Binding
	switch m.state {
	case StateInput:
		bindings = []key.Binding{
			m.keys.Submit, m.keys.NewLine, m.keys.ToggleSQL,
			m.keys.History, m.keys.Quit, m.keys.ScrollUp,
		}
	case StateThinking:
		bindings = []key.Binding{
			m.keys.Quit, m.keys.ScrollUp, m.keys.ScrollDown,
		}
	}
	return m.help.ShortHelpView(bindings)
}
