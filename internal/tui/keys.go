package tui

import (
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
)

// doubleCtrlCWindow is how quickly ctrl+c must be pressed twice to quit.
const doubleCtrlCWindow = 2 * time.Second

// keyMap defines keyboard shortcuts displayed in the help bar.
type keyMap struct {
	Submit     key.Binding
	NewLine    key.Binding
	ToggleSQL  key.Binding
	History    key.Binding
	Quit       key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		NewLine: key.NewBinding(
			key.WithKeys("shift+enter"),
			key.WithHelp("shift+enter", "newline"),
		),
		ToggleSQL: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "show/hide SQL"),
		),
		History: key.NewBinding(
			key.WithKeys("up", "down"),
			key.WithHelp("↑/↓", "history"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit (press twice)"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll down"),
		),
	}
}

// handleKey processes keyboard input.
func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		// Require double ctrl+c within the window to avoid accidental exits
		now := time.Now()
		if now.Sub(m.lastCtrlC) < doubleCtrlCWindow {
			m.cleanup()
			return m, tea.Quit
		}
		m.lastCtrlC = now
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.PageUp()
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.PageDown()
		return m, nil

	case key.Matches(msg, m.keys.ToggleSQL):
		m.toggleLatestSQL()
		return m, nil

	case msg.String() == "up" && m.input.Value() == "":
		return m, m.navigateHistory(-1)

	case msg.String() == "down" && m.input.Value() == "":
		return m, m.navigateHistory(1)

	case key.Matches(msg, m.keys.Submit):
		return m.handleSubmit()
	}

	// All other keys go to the textarea
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleSubmit submits the current input as a chat exchange, or dispatches
// a slash command.
func (m *Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	if strings.HasPrefix(text, "/") {
		return m.handleSlashCommand(text)
	}

	// One exchange at a time. The controller enforces this too; the state
	// check just keeps the input from being consumed while waiting.
	if m.state == StateThinking {
		return m, nil
	}

	m.addToHistory(text)
	m.input.Reset()
	m.state = StateThinking
	m.rebuildViewportContent()
	m.viewport.GotoBottom()

	return m, tea.Batch(
		m.submitExchange(text),
		m.spinner.Tick,
	)
}

// handleSlashCommand dispatches /-prefixed commands.
func (m *Model) handleSlashCommand(text string) (tea.Model, tea.Cmd) {
	m.input.Reset()

	switch text {
	case "/quit", "/exit":
		m.cleanup()
		return m, tea.Quit

	case "/sql":
		m.toggleLatestSQL()
		return m, nil

	case "/help":
		m.viewport.SetContent(m.styles.RenderHelp())
		m.viewport.GotoTop()
		return m, nil

	default:
		m.session.SetErr("Unknown command: " + text + " (try /help)")
		m.rebuildViewportContent()
		m.viewport.GotoBottom()
		return m, nil
	}
}

// addToHistory appends input to history, dropping the oldest entry at capacity.
func (m *Model) addToHistory(text string) {
	m.history = append(m.history, text)
	if len(m.history) > maxHistory {
		m.history = m.history[1:]
	}
	m.historyIdx = len(m.history)
}

// navigateHistory moves through input history. direction is -1 (older) or
// +1 (newer). Past the newest entry the input is cleared.
func (m *Model) navigateHistory(direction int) tea.Cmd {
	if len(m.history) == 0 {
		return nil
	}

	idx := m.historyIdx + direction
	if idx < 0 {
		idx = 0
	}
	if idx >= len(m.history) {
		m.historyIdx = len(m.history)
		m.input.Reset()
		return nil
	}

	m.historyIdx = idx
	m.input.SetValue(m.history[idx])
	m.input.CursorEnd()
	return nil
}

// cleanup cancels the model context before exit.
func (m *Model) cleanup() {
	if m.ctxCancel != nil {
		m.ctxCancel()
	}
}
