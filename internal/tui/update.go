package tui

import (
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
)

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Input width accounts for the "> " prompt prefix
		m.input.SetWidth(msg.Width - 2)

		// Viewport takes all height not used by input, separators, and help
		viewportHeight := msg.Height - separatorLines - helpLines - promptLines
		if viewportHeight < minViewport {
			viewportHeight = minViewport
		}
		m.viewport.SetWidth(msg.Width)
		m.viewport.SetHeight(viewportHeight)

		m.markdown.SetWidth(msg.Width)
		m.rebuildViewportContent()
		m.viewport.GotoBottom()
		return m, nil

	case tea.MouseWheelMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.state == StateThinking {
			// The controller mutates the session from the exchange
			// goroutine; each tick re-reads it so the pending user
			// message and spinner frame stay current.
			m.rebuildViewportContent()
			m.viewport.GotoBottom()
		}
		return m, cmd

	case exchangeDoneMsg:
		m.state = StateInput
		if msg.err != nil && m.ctx.Err() != nil {
			// Shutting down; nothing left to render
			return m, tea.Quit
		}
		m.rebuildViewportContent()
		m.viewport.GotoBottom()
		return m, m.input.Focus()
	}

	// All other messages (cursor blink etc.) go to the textarea
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}
