package tui

import (
	tea "charm.land/bubbletea/v2"
)

// exchangeDoneMsg signals that a chat exchange finished. The session already
// holds the outcome (assistant reply or error); err only carries transport
// problems the controller could not record, such as context cancellation.
type exchangeDoneMsg struct {
	err error
}

// submitExchange runs one chat exchange through the controller. The
// controller appends the pending user message, talks to the relay, and
// settles the session; the TUI re-reads the session when the msg arrives.
func (m *Model) submitExchange(text string) tea.Cmd {
	return func() tea.Msg {
		err := m.controller.Submit(m.ctx, text)
		return exchangeDoneMsg{err: err}
	}
}
