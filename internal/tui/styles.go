package tui

import (
	"strings"

	"charm.land/lipgloss/v2"
)

// Styles holds all lipgloss styles for the TUI.
type Styles struct {
	User      lipgloss.Style
	Assistant lipgloss.Style
	System    lipgloss.Style
	Error     lipgloss.Style
	Prompt    lipgloss.Style
	Separator lipgloss.Style
	SQL       lipgloss.Style
	TableHead lipgloss.Style
	TableCell lipgloss.Style
	TableNote lipgloss.Style
	Banner    lipgloss.Style
	Tips      lipgloss.Style
}

// DefaultStyles returns the default color scheme.
func DefaultStyles() Styles {
	return Styles{
		User:      lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),  // Blue
		Assistant: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),  // Green
		System:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),            // Gray
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),              // Red
		Prompt:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),  // Blue
		Separator: lipgloss.NewStyle().Foreground(lipgloss.Color("238")),            // Dark gray
		SQL: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")). // Yellow
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		TableHead: lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true), // Cyan
		TableCell: lipgloss.NewStyle(),
		TableNote: lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true),
		Banner:    lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true), // Magenta
		Tips:      lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// banner is the startup ASCII art.
var banner = []string{
	" ██████╗ ███████╗███╗   ██╗██╗███████╗",
	"██╔════╝ ██╔════╝████╗  ██║██║██╔════╝",
	"██║  ███╗█████╗  ██╔██╗ ██║██║█████╗  ",
	"██║   ██║██╔══╝  ██║╚██╗██║██║██╔══╝  ",
	"╚██████╔╝███████╗██║ ╚████║██║███████╗",
	" ╚═════╝ ╚══════╝╚═╝  ╚═══╝╚═╝╚══════╝",
}

// RenderBanner returns the styled startup banner.
func (s Styles) RenderBanner() string {
	return s.Banner.Render(strings.Join(banner, "\n")) + "\n"
}

// RenderWelcomeTips returns the short usage hints shown under the banner.
func (s Styles) RenderWelcomeTips() string {
	tips := []string{
		"Ask questions about your data in plain language.",
		"ctrl+s reveals the SQL behind an answer. /help lists commands.",
	}
	return s.Tips.Render(strings.Join(tips, "\n")) + "\n"
}

// RenderHelp returns the /help screen.
func (s Styles) RenderHelp() string {
	var b strings.Builder
	b.WriteString(s.Assistant.Render("Commands"))
	b.WriteString("\n\n")
	for _, line := range []string{
		"/help   show this help",
		"/sql    show or hide the SQL behind the latest answer",
		"/quit   exit (also /exit, or ctrl+c twice)",
	} {
		b.WriteString("  " + line + "\n")
	}
	b.WriteString("\n")
	b.WriteString(s.Assistant.Render("Keys"))
	b.WriteString("\n\n")
	for _, line := range []string{
		"enter        send message",
		"shift+enter  insert newline",
		"ctrl+s       show/hide SQL",
		"↑/↓          input history (when input is empty)",
		"pgup/pgdn    scroll messages",
	} {
		b.WriteString("  " + line + "\n")
	}
	return b.String()
}
