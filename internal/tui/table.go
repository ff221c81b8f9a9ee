package tui

import (
	"fmt"
	"strings"

	"github.com/geniechat/geniechat/internal/session"
)

// maxCellWidth caps column widths so one wide value cannot blow up the layout.
const maxCellWidth = 32

// renderTable renders query results as a plain-text table showing at most
// maxRows rows. When the result holds more, a note with the remaining count
// follows the table; res.RowCount is the authoritative total.
func renderTable(styles Styles, res *session.QueryResults, maxRows int) string {
	if res == nil || len(res.Columns) == 0 {
		return ""
	}

	rows := res.Data
	truncated := 0
	if len(rows) > maxRows {
		// RowCount is the upstream total, which may disagree with the rows
		// actually delivered. Never report fewer hidden rows than were cut.
		truncated = res.RowCount - maxRows
		if hidden := len(rows) - maxRows; truncated < hidden {
			truncated = hidden
		}
		rows = rows[:maxRows]
	}

	widths := columnWidths(res.Columns, rows)

	var b strings.Builder

	// Header
	for i, col := range res.Columns {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(styles.TableHead.Render(pad(col, widths[i])))
	}
	b.WriteString("\n")

	// Header rule
	for i := range res.Columns {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(styles.Separator.Render(strings.Repeat("─", widths[i])))
	}
	b.WriteString("\n")

	// Rows
	for _, row := range rows {
		for i := range res.Columns {
			if i > 0 {
				b.WriteString("  ")
			}
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			b.WriteString(styles.TableCell.Render(pad(cell, widths[i])))
		}
		b.WriteString("\n")
	}

	if truncated > 0 {
		b.WriteString(styles.TableNote.Render(fmt.Sprintf("… %d more rows", truncated)))
		b.WriteString("\n")
	}

	return b.String()
}

// columnWidths returns the display width per column over header and rows,
// capped at maxCellWidth.
func columnWidths(columns []string, rows [][]string) []int {
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = len([]rune(col))
	}
	for _, row := range rows {
		for i := range columns {
			if i >= len(row) {
				continue
			}
			if w := len([]rune(row[i])); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i := range widths {
		if widths[i] > maxCellWidth {
			widths[i] = maxCellWidth
		}
	}
	return widths
}

// pad right-pads (or truncates with an ellipsis) a cell to width runes.
func pad(s string, width int) string {
	runes := []rune(s)
	if len(runes) > width {
		if width <= 1 {
			return string(runes[:width])
		}
		return string(runes[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-len(runes))
}
