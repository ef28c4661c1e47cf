// Package render formats command output for the terminal. All functions are
// pure: typed rows in, styled string out.
package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14")).
			PaddingRight(2)

	cellStyle = lipgloss.NewStyle().
			PaddingRight(2)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	labelStyle = lipgloss.NewStyle().
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 1)
)

// Table renders a titled table with uniform column widths.
func Table(title string, headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	var b strings.Builder
	if title != "" {
		b.WriteString(titleStyle.Render(title))
		b.WriteString("\n")
	}

	headerCells := make([]string, len(headers))
	for i, h := range headers {
		headerCells[i] = headerStyle.Width(widths[i] + 2).Render(h)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, headerCells...))
	b.WriteString("\n")

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			w := 0
			if i < len(widths) {
				w = widths[i]
			}
			cells[i] = cellStyle.Width(w + 2).Render(cell)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteString("\n")
	}
	return b.String()
}

// Panel renders a bordered box with a title and labeled fields followed by
// free-form body text.
func Panel(title string, fields [][2]string, body string) string {
	var b strings.Builder
	for _, f := range fields {
		b.WriteString(labelStyle.Render(f[0] + ": "))
		b.WriteString(f[1])
		b.WriteString("\n")
	}
	if body != "" {
		b.WriteString("\n")
		b.WriteString(body)
	}

	content := strings.TrimRight(b.String(), "\n")
	boxed := panelStyle.Render(content)
	if title == "" {
		return boxed
	}
	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), boxed)
}

// Muted renders secondary text (empty-result notices and the like).
func Muted(s string) string {
	return mutedStyle.Render(s)
}

// Truncate shortens s to max runes, appending an ellipsis when cut.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// ShortID abbreviates an opaque provider ID for table display.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}

// JoinLimited joins up to max items, marking the overflow.
func JoinLimited(items []string, max int) string {
	if len(items) <= max {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:max], ", ") + "..."
}
