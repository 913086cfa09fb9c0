package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// TableColumn defines a table column with name and width.
type TableColumn struct {
	Title string
	Width int
}

// NewTable creates a Bubbles table with the shared styling. Focused
// tables respond to up/down; the CLI renders them unfocused.
func NewTable(columns []TableColumn, rows []table.Row, focused bool, height int) table.Model {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{Title: c.Title, Width: c.Width}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(focused),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(string(ColorMuted))).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color(string(ColorPrimary)))
	s.Cell = s.Cell.
		Foreground(lipgloss.Color(string(ColorPrimary)))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color(string(ColorPrimary))).
		Background(lipgloss.Color(string(ColorMuted))).
		Bold(false)

	t.SetStyles(s)
	return t
}

// KeyTableRow is one key in the list output.
type KeyTableRow struct {
	Loaded      string // agent status symbol
	Name        string
	Type        string
	Bits        string
	Fingerprint string
	Hosts       string
}

// RenderKeyTable renders the key listing for non-interactive CLI output.
func RenderKeyTable(rows []KeyTableRow) string {
	if len(rows) == 0 {
		return "No keys found"
	}

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(string(ColorPrimary))).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(lipgloss.Color(string(ColorMuted)))
	loadedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(string(ColorSuccess)))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(string(ColorMuted)))

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("  %-20s %-8s %-6s %-47s %s",
		"NAME", "TYPE", "BITS", "FINGERPRINT", "HOSTS")))
	b.WriteString("\n")

	for _, row := range rows {
		status := row.Loaded
		if status == SymbolLoaded {
			status = loadedStyle.Render(status)
		} else {
			status = mutedStyle.Render(status)
		}
		b.WriteString(fmt.Sprintf("%s %-20s %-8s %-6s %s %s\n",
			status, row.Name, row.Type, row.Bits,
			mutedStyle.Render(fmt.Sprintf("%-47s", row.Fingerprint)), row.Hosts))
	}
	return b.String()
}
