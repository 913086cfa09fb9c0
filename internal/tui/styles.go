package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/skm/internal/ui"
)

// Pane and chrome styles. The palette stays on ANSI codes so the TUI
// degrades cleanly on 16-color terminals.
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ui.ColorPrimary).
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(ui.ColorMuted).
			Padding(0, 1)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ui.ColorMuted).
			Padding(0, 1)

	paneFocusedStyle = paneStyle.
				BorderForeground(ui.ColorInfo)

	paneTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ui.ColorSecondary)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(ui.ColorInfo).
			Padding(1, 2)

	statusOKStyle = lipgloss.NewStyle().
			Foreground(ui.ColorSuccess)

	statusErrStyle = lipgloss.NewStyle().
			Foreground(ui.ColorError)

	statusWarnStyle = lipgloss.NewStyle().
			Foreground(ui.ColorWarning)

	detailLabelStyle = lipgloss.NewStyle().
				Foreground(ui.ColorMuted)

	logFailStyle = lipgloss.NewStyle().
			Foreground(ui.ColorError)

	logOKStyle = lipgloss.NewStyle().
			Foreground(ui.ColorMuted)
)
