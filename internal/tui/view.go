package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/skm/internal/keystore"
	"github.com/rileyhilliard/skm/internal/ui"
)

// View renders the key manager.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.mode {
	case modeCreate:
		return m.renderModal("New key", m.form.View())
	case modeConfirmDelete:
		return m.renderModal("Delete key", m.renderConfirm())
	case modeView:
		return m.renderModal("Public key: "+m.viewName, m.renderPublicKey())
	case modeHelp:
		return m.renderModal("Help", m.renderHelp())
	}

	sections := []string{
		m.renderHeader(),
		lipgloss.JoinHorizontal(lipgloss.Top, m.renderKeyPane(), m.renderDetailPane()),
		m.renderLogPane(),
		m.renderFooter(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	agent := statusErrStyle.Render(ui.SymbolFail + " agent unreachable")
	if m.snap.AgentReachable {
		agent = statusOKStyle.Render(fmt.Sprintf("%s agent: %d loaded", ui.SymbolSuccess, len(m.snap.Identities)))
	}
	left := headerStyle.Render("skm · " + keyCountLabel(len(m.snap.Keys)))
	return left + "  " + agent
}

func (m Model) renderKeyPane() string {
	body := m.table.View()
	if len(m.snap.Keys) == 0 {
		body = detailLabelStyle.Render("No keys found. Press n to create one.")
	}
	return paneFocusedStyle.Render(paneTitleStyle.Render("Keys") + "\n" + body)
}

func (m Model) renderDetailPane() string {
	rec := m.selectedKey()
	if rec == nil {
		return paneStyle.Render(paneTitleStyle.Render("Details") + "\n" + detailLabelStyle.Render("nothing selected"))
	}

	label := func(s string) string { return detailLabelStyle.Render(s) }
	fp, err := rec.Fingerprint()
	if err != nil {
		fp = "unreadable"
	}

	lines := []string{
		paneTitleStyle.Render("Details"),
		label("Name        ") + rec.Name,
		label("Type        ") + string(rec.Type) + " " + bitsLabel(*rec),
		label("Fingerprint ") + fp,
		label("Comment     ") + orDash(rec.Comment),
		label("Hosts       ") + orDash(strings.Join(rec.Hosts, ", ")),
		label("Agent       ") + agentLabel(rec, m.snap.AgentReachable),
		label("Private     ") + rec.Path,
		label("Public      ") + rec.PublicPath,
	}

	if len(m.snap.Warnings) > 0 {
		lines = append(lines, "", statusWarnStyle.Render(fmt.Sprintf("%s %d scan warning(s)", ui.SymbolWarning, len(m.snap.Warnings))))
	}
	return paneStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderLogPane() string {
	lines := []string{paneTitleStyle.Render("Activity")}
	if len(m.snap.Log) == 0 {
		lines = append(lines, detailLabelStyle.Render("no operations yet"))
	}
	for _, e := range m.snap.Log {
		symbol := statusOKStyle.Render(ui.SymbolSuccess)
		style := logOKStyle
		if e.Failed() {
			symbol = statusErrStyle.Render(ui.SymbolFail)
			style = logFailStyle
		}
		lines = append(lines, fmt.Sprintf("%s %s %-12s %s",
			style.Render(e.Timestamp.Format("15:04:05")),
			symbol,
			e.Action,
			e.Message))
	}
	return paneStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderFooter() string {
	if m.status != "" {
		line := statusOKStyle.Render(m.status)
		if m.statusErr {
			line = statusErrStyle.Render(firstLineOf(m.status))
		}
		return footerStyle.Render(line)
	}
	return footerStyle.Render("n new · a add · u unload · d delete · enter view · c copy · r rescan · ? help · q quit")
}

func (m Model) renderConfirm() string {
	name := m.pendingDelete
	if rec := m.selectedKey(); rec != nil && rec.Path == m.pendingDelete {
		name = rec.Name
	}
	return fmt.Sprintf("Move %q and its public key to the trash?\n\n%s",
		name,
		detailLabelStyle.Render("y confirm · n cancel"))
}

func (m Model) renderPublicKey() string {
	return strings.TrimSpace(m.viewContent) + "\n\n" +
		detailLabelStyle.Render("esc close")
}

func (m Model) renderHelp() string {
	rows := [][2]string{
		{"n", "create a new key pair"},
		{"a", "add the selected key to the ssh-agent"},
		{"u", "remove the selected key from the ssh-agent"},
		{"d", "move the selected key pair to the trash"},
		{"enter / v", "show the public key"},
		{"c", "copy the public key to the clipboard"},
		{"r", "rescan the key directory"},
		{"j / k, arrows", "move the selection"},
		{"q, ctrl+c", "quit"},
	}
	var b strings.Builder
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("%s %s\n", detailLabelStyle.Render(fmt.Sprintf("%-14s", r[0])), r[1]))
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderModal centers content in the terminal, falling back to plain
// output before the first WindowSizeMsg arrives.
func (m Model) renderModal(title, body string) string {
	content := modalStyle.Render(paneTitleStyle.Render(title) + "\n\n" + body)
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func agentLabel(rec *keystore.KeyRecord, reachable bool) string {
	if !reachable {
		return statusWarnStyle.Render("unknown (agent unreachable)")
	}
	if rec.LoadedInAgent {
		return statusOKStyle.Render("loaded")
	}
	return "not loaded"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func firstLineOf(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
