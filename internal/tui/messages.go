package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/skm/internal/orchestrator"
)

// refreshedMsg carries a fresh state snapshot after a rescan.
type refreshedMsg struct {
	snap orchestrator.Snapshot
}

// resultMsg carries the outcome of a dispatched intent.
type resultMsg struct {
	res orchestrator.Result
}

// refreshCmd rescans disk and agent state off the UI goroutine.
func (m Model) refreshCmd() tea.Cmd {
	orc := m.orc
	return func() tea.Msg {
		_ = orc.Refresh()
		return refreshedMsg{snap: orc.Snapshot(logPaneEntries)}
	}
}

// dispatchCmd hands an intent to the orchestrator and waits for its
// result as a message. A saturated queue surfaces immediately.
func (m Model) dispatchCmd(in orchestrator.Intent) tea.Cmd {
	reply, err := m.orc.Dispatch(in)
	if err != nil {
		return func() tea.Msg {
			return resultMsg{res: orchestrator.Result{Err: err}}
		}
	}
	return func() tea.Msg {
		return resultMsg{res: <-reply}
	}
}
