package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/skm/internal/cmdlog"
	"github.com/rileyhilliard/skm/internal/orchestrator"
)

// Key bindings as constants for consistency.
const (
	KeyQuit        = "q"
	KeyQuitAlt     = "ctrl+c"
	KeyRefresh     = "r"
	KeyCreate      = "n"
	KeyDelete      = "d"
	KeyAgentAdd    = "a"
	KeyAgentRemove = "u"
	KeyView        = "enter"
	KeyViewAlt     = "v"
	KeyCopy        = "c"
	KeySelectPrev  = "up"
	KeySelectPrevK = "k"
	KeySelectNext  = "down"
	KeySelectNextJ = "j"
	KeySelectFirst = "home"
	KeySelectLast  = "end"
	KeyDismiss     = "esc"
	KeyConfirm     = "y"
	KeyDeny        = "n"
	KeyToggleHelp  = "?"
)

// handleListKeys processes keyboard input in the list view. Returns the
// updated model and a command, plus whether the key was consumed.
func (m Model) handleListKeys(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch msg.String() {
	case KeyQuit, KeyQuitAlt:
		m.quitting = true
		return m, tea.Quit, true

	case KeyToggleHelp:
		m.mode = modeHelp
		return m, nil, true

	case KeyRefresh:
		m.status = "rescanning"
		m.statusErr = false
		return m, m.refreshCmd(), true

	case KeyCreate:
		m.openCreateForm()
		return m, m.form.Init(), true

	case KeyDelete:
		if rec := m.selectedKey(); rec != nil {
			m.pendingDelete = rec.Path
			m.mode = modeConfirmDelete
		}
		return m, nil, true

	case KeyAgentAdd:
		if rec := m.selectedKey(); rec != nil {
			return m, m.dispatchCmd(orchestrator.Intent{
				Action: cmdlog.ActionAgentAdd,
				Target: rec.Path,
			}), true
		}
		return m, nil, true

	case KeyAgentRemove:
		if rec := m.selectedKey(); rec != nil {
			return m, m.dispatchCmd(orchestrator.Intent{
				Action: cmdlog.ActionAgentRemove,
				Target: rec.Path,
			}), true
		}
		return m, nil, true

	case KeyView, KeyViewAlt:
		if rec := m.selectedKey(); rec != nil {
			m.viewName = rec.Name
			return m, m.dispatchCmd(orchestrator.Intent{
				Action: cmdlog.ActionView,
				Target: rec.Path,
			}), true
		}
		return m, nil, true

	case KeyCopy:
		if rec := m.selectedKey(); rec != nil {
			return m, m.dispatchCmd(orchestrator.Intent{
				Action: cmdlog.ActionCopy,
				Target: rec.Path,
			}), true
		}
		return m, nil, true

	case KeySelectFirst:
		m.table.GotoTop()
		return m, nil, true

	case KeySelectLast:
		m.table.GotoBottom()
		return m, nil, true
	}

	// Up/down and friends fall through to the table.
	return m, nil, false
}

// handleConfirmKeys processes the delete confirmation modal.
func (m Model) handleConfirmKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case KeyConfirm:
		target := m.pendingDelete
		m.pendingDelete = ""
		m.mode = modeList
		return m, m.dispatchCmd(orchestrator.Intent{
			Action: cmdlog.ActionDelete,
			Target: target,
		})
	case KeyDeny, KeyDismiss, KeyQuitAlt:
		m.pendingDelete = ""
		m.mode = modeList
	}
	return m, nil
}
