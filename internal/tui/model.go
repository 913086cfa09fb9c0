// Package tui is the interactive terminal frontend: a key list with
// detail and command-log panes, plus modals for create, delete
// confirmation, and public key display. All mutations go through the
// orchestrator; the model only holds snapshots.
package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/skm/internal/cmdlog"
	"github.com/rileyhilliard/skm/internal/keystore"
	"github.com/rileyhilliard/skm/internal/orchestrator"
	"github.com/rileyhilliard/skm/internal/ui"
)

// logPaneEntries is how many command log lines the bottom pane shows.
const logPaneEntries = 8

// keyTableTopOffset is the terminal row where key rows begin: the header
// line, the pane's top border, the pane title, and the table header with
// its underline sit above them.
const keyTableTopOffset = 5

type mode int

const (
	modeList mode = iota
	modeCreate
	modeConfirmDelete
	modeView
	modeHelp
)

var keyColumns = []ui.TableColumn{
	{Title: " ", Width: 2},
	{Title: "NAME", Width: 22},
	{Title: "TYPE", Width: 8},
	{Title: "BITS", Width: 5},
	{Title: "FINGERPRINT", Width: 30},
}

// Model is the Bubble Tea model for the key manager.
type Model struct {
	orc   *orchestrator.Orchestrator
	snap  orchestrator.Snapshot
	table table.Model

	mode       mode
	form       *huh.Form
	formValues *createValues

	pendingDelete string // private key path awaiting confirmation
	viewName      string // key whose public half is shown in the modal
	viewContent   string

	status    string // transient message in the footer
	statusErr bool

	width    int
	height   int
	quitting bool
}

// New creates the TUI model. The orchestrator must already be started.
func New(orc *orchestrator.Orchestrator) Model {
	t := ui.NewTable(keyColumns, nil, true, 10)
	return Model{orc: orc, table: t}
}

// Run starts the Bubble Tea program with mouse support and blocks until
// the user quits.
func Run(orc *orchestrator.Orchestrator) error {
	p := tea.NewProgram(New(orc), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// Init triggers the first scan.
func (m Model) Init() tea.Cmd {
	return m.refreshCmd()
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeTable()
		return m, nil

	case refreshedMsg:
		m.snap = msg.snap
		m.rebuildRows()
		return m, nil

	case resultMsg:
		return m.applyResult(msg.res)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Everything else (blink ticks and the like) belongs to whichever
	// widget is active.
	if m.mode == modeCreate && m.form != nil {
		return m.updateForm(msg)
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeCreate:
		if msg.String() == KeyQuitAlt {
			m.quitting = true
			return m, tea.Quit
		}
		if msg.String() == KeyDismiss {
			m.closeForm()
			return m, nil
		}
		return m.updateForm(msg)

	case modeConfirmDelete:
		next, cmd := m.handleConfirmKeys(msg)
		return next, cmd

	case modeView, modeHelp:
		switch msg.String() {
		case KeyDismiss, KeyQuit, KeyView, KeyViewAlt, KeyToggleHelp:
			m.mode = modeList
			m.viewContent = ""
			m.viewName = ""
		case KeyQuitAlt:
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	default:
		next, cmd, handled := m.handleListKeys(msg)
		if handled {
			return next, cmd
		}
		var tcmd tea.Cmd
		next.table, tcmd = next.table.Update(msg)
		return next, tcmd
	}
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeList {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.table.MoveUp(1)
	case tea.MouseButtonWheelDown:
		m.table.MoveDown(1)
	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress {
			break
		}
		row := msg.Y - keyTableTopOffset
		if row >= 0 && row < len(m.snap.Keys) && msg.X < lipgloss.Width(m.renderKeyPane()) {
			m.table.SetCursor(row)
		}
	}
	return m, nil
}

// updateForm forwards a message to the embedded huh form and reacts to
// its completion state.
func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.form.Update(msg)
	if f, ok := next.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		params := m.formValues.params(m.orc.KeyPath(m.formValues.Name))
		m.closeForm()
		return m, m.dispatchCmd(orchestrator.Intent{
			Action: cmdlog.ActionCreate,
			Target: params.Path,
			Params: params,
		})
	case huh.StateAborted:
		m.closeForm()
		return m, nil
	}
	return m, cmd
}

// applyResult folds an intent outcome into the footer status and, for
// view intents, the public key modal. Every result triggers a rescan so
// the list reflects whatever the intent changed.
func (m Model) applyResult(res orchestrator.Result) (tea.Model, tea.Cmd) {
	if res.Err != nil {
		m.status = res.Err.Error()
		m.statusErr = true
	} else {
		m.status = res.Entry.Message
		m.statusErr = false
	}

	if !res.Failed() && res.Entry.Action == cmdlog.ActionView {
		m.viewContent = res.Content
		m.mode = modeView
	}

	return m, m.refreshCmd()
}

func (m *Model) openCreateForm() {
	v := &createValues{Type: string(keystore.TypeEd25519)}
	exists := func(name string) bool {
		for _, rec := range m.snap.Keys {
			if rec.Name == name {
				return true
			}
		}
		return false
	}
	m.formValues = v
	m.form = newCreateForm(v, exists)
	m.mode = modeCreate
}

func (m *Model) closeForm() {
	m.form = nil
	m.formValues = nil
	m.mode = modeList
}

// selectedKey resolves the table cursor to a key record.
func (m *Model) selectedKey() *keystore.KeyRecord {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.snap.Keys) {
		return nil
	}
	return &m.snap.Keys[i]
}

// rebuildRows regenerates the table from the snapshot, keeping the
// cursor on the same row where possible.
func (m *Model) rebuildRows() {
	cursor := m.table.Cursor()

	rows := make([]table.Row, len(m.snap.Keys))
	for i, rec := range m.snap.Keys {
		rows[i] = table.Row{
			loadedSymbol(rec, m.snap.AgentReachable),
			rec.Name,
			string(rec.Type),
			bitsLabel(rec),
			shortFingerprint(&m.snap.Keys[i]),
		}
	}
	m.table.SetRows(rows)

	if cursor >= len(rows) {
		cursor = len(rows) - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	m.table.SetCursor(cursor)
}

func (m *Model) resizeTable() {
	// Header, footer, log pane, and borders claim the rest.
	h := m.height - logPaneEntries - 8
	if h < 3 {
		h = 3
	}
	m.table.SetHeight(h)
}

func loadedSymbol(rec keystore.KeyRecord, agentReachable bool) string {
	if !agentReachable {
		return ui.SymbolUnknown
	}
	if rec.LoadedInAgent {
		return ui.SymbolLoaded
	}
	return ui.SymbolUnloaded
}

func bitsLabel(rec keystore.KeyRecord) string {
	if rec.Bits == 0 {
		return "-"
	}
	return strconv.Itoa(rec.Bits)
}

func shortFingerprint(rec *keystore.KeyRecord) string {
	fp, err := rec.Fingerprint()
	if err != nil {
		return "unreadable"
	}
	if len(fp) > 30 {
		return fp[:27] + "..."
	}
	return fp
}

func keyCountLabel(n int) string {
	if n == 1 {
		return "1 key"
	}
	return fmt.Sprintf("%d keys", n)
}
