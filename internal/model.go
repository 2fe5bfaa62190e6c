// Package internal provides the core application model for filefinder's TUI.
//
// The model is a thin view over a session.Controller:
//   - key presses become controller calls (criteria edits, search, history replay, reveal)
//   - controller snapshots arrive as state.SessionChangedMsg and drive rendering
//   - backend calls run inside tea.Cmds so Update never blocks
package internal

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"filefinder/internal/screens"
	"filefinder/internal/session"
	"filefinder/internal/state"
)

// flashDuration is how long a flash message stays on screen
const flashDuration = 3 * time.Second

// Model represents the complete UI state. Session data lives in the
// controller; the model keeps only the latest snapshot and widget state.
type Model struct {
	ctrl        *session.Controller
	updates     chan session.Snapshot
	unsubscribe func()
	snap        session.Snapshot

	// Screen and navigation state
	screen        screens.Screen
	focus         screens.Field
	historyCursor int
	resultCursor  int
	resultOffset  int

	// Widgets
	query     textinput.Model
	extension textinput.Model
	spinner   spinner.Model
	usageBar  progress.Model

	// Flash message shown after a failed reveal or a disk refresh
	flash      string
	flashIsErr bool
	flashSeq   int

	// Display dimensions
	width  int
	height int
}

// InitialModel creates the model and subscribes it to ctrl. Call Close when
// the program exits.
func InitialModel(ctrl *session.Controller) Model {
	query := textinput.New()
	query.Placeholder = "file name or part of it"
	query.Prompt = ""
	query.CharLimit = 256
	query.Width = 40
	query.Focus()

	ext := textinput.New()
	ext.Placeholder = "e.g. .pdf"
	ext.Prompt = ""
	ext.CharLimit = 32
	ext.Width = 12

	spinnerKind := spinner.Dot
	if IsASCII() {
		spinnerKind = spinner.Line
	}
	spin := spinner.New(
		spinner.WithSpinner(spinnerKind),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(primaryColor)),
	)

	// Latest-wins buffer: a snapshot is a full state, so dropping an older
	// unread one loses nothing and keeps the notifier from blocking.
	updates := make(chan session.Snapshot, 1)
	unsubscribe := ctrl.Subscribe(func(s session.Snapshot) {
		select {
		case updates <- s:
		default:
			select {
			case <-updates:
			default:
			}
			select {
			case updates <- s:
			default:
			}
		}
	})

	snap := ctrl.Snapshot()
	query.SetValue(snap.Criteria.Query)
	ext.SetValue(snap.Criteria.Extension)

	return Model{
		ctrl:        ctrl,
		updates:     updates,
		unsubscribe: unsubscribe,
		snap:        snap,
		screen:      screens.ForState(snap.State),
		focus:       screens.FieldQuery,
		query:       query,
		extension:   ext,
		spinner:     spin,
		usageBar:    newUsageBar(),
		width:       100,
		height:      30,
	}
}

// Close detaches the model from the controller.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Init loads the disk list and starts listening for controller changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		waitForSnapshot(m.updates),
		loadDisks(m.ctrl, false),
	)
}

// Update implements tea.Model.Update() and handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case state.SessionChangedMsg:
		m.applySnapshot(msg.Snapshot)
		return m, waitForSnapshot(m.updates)

	case state.SearchDoneMsg:
		m.applySnapshot(m.ctrl.Snapshot())
		return m, nil

	case state.DisksLoadedMsg:
		m.applySnapshot(m.ctrl.Snapshot())
		if msg.Refresh {
			if msg.Err != nil {
				return m.setFlash(FormatError("Disk refresh failed: "+msg.Err.Error()), true)
			}
			return m.setFlash(FormatSuccess("Disk list refreshed"), false)
		}
		return m, nil

	case state.RevealDoneMsg:
		if msg.Err != nil {
			return m.setFlash(FormatError(msg.Err.Error()), true)
		}
		return m, nil

	case state.FlashExpiredMsg:
		if msg.Seq == m.flashSeq {
			m.flash = ""
			m.flashIsErr = false
		}
		return m, nil

	case spinner.TickMsg:
		// The tick loop ends on its own once the search settles
		if m.snap.State != session.Searching {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.screen == screens.ScreenResults {
			return m.handleResultsKey(msg)
		}
		return m.handleFormKey(msg)
	}

	// Cursor blink and other widget-internal messages
	return m.updateInputs(msg)
}

// handleFormKey routes keys on the query form.
func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	hasHistory := len(m.snap.History) > 0

	switch msg.String() {
	case "tab":
		return m.setFocus(m.focus.Next(hasHistory))
	case "shift+tab":
		return m.setFocus(m.focus.Prev(hasHistory))
	case "ctrl+r":
		return m, loadDisks(m.ctrl, true)
	case "enter":
		if m.focus == screens.FieldHistory && hasHistory {
			return m.replayHistory()
		}
		return m.startSearch()
	}

	if !m.focus.IsText() && msg.String() == "q" {
		return m, tea.Quit
	}

	switch m.focus {
	case screens.FieldFolders:
		if msg.String() == " " || msg.String() == "x" {
			m.ctrl.UpdateCriteria(func(c *session.Criteria) { c.IncludeFolders = !c.IncludeFolders })
			m.snap = m.ctrl.Snapshot()
		}
		return m, nil

	case screens.FieldDisk:
		switch msg.String() {
		case "right", "l", " ":
			m.cycleDisk(1)
		case "left", "h":
			m.cycleDisk(-1)
		}
		return m, nil

	case screens.FieldHistory:
		switch msg.String() {
		case "up", "k":
			if m.historyCursor > 0 {
				m.historyCursor--
			}
		case "down", "j":
			if m.historyCursor < len(m.snap.History)-1 {
				m.historyCursor++
			}
		}
		return m, nil

	case screens.FieldSearch:
		return m, nil
	}

	return m.updateInputs(msg)
}

// handleResultsKey routes keys on the results view.
func (m Model) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	results := m.snap.Results

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "b":
		m.ctrl.GoBackToQuery()
		m.applySnapshot(m.ctrl.Snapshot())
		return m, nil
	case "up", "k":
		if m.resultCursor > 0 {
			m.resultCursor--
		}
	case "down", "j":
		if m.resultCursor < len(results)-1 {
			m.resultCursor++
		}
	case "pgup":
		m.resultCursor -= m.resultRows()
		if m.resultCursor < 0 {
			m.resultCursor = 0
		}
	case "pgdown":
		m.resultCursor += m.resultRows()
		if m.resultCursor > len(results)-1 {
			m.resultCursor = len(results) - 1
		}
	case "home", "g":
		m.resultCursor = 0
	case "end", "G":
		m.resultCursor = len(results) - 1
	case "enter", "o":
		if m.resultCursor >= 0 && m.resultCursor < len(results) {
			return m, reveal(m.ctrl, results[m.resultCursor].Path)
		}
		return m, nil
	}

	if m.resultCursor < 0 {
		m.resultCursor = 0
	}
	m.scrollResults()
	return m, nil
}

// updateInputs forwards msg to the focused text input and stages any edit
// into the controller criteria.
func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.focus {
	case screens.FieldQuery:
		before := m.query.Value()
		m.query, cmd = m.query.Update(msg)
		if v := m.query.Value(); v != before {
			m.ctrl.UpdateCriteria(func(c *session.Criteria) { c.Query = v })
			m.snap = m.ctrl.Snapshot()
		}

	case screens.FieldExtension:
		before := m.extension.Value()
		m.extension, cmd = m.extension.Update(msg)
		if v := m.extension.Value(); v != before {
			m.ctrl.UpdateCriteria(func(c *session.Criteria) { c.Extension = v })
			m.snap = m.ctrl.Snapshot()
		}
	}
	return m, cmd
}

// setFocus moves focus and toggles the text input cursors.
func (m Model) setFocus(f screens.Field) (tea.Model, tea.Cmd) {
	m.focus = f
	m.query.Blur()
	m.extension.Blur()

	switch f {
	case screens.FieldQuery:
		return m, m.query.Focus()
	case screens.FieldExtension:
		return m, m.extension.Focus()
	case screens.FieldHistory:
		if m.historyCursor >= len(m.snap.History) {
			m.historyCursor = 0
		}
	}
	return m, nil
}

// cycleDisk steps the disk filter through "All disks" and every disk ID.
func (m *Model) cycleDisk(step int) {
	options := append([]string{""}, m.snap.DiskIDs...)

	current := 0
	for i, id := range options {
		if id == m.snap.Criteria.Disk {
			current = i
			break
		}
	}
	next := (current + step + len(options)) % len(options)

	disk := options[next]
	m.ctrl.UpdateCriteria(func(c *session.Criteria) { c.Disk = disk })
	m.snap = m.ctrl.Snapshot()
}

// startSearch begins a search and runs it in the background. Nothing happens
// while another search is in flight.
func (m Model) startSearch() (tea.Model, tea.Cmd) {
	req, ok := m.ctrl.Begin()
	if !ok {
		return m, nil
	}
	m.applySnapshot(m.ctrl.Snapshot())
	return m, tea.Batch(m.spinner.Tick, execute(m.ctrl, req))
}

// replayHistory re-runs the selected history query with the current filters.
func (m Model) replayHistory() (tea.Model, tea.Cmd) {
	if m.historyCursor < 0 || m.historyCursor >= len(m.snap.History) {
		return m, nil
	}
	entry := m.snap.History[m.historyCursor]

	req, ok := m.ctrl.SelectHistoryEntryAsync(entry)
	m.query.SetValue(entry.Query)
	m.applySnapshot(m.ctrl.Snapshot())
	if !ok {
		return m, nil
	}
	return m, tea.Batch(m.spinner.Tick, execute(m.ctrl, req))
}

// applySnapshot installs s unless a newer one is already shown.
func (m *Model) applySnapshot(s session.Snapshot) {
	if s.Version < m.snap.Version {
		return
	}

	prevState := m.snap.State
	m.snap = s
	m.screen = screens.ForState(s.State)

	// A fresh result set starts at the top
	if s.State == session.ShowingResults && prevState != session.ShowingResults {
		m.resultCursor = 0
		m.resultOffset = 0
	}
	if m.historyCursor >= len(s.History) {
		m.historyCursor = 0
	}
	if m.focus == screens.FieldHistory && len(s.History) == 0 {
		m.focus = screens.FieldSearch
	}
}

// resultRows is the number of result lines that fit on screen.
func (m Model) resultRows() int {
	rows := m.height - 14
	if rows < 3 {
		rows = 3
	}
	return rows
}

// scrollResults keeps the cursor inside the visible window.
func (m *Model) scrollResults() {
	rows := m.resultRows()
	if m.resultCursor < m.resultOffset {
		m.resultOffset = m.resultCursor
	}
	if m.resultCursor >= m.resultOffset+rows {
		m.resultOffset = m.resultCursor - rows + 1
	}
}

// setFlash shows a transient message that clears itself.
func (m Model) setFlash(text string, isErr bool) (tea.Model, tea.Cmd) {
	m.flashSeq++
	m.flash = text
	m.flashIsErr = isErr

	seq := m.flashSeq
	return m, tea.Tick(flashDuration, func(t time.Time) tea.Msg {
		return state.FlashExpiredMsg{Seq: seq, Time: t}
	})
}

// View delegates to the render function of the active screen.
func (m Model) View() string {
	switch m.screen {
	case screens.ScreenQuery:
		return m.renderQueryForm()
	case screens.ScreenResults:
		return m.renderResults()
	default:
		return "Unknown screen"
	}
}

// waitForSnapshot blocks until the controller publishes a change.
func waitForSnapshot(updates <-chan session.Snapshot) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return nil
		}
		return state.SessionChangedMsg{Snapshot: s}
	}
}

func loadDisks(ctrl *session.Controller, refresh bool) tea.Cmd {
	return func() tea.Msg {
		var err error
		if refresh {
			err = ctrl.RefreshDisks(context.Background())
		} else {
			err = ctrl.Initialize(context.Background())
		}
		return state.DisksLoadedMsg{Err: err, Refresh: refresh}
	}
}

func execute(ctrl *session.Controller, req session.Request) tea.Cmd {
	return func() tea.Msg {
		return state.SearchDoneMsg{Err: ctrl.Execute(context.Background(), req)}
	}
}

func reveal(ctrl *session.Controller, path string) tea.Cmd {
	return func() tea.Msg {
		return state.RevealDoneMsg{Path: path, Err: ctrl.OpenResult(context.Background(), path)}
	}
}
