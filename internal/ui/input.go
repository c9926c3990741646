package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/dram/internal/catalog"
	"github.com/five82/dram/internal/prefs"
	"github.com/five82/dram/internal/price"
	"github.com/five82/dram/internal/state"
)

// resultRowHeight is the number of lines each ranked result occupies.
const resultRowHeight = 3

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m.quit()
	}

	// Any key closes help.
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.overlay.IsOpen() {
		return m.handleOverlayKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.CycleTheme):
		return m.cycleTheme()
	case key.Matches(msg, m.keys.Diagnostics):
		return m.toggleDiagnostics()
	case key.Matches(msg, m.keys.Tab):
		m.setFocus((m.focus + 1) % 3)
		return m, nil
	case key.Matches(msg, m.keys.ShiftTab):
		m.setFocus((m.focus + 2) % 3)
		return m, nil
	case msg.String() == "f1":
		m.showHelp = true
		return m, nil
	}

	switch m.focus {
	case FocusPrice:
		return m.handlePriceKey(msg)
	case FocusResults:
		return m.handleResultsKey(msg)
	default:
		return m.handleSearchKey(msg)
	}
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	matches := m.controller.Matches()

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.matchCursor > 0 {
			m.matchCursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.matchCursor < matches-1 {
			m.matchCursor++
		}
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		if matches == 0 {
			return m, nil
		}
		d, err := m.controller.Select(m.matchCursor, m.ceiling)
		if err != nil {
			m.setError(err.Error())
			return m, nil
		}
		return m, m.dispatch(d)
	case key.Matches(msg, m.keys.Escape):
		if m.input.Value() != "" {
			m.input.Reset()
			m.controller.SetQuery("")
			m.matchCursor = 0
			m.layout()
		}
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.controller.SetQuery(after)
		m.matchCursor = 0
		m.layout()
	}
	return m, cmd
}

func (m Model) handlePriceKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	before := m.ceiling.Value()
	switch {
	case key.Matches(msg, m.keys.QuitLetter):
		return m.quit()
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.PriceDown):
		m.ceiling.Decrease()
	case key.Matches(msg, m.keys.PriceUp):
		m.ceiling.Increase()
	case key.Matches(msg, m.keys.PriceMin):
		m.ceiling.Set(price.Min)
	case key.Matches(msg, m.keys.PriceMax):
		m.ceiling.Set(price.Max)
	case key.Matches(msg, m.keys.Escape):
		m.setFocus(FocusSearch)
		return m, nil
	}
	if m.ceiling.Value() != before && m.controller.Snapshot().HasSelection {
		m.setStatus("New max price applies to the next selection")
	}
	return m, nil
}

func (m Model) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	recs := m.controller.Snapshot().Recommendations

	switch {
	case key.Matches(msg, m.keys.QuitLetter):
		return m.quit()
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.Escape):
		m.setFocus(FocusSearch)
	case key.Matches(msg, m.keys.Up):
		if m.resultCursor > 0 {
			m.resultCursor--
		}
		m.refreshResults()
	case key.Matches(msg, m.keys.Down):
		if m.resultCursor < len(recs)-1 {
			m.resultCursor++
		}
		m.refreshResults()
	case key.Matches(msg, m.keys.Top):
		m.resultCursor = 0
		m.refreshResults()
	case key.Matches(msg, m.keys.Bottom):
		m.resultCursor = maxInt(0, len(recs)-1)
		m.refreshResults()
	case key.Matches(msg, m.keys.PageDown):
		step := maxInt(1, m.resultsView.Height/resultRowHeight)
		m.resultCursor = clampInt(m.resultCursor+step, 0, maxInt(0, len(recs)-1))
		m.refreshResults()
	case key.Matches(msg, m.keys.PageUp):
		step := maxInt(1, m.resultsView.Height/resultRowHeight)
		m.resultCursor = clampInt(m.resultCursor-step, 0, maxInt(0, len(recs)-1))
		m.refreshResults()
	case key.Matches(msg, m.keys.Confirm):
		if m.resultCursor < len(recs) {
			m.openDetail(recs[m.resultCursor])
		}
	case key.Matches(msg, m.keys.OpenSelection):
		if snap := m.controller.Snapshot(); snap.HasSelection {
			m.openDetail(snap.Selected)
		}
	}
	return m, nil
}

func (m Model) handleOverlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.QuitLetter):
		m.overlay.Close()
	case key.Matches(msg, m.keys.ToggleKeywords):
		m.overlay.ToggleKeywords()
		m.layout()
	case key.Matches(msg, m.keys.RecommendThis):
		return m.recommendFrom(m.overlay.Record())
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	leftPress := msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft
	if m.overlay.IsOpen() {
		if leftPress {
			m.overlay.Click(msg.X, msg.Y)
		}
		return m, nil
	}
	if m.showHelp {
		return m, nil
	}
	if leftPress {
		if rec, ok := m.recordAt(msg.Y); ok {
			m.openDetail(rec)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.resultsView, cmd = m.resultsView.Update(msg)
	return m, cmd
}

// recordAt maps a screen row on the main view to the selection card or a
// ranked result. A hit on a result also moves the results cursor there.
func (m *Model) recordAt(y int) (catalog.Record, bool) {
	snap := m.controller.Snapshot()
	top := lipgloss.Height(m.renderTop())

	if snap.HasSelection {
		card := lipgloss.Height(m.renderSelection())
		if y >= top-card && y < top {
			return snap.Selected, true
		}
	}
	if snap.Body() != state.BodyResults {
		return catalog.Record{}, false
	}

	// The results title sits on row top; the list starts below it.
	row := y - (top + 1)
	if row < 0 || row >= m.resultsView.Height {
		return catalog.Record{}, false
	}
	line := row + m.resultsView.YOffset
	i := line / resultRowHeight
	if line%resultRowHeight == resultRowHeight-1 || i >= len(snap.Recommendations) {
		return catalog.Record{}, false
	}
	m.resultCursor = i
	m.setFocus(FocusResults)
	return snap.Recommendations[i], true
}

// recommendFrom makes rec the new selection, addressed by its catalog position.
// The current selection keeps its own index so duplicate names cannot redirect
// the request to another row.
func (m Model) recommendFrom(rec catalog.Record) (tea.Model, tea.Cmd) {
	var idx int
	if snap := m.controller.Snapshot(); snap.HasSelection && rec == snap.Selected {
		idx = snap.SelectedIndex
	} else {
		idx = m.controller.IndexOf(rec.Name)
	}
	if idx < 0 {
		m.setError(fmt.Sprintf("%s is not in the catalog", rec.Name))
		return m, nil
	}
	d, err := m.controller.SelectIndex(idx, m.ceiling)
	if err != nil {
		m.setError(err.Error())
		return m, nil
	}
	m.overlay.Close()
	m.setFocus(FocusResults)
	return m, m.dispatch(d)
}

func (m *Model) openDetail(rec catalog.Record) {
	m.overlay.Open(rec)
	m.layout()
}

func (m *Model) setFocus(f Focus) {
	m.focus = f
	if f == FocusSearch {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
	m.refreshResults()
}

func (m Model) cycleTheme() (tea.Model, tea.Cmd) {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	m.applyTheme()
	if m.prefsPath != "" {
		if err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name}); err != nil {
			m.logger.Sugar().Warnw("save prefs failed", "path", m.prefsPath, "error", err)
		}
	}
	m.layout()
	return m, nil
}

func (m Model) toggleDiagnostics() (tea.Model, tea.Cmd) {
	if m.logPath == "" {
		m.setStatus("Diagnostics unavailable: logging to stderr")
		return m, nil
	}
	m.showDiagnostics = !m.showDiagnostics
	m.diagGen++
	m.layout()
	if !m.showDiagnostics {
		return m, nil
	}
	return m, tea.Batch(readDiagnosticsCmd(m.logPath), tickCmd(m.diagTick, m.diagGen))
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
	}
	return m, tea.Quit
}
