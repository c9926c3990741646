package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/dram/internal/detail"
	"github.com/five82/dram/internal/logtail"
	"github.com/five82/dram/internal/state"
)

const sliderWidth = 30

// layout recomputes everything that depends on terminal size or content:
// the results viewport and the overlay surface.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	fixed := lipgloss.Height(m.renderTop()) + 1 // results title
	fixed += 2                                  // status and help lines
	if m.showDiagnostics {
		fixed += lipgloss.Height(m.renderDiagnostics())
	}
	m.resultsView.Width = m.width
	m.resultsView.Height = maxInt(resultRowHeight, m.height-fixed)
	m.refreshResults()

	if m.overlay.IsOpen() {
		box := m.renderOverlayBox()
		w, h := lipgloss.Width(box), lipgloss.Height(box)
		m.overlay.SetBounds(detail.Rect{
			X:      maxInt(0, (m.width-w)/2),
			Y:      maxInt(0, (m.height-h)/2),
			Width:  w,
			Height: h,
		})
	}
}

// refreshResults rebuilds the results list and keeps the cursor in view.
func (m *Model) refreshResults() {
	m.resultsView.SetContent(m.renderResultsContent())

	top := m.resultCursor * resultRowHeight
	switch {
	case top < m.resultsView.YOffset:
		m.resultsView.SetYOffset(top)
	case top+resultRowHeight > m.resultsView.YOffset+m.resultsView.Height:
		m.resultsView.SetYOffset(top + resultRowHeight - m.resultsView.Height)
	}
}

func (m Model) renderMain() string {
	snap := m.controller.Snapshot()
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(m.renderTop())
	b.WriteString("\n")

	title := "Recommendations"
	if m.focus == FocusResults {
		b.WriteString(styles.AccentText.Bold(true).Render("▌" + title))
	} else {
		b.WriteString(styles.MutedText.Render(" " + title))
	}
	b.WriteString("\n")

	body := ""
	switch snap.Body() {
	case state.BodyLoading:
		body = m.spinner.View() + styles.MutedText.Render(" Finding similar whiskeys...")
	case state.BodyResults:
		body = m.resultsView.View()
	}
	b.WriteString(lipgloss.NewStyle().Height(m.resultsView.Height).MaxHeight(m.resultsView.Height).Render(body))
	b.WriteString("\n")

	if m.showDiagnostics {
		b.WriteString(m.renderDiagnostics())
		b.WriteString("\n")
	}
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(styles.Footer.Render(m.help.View(m.keys)))
	return b.String()
}

// renderTop is everything above the results list.
func (m Model) renderTop() string {
	parts := []string{
		m.renderHeader(),
		m.renderSearch(),
	}
	if matches := m.renderMatches(); matches != "" {
		parts = append(parts, matches)
	}
	parts = append(parts, m.renderPrice(), m.renderSelection())
	return strings.Join(parts, "\n")
}

func (m Model) renderHeader() string {
	snap := m.controller.Snapshot()
	styles := m.theme.Styles()

	left := styles.Logo.Render("dram")
	var info string
	switch {
	case snap.CatalogErr != nil:
		info = "catalog not ready"
	case snap.CatalogReady():
		info = fmt.Sprintf("%d whiskeys", snap.CatalogSize)
	default:
		info = "loading catalog..."
	}
	right := m.theme.Name
	gap := maxInt(1, m.width-lipgloss.Width(left)-len(info)-len(right)-4)
	return styles.Header.Width(m.width).Render(left + "  " + info + strings.Repeat(" ", gap) + right)
}

func (m Model) renderSearch() string {
	return m.input.View()
}

// renderMatches lists live matches under the search box, windowed around the
// cursor. Empty when the query is empty.
func (m Model) renderMatches() string {
	snap := m.controller.Snapshot()
	if snap.Query == "" {
		return ""
	}
	styles := m.theme.Styles()
	if len(snap.Matches) == 0 {
		return styles.FaintText.Render("  No matches")
	}

	start := 0
	if m.matchCursor >= maxVisibleMatches {
		start = m.matchCursor - maxVisibleMatches + 1
	}
	end := minInt(len(snap.Matches), start+maxVisibleMatches)

	lines := make([]string, 0, end-start+1)
	width := maxInt(10, m.width-4)
	for i := start; i < end; i++ {
		match := snap.Matches[i]
		name := truncate(match.Record.Name, width)
		if i == m.matchCursor && m.focus == FocusSearch {
			lines = append(lines, styles.Selected.Render("› "+padRight(name, width)))
			continue
		}
		lines = append(lines, "  "+highlightName(snap.Query, name, styles.Text, styles.Highlight))
	}
	if more := len(snap.Matches) - end; more > 0 {
		lines = append(lines, styles.FaintText.Render(fmt.Sprintf("  … %d more", more)))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderPrice() string {
	styles := m.theme.Styles()
	label := "Max Price: $" + m.ceiling.Label()

	filled := int(m.ceiling.Fraction()*float64(sliderWidth) + 0.5)
	filled = clampInt(filled, 0, sliderWidth)
	bar := styles.SliderFill.Render(strings.Repeat("━", filled)) +
		styles.SliderKnob.Render("●") +
		styles.SliderEmpty.Render(strings.Repeat("─", sliderWidth-filled))

	labelStyle := styles.MutedText
	marker := " "
	if m.focus == FocusPrice {
		labelStyle = styles.AccentText.Bold(true)
		marker = "▌"
	}
	return labelStyle.Render(marker+padRight(label, 20)) + " " + bar
}

func (m Model) renderSelection() string {
	snap := m.controller.Snapshot()
	styles := m.theme.Styles()
	width := maxInt(20, m.width-2)

	if !snap.HasSelection {
		return styles.Card.Width(width - 2).Render(styles.FaintText.Render(selectionPlaceholder))
	}
	rec := snap.Selected
	lines := []string{
		styles.Text.Bold(true).Render(truncate(rec.Name, width-6)),
		styles.MutedText.Render(detail.PriceLabel(rec.Price) + "   " + detail.RatingLabel(rec.Rating)),
	}
	if rec.Category != "" {
		lines = append(lines, styles.InfoText.Render(truncate(rec.Category, width-6)))
	}
	return styles.Card.Width(width - 2).Render(strings.Join(lines, "\n"))
}

// renderResultsContent renders the ranked list in service order.
func (m Model) renderResultsContent() string {
	snap := m.controller.Snapshot()
	styles := m.theme.Styles()
	if len(snap.Recommendations) == 0 {
		return ""
	}
	width := maxInt(20, m.width-8)

	var b strings.Builder
	for i, rec := range snap.Recommendations {
		rank := fmt.Sprintf("%3d. ", i+1)
		name := truncate(rec.Name, width)
		stats := detail.SimilarityLabel(rec.SimilarityScore) + "   " +
			detail.PriceLabel(rec.Price) + "   " + detail.RatingLabel(rec.Rating)
		if rec.Category != "" {
			stats += "   " + rec.Category
		}
		stats = truncate(stats, width)

		if i == m.resultCursor && m.focus == FocusResults {
			b.WriteString(styles.Selected.Render(rank + padRight(name, width)))
		} else {
			b.WriteString(styles.AccentText.Render(rank) + styles.Text.Bold(true).Render(name))
		}
		b.WriteString("\n")
		b.WriteString("     " + styles.MutedText.Render(stats))
		if i < len(snap.Recommendations)-1 {
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

func (m Model) renderStatus() string {
	styles := m.theme.Styles()
	if m.status == "" {
		return ""
	}
	if m.statusIsErr {
		return styles.DangerText.Render(" " + truncate(m.status, m.width-2))
	}
	return styles.SuccessText.Render(" " + truncate(m.status, m.width-2))
}

func (m Model) renderDiagnostics() string {
	styles := m.theme.Styles()
	width := maxInt(20, m.width-2)

	var lines []string
	switch {
	case m.diagErr != nil:
		lines = []string{styles.DangerText.Render(truncate(m.diagErr.Error(), width-4))}
	case len(m.diagEntries) == 0:
		lines = []string{styles.FaintText.Render("No warnings or errors logged")}
	default:
		entries := m.diagEntries
		if len(entries) > diagnosticsVisible {
			entries = entries[len(entries)-diagnosticsVisible:]
		}
		for _, e := range entries {
			levelStyle := styles.WarningText
			if e.Level == logtail.LevelError {
				levelStyle = styles.DangerText
			}
			text := e.Message
			if e.Fields != "" {
				text += "  " + e.Fields
			}
			lines = append(lines, levelStyle.Render(padRight(e.Level.String(), 6))+
				styles.Text.Render(truncate(text, width-12)))
		}
	}
	title := styles.MutedText.Render("Diagnostics")
	return styles.Card.Width(width - 2).Render(title + "\n" + strings.Join(lines, "\n"))
}

// renderOverlayBox renders the detail surface without positioning.
func (m Model) renderOverlayBox() string {
	styles := m.theme.Styles()
	contentWidth := clampInt(m.width-10, 20, 70)

	lines := m.overlay.Lines()
	if len(lines) == 0 {
		return ""
	}
	wrap := lipgloss.NewStyle().Width(contentWidth)
	out := make([]string, 0, len(lines)+2)
	out = append(out, styles.AccentText.Bold(true).Render(wrap.Render(lines[0])))
	keywordsLabel := m.overlay.KeywordsLabel()
	for _, line := range lines[1:] {
		switch {
		case line == keywordsLabel:
			out = append(out, styles.WarningText.Render(line))
		case strings.HasPrefix(line, "Category: "):
			out = append(out, styles.InfoText.Render(wrap.Render(line)))
		default:
			out = append(out, styles.Text.Render(wrap.Render(line)))
		}
	}
	out = append(out, "", styles.FaintText.Render("k keywords · r recommend similar · esc close"))
	return styles.Modal.Render(strings.Join(out, "\n"))
}

// renderOverlay places the detail surface at the bounds computed by layout so
// mouse hit testing matches what is drawn.
func (m Model) renderOverlay() string {
	box := m.renderOverlayBox()
	bounds := m.overlay.Bounds()
	pad := strings.Repeat(" ", bounds.X)

	var b strings.Builder
	b.WriteString(strings.Repeat("\n", bounds.Y))
	for i, line := range strings.Split(box, "\n") {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(pad)
		b.WriteString(line)
	}
	return b.String()
}

// minInt returns the smaller of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
