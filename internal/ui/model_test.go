package ui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/dram/internal/catalog"
	"github.com/five82/dram/internal/metrics"
	"github.com/five82/dram/internal/recommend"
)

var sampleCatalog = []catalog.Record{
	{Name: "Jack Daniels", Price: "25", Rating: "82", Category: "Tennessee"},
	{Name: "Jim Beam", Price: "18", Rating: "80", Category: "Bourbon"},
	{Name: "Lagavulin 16", Price: "90", Rating: "95", Category: "Scotch", PreprocessedDescription: "peat smoke"},
	{Name: "Jameson", Price: "30", Rating: "84", Category: "Irish"},
}

type stubRecommender struct {
	mu      sync.Mutex
	calls   []recommend.Request
	results map[int][]catalog.Record
	err     error
}

func (s *stubRecommender) Recommend(_ context.Context, req recommend.Request) ([]catalog.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	if s.err != nil {
		return nil, s.err
	}
	return s.results[req.Index], nil
}

func (s *stubRecommender) lastCall(t *testing.T) recommend.Request {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.calls)
	return s.calls[len(s.calls)-1]
}

type harness struct {
	t       *testing.T
	m       Model
	rec     *stubRecommender
	metrics *metrics.Metrics
	prefs   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	rec := &stubRecommender{results: map[int][]catalog.Record{
		0: {{Name: "Jim Beam", SimilarityScore: 0.9}, {Name: "Jameson", SimilarityScore: 0.5}},
		1: {{Name: "Jack Daniels", SimilarityScore: 0.8}},
		2: {{Name: "Jameson", SimilarityScore: 0.4}},
		3: {{Name: "Lagavulin 16", SimilarityScore: 0.7}},
	}}
	m := metrics.New(prometheus.NewRegistry())
	prefsPath := filepath.Join(t.TempDir(), "prefs.toml")

	h := &harness{
		t:       t,
		rec:     rec,
		metrics: m,
		prefs:   prefsPath,
		m: New(Options{
			Recommender: rec,
			Metrics:     m,
			PrefsPath:   prefsPath,
		}),
	}
	h.send(tea.WindowSizeMsg{Width: 100, Height: 40})
	h.send(catalogLoadedMsg{source: "test.csv", records: sampleCatalog})
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	h.t.Helper()
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	return cmd
}

func (h *harness) typeText(s string) {
	h.t.Helper()
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (h *harness) press(t tea.KeyType) tea.Cmd {
	h.t.Helper()
	return h.send(tea.KeyMsg{Type: t})
}

func (h *harness) letter(r rune) tea.Cmd {
	h.t.Helper()
	return h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

// response runs a dispatch command and returns its recommendations message.
func (h *harness) response(cmd tea.Cmd) recommendationsMsg {
	h.t.Helper()
	for _, msg := range runCmd(cmd) {
		if r, ok := msg.(recommendationsMsg); ok {
			return r
		}
	}
	h.t.Fatal("command produced no recommendationsMsg")
	return recommendationsMsg{}
}

func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func recordNames(records []catalog.Record) []string {
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
	}
	return names
}

func TestModel_InitialView(t *testing.T) {
	h := newHarness(t)
	view := h.m.View()
	assert.Contains(t, view, "Select a whiskey to see details")
	assert.Contains(t, view, "Max Price: $1000")
	assert.Contains(t, view, "4 whiskeys")
	assert.Contains(t, view, "Nightfox")
}

func TestModel_TypingFiltersMatches(t *testing.T) {
	h := newHarness(t)
	h.typeText("ja")

	snap := h.m.controller.Snapshot()
	require.Len(t, snap.Matches, 2)
	assert.Equal(t, "Jack Daniels", snap.Matches[0].Record.Name)
	assert.Equal(t, "Jameson", snap.Matches[1].Record.Name)
	assert.Contains(t, h.m.View(), "Jameson")

	h.press(tea.KeyEsc)
	assert.Empty(t, h.m.controller.Snapshot().Matches)
	assert.Empty(t, h.m.input.Value())
}

func TestModel_NoMatches(t *testing.T) {
	h := newHarness(t)
	h.typeText("x")
	assert.Contains(t, h.m.View(), "No matches")
}

func TestModel_EnterSelectsMatchAndSendsCeiling(t *testing.T) {
	h := newHarness(t)
	h.typeText("ja")
	h.press(tea.KeyDown)
	cmd := h.press(tea.KeyEnter)
	require.NotNil(t, cmd)

	snap := h.m.controller.Snapshot()
	assert.True(t, snap.Loading())
	assert.Equal(t, "Jameson", snap.Selected.Name)
	assert.Empty(t, h.m.input.Value())
	assert.Contains(t, h.m.View(), "Finding similar whiskeys")

	resp := h.response(cmd)
	req := h.rec.lastCall(t)
	assert.Equal(t, 3, req.Index)
	assert.False(t, req.MaxPrice.Unbounded)
	assert.Equal(t, 1000, req.MaxPrice.Value)

	h.send(resp)
	snap = h.m.controller.Snapshot()
	assert.False(t, snap.Loading())
	assert.Equal(t, []string{"Lagavulin 16"}, recordNames(snap.Recommendations))
	view := h.m.View()
	assert.Contains(t, view, "1. Lagavulin 16")
	assert.Contains(t, view, "Similarity 70.0%")
}

func TestModel_UnboundedCeiling(t *testing.T) {
	h := newHarness(t)
	h.press(tea.KeyTab)
	require.Equal(t, FocusPrice, h.m.focus)
	h.press(tea.KeyEnd)
	assert.Contains(t, h.m.View(), "Max Price: $10000+")

	h.press(tea.KeyShiftTab)
	require.Equal(t, FocusSearch, h.m.focus)
	h.typeText("jameson")
	cmd := h.press(tea.KeyEnter)
	h.response(cmd)

	req := h.rec.lastCall(t)
	assert.Equal(t, 3, req.Index)
	assert.True(t, req.MaxPrice.Unbounded)
}

func TestModel_PriceStepsAndDoesNotRequest(t *testing.T) {
	h := newHarness(t)
	h.press(tea.KeyTab)
	cmd := h.press(tea.KeyRight)
	assert.Nil(t, cmd)
	assert.Equal(t, 1050, h.m.ceiling.Value())
	h.press(tea.KeyLeft)
	h.press(tea.KeyLeft)
	assert.Equal(t, 950, h.m.ceiling.Value())
	assert.Empty(t, h.rec.calls)
}

func TestModel_ResultsRenderInServiceOrder(t *testing.T) {
	h := newHarness(t)
	h.typeText("jack")
	resp := h.response(h.press(tea.KeyEnter))
	h.send(resp)

	view := h.m.View()
	first := strings.Index(view, "Jim Beam")
	second := strings.Index(view, "Jameson")
	require.True(t, first >= 0 && second >= 0, view)
	assert.Less(t, first, second)
	assert.Contains(t, view, "Similarity 90.0%")
	assert.Contains(t, view, "2. Jameson")
}

func TestModel_LateResponseIsDiscarded(t *testing.T) {
	h := newHarness(t)

	h.typeText("jack")
	first := h.response(h.press(tea.KeyEnter))

	h.typeText("jim")
	second := h.response(h.press(tea.KeyEnter))

	h.send(second)
	h.send(first)

	snap := h.m.controller.Snapshot()
	assert.Equal(t, "Jim Beam", snap.Selected.Name)
	assert.Equal(t, []string{"Jack Daniels"}, recordNames(snap.Recommendations))
	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.StaleResponses), 0)
}

func TestModel_NewSelectionCancelsPreviousRequest(t *testing.T) {
	h := newHarness(t)
	h.typeText("jack")
	h.press(tea.KeyEnter)
	require.NotNil(t, h.m.cancel)

	ctxDone := make(chan struct{})
	prevCancel := h.m.cancel
	ctx, cancel := context.WithCancel(context.Background())
	h.m.cancel = func() {
		prevCancel()
		cancel()
		close(ctxDone)
	}
	h.typeText("jim")
	h.press(tea.KeyEnter)

	select {
	case <-ctxDone:
	default:
		t.Fatal("previous request was not cancelled")
	}
	assert.Error(t, ctx.Err())
}

func TestModel_FailureKeepsPreviousResults(t *testing.T) {
	h := newHarness(t)
	h.typeText("jack")
	h.send(h.response(h.press(tea.KeyEnter)))

	h.rec.err = &recommend.StatusError{StatusCode: 500, Message: "model not loaded"}
	h.typeText("jim")
	h.send(h.response(h.press(tea.KeyEnter)))

	snap := h.m.controller.Snapshot()
	assert.False(t, snap.Loading())
	assert.Equal(t, []string{"Jim Beam", "Jameson"}, recordNames(snap.Recommendations))
	assert.True(t, errors.Is(snap.LastError, recommend.ErrRequestFailed))
	assert.Contains(t, h.m.View(), "Recommendation failed: model not loaded")
}

func TestModel_CatalogFailure(t *testing.T) {
	h := newHarness(t)
	h.send(catalogLoadedMsg{err: errors.New("open whiskey_data.csv: no such file")})

	view := h.m.View()
	assert.Contains(t, view, "catalog not ready")
	h.typeText("j")
	assert.Nil(t, h.press(tea.KeyEnter))
	assert.Empty(t, h.rec.calls)
}

func openFirstResult(t *testing.T, h *harness) {
	t.Helper()
	h.typeText("jack")
	h.send(h.response(h.press(tea.KeyEnter)))
	h.press(tea.KeyTab)
	h.press(tea.KeyTab)
	require.Equal(t, FocusResults, h.m.focus)
	h.press(tea.KeyEnter)
	require.True(t, h.m.overlay.IsOpen())
}

func TestModel_DetailOverlayClicks(t *testing.T) {
	h := newHarness(t)
	openFirstResult(t, h)

	assert.Equal(t, "Jim Beam", h.m.overlay.Record().Name)
	assert.Contains(t, h.m.View(), "Similarity 90.0%")

	bounds := h.m.overlay.Bounds()
	require.False(t, bounds.Empty())

	h.send(tea.MouseMsg{X: bounds.X + 1, Y: bounds.Y + 1, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	assert.True(t, h.m.overlay.IsOpen(), "click inside the surface is contained")

	h.send(tea.MouseMsg{X: 0, Y: 0, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	assert.False(t, h.m.overlay.IsOpen(), "click outside closes")
}

func TestModel_OverlayPlacementMatchesBounds(t *testing.T) {
	h := newHarness(t)
	openFirstResult(t, h)

	bounds := h.m.overlay.Bounds()
	lines := strings.Split(h.m.View(), "\n")
	require.Greater(t, len(lines), bounds.Y)
	assert.Equal(t, strings.Repeat(" ", bounds.X)+"╭", string([]rune(lines[bounds.Y])[:bounds.X+1]))
}

func TestModel_KeywordsResetOnReopen(t *testing.T) {
	h := newHarness(t)
	h.typeText("jameson")
	h.send(h.response(h.press(tea.KeyEnter)))
	h.press(tea.KeyTab)
	h.press(tea.KeyTab)
	h.press(tea.KeyEnter)
	require.Equal(t, "Lagavulin 16", h.m.overlay.Record().Name)

	h.letter('k')
	assert.True(t, h.m.overlay.KeywordsOpen())
	assert.Contains(t, h.m.View(), "peat smoke")

	h.press(tea.KeyEsc)
	require.False(t, h.m.overlay.IsOpen())
	h.letter('o')
	require.True(t, h.m.overlay.IsOpen())
	assert.Equal(t, "Jameson", h.m.overlay.Record().Name)
	assert.False(t, h.m.overlay.KeywordsOpen())
}

func TestModel_RecommendFromOverlay(t *testing.T) {
	h := newHarness(t)
	openFirstResult(t, h)

	cmd := h.letter('r')
	require.NotNil(t, cmd)
	h.response(cmd)

	assert.False(t, h.m.overlay.IsOpen())
	assert.Equal(t, 1, h.rec.lastCall(t).Index)
	assert.Equal(t, "Jim Beam", h.m.controller.Snapshot().Selected.Name)
}

func TestModel_ThemeCycleSavesPrefs(t *testing.T) {
	h := newHarness(t)
	h.press(tea.KeyCtrlT)
	assert.Equal(t, "Kanagawa", h.m.theme.Name)

	data, err := os.ReadFile(h.prefs)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Kanagawa")
}

func TestModel_HelpOverlay(t *testing.T) {
	h := newHarness(t)
	h.typeText("?")
	assert.False(t, h.m.showHelp, "? is text inside the search box")

	h.press(tea.KeyF1)
	assert.True(t, h.m.showHelp)
	assert.Contains(t, h.m.View(), "Keyboard Shortcuts")

	h.letter('x')
	assert.False(t, h.m.showHelp)
}

func TestModel_DiagnosticsPanel(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "dram.log")
	require.NoError(t, os.WriteFile(logPath, []byte(
		`{"level":"info","ts":"t1","msg":"catalog loaded"}`+"\n"+
			`{"level":"warn","ts":"t2","msg":"recommendation request failed","index":3}`+"\n"), 0o644))

	m := New(Options{LogPath: logPath, PrefsPath: filepath.Join(dir, "prefs.toml")})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = next.(Model)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	m = next.(Model)
	require.True(t, m.showDiagnostics)
	require.NotNil(t, cmd)

	msg, ok := readDiagnosticsCmd(logPath)().(diagnosticsMsg)
	require.True(t, ok)
	require.NoError(t, msg.err)
	next, _ = m.Update(msg)
	m = next.(Model)

	view := m.View()
	assert.Contains(t, view, "Diagnostics")
	assert.Contains(t, view, "recommendation request failed")
	assert.NotContains(t, view, "catalog loaded")

	stale := tickMsg{gen: m.diagGen - 1}
	_, cmd = m.Update(stale)
	assert.Nil(t, cmd, "ticks from an earlier opening are ignored")
}

func TestModel_ZeroMaxPriceIsKept(t *testing.T) {
	rec := &stubRecommender{results: map[int][]catalog.Record{}}
	zero := 0
	m := New(Options{
		Recommender: rec,
		MaxPrice:    &zero,
		PrefsPath:   filepath.Join(t.TempDir(), "prefs.toml"),
	})
	h := &harness{t: t, m: m, rec: rec}
	h.send(tea.WindowSizeMsg{Width: 100, Height: 40})
	h.send(catalogLoadedMsg{source: "test.csv", records: sampleCatalog})

	assert.Equal(t, 0, h.m.ceiling.Value())
	assert.Contains(t, h.m.View(), "Max Price: $0")

	h.typeText("jim")
	h.response(h.press(tea.KeyEnter))
	req := h.rec.lastCall(t)
	assert.False(t, req.MaxPrice.Unbounded)
	assert.Equal(t, 0, req.MaxPrice.Value)
}

func TestModel_DefaultMaxPriceWhenUnset(t *testing.T) {
	m := New(Options{PrefsPath: filepath.Join(t.TempDir(), "prefs.toml")})
	assert.Equal(t, 1000, m.ceiling.Value())
}

func TestModel_RecommendFromSelectionUsesItsOwnIndex(t *testing.T) {
	h := newHarness(t)
	h.send(catalogLoadedMsg{source: "dupes.csv", records: []catalog.Record{
		{Name: "Ardbeg", Price: "60", Category: "10 Year"},
		{Name: "Ardbeg", Price: "120", Category: "Uigeadail"},
		{Name: "Jameson", Price: "30"},
	}})

	h.typeText("ardbeg")
	h.press(tea.KeyDown)
	h.send(h.response(h.press(tea.KeyEnter)))
	require.Equal(t, 1, h.rec.lastCall(t).Index)

	h.press(tea.KeyTab)
	h.press(tea.KeyTab)
	h.letter('o')
	require.True(t, h.m.overlay.IsOpen())
	require.Equal(t, "Uigeadail", h.m.overlay.Record().Category)

	h.response(h.letter('r'))
	assert.Equal(t, 1, h.rec.lastCall(t).Index)
	assert.Equal(t, 1, h.m.controller.Snapshot().SelectedIndex)
}

func TestModel_ClickOpensResultOrSelection(t *testing.T) {
	h := newHarness(t)
	h.typeText("jack")
	h.send(h.response(h.press(tea.KeyEnter)))

	top := lipgloss.Height(h.m.renderTop())
	listStart := top + 1

	click := func(y int) {
		h.send(tea.MouseMsg{X: 5, Y: y, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	}

	click(listStart + resultRowHeight - 1)
	assert.False(t, h.m.overlay.IsOpen(), "the gap between results is not a target")

	click(listStart + resultRowHeight + 1)
	require.True(t, h.m.overlay.IsOpen())
	assert.Equal(t, "Jameson", h.m.overlay.Record().Name)
	assert.Equal(t, 1, h.m.resultCursor)
	assert.Equal(t, FocusResults, h.m.focus)

	h.press(tea.KeyEsc)
	require.False(t, h.m.overlay.IsOpen())

	click(top - 2)
	require.True(t, h.m.overlay.IsOpen())
	assert.Equal(t, "Jack Daniels", h.m.overlay.Record().Name)

	h.press(tea.KeyEsc)
	click(0)
	assert.False(t, h.m.overlay.IsOpen(), "the header is not a target")
}
