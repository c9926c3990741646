package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/dram/internal/catalog"
	"github.com/five82/dram/internal/detail"
	"github.com/five82/dram/internal/logtail"
	"github.com/five82/dram/internal/metrics"
	"github.com/five82/dram/internal/prefs"
	"github.com/five82/dram/internal/price"
	"github.com/five82/dram/internal/recommend"
	"github.com/five82/dram/internal/state"
)

// Focus is the pane receiving keyboard input.
type Focus int

const (
	FocusSearch Focus = iota
	FocusPrice
	FocusResults
)

// CatalogLoader fetches the catalog. It runs off the event loop.
type CatalogLoader func(ctx context.Context) (*catalog.Store, error)

// Options configures the UI.
type Options struct {
	Context     context.Context
	Recommender recommend.Recommender
	Controller  *state.Controller
	LoadCatalog CatalogLoader
	Metrics     *metrics.Metrics
	Logger      *zap.Logger

	// MaxPrice is the starting ceiling. Nil means price.Default; 0 is a
	// valid ceiling.
	MaxPrice  *int
	ThemeName string
	PrefsPath string
	// LogPath feeds the diagnostics panel. Empty disables it.
	LogPath string
	// DiagnosticsTick is how often the open diagnostics panel rereads the log.
	DiagnosticsTick time.Duration
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx         context.Context
	recommender recommend.Recommender
	controller  *state.Controller
	loadCatalog CatalogLoader
	metrics     *metrics.Metrics
	logger      *zap.Logger
	prefsPath   string
	logPath     string
	diagTick    time.Duration

	theme  Theme
	keys   keyMap
	width  int
	height int
	ready  bool
	focus  Focus

	input   textinput.Model
	spinner spinner.Model
	help    help.Model

	ceiling       price.Ceiling
	matchCursor   int
	resultCursor  int
	resultsView   viewport.Model
	overlay       detail.Overlay
	catalogSource string

	// cancel aborts the in-flight recommendation request.
	cancel context.CancelFunc

	showHelp        bool
	showDiagnostics bool
	diagGen         int
	diagEntries     []logtail.Entry
	diagErr         error

	status      string
	statusIsErr bool
}

const (
	maxVisibleMatches    = 8
	defaultDiagTick      = 2 * time.Second
	diagnosticsLines     = 200
	diagnosticsVisible   = 6
	searchPlaceholder    = "Search whiskeys..."
	selectionPlaceholder = "Select a whiskey to see details"
)

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	controller := opts.Controller
	if controller == nil {
		controller = state.NewController()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	themeName := opts.ThemeName
	if themeName == "" {
		themeName = prefs.Defaults().Theme
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	diagTick := opts.DiagnosticsTick
	if diagTick <= 0 {
		diagTick = defaultDiagTick
	}
	maxPrice := price.Default
	if opts.MaxPrice != nil {
		maxPrice = *opts.MaxPrice
	}

	input := textinput.New()
	input.Placeholder = searchPlaceholder
	input.Prompt = "> "
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:         ctx,
		recommender: opts.Recommender,
		controller:  controller,
		loadCatalog: opts.LoadCatalog,
		metrics:     opts.Metrics,
		logger:      logger,
		prefsPath:   prefsPath,
		logPath:     opts.LogPath,
		diagTick:    diagTick,
		theme:       GetTheme(themeName),
		keys:        DefaultKeyMap(),
		input:       input,
		spinner:     sp,
		help:        help.New(),
		ceiling:     price.New(maxPrice),
		resultsView: viewport.New(0, 0),
	}
	m.applyTheme()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.loadCatalog != nil {
		cmds = append(cmds, loadCatalogCmd(m.ctx, m.loadCatalog))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.input.Width = maxInt(10, msg.Width-8)
		m.layout()
		return m, nil

	case catalogLoadedMsg:
		return m.handleCatalog(msg)

	case recommendationsMsg:
		return m.handleRecommendations(msg)

	case spinner.TickMsg:
		if !m.controller.Snapshot().Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		if !m.showDiagnostics || msg.gen != m.diagGen {
			return m, nil
		}
		return m, tea.Batch(readDiagnosticsCmd(m.logPath), tickCmd(m.diagTick, m.diagGen))

	case diagnosticsMsg:
		m.diagEntries = msg.entries
		m.diagErr = msg.err
		m.layout()
		return m, nil
	}

	if m.focus == FocusSearch {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.overlay.IsOpen() {
		return m.renderOverlay()
	}
	return m.renderMain()
}

func (m Model) handleCatalog(msg catalogLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.controller.SetCatalog(nil, msg.err)
		m.metrics.ObserveCatalog(0, msg.err)
		m.logger.Error("catalog load failed", zap.String("source", msg.source), zap.Error(msg.err))
		m.setError(fmt.Sprintf("Catalog not ready: %v", msg.err))
		return m, nil
	}
	m.catalogSource = msg.source
	m.controller.SetCatalog(msg.records, nil)
	m.metrics.ObserveCatalog(len(msg.records), nil)
	m.logger.Info("catalog loaded", zap.String("source", msg.source), zap.Int("records", len(msg.records)))
	m.setStatus(fmt.Sprintf("Loaded %d whiskeys", len(msg.records)))
	m.layout()
	return m, nil
}

func (m Model) handleRecommendations(msg recommendationsMsg) (tea.Model, tea.Cmd) {
	applied := m.controller.Resolve(state.Outcome{Seq: msg.seq, Records: msg.records, Err: msg.err})
	if !applied {
		m.metrics.ObserveStale()
		m.logger.Debug("discarded stale recommendations", zap.Uint64("seq", msg.seq))
		return m, nil
	}

	if msg.err != nil {
		m.logger.Warn("recommendation request failed",
			zap.Uint64("seq", msg.seq),
			zap.Int("index", msg.index),
			zap.Error(msg.err),
		)
		m.setError(describeRequestError(msg.err))
		m.layout()
		return m, nil
	}

	m.resultCursor = 0
	m.resultsView.GotoTop()
	if len(msg.records) == 0 {
		m.setStatus("No recommendations under this price")
	} else {
		m.setStatus(fmt.Sprintf("%d recommendations", len(msg.records)))
	}
	m.layout()
	return m, nil
}

// dispatch starts the request described by d, cancelling any previous one.
func (m *Model) dispatch(d state.Dispatch) tea.Cmd {
	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel

	m.input.Reset()
	m.matchCursor = 0
	m.status = ""
	m.statusIsErr = false
	m.logger.Debug("dispatch recommendation",
		zap.Uint64("seq", d.Seq),
		zap.Int("index", d.Request.Index),
		zap.Stringer("max_price", d.Request.MaxPrice),
	)
	m.layout()

	return tea.Batch(m.spinner.Tick, recommendCmd(ctx, m.recommender, d))
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusIsErr = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusIsErr = true
}

func (m *Model) applyTheme() {
	styles := m.theme.Styles()
	m.input.PromptStyle = styles.AccentText
	m.input.TextStyle = styles.Text
	m.input.PlaceholderStyle = styles.FaintText
	m.spinner.Style = styles.AccentText
	m.help.Styles.ShortKey = styles.WarningText
	m.help.Styles.ShortDesc = styles.MutedText
	m.help.Styles.ShortSeparator = styles.FaintText
}

func describeRequestError(err error) string {
	var se *recommend.StatusError
	switch {
	case errors.As(err, &se) && se.Message != "":
		return fmt.Sprintf("Recommendation failed: %s", se.Message)
	case errors.As(err, &se):
		return fmt.Sprintf("Recommendation failed: service returned %d", se.StatusCode)
	case errors.Is(err, recommend.ErrMalformedResponse):
		return "Recommendation failed: unexpected response from service"
	default:
		return fmt.Sprintf("Recommendation failed: %v", err)
	}
}

// Messages

type catalogLoadedMsg struct {
	source  string
	records []catalog.Record
	err     error
}

type recommendationsMsg struct {
	seq     uint64
	index   int
	records []catalog.Record
	err     error
}

type diagnosticsMsg struct {
	entries []logtail.Entry
	err     error
}

// tickMsg refreshes the diagnostics panel. gen ties it to one opening of the
// panel so toggling does not stack refresh loops.
type tickMsg struct {
	at  time.Time
	gen int
}

// Commands

func loadCatalogCmd(ctx context.Context, load CatalogLoader) tea.Cmd {
	return func() tea.Msg {
		store, err := load(ctx)
		if err != nil {
			return catalogLoadedMsg{err: err}
		}
		return catalogLoadedMsg{source: store.Source(), records: store.Records()}
	}
}

func recommendCmd(ctx context.Context, r recommend.Recommender, d state.Dispatch) tea.Cmd {
	return func() tea.Msg {
		if r == nil {
			return recommendationsMsg{seq: d.Seq, index: d.Request.Index, err: errors.New("no recommendation service configured")}
		}
		records, err := r.Recommend(ctx, d.Request)
		return recommendationsMsg{seq: d.Seq, index: d.Request.Index, records: records, err: err}
	}
}

func readDiagnosticsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		entries, err := logtail.Tail(path, diagnosticsLines, logtail.LevelWarn)
		return diagnosticsMsg{entries: entries, err: err}
	}
}

func tickCmd(d time.Duration, gen int) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg{at: t, gen: gen}
	})
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(m.ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok && fm.cancel != nil {
		fm.cancel()
	}
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
