package state

import (
	"errors"
	"fmt"
	"time"

	"github.com/five82/dram/internal/catalog"
	"github.com/five82/dram/internal/price"
	"github.com/five82/dram/internal/recommend"
	"github.com/five82/dram/internal/search"
)

var (
	// ErrNoSuchMatch is returned when a selection does not address a current
	// match or catalog position.
	ErrNoSuchMatch = errors.New("no such match")
	// ErrCatalogNotReady is returned when selecting before a catalog is loaded.
	ErrCatalogNotReady = errors.New("catalog not ready")
)

// Phase is the controller's request state.
type Phase int

const (
	// Idle means nothing has been selected yet.
	Idle Phase = iota
	// Awaiting means a request is in flight.
	Awaiting
	// Ready means the latest request has resolved.
	Ready
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Awaiting:
		return "awaiting"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Body says what the results area shows.
type Body int

const (
	BodyEmpty Body = iota
	BodyLoading
	BodyResults
)

// Dispatch is a request the caller must send, tagged with its sequence number.
type Dispatch struct {
	Seq     uint64
	Request recommend.Request
}

// Outcome is the completion of a dispatched request.
type Outcome struct {
	Seq     uint64
	Records []catalog.Record
	Err     error
}

// Snapshot is a read-only copy of the controller state.
type Snapshot struct {
	Phase           Phase
	Query           string
	Matches         []search.Match
	Selected        catalog.Record
	SelectedIndex   int
	HasSelection    bool
	Recommendations []catalog.Record
	LastError       error
	CatalogSize     int
	CatalogErr      error
	Seq             uint64
	LastUpdated     time.Time
}

// Loading reports whether a request is in flight.
func (s Snapshot) Loading() bool {
	return s.Phase == Awaiting
}

// CatalogReady reports whether a non-empty catalog is installed.
func (s Snapshot) CatalogReady() bool {
	return s.CatalogSize > 0
}

// Body picks the results area content: the loading indicator while awaiting,
// results only when ready with a non-empty list, nothing otherwise.
func (s Snapshot) Body() Body {
	switch {
	case s.Phase == Awaiting:
		return BodyLoading
	case s.Phase == Ready && len(s.Recommendations) > 0:
		return BodyResults
	default:
		return BodyEmpty
	}
}

// Controller owns selection, query and results. It is not safe for concurrent
// use; the UI event loop is its only caller.
type Controller struct {
	records    []catalog.Record
	catalogErr error

	query   string
	matches []search.Match

	selected      catalog.Record
	selectedIndex int
	hasSelection  bool

	phase           Phase
	seq             uint64
	recommendations []catalog.Record
	lastErr         error
	lastUpdated     time.Time

	now func() time.Time
}

// NewController returns an idle controller with an empty catalog.
func NewController() *Controller {
	return &Controller{selectedIndex: -1, now: time.Now}
}

// SetCatalog installs the loaded catalog. On err the catalog stays empty and
// the error is kept for display.
func (c *Controller) SetCatalog(records []catalog.Record, err error) {
	if err != nil {
		c.records = nil
		c.catalogErr = err
	} else {
		c.records = cloneRecords(records)
		c.catalogErr = nil
	}
	c.matches = search.Search(c.query, c.records)
}

// SetQuery stores the live query and recomputes matches.
func (c *Controller) SetQuery(q string) {
	c.query = q
	c.matches = search.Search(q, c.records)
}

// Query returns the live query text.
func (c *Controller) Query() string {
	return c.query
}

// Matches returns the current match count.
func (c *Controller) Matches() int {
	return len(c.matches)
}

// Select picks the match at matchIndex and returns the request to send.
// On error the state is unchanged.
func (c *Controller) Select(matchIndex int, ceiling price.Ceiling) (Dispatch, error) {
	if len(c.records) == 0 {
		return Dispatch{}, ErrCatalogNotReady
	}
	if matchIndex < 0 || matchIndex >= len(c.matches) {
		return Dispatch{}, fmt.Errorf("select match %d of %d: %w", matchIndex, len(c.matches), ErrNoSuchMatch)
	}
	m := c.matches[matchIndex]
	return c.dispatch(m.Record, m.OriginalIndex, ceiling), nil
}

// SelectIndex is Select addressed by catalog position.
func (c *Controller) SelectIndex(originalIndex int, ceiling price.Ceiling) (Dispatch, error) {
	if len(c.records) == 0 {
		return Dispatch{}, ErrCatalogNotReady
	}
	if originalIndex < 0 || originalIndex >= len(c.records) {
		return Dispatch{}, fmt.Errorf("select index %d of %d: %w", originalIndex, len(c.records), ErrNoSuchMatch)
	}
	return c.dispatch(c.records[originalIndex], originalIndex, ceiling), nil
}

func (c *Controller) dispatch(rec catalog.Record, index int, ceiling price.Ceiling) Dispatch {
	c.query = ""
	c.matches = nil
	c.selected = rec
	c.selectedIndex = index
	c.hasSelection = true
	c.phase = Awaiting
	c.seq++
	return Dispatch{
		Seq:     c.seq,
		Request: recommend.Request{Index: index, MaxPrice: ceiling.Bound()},
	}
}

// Resolve applies an outcome if it belongs to the latest dispatch and reports
// whether it was applied. Superseded outcomes are dropped.
func (c *Controller) Resolve(o Outcome) bool {
	if c.seq == 0 || o.Seq != c.seq || c.phase != Awaiting {
		return false
	}
	c.phase = Ready
	c.lastUpdated = c.clock()
	if o.Err != nil {
		c.lastErr = o.Err
		return true
	}
	c.lastErr = nil
	c.recommendations = cloneRecords(o.Records)
	return true
}

func (c *Controller) clock() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

// IndexOf returns the catalog position of the first record named name, or -1.
func (c *Controller) IndexOf(name string) int {
	for i, r := range c.records {
		if r.Name == name {
			return i
		}
	}
	return -1
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	snap := Snapshot{
		Phase:           c.phase,
		Query:           c.query,
		Selected:        c.selected,
		SelectedIndex:   c.selectedIndex,
		HasSelection:    c.hasSelection,
		Recommendations: cloneRecords(c.recommendations),
		LastError:       c.lastErr,
		CatalogSize:     len(c.records),
		CatalogErr:      c.catalogErr,
		Seq:             c.seq,
		LastUpdated:     c.lastUpdated,
	}
	if len(c.matches) > 0 {
		snap.Matches = make([]search.Match, len(c.matches))
		copy(snap.Matches, c.matches)
	}
	return snap
}

func cloneRecords(records []catalog.Record) []catalog.Record {
	if len(records) == 0 {
		return nil
	}
	dup := make([]catalog.Record, len(records))
	copy(dup, records)
	return dup
}
