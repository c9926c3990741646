// Package detail tracks the record detail overlay: which record is open,
// whether its keywords block is expanded, and where it was last drawn.
package detail

import (
	"fmt"
	"strings"

	"github.com/five82/dram/internal/catalog"
)

// Rect is a rendered area in terminal cells.
type Rect struct {
	X, Y, Width, Height int
}

// Contains reports whether the cell (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Overlay is the detail view state. The zero value is closed.
type Overlay struct {
	open     bool
	record   catalog.Record
	keywords bool
	bounds   Rect
}

// Open shows rec. The keywords block always starts collapsed.
func (o *Overlay) Open(rec catalog.Record) {
	o.open = true
	o.record = rec
	o.keywords = false
	o.bounds = Rect{}
}

// Close hides the overlay and forgets the record.
func (o *Overlay) Close() {
	*o = Overlay{}
}

// ToggleKeywords expands or collapses the keywords block. No-op when closed.
func (o *Overlay) ToggleKeywords() {
	if !o.open {
		return
	}
	o.keywords = !o.keywords
}

func (o *Overlay) IsOpen() bool { return o.open }

func (o *Overlay) Record() catalog.Record { return o.record }

func (o *Overlay) KeywordsOpen() bool { return o.keywords }

// SetBounds records where the overlay surface was drawn.
func (o *Overlay) SetBounds(r Rect) {
	if !o.open {
		return
	}
	o.bounds = r
}

// Bounds returns the last recorded surface.
func (o *Overlay) Bounds() Rect { return o.bounds }

// Click handles a mouse press at (x, y). A press outside the surface closes
// the overlay; a press inside is contained. It reports whether the overlay
// closed.
func (o *Overlay) Click(x, y int) bool {
	if !o.open || o.bounds.Empty() {
		return false
	}
	if o.bounds.Contains(x, y) {
		return false
	}
	o.Close()
	return true
}

// KeywordsLabel is the header line of the collapsible block.
func (o *Overlay) KeywordsLabel() string {
	if o.keywords {
		return "▾ Keywords"
	}
	return "▸ Keywords"
}

// Lines renders the overlay body as plain lines, title first. Nil when closed.
func (o *Overlay) Lines() []string {
	if !o.open {
		return nil
	}
	rec := o.record
	lines := []string{rec.Name, ""}

	var stats []string
	if rec.SimilarityScore > 0 {
		stats = append(stats, SimilarityLabel(rec.SimilarityScore))
	}
	stats = append(stats, PriceLabel(rec.Price), RatingLabel(rec.Rating))
	lines = append(lines, strings.Join(stats, "   "))

	if rec.Category != "" {
		lines = append(lines, "Category: "+rec.Category)
	}
	if rec.Description != "" {
		lines = append(lines, "", rec.Description)
	}
	if rec.PreprocessedDescription != "" {
		lines = append(lines, "", o.KeywordsLabel())
		if o.keywords {
			lines = append(lines, rec.PreprocessedDescription)
		}
	}
	return lines
}

// SimilarityLabel formats a score in [0,1] as a percentage.
func SimilarityLabel(score float64) string {
	return fmt.Sprintf("Similarity %.1f%%", score*100)
}

// PriceLabel formats a display price.
func PriceLabel(p string) string {
	if p == "" {
		return "Price n/a"
	}
	return "Price $" + p
}

// RatingLabel formats a display rating on the 100 scale.
func RatingLabel(r string) string {
	if r == "" {
		return "Rating n/a"
	}
	return "Rating " + r + "/100"
}
