package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/dram/internal/search"
)

// truncate shortens a string to the given limit, adding ellipsis if needed.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// padRight pads a string with spaces to the given width.
func padRight(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(r))
}

// highlightName styles the leading part of each name word that a query token
// matched. Whitespace runs in name are collapsed to single spaces.
func highlightName(query, name string, base, hl lipgloss.Style) string {
	words := strings.Fields(name)
	prefixes := search.MatchedPrefixes(query, name)
	parts := make([]string, len(words))
	for i, w := range words {
		n := 0
		if i < len(prefixes) {
			n = prefixes[i]
		}
		runes := []rune(w)
		if n > len(runes) {
			n = len(runes)
		}
		if n == 0 {
			parts[i] = base.Render(w)
			continue
		}
		parts[i] = hl.Render(string(runes[:n])) + base.Render(string(runes[n:]))
	}
	return strings.Join(parts, base.Render(" "))
}

// clampInt bounds v to [lo, hi].
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// maxInt returns the larger of two integers.
func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
