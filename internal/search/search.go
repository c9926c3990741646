// Package search implements the incremental prefix search over the catalog.
package search

import (
	"strings"
	"unicode/utf8"

	"github.com/five82/dram/internal/catalog"
)

// Match pairs a record with its position in the canonical catalog order.
type Match struct {
	Record        catalog.Record
	OriginalIndex int
}

// Search returns every record whose name satisfies the query, in catalog order.
// Each whitespace-separated query token must be a prefix of at least one token of
// the name; token order does not matter. Comparison is case-insensitive and
// punctuation is left alone.
//
// An empty query returns no matches: the caller hides the result panel rather
// than listing the whole catalog.
func Search(query string, records []catalog.Record) []Match {
	if len(query) == 0 {
		return nil
	}
	queryTokens := Tokens(query)

	var matches []Match
	for i, rec := range records {
		if matchesAll(queryTokens, Tokens(rec.Name)) {
			matches = append(matches, Match{Record: rec, OriginalIndex: i})
		}
	}
	return matches
}

// Tokens lower-cases s and splits it on runs of whitespace.
func Tokens(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

// MatchedPrefixes reports, for each name token, the rune length of the longest
// query token that prefixes it. Zero means the token was not matched. Renderers use it
// to highlight the typed prefix.
func MatchedPrefixes(query, name string) []int {
	queryTokens := Tokens(query)
	nameTokens := strings.Fields(name)
	out := make([]int, len(nameTokens))
	for i, tok := range nameTokens {
		lower := strings.ToLower(tok)
		for _, q := range queryTokens {
			if n := utf8.RuneCountInString(q); strings.HasPrefix(lower, q) && n > out[i] {
				out[i] = n
			}
		}
	}
	return out
}

func matchesAll(queryTokens, nameTokens []string) bool {
	for _, q := range queryTokens {
		if !anyHasPrefix(nameTokens, q) {
			return false
		}
	}
	return true
}

func anyHasPrefix(tokens []string, prefix string) bool {
	for _, tok := range tokens {
		if strings.HasPrefix(tok, prefix) {
			return true
		}
	}
	return false
}
