// Package ui is the Bubble Tea front end for dram.
//
// # Layout
//
//	┌ header: catalog size, theme ─────────────────────────┐
//	> search box
//	  live matches (prefix highlighted, cursor)
//	▌Max Price: $1000      ━━━━━●──────────────
//	╭ selected whiskey card ╮
//	▌Recommendations
//	  1. ranked results, service order
//	[diagnostics panel]
//	status line
//	short help
//
// Tab cycles keyboard focus between the search box, the price slider and the
// results list. Enter on a match selects it; Enter on a result opens the
// detail overlay, as does clicking a result or the selection card. Clicking
// outside the overlay closes it.
//
// # State
//
// Selection, query and results live in a state.Controller owned by this
// package's event loop. Requests run as tea.Cmd functions and come back as
// recommendationsMsg values tagged with their sequence number; the controller
// drops any that a newer selection has superseded. Starting a new request also
// cancels the previous request's context.
//
// The diagnostics panel (ctrl+l) tails the log file through logtail and shows
// warnings and errors, so request failures are visible without leaving the
// app.
package ui
