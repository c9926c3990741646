// Package logtail reads the end of dram's log file for the diagnostics panel.
//
// Read returns the last N lines using a ring buffer, so memory stays
// proportional to N rather than to the file. Tail parses those lines with
// ParseLine, which understands both zap encoders:
//
//	{"level":"warn","ts":"2024-10-10T14:32:15.000Z","msg":"recommendation request failed","index":3}
//	2024-10-10T14:32:15.000Z	WARN	recommendation request failed	{"index": 3}
//
// and filters them by severity. Lines in neither format are dropped.
//
// A missing log file is not an error; the panel just shows nothing.
package logtail
