package logtail

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Level orders log severities.
type Level int

const (
	LevelUnknown Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps zap level names, in either case, to a Level.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error", "dpanic", "panic", "fatal":
		return LevelError
	default:
		return LevelUnknown
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "?"
	}
}

// Entry is one parsed log line.
type Entry struct {
	Time    string
	Level   Level
	Message string
	// Fields is the structured context rendered as sorted key=value pairs.
	Fields string
}

// ParseLine understands both zap encoders: JSON objects and the tab-separated
// console format. Lines that are neither are reported as not ok.
func ParseLine(line string) (Entry, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Entry{}, false
	}
	if strings.HasPrefix(line, "{") {
		return parseJSON(line)
	}
	return parseConsole(line)
}

func parseJSON(line string) (Entry, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, false
	}
	e := Entry{
		Time:    stringField(raw, "ts"),
		Level:   ParseLevel(stringField(raw, "level")),
		Message: stringField(raw, "msg"),
	}
	delete(raw, "ts")
	delete(raw, "level")
	delete(raw, "msg")
	delete(raw, "caller")
	delete(raw, "stacktrace")
	e.Fields = formatFields(raw)
	return e, e.Level != LevelUnknown || e.Message != ""
}

func parseConsole(line string) (Entry, bool) {
	parts := strings.SplitN(line, "\t", 5)
	if len(parts) < 3 {
		return Entry{}, false
	}
	level := ParseLevel(parts[1])
	if level == LevelUnknown {
		return Entry{}, false
	}
	e := Entry{Time: parts[0], Level: level}

	rest := parts[2:]
	// The console encoder puts the caller before the message when enabled.
	if len(rest) > 1 && looksLikeCaller(rest[0]) {
		rest = rest[1:]
	}
	e.Message = rest[0]
	if len(rest) > 1 {
		var raw map[string]any
		if json.Unmarshal([]byte(rest[len(rest)-1]), &raw) == nil {
			e.Fields = formatFields(raw)
		} else {
			e.Fields = rest[len(rest)-1]
		}
	}
	return e, true
}

func looksLikeCaller(s string) bool {
	i := strings.LastIndex(s, ".go:")
	return i > 0 && !strings.ContainsAny(s, " \t")
}

func stringField(raw map[string]any, key string) string {
	switch v := raw[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func formatFields(raw map[string]any) string {
	if len(raw) == 0 {
		return ""
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", k, raw[k])
	}
	return b.String()
}
