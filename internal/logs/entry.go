package logs

import (
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"matchreel/internal/logging"
)

// Entry is one decoded log line.
type Entry struct {
	Time      time.Time
	Level     string
	Message   string
	Component string
	MatchID   int64
	EventType string
	// Raw holds the line as written, for --json passthrough and for lines
	// that are not JSON.
	Raw string
}

// Filter narrows tailed entries. Zero values match everything.
type Filter struct {
	MinLevel  string
	Component string
	MatchID   int64
}

// Parse decodes a JSON log line. Non-JSON lines are returned as info-level
// entries carrying only Raw and Message.
func Parse(line string) Entry {
	entry := Entry{Raw: line, Message: line, Level: "info"}
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return entry
	}
	if ts, ok := fields["ts"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			entry.Time = parsed
		}
	}
	if level, ok := fields["level"].(string); ok && level != "" {
		entry.Level = strings.ToLower(level)
	}
	if msg, ok := fields["msg"].(string); ok {
		entry.Message = msg
	}
	entry.Component, _ = fields[logging.FieldComponent].(string)
	entry.EventType, _ = fields[logging.FieldEventType].(string)
	if id, ok := fields[logging.FieldMatchID].(float64); ok {
		entry.MatchID = int64(id)
	}
	return entry
}

// Match reports whether e passes the filter.
func (f Filter) Match(e Entry) bool {
	if f.MinLevel != "" && levelOf(e.Level) < ParseLevel(f.MinLevel) {
		return false
	}
	if f.Component != "" && !strings.EqualFold(f.Component, e.Component) {
		return false
	}
	if f.MatchID != 0 && f.MatchID != e.MatchID {
		return false
	}
	return true
}

// ParseLevel maps a level name to slog. Unknown names mean debug so nothing
// is hidden.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

func levelOf(name string) slog.Level {
	if name == "" {
		return slog.LevelInfo
	}
	return ParseLevel(name)
}
