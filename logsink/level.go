// Package logsink provides per-session log sinks shared by validators.
//
// A Registry is created once per process and hands out one Sink per session
// id, creating it lazily on first use. Sinks are never evicted. Every entry
// is forwarded to slog with a session_id attribute and kept in memory for
// display; entries logged with echo=true are also written to the registry's
// echo writer (e.g. the console the operator is watching).
package logsink

import "log/slog"

// Level is the severity of a sink entry.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level.
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
		return "UNKNOWN"
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
