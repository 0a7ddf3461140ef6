package log

import (
	"log/slog"
	"strings"
)

// Level is the minimum severity a message needs to be emitted.
type Level int

const (
	// LevelDebug traces rule resolution and tool invocations.
	LevelDebug Level = iota
	// LevelInfo reports run lifecycle events.
	LevelInfo
	// LevelWarn flags recoverable problems, like a manifest that could
	// not be written.
	LevelWarn
	// LevelError reports failures that end the run.
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// ToSlogLevel maps a Level onto the slog scale.
func (l Level) ToSlogLevel() slog.Level {
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

// ParseLevel reads a --log-level flag value, case-insensitively.
// Unrecognized input falls back to info rather than failing: a typo in
// a logging flag should never block a gate run.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}
