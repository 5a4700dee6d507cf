package common

import (
	"io"
	"log/slog"
	"strings"
)

// LevelFromVerbosity maps a -v count onto a level: 0 warn, 1 info, 2+ debug.
func LevelFromVerbosity(n int) string {
	switch {
	case n >= 2:
		return "debug"
	case n == 1:
		return "info"
	default:
		return "warn"
	}
}

// ParseLevel turns a level name into a slog.Level, defaulting to warn.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// NewLogger builds the process logger. Logs go to w (stderr for the CLI, so
// stdout stays reserved for converted output and the MCP stdio transport).
func NewLogger(cfg LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}
