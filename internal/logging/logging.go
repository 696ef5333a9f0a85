// Package logging configures the structured text logger every herd
// component writes to, the same log/slog setup the rest of the retrieved
// pack's service binaries use.
package logging

import (
	"io"
	"log/slog"
)

// New builds a text-handler logger writing to w at the given level ("debug",
// "info", "warn", "error"; anything else falls back to info).
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
