package logger

import (
	"log/slog"
	"os"
)

// New builds the application logger for the given environment: dev and
// local get human-readable debug output, everything else JSON at info.
func New(env string) *slog.Logger {
	var handler slog.Handler
	switch env {
	case "dev", "local":
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	default:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.New(handler)
}
