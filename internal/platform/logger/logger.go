// Package logger constructs the process-wide slog logger.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New builds a JSON logger writing to stdout. LIFELINK_LOG_LEVEL selects the
// level (debug, info, warn, error); anything else means info.
func New() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LIFELINK_LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("service", "lifelink")
}
