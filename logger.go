package texgo

import (
	"log/slog"
	"os"
)

// Logger emits the cache's structured diagnostics: fetch and decode
// failures, disk cache writes, downscale notices. Field names are stable
// across the package ("url", "hash", "error") so log pipelines can key
// on them.
type Logger struct {
	*slog.Logger
}

// NewLogger wraps handler. A nil handler falls back to info-level text
// output on stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger returns a Logger writing JSON records to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger returns a Logger writing human-readable records to stderr.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{Logger: slog.New(handler)}
}

// NoopLogger returns a Logger that drops every record.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}
