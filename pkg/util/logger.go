package util

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger returns a text logger at debug level for development and a JSON
// logger at info level for every other environment.
func NewLogger(env string) *slog.Logger {
	return NewLoggerWriter(env, os.Stdout)
}

func NewLoggerWriter(env string, w io.Writer) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if env == "development" {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler).With("service", "lead-hunter", "env", env)
}
