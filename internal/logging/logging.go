// Package logging builds the charmbracelet/log loggers used by the server and
// the CLI, and carries them on context.Context.
package logging

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// New creates a logger writing to w at the given level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func New(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// ParseLevel maps a flag value ("debug", "info", "warn", "error") to a level.
// An empty string means info.
func ParseLevel(s string) (log.Level, error) {
	if s == "" {
		return log.InfoLevel, nil
	}
	level, err := log.ParseLevel(strings.ToLower(s))
	if err != nil {
		return log.InfoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *log.Logger {
	return New(io.Discard, log.FatalLevel)
}

type ctxKey int

const loggerKey ctxKey = 0

// WithLogger returns a new context with l attached.
func WithLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext retrieves the logger from ctx, or log.Default() when none is set.
func FromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
