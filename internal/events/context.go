package events

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type contextKey int

const (
	loggerKey contextKey = iota
	entryIDKey
)

// FromContext extracts logger from context.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok {
		return l
	}
	return defaultLogger
}

// WithLogger adds logger to context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithEntryID adds a vault entry ID to context and to its logger.
func WithEntryID(ctx context.Context, id string) context.Context {
	logger := FromContext(ctx).WithField("entry_id", id)
	ctx = context.WithValue(ctx, entryIDKey, id)
	return WithLogger(ctx, logger)
}

// GetEntryID retrieves the entry ID from context.
func GetEntryID(ctx context.Context) string {
	if id, ok := ctx.Value(entryIDKey).(string); ok {
		return id
	}
	return ""
}

var defaultLogger = newDefaultLogger()

func newDefaultLogger() *Logger {
	base := logrus.New()
	base.SetLevel(logrus.InfoLevel)
	base.SetOutput(os.Stderr)
	return &Logger{entry: logrus.NewEntry(base)}
}

// SetDefault sets the default logger.
func SetDefault(logger *Logger) {
	defaultLogger = logger
}

// Discard returns a logger that drops everything. Handy as a default
// for optional logger parameters.
func Discard() *Logger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return &Logger{entry: logrus.NewEntry(base)}
}
