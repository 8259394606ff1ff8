package events

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sr093906/photok/internal/config"
)

// Logger provides structured logging backed by logrus. Components hold
// a *Logger scoped to them via WithField("component", ...).
type Logger struct {
	entry *logrus.Entry
}

// NewLogger creates a logger from config.
func NewLogger(cfg *config.LogConfig) (*Logger, error) {
	base := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	if cfg.Format == "json" {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			DisableColors: !cfg.Color,
		})
	}

	var output io.Writer = os.Stderr
	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		output = file
	}
	base.SetOutput(output)

	return &Logger{entry: logrus.NewEntry(base)}, nil
}

// NewTestLogger creates a debug-level JSON logger writing to output.
func NewTestLogger(output io.Writer) *Logger {
	base := logrus.New()
	base.SetLevel(logrus.DebugLevel)
	base.SetFormatter(&logrus.JSONFormatter{})
	base.SetOutput(output)
	return &Logger{entry: logrus.NewEntry(base)}
}

// WithField returns a logger with an additional field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// WithFields returns a logger with additional fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// WithError adds an error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{entry: l.entry.WithError(err)}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string) {
	l.entry.Debug(msg)
}

// Info logs at info level.
func (l *Logger) Info(msg string) {
	l.entry.Info(msg)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string) {
	l.entry.Warn(msg)
}

// Error logs at error level.
func (l *Logger) Error(msg string) {
	l.entry.Error(msg)
}
