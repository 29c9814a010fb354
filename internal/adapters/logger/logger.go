// Package logger implements a logging adapter using log/slog.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

var _ ports.Logger = (*Logger)(nil)

// Logger implements ports.Logger using log/slog.
// Loggers derived with With share the output settings of their parent.
type Logger struct {
	state *state
	attrs []any
}

type state struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	level    slog.LevelVar
	jsonMode bool
	output   io.Writer
}

// New creates a new Logger writing pretty records to stderr.
func New() *Logger {
	s := &state{output: os.Stderr}
	s.level.Set(slog.LevelInfo)
	s.rebuild()
	return &Logger{state: s}
}

// rebuild must be called with mu held for writing.
func (s *state) rebuild() {
	opts := &slog.HandlerOptions{Level: &s.level}
	if s.jsonMode {
		s.logger = slog.New(slog.NewJSONHandler(s.output, opts))
		return
	}
	s.logger = slog.New(NewPrettyHandler(s.output, opts))
}

// SetOutput updates the logger's output destination.
// If w is nil, os.Stderr is used.
func (l *Logger) SetOutput(w io.Writer) {
	l.state.mu.Lock()
	defer l.state.mu.Unlock()

	if w == nil {
		w = os.Stderr
	}
	l.state.output = w
	l.state.rebuild()
}

// SetJSON switches between JSON and pretty logging.
func (l *Logger) SetJSON(enable bool) {
	l.state.mu.Lock()
	defer l.state.mu.Unlock()

	l.state.jsonMode = enable
	l.state.rebuild()
}

// SetLevel sets the minimum level that is written.
func (l *Logger) SetLevel(level domain.LogLevel) {
	l.state.level.Set(slog.Level(level))
}

// With returns a logger that attaches key=value to every record.
func (l *Logger) With(key string, value any) ports.Logger {
	attrs := slices.Clip(l.attrs)
	return &Logger{state: l.state, attrs: append(attrs, key, value)}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string) {
	l.log(slog.LevelDebug, msg)
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.log(slog.LevelInfo, msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.log(slog.LevelWarn, msg)
}

// Error logs an error together with its cause chain.
func (l *Logger) Error(err error) {
	if err == nil {
		return
	}

	l.state.mu.RLock()
	jsonMode := l.state.jsonMode
	l.state.mu.RUnlock()

	entries := collectErrorEntries(err)
	if jsonMode {
		attrs := append(slices.Clip(l.attrs), "error", err.Error())
		for _, e := range entries {
			for k, v := range e.Metadata {
				attrs = append(attrs, k, v)
			}
		}
		l.log(slog.LevelError, "operation failed", attrs...)
		return
	}
	l.log(slog.LevelError, formatErrorEntries(entries), l.attrs...)
}

func (l *Logger) log(level slog.Level, msg string, attrs ...any) {
	if attrs == nil {
		attrs = l.attrs
	}
	l.state.mu.RLock()
	defer l.state.mu.RUnlock()
	l.state.logger.Log(context.Background(), level, msg, attrs...)
}
