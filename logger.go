package transferengine

import (
	"context"
	"fmt"
	"log/slog"
)

// Logger is the engine-facing logging contract, kept identical in shape to
// the teacher's Debug/Info/Error interface so machines can log without
// depending on a concrete logging library.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// NoopLogger discards everything. It is the Session default.
type NoopLogger struct{}

func (NoopLogger) Debug(format string, args ...interface{}) {}
func (NoopLogger) Info(format string, args ...interface{})  {}
func (NoopLogger) Error(format string, args ...interface{}) {}

// SlogLogger adapts a *slog.Logger to the engine's Logger interface. Unlike
// the teacher's hand-rolled FileLogger (mutex + manual timestamp
// formatting), structured fields and levels are delegated to log/slog.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps logger. A nil logger falls back to slog.Default().
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

func (l *SlogLogger) Debug(format string, args ...interface{}) {
	l.logger.Log(context.Background(), slog.LevelDebug, sprintfOrFormat(format, args...))
}

func (l *SlogLogger) Info(format string, args ...interface{}) {
	l.logger.Log(context.Background(), slog.LevelInfo, sprintfOrFormat(format, args...))
}

func (l *SlogLogger) Error(format string, args ...interface{}) {
	l.logger.Log(context.Background(), slog.LevelError, sprintfOrFormat(format, args...))
}

func sprintfOrFormat(format string, args ...interface{}) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
