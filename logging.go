package nanny

import (
	"io"
	"log/slog"
)

// Logger is the structured logger used for diagnostics. *slog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// NewJSONLogger returns an slog logger writing JSON lines to w. The level
// can be changed later through the returned LevelVar.
func NewJSONLogger(w io.Writer, level slog.Level) (*slog.Logger, *slog.LevelVar) {
	levelVar := &slog.LevelVar{}
	levelVar.Set(level)
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: levelVar})
	return slog.New(handler).With("component", "nanny"), levelVar
}
