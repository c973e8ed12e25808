package logger

import (
	"io"
	"log/slog"
	"os"
)

// Logger defines the interface for logging in the Tether system.
// It provides standard logging levels and a mechanism to add structured context.
type Logger interface {
	// Debug logs a message at the debug level.
	Debug(msg string, args ...any)
	// Info logs a message at the info level.
	Info(msg string, args ...any)
	// Warn logs a message at the warning level.
	Warn(msg string, args ...any)
	// Error logs a message at the error level.
	Error(msg string, args ...any)
	// With returns a new Logger with the given structured context added.
	With(args ...any) Logger
}

// Log is the global logger instance used throughout the application.
// It is initialized with a default JSON handler pointing to stderr so that
// console output on stdout stays readable.
var Log Logger = New(os.Stderr, "info")

// InitLogger initializes the global Log instance with the specified logging level.
// Supported levels are "debug", "info", "warn", and "error".
// It uses a JSON handler and includes source file information in the output.
func InitLogger(level string) {
	Log = New(os.Stderr, level)
}

// New builds a JSON Logger writing to w at the given level.
func New(w io.Writer, level string) Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
		// Add source file info for better debugging
		AddSource: true,
	}
	return &wrapper{l: slog.New(slog.NewJSONHandler(w, opts))}
}

// Discard returns a Logger that drops everything. Useful in tests.
func Discard() Logger {
	return &wrapper{l: slog.New(slog.NewJSONHandler(io.Discard, nil))}
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type wrapper struct {
	l *slog.Logger
}

func (w *wrapper) Debug(msg string, args ...any) { w.l.Debug(msg, args...) }
func (w *wrapper) Info(msg string, args ...any)  { w.l.Info(msg, args...) }
func (w *wrapper) Warn(msg string, args ...any)  { w.l.Warn(msg, args...) }
func (w *wrapper) Error(msg string, args ...any) { w.l.Error(msg, args...) }
func (w *wrapper) With(args ...any) Logger       { return &wrapper{l: w.l.With(args...)} }

// Personal.AI order the ending
