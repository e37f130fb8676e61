// Package log provides a structured logging interface for benchmark runs.
//
// The Logger interface is slog-compatible so that the adapter, the AutoML
// engine and the tests can each pick a backend: slog for the process log,
// zerolog for the engine's per-evaluation analysis log, and TestLogger for
// assertions.
//
// Example usage:
//
//	logger := log.NewSlogLogger(nil).With(
//	    log.FrameworkKey, "GAMA",
//	    log.FrameworkVersionKey, "21.0.1",
//	)
//	logger.Info("Running GAMA",
//	    log.MaxRuntimeSecondsKey, 3600,
//	    log.NJobsKey, 8,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional key-value pairs.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional key-value pairs.
	Warn(msg string, fields ...any)

	// Error logs an error-level message. If the first field is an error it
	// is attached under ErrAttrKey.
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// splitError pulls a leading error out of fields so that backends can
// attach it the way they prefer.
func splitError(fields []any) (error, []any) {
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			return err, fields[1:]
		}
	}
	return nil, fields
}
