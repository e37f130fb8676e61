package log

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/gamabench/pkg/errors"
)

type zerologLogger struct {
	l zerolog.Logger
}

// NewZerologLogger returns a Logger writing one JSON object per line to w.
// The AutoML engine uses it for its evaluation logs, which are read back by
// analysis tooling and therefore must stay line-oriented.
func NewZerologLogger(w io.Writer, level Level) Logger {
	zl := zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger()
	return &zerologLogger{l: zl}
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

func (z *zerologLogger) Debug(msg string, fields ...any) { z.emit(z.l.Debug(), msg, fields) }
func (z *zerologLogger) Info(msg string, fields ...any)  { z.emit(z.l.Info(), msg, fields) }
func (z *zerologLogger) Warn(msg string, fields ...any)  { z.emit(z.l.Warn(), msg, fields) }

func (z *zerologLogger) Error(msg string, fields ...any) {
	err, rest := splitError(fields)
	e := z.l.Error()
	if err != nil {
		e = e.AnErr(ErrAttrKey, err)
		if m, ok := err.(zerolog.LogObjectMarshaler); ok {
			e = e.Object("detail", m)
		}
	}
	z.emit(e, msg, rest)
}

func (z *zerologLogger) emit(e *zerolog.Event, msg string, fields []any) {
	if e == nil {
		return
	}
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		switch v := fields[i+1].(type) {
		case error:
			e = e.AnErr(key, v)
		case zerolog.LogObjectMarshaler:
			e = e.Object(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	e.Msg(msg)
}

func (z *zerologLogger) With(fields ...any) Logger {
	c := z.l.With()
	for i := 0; i+1 < len(fields); i += 2 {
		c = c.Interface(fmt.Sprint(fields[i]), fields[i+1])
	}
	return &zerologLogger{l: c.Logger()}
}

func (z *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return toZerologLevel(level) >= z.l.GetLevel()
}

// RouteWarnings sends errors.Warn output through logger at warn level until
// the returned function is called.
func RouteWarnings(logger Logger) (restore func()) {
	errors.SetZerologWarnFunc(func(w error) {
		logger.Warn(w.Error(), "warning", w)
	})
	return func() { errors.SetZerologWarnFunc(nil) }
}
