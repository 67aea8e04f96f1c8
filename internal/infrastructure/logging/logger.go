// Package logging implements ports.Logger on top of zerolog, the way the
// teacher's infrastructure/logging package wraps its own structured
// logging library behind the same port.
package logging

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/flowforge/streamline/internal/ports"
)

// Options configures the zerolog adapter.
type Options struct {
	Writer    io.Writer
	Level     string
	JSON      bool
	Layer     string
	Component string
}

// Logger implements ports.Logger using zerolog.
type Logger struct {
	zl zerolog.Logger
}

// New builds a Logger from Options, defaulting to stderr, info level, and
// a human-readable console writer (matching the CLI's default, JSON only
// when requested for machine consumption).
func New(opts Options) (*Logger, error) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	var out io.Writer = w
	if !opts.JSON {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	zl := zerolog.New(out).Level(level).With().Timestamp().Logger()
	if opts.Layer != "" {
		zl = zl.With().Str("layer", opts.Layer).Logger()
	}
	if opts.Component != "" {
		zl = zl.With().Str("component", opts.Component).Logger()
	}

	return &Logger{zl: zl}, nil
}

func (l *Logger) withContext(ctx context.Context) zerolog.Logger {
	if id := ports.GetCorrelationID(ctx); id != "" {
		return l.zl.With().Str("run_id", id).Logger()
	}
	return l.zl
}

func fieldsToMap(event *zerolog.Event, fields []any) *zerolog.Event {
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		event = event.Interface(key, fields[i+1])
	}
	return event
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...any) {
	fieldsToMap(l.withContext(ctx).Debug(), fields).Msg(msg)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...any) {
	fieldsToMap(l.withContext(ctx).Info(), fields).Msg(msg)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...any) {
	fieldsToMap(l.withContext(ctx).Warn(), fields).Msg(msg)
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...any) {
	fieldsToMap(l.withContext(ctx).Error(), fields).Msg(msg)
}

func (l *Logger) With(fields ...any) ports.Logger {
	ctx := l.zl.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		ctx = ctx.Interface(key, fields[i+1])
	}
	return &Logger{zl: ctx.Logger()}
}

var _ ports.Logger = (*Logger)(nil)
