// Package logging provides the process logger. Components depend on the
// glog.Logger contract; this package supplies a JSON implementation of it.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

// LevelTrace sits below slog's debug level.
const LevelTrace = slog.Level(-8)

// Logger implements glog.Logger and glog.FieldsLogger on top of slog.
type Logger struct {
	base *slog.Logger
	ctx  context.Context
}

var (
	_ glog.Logger       = (*Logger)(nil)
	_ glog.FieldsLogger = (*Logger)(nil)
)

// New returns a JSON logger writing to w at the given level name
// ("trace", "debug", "info", "warn", "error"). Unknown names mean info.
func New(w io.Writer, level string) *Logger {
	if w == nil {
		w = os.Stderr
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return &Logger{base: slog.New(handler)}
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Named returns a child logger tagged with a component name.
func (l *Logger) Named(name string) glog.Logger {
	return &Logger{base: l.base.With("logger", name), ctx: l.ctx}
}

func (l *Logger) Trace(msg string, args ...any) { l.log(LevelTrace, msg, args...) }
func (l *Logger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args...) }

// Fatal logs at error level and exits the process.
func (l *Logger) Fatal(msg string, args ...any) {
	l.log(slog.LevelError, msg, args...)
	os.Exit(1)
}

func (l *Logger) WithContext(ctx context.Context) glog.Logger {
	return &Logger{base: l.base, ctx: ctx}
}

func (l *Logger) WithFields(fields map[string]any) glog.Logger {
	if len(fields) == 0 {
		return l
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return &Logger{base: l.base.With(args...), ctx: l.ctx}
}

func (l *Logger) log(level slog.Level, msg string, args ...any) {
	ctx := l.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	l.base.Log(ctx, level, msg, args...)
}

// Provider hands out named children of a root logger.
type Provider struct {
	Root *Logger
}

var _ glog.LoggerProvider = Provider{}

func (p Provider) GetLogger(name string) glog.Logger {
	if p.Root == nil {
		return glog.Nop()
	}
	return p.Root.Named(name)
}
