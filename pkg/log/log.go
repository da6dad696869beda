// Package log provides the structured logging interface used across gophet.
//
// The interface is deliberately small and slog-shaped: leveled methods that
// accept alternating key/value fields, plus With for building contextual
// handles. The default provider is backed by rs/zerolog writing to stderr.
// Model types own an explicit Logger handle (injected or obtained from
// GetLoggerWithName) instead of reaching for a package-level singleton, so
// callers can silence, redirect, or capture the output of a single instance.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Logger is the leveled, structured logging interface gophet components hold.
//
// Fields are alternating key/value pairs, as in log/slog:
//
//	logger.Info("training started", "samples", 1000, "epochs", 40)
//
// A trailing key without a value is emitted under the key "!BADKEY".
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)

	// With returns a Logger that includes the given fields on every event.
	With(fields ...any) Logger
}

// Standard field keys. Using these keeps events filterable across packages.
const (
	ComponentKey = "component"
	OperationKey = "operation"
	ModelKey     = "model"
	SamplesKey   = "samples"
	SeriesKey    = "series"
	EpochKey     = "epoch"
	LossKey      = "loss"
)

var (
	mu         sync.RWMutex
	defaultLog Logger = newZerologLogger(zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger())
)

// GetLogger returns the process-wide default Logger.
func GetLogger() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLog
}

// GetLoggerWithName returns the default Logger scoped with a component name.
func GetLoggerWithName(name string) Logger {
	return GetLogger().With(ComponentKey, name)
}

// SetLogger replaces the process-wide default Logger. Handles already held by
// model instances are unaffected; this only changes what future GetLogger
// calls return.
func SetLogger(l Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLog = l
}

// New returns a zerolog-backed Logger writing JSON events to w at the given
// level ("debug", "info", "warn", "error"; anything else means info).
func New(w io.Writer, level string) Logger {
	zl := zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger()
	return newZerologLogger(zl)
}

// Discard returns a Logger that drops every event.
func Discard() Logger {
	return newZerologLogger(zerolog.Nop())
}

func toZerologLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

type zerologLogger struct {
	zl zerolog.Logger
}

func newZerologLogger(zl zerolog.Logger) *zerologLogger {
	return &zerologLogger{zl: zl}
}

func (l *zerologLogger) Debug(msg string, fields ...any) { l.emit(l.zl.Debug(), msg, fields) }
func (l *zerologLogger) Info(msg string, fields ...any)  { l.emit(l.zl.Info(), msg, fields) }
func (l *zerologLogger) Warn(msg string, fields ...any)  { l.emit(l.zl.Warn(), msg, fields) }
func (l *zerologLogger) Error(msg string, fields ...any) { l.emit(l.zl.Error(), msg, fields) }

func (l *zerologLogger) With(fields ...any) Logger {
	ctx := l.zl.With()
	for k, v := range pairs(fields) {
		ctx = ctx.Interface(k, v)
	}
	return &zerologLogger{zl: ctx.Logger()}
}

func (l *zerologLogger) emit(ev *zerolog.Event, msg string, fields []any) {
	for k, v := range pairs(fields) {
		if err, ok := v.(error); ok {
			ev = ev.AnErr(k, err)
			continue
		}
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

// pairs folds an alternating key/value slice into a map, tolerating odd
// lengths and non-string keys the way slog does.
func pairs(fields []any) map[string]any {
	if len(fields) == 0 {
		return nil
	}
	m := make(map[string]any, len(fields)/2+1)
	for i := 0; i < len(fields); i += 2 {
		if i+1 >= len(fields) {
			m["!BADKEY"] = fields[i]
			break
		}
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprint(fields[i])
		}
		m[key] = fields[i+1]
	}
	return m
}
