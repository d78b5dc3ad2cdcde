// Package logging wraps zerolog with key/value field helpers, a process-wide
// logger and request-scoped context propagation.
package logging

import (
	"context"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with variadic key/value methods
type Logger struct {
	zl zerolog.Logger
}

var global atomic.Pointer[Logger]

func init() {
	global.Store(NewDevelopment())
}

// NewProduction creates a JSON logger on stdout at info level
func NewProduction() *Logger {
	return NewWithWriter(os.Stdout, zerolog.InfoLevel)
}

// NewDevelopment creates a console logger on stdout at debug level
func NewDevelopment() *Logger {
	return NewWithWriter(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}, zerolog.DebugLevel)
}

// NewWithWriter creates a logger with custom writer
func NewWithWriter(w io.Writer, level zerolog.Level) *Logger {
	return &Logger{zl: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// SetGlobal sets the global logger instance
func SetGlobal(logger *Logger) {
	global.Store(logger)
}

// Global returns the global logger instance
func Global() *Logger {
	return global.Load()
}

// emit adds key/value pairs to e and writes it. Errors are rendered through
// Error() so they survive JSON encoding.
func emit(e *zerolog.Event, msg string, fields []interface{}) {
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		if err, ok := fields[i+1].(error); ok {
			e.AnErr(key, err)
			continue
		}
		e.Interface(key, fields[i+1])
	}
	e.Msg(msg)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...interface{}) { emit(l.zl.Debug(), msg, fields) }

// Info logs an info message
func (l *Logger) Info(msg string, fields ...interface{}) { emit(l.zl.Info(), msg, fields) }

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...interface{}) { emit(l.zl.Warn(), msg, fields) }

// Error logs an error message
func (l *Logger) Error(msg string, fields ...interface{}) { emit(l.zl.Error(), msg, fields) }

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(msg string, fields ...interface{}) { emit(l.zl.Fatal(), msg, fields) }

// With creates a child logger with additional fields
func (l *Logger) With(fields ...interface{}) *Logger {
	ctx := l.zl.With()
	for i := 0; i+1 < len(fields); i += 2 {
		if key, ok := fields[i].(string); ok {
			ctx = ctx.Interface(key, fields[i+1])
		}
	}
	return &Logger{zl: ctx.Logger()}
}

// Component tags every entry with the emitting subsystem
func (l *Logger) Component(name string) *Logger {
	return l.With("component", name)
}

// WithContext returns a logger carrying the request fields stored in ctx
func (l *Logger) WithContext(ctx context.Context) *Logger {
	fields := extractContextFields(ctx)
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}

// Enabled reports whether entries at level would be written
func (l *Logger) Enabled(level zerolog.Level) bool {
	return l.zl.GetLevel() <= level
}

// Debug logs a debug message using global logger
func Debug(msg string, fields ...interface{}) { Global().Debug(msg, fields...) }

// Info logs an info message using global logger
func Info(msg string, fields ...interface{}) { Global().Info(msg, fields...) }

// Warn logs a warning message using global logger
func Warn(msg string, fields ...interface{}) { Global().Warn(msg, fields...) }

// Error logs an error message using global logger
func Error(msg string, fields ...interface{}) { Global().Error(msg, fields...) }

// Fatal logs a fatal message and exits using global logger
func Fatal(msg string, fields ...interface{}) { Global().Fatal(msg, fields...) }
