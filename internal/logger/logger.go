// Package logger is the structured, module-scoped logging used across the
// service. It wraps log/slog: human-readable text goes to the console and
// JSON to an optional log file.
//
// A CentralLogger is built from configuration at startup and installed with
// SetGlobal. Packages then ask for a module logger:
//
//	log := logger.Global().Module("signup")
//	log.Info("Signup accepted", logger.String("email", email))
//
// Module names nest with a dot, so Module("signup").Module("form") logs as
// "signup.form". Field values under keys that look like secrets are
// replaced, and email fields are masked to "j***@example.com", so forms can
// log what they handle without leaking visitor data.
//
// Tests use NewSlogLogger to capture JSON output or NewDiscardLogger to
// silence a component.
package logger

import (
	"context"
	"time"
)

// LogLevel names a severity.
type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Field is one key/value pair attached to a record.
type Field struct {
	Key   string
	Value any
}

const (
	errorKey   = "error"
	moduleKey  = "module"
	traceIDKey = "trace_id"
)

// Logger is the logging interface passed to components.
type Logger interface {
	Module(name string) Logger

	Trace(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Log(level LogLevel, msg string, fields ...Field)

	// With returns a logger that adds fields to every record
	With(fields ...Field) Logger
	// WithContext returns a logger that adds the context's trace ID
	WithContext(ctx context.Context) Logger

	Flush() error
}

// Field constructors.
func String(key, value string) Field { return Field{Key: key, Value: value} }
func Int(key string, value int) Field { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }
func Duration(key string, v time.Duration) Field { return Field{Key: key, Value: v} }
func Time(key string, value time.Time) Field { return Field{Key: key, Value: value} }
func Any(key string, value any) Field { return Field{Key: key, Value: value} }

// Error records err's message under "error"; a nil err logs as null.
func Error(err error) Field {
	if err == nil {
		return Field{Key: errorKey}
	}
	return Field{Key: errorKey, Value: err.Error()}
}
