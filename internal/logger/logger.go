// Package logger is the module-aware structured logger used across
// motiondetector, built on log/slog.
//
// A CentralLogger is created once from LoggingConfig and installed with
// SetGlobal. Packages take a scoped logger from it:
//
//	log := logger.Global().Module("pipeline")
//	log.Info("relay started", logger.String("stage", "relay"), logger.Int("capacity", 1))
//
// Modules nest, so Module("pipeline").Module("relay") logs with
// module="pipeline.relay". Console output is logfmt text without
// timestamps; the optional file output is JSON:
//
//	{"time":"2026-01-12T10:30:00Z","level":"INFO","msg":"pattern found","module":"detector","row":2,"col":5}
//
// Tests write JSON to a buffer with NewSlogLogger.
package logger

import (
	"context"
	"time"
	"unique"
)

// LogLevel names a severity
type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Levels lists the accepted level names, most verbose first
var Levels = []LogLevel{LogLevelTrace, LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError}

// Field is one key/value pair of a log line. Keys are interned, since the
// same few keys repeat on every frame.
type Field struct {
	Key   string
	Value any
}

func key(k string) string {
	return unique.Make(k).Value()
}

var errorKey = key("error")

// Logger is what components log through. Implementations are safe for
// concurrent use.
type Logger interface {
	Module(name string) Logger

	Trace(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Log(level LogLevel, msg string, fields ...Field)

	// With adds fields to every line; WithContext adds the run ID set by WithRunID
	With(fields ...Field) Logger
	WithContext(ctx context.Context) Logger

	Flush() error
}

func String(k, v string) Field { return Field{Key: key(k), Value: v} }

func Int(k string, v int) Field { return Field{Key: key(k), Value: v} }

func Int64(k string, v int64) Field { return Field{Key: key(k), Value: v} }

// Uint64 is used for frame sequence numbers and counters
func Uint64(k string, v uint64) Field { return Field{Key: key(k), Value: v} }

// Float64 values are rounded to three decimals when written
func Float64(k string, v float64) Field { return Field{Key: key(k), Value: v} }

func Bool(k string, v bool) Field { return Field{Key: key(k), Value: v} }

// Duration is written as a string such as "1.5s"
func Duration(k string, v time.Duration) Field { return Field{Key: key(k), Value: v.String()} }

// Error always uses the key "error". A nil err logs a null value.
func Error(err error) Field {
	if err == nil {
		return Field{Key: errorKey}
	}
	return Field{Key: errorKey, Value: err.Error()}
}
