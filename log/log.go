// Package log provides leveled logging on top of [log/slog] for the
// daemon and adapters for the backing MQTT client's logger interfaces.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

var (
	level         = new(slog.LevelVar)
	defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
)

// SetLogLevel sets the minimum level of events that will be logged.
func SetLogLevel(l Level) {
	level.Set(slog.Level(l))
}

// SetHandler replaces the handler used by the package-level logging
// functions.
func SetHandler(h slog.Handler) {
	defaultLogger = slog.New(h)
}

// SetOutput directs text-formatted logs to w.
func SetOutput(w io.Writer) {
	SetHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// SetJSONHandler directs JSON-formatted logs to w.
func SetJSONHandler(w io.Writer) {
	SetHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

// WarnError logs msg and err at the warning level.
func WarnError(msg string, err error, args ...any) {
	if err != nil {
		args = append([]any{"cause", err}, args...)
	}

	defaultLogger.Warn(msg, args...)
}

// Error logs msg and err at the error level.
func Error(msg string, err error, args ...any) {
	if err != nil {
		args = append([]any{"cause", err}, args...)
	}

	defaultLogger.Error(msg, args...)
}

// Fatal logs msg and err at the error level, then exits with code 1.
func Fatal(msg string, err error, args ...any) {
	Error(msg, err, args...)
	os.Exit(1)
}

// Logger is the interface of the backing MQTT client package's loggers.
type Logger interface {
	Println(v ...any)
	Printf(format string, v ...any)
}

type levelLogger Level

// LevelLogger returns a Logger that logs at the given level, for
// plugging into the backing MQTT client package.
func LevelLogger(l Level) Logger {
	return levelLogger(l)
}

func (l levelLogger) Println(v ...any) {
	defaultLogger.Log(context.Background(), slog.Level(l), fmt.Sprintln(v...))
}

func (l levelLogger) Printf(format string, v ...any) {
	defaultLogger.Log(context.Background(), slog.Level(l), fmt.Sprintf(format, v...))
}
