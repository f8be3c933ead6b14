// Package logging provides the process-wide structured logger for
// inventoryctl. All packages log through it so secure values can be
// redacted in one place.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// redactedValue replaces anything sourced from a secure parameter; the raw
// value must never reach a log line.
const redactedValue = "(sensitive)"

var logger *slog.Logger

// Init initializes the global structured logger at the given level.
// Unrecognized levels fall back to info.
func Init(level string) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// Logger returns the global logger instance.
func Logger() *slog.Logger {
	if logger == nil {
		Init("info")
	}
	return logger
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

// Info logs an info message.
func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

// Redacted returns an attribute whose value is masked.
func Redacted(key string) slog.Attr {
	return slog.String(key, redactedValue)
}
