package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var (
	log   *slog.Logger
	level = new(slog.LevelVar)
)

func init() {
	level.Set(slog.LevelInfo)
	if os.Getenv("DEBUG") != "" {
		level.Set(slog.LevelDebug)
	}
	log = newLogger(os.Stdout, "text")
}

func newLogger(w io.Writer, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps a config level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", name)
	}
}

// Configure replaces the package logger. The DEBUG environment variable
// always wins over the configured level.
func Configure(levelName, format string) error {
	lvl, err := ParseLevel(levelName)
	if err != nil {
		return err
	}
	if os.Getenv("DEBUG") != "" {
		lvl = slog.LevelDebug
	}
	if format != "" && format != "text" && format != "json" {
		return fmt.Errorf("unknown log format: %s", format)
	}

	level.Set(lvl)
	log = newLogger(os.Stdout, format)
	return nil
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer, format string) {
	log = newLogger(w, format)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	log.Info(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	log.Error(msg, args...)
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	log.Debug(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	log.Warn(msg, args...)
}
