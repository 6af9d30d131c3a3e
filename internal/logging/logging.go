// Package logging provides structured logging using Go's slog package.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

var (
	// defaultLogger is the global logger instance.
	defaultLogger *slog.Logger
)

func init() {
	// Initialize with a default logger (text format, Warn level)
	InitLogger(LevelWarn, FormatText)
}

// Level represents a log level. The three debug levels map to increasingly
// verbose slog levels below slog.LevelDebug, so per-page, per-tuple and
// per-attribute tracing can be enabled independently.
type Level int

const (
	// LevelDebug3 traces every attribute of every tuple.
	LevelDebug3 Level = iota
	// LevelDebug2 traces every tuple.
	LevelDebug2
	// LevelDebug1 traces every page.
	LevelDebug1
	// LevelInfo is for informational messages.
	LevelInfo
	// LevelWarn is for corruption findings and warnings.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// Format represents a log output format.
type Format int

const (
	// FormatText outputs logs in human-readable text format.
	FormatText Format = iota
	// FormatJSON outputs logs in JSON format.
	FormatJSON
)

// SlogLevel maps a Level to its slog.Level threshold.
func (l Level) SlogLevel() slog.Level {
	switch l {
	case LevelDebug3:
		return slog.LevelDebug - 8
	case LevelDebug2:
		return slog.LevelDebug - 4
	case LevelDebug1:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// ParseLevel parses a level name as given on the command line.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug3":
		return LevelDebug3, nil
	case "debug2":
		return LevelDebug2, nil
	case "debug", "debug1":
		return LevelDebug1, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelWarn, fmt.Errorf("unknown log level %q", s)
	}
}

// ParseFormat parses a format name as given on the command line.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("unknown log format %q", s)
	}
}

// levelNames renders the extended debug levels with stable names instead of
// slog's DEBUG-4 style offsets.
var levelNames = map[slog.Leveler]string{
	slog.LevelDebug - 4: "DEBUG2",
	slog.LevelDebug - 8: "DEBUG3",
}

// InitLogger initializes the global logger with the specified level and format.
func InitLogger(level Level, format Format) {
	opts := &slog.HandlerOptions{
		Level: level.SlogLevel(),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Customize timestamp format
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			if a.Key == slog.LevelKey {
				if lv, ok := a.Value.Any().(slog.Level); ok {
					if name, ok := levelNames[lv]; ok {
						return slog.String(slog.LevelKey, name)
					}
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// GetLogger returns the global logger instance.
func GetLogger() *slog.Logger {
	return defaultLogger
}

// Helper functions for common logging patterns

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

// CheckStart logs the start of an index check run.
func CheckStart(runID, index, relation string, blocks int, args ...any) {
	allArgs := []any{
		"run_id", runID,
		"index", index,
		"relation", relation,
		"blocks", blocks,
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Info("check_start", allArgs...)
}

// CheckSummary logs the outcome of an index check run.
func CheckSummary(runID string, blocks int, errors uint32, duration time.Duration, args ...any) {
	allArgs := []any{
		"run_id", runID,
		"blocks", blocks,
		"errors", errors,
		"duration_ms", duration.Milliseconds(),
	}
	allArgs = append(allArgs, args...)
	if errors > 0 {
		defaultLogger.Warn("check_summary", allArgs...)
		return
	}
	defaultLogger.Info("check_summary", allArgs...)
}

// PageCorrupted logs a per-page corruption verdict with its fingerprint.
func PageCorrupted(block uint32, errors uint32, fingerprint string, args ...any) {
	allArgs := []any{
		"block", block,
		"errors", errors,
		"fingerprint", fingerprint,
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Warn("page_corrupted", allArgs...)
}
