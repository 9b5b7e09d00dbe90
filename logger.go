package embstore

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with embstore-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// LogSet logs a single vector append.
func (l *Logger) LogSet(key string, id int64, rolledOver bool, err error) {
	if err != nil {
		l.Error("set failed",
			"key", key,
			"id", id,
			"error", err,
		)
	} else {
		l.Debug("set completed",
			"key", key,
			"id", id,
			"rollover", rolledOver,
		)
	}
}

// LogFlush logs a shard flush.
func (l *Logger) LogFlush(shard string, shardID, rows int, err error) {
	if err != nil {
		l.Error("shard flush failed",
			"shard", shard,
			"shard_id", shardID,
			"error", err,
		)
	} else {
		l.Info("shard flushed",
			"shard", shard,
			"shard_id", shardID,
			"rows", rows,
		)
	}
}

// LogOpen logs the open of a store component.
func (l *Logger) LogOpen(component, path string, err error) {
	if err != nil {
		l.Error("open failed",
			"component", component,
			"path", path,
			"error", err,
		)
	} else {
		l.Info("opened",
			"component", component,
			"path", path,
		)
	}
}

// LogSearch logs a nearest-neighbor query.
func (l *Logger) LogSearch(k, resultsFound int, err error) {
	if err != nil {
		l.Error("search failed",
			"k", k,
			"error", err,
		)
	} else {
		l.Debug("search completed",
			"k", k,
			"results", resultsFound,
		)
	}
}
