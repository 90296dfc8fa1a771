package bitgo

import (
	"context"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
)

// Logger wraps slog.Logger with catalog-specific helpers.
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
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithName adds a bitmap name field to the logger.
func (l *Logger) WithName(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("name", name),
	}
}

// LogSave logs a save operation. size is the stored size in bytes.
func (l *Logger) LogSave(ctx context.Context, name string, cardinality uint64, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"name", name,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "bitmap saved",
		"name", name,
		"cardinality", cardinality,
		"size", humanize.Bytes(uint64(size)),
	)
}

// LogLoad logs a load operation.
func (l *Logger) LogLoad(ctx context.Context, name string, cached bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"name", name,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "bitmap loaded",
		"name", name,
		"cached", cached,
	)
}

// LogCombine logs a combine operation over steps operands.
func (l *Logger) LogCombine(ctx context.Context, base string, steps int, cardinality uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "combine failed",
			"base", base,
			"steps", steps,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "combine completed",
		"base", base,
		"steps", steps,
		"cardinality", humanize.Comma(int64(cardinality)),
	)
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"name", name,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "bitmap deleted",
		"name", name,
	)
}
