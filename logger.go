package vecbuild

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with vecbuild-specific context.
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
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// LogBatchesPlanned logs the batch plan for a run.
func (l *Logger) LogBatchesPlanned(ctx context.Context, totalVectors, batchSize int64, batches int) {
	l.InfoContext(ctx, "batches planned",
		"total_vectors", totalVectors,
		"batch_size", batchSize,
		"batches", batches,
	)
}

// LogShardSaved logs the outcome of one shard build.
func (l *Logger) LogShardSaved(ctx context.Context, batchID, vectors int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "shard build failed",
			"batch_id", batchID,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "shard saved",
			"batch_id", batchID,
			"vectors", vectors,
		)
	}
}

// LogDownload logs one shard download.
func (l *Logger) LogDownload(ctx context.Context, name string, bytes int64, completed, total int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "shard download failed",
			"name", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "shard downloaded",
			"name", name,
			"bytes", bytes,
			"completed", completed,
			"total", total,
		)
	}
}

// LogMerge logs the merge outcome.
func (l *Logger) LogMerge(ctx context.Context, shards, vectors int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "merge failed",
			"shards", shards,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "merge completed",
			"shards", shards,
			"vectors", vectors,
		)
	}
}

// LogRun logs the overall run outcome.
func (l *Logger) LogRun(ctx context.Context, vectors int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "distributed build failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "distributed build completed",
			"vectors", vectors,
		)
	}
}
