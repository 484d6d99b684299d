package railrad

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with railrad-specific context.
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
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))
}

// WithDatabase tags every record with the database name.
func (l *Logger) WithDatabase(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("database", name),
	}
}

// LogLoad logs a database load.
func (l *Logger) LogLoad(ctx context.Context, name string, receivers, sources, frequencies int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"name", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "database loaded",
		"name", name,
		"receivers", receivers,
		"sources", sources,
		"frequencies", frequencies,
	)
}

// LogConfigure logs a configure call.
func (l *Logger) LogConfigure(ctx context.Context, frequencies, wavenumbers, receivers, sources int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "configure failed",
			"frequencies", frequencies,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "configure completed",
		"frequencies", frequencies,
		"wavenumbers", wavenumbers,
		"receivers", receivers,
		"sources", sources,
	)
}

// LogRangeWarning reports a query frequency range that extends beyond the
// tabulated range. Results outside the table are extrapolated by the fill
// policy and may be inaccurate.
func (l *Logger) LogRangeWarning(ctx context.Context, queryMin, queryMax, tableMin, tableMax float64) {
	l.WarnContext(ctx, "frequency range exceeds database, results may be inaccurate",
		"query_min", queryMin,
		"query_max", queryMax,
		"table_min", tableMin,
		"table_max", tableMax,
	)
}

// LogSuperpose logs a superposition.
func (l *Logger) LogSuperpose(ctx context.Context, shape []int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "superpose failed",
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "superpose completed",
		"shape", shape,
	)
}

// LogRetrieve logs a bulk transfer-function retrieval.
func (l *Logger) LogRetrieve(ctx context.Context, shape []int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "retrieve failed",
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "retrieve completed",
		"shape", shape,
	)
}

// LogStream logs a streamed retrieval.
func (l *Logger) LogStream(ctx context.Context, shape []int, rows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "stream failed",
			"rows_written", rows,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "stream committed",
		"shape", shape,
		"rows", rows,
	)
}

// LogSnapshot logs a snapshot or restore.
func (l *Logger) LogSnapshot(ctx context.Context, op, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, op+" failed",
			"name", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, op+" completed",
		"name", name,
	)
}
