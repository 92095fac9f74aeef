package logger

import (
	"context"
	"log/slog"
)

// loggerKey is an unexported context key type to avoid collisions with
// keys from other packages.
type loggerKey struct{}

// WithLogger returns a copy of ctx carrying the given logger. Panics if
// logger is nil; callers must always provide a real logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if logger == nil {
		panic("logger.WithLogger: nil logger")
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored in ctx, or nil if none is present.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(loggerKey{}).(*slog.Logger)
	return logger
}

// FromContextOrDefault returns the logger stored in ctx, falling back to
// the provided default when the context carries none.
func FromContextOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger := FromContext(ctx); logger != nil {
		return logger
	}
	return fallback
}
