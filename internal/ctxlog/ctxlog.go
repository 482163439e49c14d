// Package ctxlog passes the run-scoped slog.Logger through context.Context,
// so log lines deep in the executor carry the run and flow attributes set
// at dispatch time.
package ctxlog

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

// WithLogger embeds the logger in a derived context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the embedded logger, falling back to the process
// default when the context carries none.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
