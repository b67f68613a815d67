package log

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

var (
	defaultLogLevel slog.LevelVar
	defaultLogger   = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     &defaultLogLevel,
	}))
)

func init() {
	defaultLogLevel.Set(slog.LevelInfo)
}

type contextKey struct{}

var loggerKey = contextKey{}

// Ctx returns the logger from the context. If no logger is found, it returns the default logger.
func Ctx(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return defaultLogger
}

// With returns a new context with the given logger.
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithID returns a new context whose logger tags every record with the given
// key and a freshly generated ID. The ID is returned so callers can echo it
// back (e.g. in a response header).
func WithID(ctx context.Context, key string) (context.Context, string) {
	id := uuid.NewString()
	return With(ctx, Ctx(ctx).With(slog.String(key, id))), id
}

func SetDefaultLogLevel(level slog.Level) {
	defaultLogLevel.Set(level)
}
