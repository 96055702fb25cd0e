// Package logging defines the structured-logging interface used across the
// project and its slog-backed implementation.
package logging

import "context"

// Logger is a context-aware, structured logger. The variadic args are
// key–value pairs:
//
//	log.Info(ctx, "diary created", "user_id", uid, "diary_id", id)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given pairs.
	With(args ...any) Logger
}
