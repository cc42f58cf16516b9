package logger

import "context"

type loggerKey struct{}

// FromContext returns the logger carried by ctx, or the process default
// when none was attached.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey{}).(*Logger); ok {
		return l
	}
	return Instance()
}

// ContextWithLogger attaches l to the context.
func ContextWithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// ContextWithFields attaches a child of the context's logger carrying the
// extra fields, so downstream FromContext callers inherit them.
func ContextWithFields(ctx context.Context, fields ...Field) context.Context {
	if len(fields) == 0 {
		return ctx
	}
	return ContextWithLogger(ctx, FromContext(ctx).With(fields...))
}
