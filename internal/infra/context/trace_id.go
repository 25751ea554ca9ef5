package context

import (
	"context"
)

const contextKeyTraceID = contextKey("traceID")

// TraceIDFromContext returns the request trace id. ok is false when the
// context carries none or an empty one.
func TraceIDFromContext(ctx context.Context) (traceID string, ok bool) {
	traceID, _ = ctx.Value(contextKeyTraceID).(string)

	return traceID, traceID != ""
}

// WithTraceID returns a copy of ctx carrying traceID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, contextKeyTraceID, traceID)
}
