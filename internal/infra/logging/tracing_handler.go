package logging

import (
	"context"
	"log/slog"

	context_ "github.com/mkrupp/homecase-lists/internal/infra/context"
)

// TracingHandler decorates records with the trace id found in the context,
// as a "trace" group with a single "id" attribute.
type TracingHandler struct {
	next slog.Handler
}

var _ slog.Handler = (*TracingHandler)(nil)

// NewTracingHandler wraps next.
func NewTracingHandler(next slog.Handler) *TracingHandler {
	return &TracingHandler{next: next}
}

// Handle implements slog.Handler.
func (h *TracingHandler) Handle(ctx context.Context, r slog.Record) error {
	if traceID, ok := context_.TraceIDFromContext(ctx); ok {
		r = r.Clone()
		r.AddAttrs(Group("trace", slog.String("id", traceID)))
	}

	//nolint:wrapcheck
	return h.next.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.
func (h *TracingHandler) WithAttrs(attrs []slog.Attr) Handler {
	return NewTracingHandler(h.next.WithAttrs(attrs))
}

// WithGroup implements slog.Handler.
func (h *TracingHandler) WithGroup(name string) Handler {
	return NewTracingHandler(h.next.WithGroup(name))
}

// Enabled implements slog.Handler.
func (h *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}
