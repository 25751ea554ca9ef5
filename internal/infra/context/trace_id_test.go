package context_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	context_ "github.com/mkrupp/homecase-lists/internal/infra/context"
)

func TestTraceID(t *testing.T) {
	t.Parallel()

	_, ok := context_.TraceIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = context_.TraceIDFromContext(context_.WithTraceID(context.Background(), ""))
	assert.False(t, ok)

	traceID, ok := context_.TraceIDFromContext(context_.WithTraceID(context.Background(), "01hx"))
	assert.True(t, ok)
	assert.Equal(t, "01hx", traceID)
}
