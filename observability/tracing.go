package observability

import (
	"context"

	"github.com/DataDog/dd-trace-go/v2/ddtrace/tracer"

	"github.com/codecomet-io/codecomet-go/common/logger"
)

// StartSpan should always be used instead of tracer.StartSpanFromContext to
// ensure the context logger gets updated with trace and span ID.
func StartSpan(ctx context.Context, opName string, opts ...tracer.StartSpanOption) (*tracer.Span, context.Context) {
	span, ctx := tracer.StartSpanFromContext(ctx, opName, opts...)
	ctx = logger.ContextWithFields(ctx, logger.WithTrace(span.Context())...)
	return span, ctx
}
