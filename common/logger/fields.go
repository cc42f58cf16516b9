package logger

import (
	"runtime/debug"

	"github.com/DataDog/dd-trace-go/v2/ddtrace/tracer"
)

// PanicValueKey is the field name used for recovered panic values.
const PanicValueKey = "panic_value"

// WithPanic builds the fields logged for a recovered panic, including the
// stack of the recovering goroutine.
func WithPanic(value any) []Field {
	return []Field{
		Any(PanicValueKey, value),
		ByteString("panic_stack", debug.Stack()),
	}
}

// WithTrace builds the Datadog correlation fields for a span context, so
// log entries can be joined with traces.
func WithTrace(sc *tracer.SpanContext) []Field {
	if sc == nil {
		return nil
	}
	return []Field{
		String("dd.trace_id", sc.TraceID()),
		Uint64("dd.span_id", sc.SpanID()),
	}
}
