package gin

import (
	"context"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/codecomet-io/codecomet-go/capture"
	"github.com/codecomet-io/codecomet-go/common/headers"
	"github.com/codecomet-io/codecomet-go/common/logger"
)

// Sink receives completed capture records. *forward.Forwarder satisfies it.
type Sink interface {
	Forward(ctx context.Context, rec *capture.Record)
}

// CaptureConfig configures CaptureMiddleware.
type CaptureConfig struct {
	// ProjectID is stamped on every record.
	ProjectID string
	// Sink receives completed records. A nil sink disables capture.
	Sink Sink
	// RedactHeaders masks sensitive header values before recording.
	RedactHeaders bool
}

// chainOutcome describes how the downstream chain ended.
type chainOutcome struct {
	panicked bool
	value    any
	stack    []byte
}

// invokeChain runs the rest of the chain, converting a panic into a tagged
// outcome so the record is completed and forwarded before the panic
// resumes its travel up the stack.
func invokeChain(c *gin.Context) (out chainOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = chainOutcome{panicked: true, value: r, stack: debug.Stack()}
		}
	}()
	c.Next()
	return out
}

// CaptureMiddleware records every observed exchange and hands the record to
// the sink. The client-visible response is byte-identical to what the
// handler produced; handler panics re-propagate after the record ships.
func CaptureMiddleware(cfg CaptureConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Sink == nil || bypassPath(c.Request.URL.Path) {
			return
		}

		// Snapshot the context before running the chain: inner middlewares
		// install request contexts that are canceled once the handler
		// returns, and the forward must outlive them.
		ctx := c.Request.Context()

		rec := capture.NewRecord(cfg.ProjectID)
		rec.SetRequest(c.Request, drainRequestBody(c.Request))
		if cfg.RedactHeaders {
			rec.RequestHeaders = capture.FlattenHeaders(
				capture.MaskedHeaders(c.Request.Header, headers.SensitiveHeaders()))
		}

		real := c.Writer
		w := newBodyCaptureWriter(real)
		c.Writer = w

		out := invokeChain(c)

		c.Writer = real

		if out.panicked {
			rec.SetFault(w.status, out.value, out.stack)
		} else {
			if err := w.copyTo(real); err != nil {
				logger.FromContext(ctx).Warn("failed to replay captured response", logger.Error(err))
			}
			rec.SetResponse(w.status, w.body.Bytes())
		}

		cfg.Sink.Forward(ctx, rec)

		if out.panicked {
			panic(out.value)
		}
	}
}
