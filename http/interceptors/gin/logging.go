package gin

import (
	"bytes"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codecomet-io/codecomet-go/common/logger"
)

type loggingCfg struct {
	debug bool
	trace bool
}

// responseWriterCapture tees response writes into a buffer while passing
// them through, for trace-level request logging.
type responseWriterCapture struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriterCapture) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

// RequestLogging logs one line per handled request when debug is enabled,
// including both bodies when trace is enabled.
func RequestLogging(cfg loggingCfg) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var reqBody, respBody []byte

		if cfg.trace {
			reqBody = drainRequestBody(c.Request)
		}

		start := time.Now()

		var responseCapture *responseWriterCapture
		if cfg.trace {
			responseCapture = &responseWriterCapture{
				ResponseWriter: c.Writer,
				body:           &bytes.Buffer{},
			}
			c.Writer = responseCapture
		}

		c.Next()

		if cfg.trace && responseCapture != nil {
			respBody = responseCapture.body.Bytes()
		}

		if cfg.debug {
			duration := time.Since(start)
			var fields []logger.Field
			fields = append(fields,
				logger.String("method", c.Request.Method),
				logger.String("path", c.Request.URL.Path),
				logger.Int("status", c.Writer.Status()),
				logger.Duration("duration", duration),
				logger.String("component", componentName),
			)

			if cfg.trace {
				fields = append(fields,
					logger.ByteString("request_body", reqBody),
					logger.ByteString("response_body", respBody),
				)
			}

			// Level follows the response class
			logLevel := logger.DebugLevel
			if c.Writer.Status() >= 500 {
				logLevel = logger.ErrorLevel
			} else if c.Writer.Status() >= 400 {
				logLevel = logger.WarnLevel
			}
			logger.FromContext(ctx).Log(logLevel, "HTTP request handled", fields...)
		}
	}
}
