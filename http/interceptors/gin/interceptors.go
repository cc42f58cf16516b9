// Package gin provides the middleware stack for Gin servers: logging,
// panic recovery, tracing, correlation, compression, traffic capture,
// error handling and timeouts.
package gin

import (
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

const (
	httpHandlerOp = "http.handler"
	componentName = "gin"
)

type interceptorCfg struct {
	TracingEnabled     bool
	CorrelationEnabled bool
	CompressionLevel   int
	HTTPDebug          bool
	HTTPTrace          bool
	Timeout            time.Duration
	Capture            *CaptureConfig
}

type InterceptorOpt func(cfg *interceptorCfg)

// WithCorrelationEnabled enables/disables correlation. Default is enabled.
func WithCorrelationEnabled(enabled bool) InterceptorOpt {
	return func(cfg *interceptorCfg) {
		cfg.CorrelationEnabled = enabled
	}
}

// WithTimeout sets the http handler timeout. Default is 1 minute.
func WithTimeout(timeout time.Duration) InterceptorOpt {
	return func(cfg *interceptorCfg) {
		cfg.Timeout = timeout
	}
}

// WithTracingEnabled enables/disables tracing. Default is enabled.
func WithTracingEnabled(enabled bool) InterceptorOpt {
	return func(cfg *interceptorCfg) {
		cfg.TracingEnabled = enabled
	}
}

// WithHTTPDebug enables printing log line with request info and duration for every request
func WithHTTPDebug() InterceptorOpt {
	return func(cfg *interceptorCfg) {
		cfg.HTTPDebug = true
	}
}

// WithHTTPTrace enables deeper http debugging by also printing the whole request and response body
func WithHTTPTrace() InterceptorOpt {
	return func(cfg *interceptorCfg) {
		cfg.HTTPDebug = true
		cfg.HTTPTrace = true
	}
}

// WithCompressionLevel enables gzip at the given compression level.
// Default is gzip.NoCompression, i.e. disabled.
func WithCompressionLevel(level int) InterceptorOpt {
	return func(cfg *interceptorCfg) {
		cfg.CompressionLevel = level
	}
}

// WithCapture enables traffic capture with the given configuration.
func WithCapture(capture CaptureConfig) InterceptorOpt {
	return func(cfg *interceptorCfg) {
		cfg.Capture = &capture
	}
}

// DefaultInterceptors returns all our default interceptors for Gin servers.
// Defaults can be changed by passing any of the WithXXX options.
//
// Capture sits after compression so records hold the uncompressed bodies,
// and before error handling so converted error responses are recorded the
// way the client sees them.
func DefaultInterceptors(opts ...InterceptorOpt) []gin.HandlerFunc {
	cfg := &interceptorCfg{
		TracingEnabled:     true,
		CorrelationEnabled: true,
		Timeout:            time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	middlewares := []gin.HandlerFunc{
		RequestLogging(loggingCfg{
			debug: cfg.HTTPDebug,
			trace: cfg.HTTPTrace,
		}),
		PanicRecoveryMiddleware,
	}
	if cfg.TracingEnabled {
		middlewares = append(middlewares, TracingMiddleware)
	}
	if cfg.CorrelationEnabled {
		middlewares = append(middlewares, CorrelationMiddleware)
	}
	if cfg.CompressionLevel != gzip.NoCompression {
		middlewares = append(middlewares, gzip.Gzip(cfg.CompressionLevel))
	}
	if cfg.Capture != nil && cfg.Capture.Sink != nil {
		middlewares = append(middlewares, CaptureMiddleware(*cfg.Capture))
	}
	middlewares = append(middlewares,
		ErrorHandlingMiddleware,
		TimeoutMiddleware(cfg.Timeout),
	)

	return middlewares
}
