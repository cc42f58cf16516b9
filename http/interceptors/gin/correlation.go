package gin

import (
	"github.com/gin-gonic/gin"

	"github.com/codecomet-io/codecomet-go/common/correlation"
	"github.com/codecomet-io/codecomet-go/common/headers"
)

// CorrelationMiddleware extracts correlation data from http headers if
// found and propagates it as Go context. If no header is found, it will
// create a new correlation id. The request id is echoed back to the client.
func CorrelationMiddleware(c *gin.Context) {
	ctx := correlation.ContextWithCorrelation(c.Request.Context(), c.GetHeader(correlation.ContextCorrelationHeader))
	ctx = correlation.ContextWithRequestID(ctx, c.GetHeader(headers.HeaderXRequestID))

	c.Header(headers.HeaderXRequestID, correlation.RequestIDFromContext(ctx))

	c.Request = c.Request.WithContext(ctx)
}
