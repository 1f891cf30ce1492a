package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "revengepos/internal/core/context"
	"revengepos/pkg/logger"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
)

// Trace attaches request and trace ids to the request context and echoes
// them in the response headers.
func Trace(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		trace := appctx.NewTrace(c.GetHeader(HeaderRequestID))
		if traceID := c.GetHeader(HeaderTraceID); traceID != "" {
			trace.TraceID = traceID
		}
		trace.IdempotencyKey = c.GetHeader(HeaderIdempotencyKey)

		ctx := appctx.WithTrace(c.Request.Context(), trace)
		if log != nil {
			ctx = logger.WithLogger(ctx, log)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Set("trace_id", trace.TraceID)
		c.Set("request_id", trace.RequestID)

		c.Header(HeaderRequestID, trace.RequestID)
		c.Header(HeaderTraceID, trace.TraceID)

		c.Next()
	}
}
