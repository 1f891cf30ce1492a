// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"revengepos/internal/core/apperror"
	appctx "revengepos/internal/core/context"
	"revengepos/pkg/logger"
)

// Recovery turns a handler panic into a 500 INTERNAL_ERROR. The log entry
// names the route and the operator at the till; the client only gets the
// request id. A pending idempotency key is failed so the terminal can retry
// the same sale or purchase.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			ctx := c.Request.Context()

			kv := []any{
				"panic", rec,
				"method", c.Request.Method,
				"route", c.FullPath(),
				"stack", string(debug.Stack()),
			}
			if appctx.GetOperator(ctx) == nil {
				kv = append(kv, "operator", "anonymous")
			}
			logger.Error(ctx, "handler panicked", kv...)

			appErr := apperror.NewInternal(fmt.Errorf("panic in %s %s: %v", c.Request.Method, c.FullPath(), rec)).
				WithDetail("request_id", appctx.GetRequestID(ctx))
			_ = c.Error(appErr)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			body := errorBody(appErr.Code, appErr.Message, appErr.Details)
			failIdempotency(c, http.StatusInternalServerError, body)
			c.AbortWithStatusJSON(http.StatusInternalServerError, body)
		}()
		c.Next()
	}
}
