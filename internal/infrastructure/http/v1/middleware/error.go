package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"revengepos/internal/core/apperror"
	"revengepos/pkg/logger"
)

// ErrorHandler turns the last c.Error into {"error": {code, message, details}}.
// Causes of internal errors are logged, never returned.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		if c.Writer.Written() {
			return
		}

		if appErr, ok := apperror.AsAppError(err); ok {
			if appErr.Err != nil {
				logger.Error(c.Request.Context(), "request error",
					"code", appErr.Code,
					"cause", appErr.Err,
				)
			}

			body := errorBody(appErr.Code, appErr.Message, appErr.Details)
			failIdempotency(c, appErr.HTTPStatus, body)
			c.JSON(appErr.HTTPStatus, body)
			return
		}

		logger.Error(c.Request.Context(), "unhandled error", "error", err)

		body := errorBody(apperror.CodeInternal, "Internal server error", map[string]any{
			"request_id": c.GetString("request_id"),
		})
		failIdempotency(c, http.StatusInternalServerError, body)
		c.JSON(http.StatusInternalServerError, body)
	}
}

func errorBody(code, message string, details map[string]any) gin.H {
	e := gin.H{"code": code, "message": message}
	if len(details) > 0 {
		e["details"] = details
	}
	return gin.H{"error": e}
}
