// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"github.com/gin-gonic/gin"

	"revengepos/internal/core/apperror"
	appctx "revengepos/internal/core/context"
	"revengepos/internal/domain/auth"
)

// RequirePermission rejects requests whose token role lacks perm.
// The wildcard permission grants everything.
func RequirePermission(perm auth.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if appctx.GetOperator(ctx) == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}

		if !appctx.HasPermission(ctx, string(perm)) {
			_ = c.Error(
				apperror.NewForbidden("insufficient permissions").
					WithDetail("required_permission", string(perm)),
			)
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireAnyPermission passes when the user holds at least one of perms.
func RequireAnyPermission(perms ...auth.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if appctx.GetOperator(ctx) == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}

		for _, p := range perms {
			if appctx.HasPermission(ctx, string(p)) {
				c.Next()
				return
			}
		}

		required := make([]string, len(perms))
		for i, p := range perms {
			required[i] = string(p)
		}
		_ = c.Error(
			apperror.NewForbidden("insufficient permissions").
				WithDetail("required_permissions", required),
		)
		c.Abort()
	}
}
