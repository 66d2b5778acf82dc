package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/epost-hub/backend/internal/models"
	"github.com/epost-hub/backend/pkg/response"
)

// RequireRole returns a middleware that allows only the given roles. Must run after JWT.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			response.AbortFail(c, 401, "missing user context")
			return
		}
		if !claims.HasRole(roles...) {
			response.AbortFail(c, 403, "insufficient permissions")
			return
		}
		c.Next()
	}
}
