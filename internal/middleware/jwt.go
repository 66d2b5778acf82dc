package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/epost-hub/backend/internal/auth"
	"github.com/epost-hub/backend/pkg/response"
)

// TokenValidator verifies a bearer token.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// JWT returns a middleware that requires a valid bearer token and stores its claims in context.
func JWT(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.AbortFail(c, 401, "missing authorization header")
			return
		}
		token, ok := bearerToken(header)
		if !ok {
			response.AbortFail(c, 401, "invalid authorization header")
			return
		}
		claims, err := validator.Validate(token)
		if err != nil {
			response.AbortFail(c, 401, "invalid or expired token")
			return
		}
		auth.SetClaims(c, claims)
		c.Next()
	}
}

// OptionalJWT lets anonymous requests through but rejects a present, invalid token.
func OptionalJWT(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		token, ok := bearerToken(header)
		if !ok {
			response.AbortFail(c, 401, "invalid authorization header")
			return
		}
		claims, err := validator.Validate(token)
		if err != nil {
			response.AbortFail(c, 401, "invalid or expired token")
			return
		}
		auth.SetClaims(c, claims)
		c.Next()
	}
}

// Claims returns the verified claims set by JWT or OptionalJWT.
func Claims(c *gin.Context) (*auth.Claims, bool) {
	return auth.ClaimsFrom(c)
}

// UserID returns the verified user id, or uuid.Nil for anonymous requests.
func UserID(c *gin.Context) uuid.UUID {
	return auth.UserIDFrom(c)
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
