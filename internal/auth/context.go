package auth

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// contextKey is where verified claims live in a gin context.
const contextKey = "auth_claims"

// SetClaims stores verified claims on the request.
func SetClaims(c *gin.Context, claims *Claims) {
	c.Set(contextKey, claims)
}

// ClaimsFrom returns the verified claims stored by SetClaims.
func ClaimsFrom(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok && claims != nil
}

// UserIDFrom returns the verified user id, or uuid.Nil for anonymous requests.
func UserIDFrom(c *gin.Context) uuid.UUID {
	if claims, ok := ClaimsFrom(c); ok {
		return claims.UserID
	}
	return uuid.Nil
}
