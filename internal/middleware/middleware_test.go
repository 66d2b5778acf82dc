package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epost-hub/backend/internal/auth"
	"github.com/epost-hub/backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func issue(t *testing.T, svc *auth.JWTService, role models.Role) string {
	t.Helper()
	tok, err := svc.Generate(&models.User{ID: uuid.New(), Name: "Pat", Email: "pat@example.com", Role: role})
	require.NoError(t, err)
	return tok
}

func protectedRouter(svc *auth.JWTService, roles ...models.Role) *gin.Engine {
	r := gin.New()
	handlers := []gin.HandlerFunc{JWT(svc)}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		claims, _ := Claims(c)
		c.String(http.StatusOK, string(claims.Role))
	})
	r.GET("/x", handlers...)
	return r
}

func do(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTMissingHeader(t *testing.T) {
	svc := auth.NewJWTService("secret", 1)
	w := do(protectedRouter(svc), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "missing authorization header")
}

func TestJWTBadScheme(t *testing.T) {
	svc := auth.NewJWTService("secret", 1)
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Basic abc")
	w := httptest.NewRecorder()
	protectedRouter(svc).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTRejectsForeignSignature(t *testing.T) {
	svc := auth.NewJWTService("secret", 1)
	other := auth.NewJWTService("other", 1)
	w := do(protectedRouter(svc), issue(t, other, models.RoleAdmin))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid or expired token")
}

func TestRequireRole(t *testing.T) {
	svc := auth.NewJWTService("secret", 1)
	r := protectedRouter(svc, models.RoleAdmin)

	w := do(r, issue(t, svc, models.RoleMember))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, issue(t, svc, models.RoleAdmin))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ADMIN", w.Body.String())
}

func TestRequireRoleWithoutJWT(t *testing.T) {
	r := gin.New()
	r.GET("/x", RequireRole(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	w := do(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalJWT(t *testing.T) {
	svc := auth.NewJWTService("secret", 1)
	r := gin.New()
	r.GET("/x", OptionalJWT(svc), func(c *gin.Context) {
		if id := UserID(c); id != uuid.Nil {
			c.String(http.StatusOK, "user")
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	w := do(r, "")
	assert.Equal(t, "anonymous", w.Body.String())

	w = do(r, issue(t, svc, models.RoleMember))
	assert.Equal(t, "user", w.Body.String())

	w = do(r, "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS("http://a.test, http://b.test"))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://b.test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://b.test", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

type fakeLimiter struct {
	remaining int
	err       error
}

func (f *fakeLimiter) Allow(_ context.Context, _ string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.remaining <= 0 {
		return &redis_rate.Result{Limit: limit, Allowed: 0, RetryAfter: 3 * time.Second}, nil
	}
	f.remaining--
	return &redis_rate.Result{Limit: limit, Allowed: 1, Remaining: f.remaining}, nil
}

func TestRateLimitBlocksOnceBudgetSpent(t *testing.T) {
	r := gin.New()
	r.GET("/x", RateLimit(&fakeLimiter{remaining: 2}, "login", redis_rate.PerMinute(2), nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	assert.Equal(t, http.StatusOK, do(r, "").Code)
	assert.Equal(t, http.StatusOK, do(r, "").Code)

	w := do(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3", w.Header().Get("Retry-After"))
}

func TestRateLimitFailsOpen(t *testing.T) {
	r := gin.New()
	r.GET("/x", RateLimit(&fakeLimiter{err: errors.New("redis down")}, "login", redis_rate.PerMinute(1), nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	assert.Equal(t, http.StatusOK, do(r, "").Code)
}
