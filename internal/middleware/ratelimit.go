package middleware

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	redis_rate "github.com/go-redis/redis_rate/v10"
	"go.uber.org/zap"

	"github.com/epost-hub/backend/pkg/response"
)

// Limiter is satisfied by *redis_rate.Limiter.
type Limiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// RateLimit throttles a route per client IP. Limiter errors fail open so a Redis outage
// does not lock everyone out of login.
func RateLimit(limiter Limiter, name string, limit redis_rate.Limit, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if limiter == nil || limit.IsZero() {
			c.Next()
			return
		}
		key := "ratelimit:" + name + ":" + c.ClientIP()
		res, err := limiter.Allow(c.Request.Context(), key, limit)
		if err != nil {
			logger.Warn("rate limiter error, failing open", zap.Error(err), zap.String("key", key))
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if res.Allowed == 0 {
			response.TooManyRequests(c, res.RetryAfter)
			return
		}
		c.Next()
	}
}
