package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	domainerrors "defiant.backend/internal/domain/errors"
	"defiant.backend/internal/interfaces/http/response"
	"defiant.backend/pkg/redis"
)

var (
	rateIncr   = redis.Incr
	rateExpire = redis.Expire
)

// RateLimitMiddleware enforces a fixed-window request limit per merchant.
// Unauthenticated requests are limited per client IP instead.
func RateLimitMiddleware(limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := c.ClientIP()
		if merchantID, ok := GetMerchantID(c); ok {
			subject = merchantID.String()
		}

		ctx := c.Request.Context()
		windowKey := fmt.Sprintf("ratelimit:%s:%d", subject, time.Now().Unix()/int64(window.Seconds()))

		count, err := rateIncr(ctx, windowKey)
		if err != nil {
			// Fail open: a Redis outage must not block payment traffic.
			c.Next()
			return
		}
		if count == 1 {
			_ = rateExpire(ctx, windowKey, window)
		}

		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(limit) {
			response.AbortError(c, domainerrors.NewAppError(429, "rate limit exceeded, retry later", domainerrors.ErrRateLimited))
			return
		}

		c.Next()
	}
}
