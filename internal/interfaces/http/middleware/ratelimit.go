package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/repogate-inc/repogate/internal/infrastructure/ratelimit"
	"github.com/repogate-inc/repogate/internal/shared/utils"
)

// RateLimit enforces a per-client-IP limit on the wrapped routes. The
// limiter is best effort: on limiter failure requests pass through
// rather than blocking all traffic.
func RateLimit(limiter ratelimit.RateLimiter, requestsPerMinute int) gin.HandlerFunc {
	config := ratelimit.RateLimitConfig{
		RequestsPerMinute: requestsPerMinute,
	}

	return func(c *gin.Context) {
		allowed, err := limiter.Allow("ip:"+c.ClientIP(), config)
		if err != nil {
			c.Next()
			return
		}

		if !allowed {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}
