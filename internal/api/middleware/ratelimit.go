package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/feral-file/ff-marketplace/internal/api/shared/errors"
	"github.com/feral-file/ff-marketplace/internal/logger"
	"github.com/feral-file/ff-marketplace/internal/ratelimit"
)

const HEADER_RATE_LIMIT_REMAINING = "X-RateLimit-Remaining"

// RateLimit returns a gin middleware limiting requests per caller, or per
// client IP before authentication. A limiter error lets the request through.
func RateLimit(limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if caller, ok := Caller(c); ok {
			key = "caller:" + caller.String()
		}

		decision, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.WarnCtx(c.Request.Context(), "Rate limiter unavailable", zap.Error(err), zap.String("key", key))
			c.Next()
			return
		}

		c.Header(HEADER_RATE_LIMIT_REMAINING, strconv.Itoa(decision.Remaining))
		if !decision.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(decision.RetryAfter.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": apierrors.NewRateLimitedError(),
			})
			return
		}

		c.Next()
	}
}
