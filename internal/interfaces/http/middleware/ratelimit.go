package middleware

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	domainerrors "payportal.backend/internal/domain/errors"
	"payportal.backend/internal/interfaces/http/response"
	"payportal.backend/pkg/logger"
	"payportal.backend/pkg/metrics"
	"payportal.backend/pkg/ratelimit"
)

const rateLimitedMessage = "Too many login attempts. Try again later."

// RateLimit bounds attempts per client IP for one named scope. Limiter
// failures let the request through.
func RateLimit(limiter ratelimit.Limiter, scope string, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := scope + ":" + c.ClientIP()
		res, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warn(c.Request.Context(), "Rate limiter unavailable; allowing request",
				zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}

		c.Header("RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			seconds := int(math.Ceil(res.RetryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			m.RateLimited(scope)
			logger.Warn(c.Request.Context(), "Rate limit exceeded", zap.String("scope", scope), zap.String("client_ip", c.ClientIP()))
			response.Abort(c, domainerrors.RateLimited(rateLimitedMessage))
			return
		}
		c.Next()
	}
}
