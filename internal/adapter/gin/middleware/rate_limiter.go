package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"user-reputation-service/internal/adapter/gin/httperr"
	grpcmiddleware "user-reputation-service/internal/adapter/grpc/middleware"
)

// RateLimiter returns a Gin middleware drawing one token per request from the
// shared Redis token bucket, keyed by method, route and client IP.
func RateLimiter(limiter *grpcmiddleware.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Enabled() {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		key := "http:" + c.Request.Method + ":" + route + ":" + c.ClientIP()

		if !limiter.Allow(c.Request.Context(), key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, httperr.ErrorResponse{
				Error:   "rate_limit_exceeded",
				Message: limiter.LimitMessage(),
			})
			return
		}

		c.Next()
	}
}
