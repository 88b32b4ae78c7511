package middleware

import (
	"net/http"
	"strconv"
	"time"

	"cermont/libs"
	"cermont/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimit allows limit requests per client IP within window, counted in
// the cache under prefix. A failing cache lets requests through.
func RateLimit(cache libs.Cache, prefix string, limit int, window time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}

		key := "ratelimit:" + prefix + ":" + c.ClientIP()
		count, err := cache.Incr(c.Request.Context(), key, window)
		if err != nil {
			log.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(limit) {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Success: false,
				Message: "Too many requests, try again later",
			})
			return
		}
		c.Next()
	}
}
