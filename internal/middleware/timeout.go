package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lifelink-backend/pkg/logger"
	"lifelink-backend/pkg/response"
)

// Timeout bounds every request with a deadline. Repository and client calls
// run on the request context, so an exceeded deadline cancels in-flight
// database and Redis work; a request that ran out of time without writing a
// response gets a 504.
func Timeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		if ctx.Err() != context.DeadlineExceeded {
			return
		}

		logger.Warn("Request timed out",
			zap.Duration("timeout", timeout),
			zap.Duration("duration", time.Since(start)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path))

		if !c.Writer.Written() {
			response.Error(c, http.StatusGatewayTimeout, "REQUEST_TIMEOUT", "Request timed out")
		}
		c.Abort()
	}
}
