package middleware

import (
	"time"

	"car-price-api/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const RequestIDKey = "RequestID"

// RequestLogger tags each request with an X-Request-ID and logs it once the
// handler chain returns.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)
		c.Set(RequestIDKey, requestID)

		c.Next()

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny).Errors(); len(errs) > 0 {
			fields = append(fields, zap.Strings("errors", errs))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Log.Error("server error", fields...)
		case status >= 400:
			logger.Log.Warn("client error", fields...)
		default:
			logger.Log.Info("request", fields...)
		}
	}
}
