package handlers

import (
	"jeffjackson/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// requestLogger returns the request-scoped logger set by
// middleware.RequestLogger, falling back to fallback.
func requestLogger(c *gin.Context, fallback *zap.Logger) *zap.Logger {
	if l, exists := c.Get(middleware.LoggerKey); exists {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return fallback
}
