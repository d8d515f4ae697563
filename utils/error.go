package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CodeInternal marks failures the client cannot act on.
const CodeInternal = "internal"

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	State   interface{}       `json:"state,omitempty"`
}

// contextLogger prefers the request-scoped logger set by the request logger
// middleware.
func contextLogger(c *gin.Context) *zap.Logger {
	if v, ok := c.Get("logger"); ok {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return GetLogger()
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				contextLogger(c).Error("Unhandled panic",
					zap.Any("error", err),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
					Code:    CodeInternal,
					Details: "An unexpected error occurred. Please try again later.",
				})
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response. The cause is logged,
// never sent.
func JSONError(c *gin.Context, status int, code, message string, cause error) {
	contextLogger(c).Warn(message, zap.String("code", code), zap.Int("status", status), zap.Error(cause))
	c.AbortWithStatusJSON(status, ErrorResponse{Message: message, Code: code})
}
