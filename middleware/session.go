package middleware

import (
	"net/http"
	"strings"

	"jeffjackson/utils"

	"github.com/gin-gonic/gin"
)

// SessionCookie carries the booking session token for browser clients.
const SessionCookie = "booking_session"

// SessionIDKey is the gin context key holding the authenticated session id.
const SessionIDKey = "sessionID"

// sessionToken reads the token from the Authorization header or the cookie.
func sessionToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}

// SessionAuthMiddleware requires a valid booking session token.
func SessionAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing booking session token"})
			return
		}
		sid, err := utils.ExtractSessionID(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid booking session token"})
			return
		}
		c.Set(SessionIDKey, sid)
		c.Next()
	}
}

// OptionalSession resolves the session when a valid token is present and
// continues without one otherwise.
func OptionalSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := sessionToken(c); token != "" {
			if sid, err := utils.ExtractSessionID(token); err == nil {
				c.Set(SessionIDKey, sid)
			}
		}
		c.Next()
	}
}
