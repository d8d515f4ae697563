package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const visitorIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterStore holds one token bucket per client IP. Buckets idle for
// longer than visitorIdleTTL are dropped.
type RateLimiterStore struct {
	visitors  map[string]*visitor
	perMin    int
	lastSweep time.Time
	mu        sync.Mutex
}

// NewRateLimiterStore allows perMin requests per minute per IP, bursting to perMin.
func NewRateLimiterStore(perMin int) *RateLimiterStore {
	if perMin <= 0 {
		perMin = 100
	}
	return &RateLimiterStore{
		visitors: make(map[string]*visitor),
		perMin:   perMin,
	}
}

func (s *RateLimiterStore) getLimiter(ip string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) > visitorIdleTTL {
		for key, v := range s.visitors {
			if now.Sub(v.lastSeen) > visitorIdleTTL {
				delete(s.visitors, key)
			}
		}
		s.lastSweep = now
	}

	v, ok := s.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.perMin)), s.perMin)}
		s.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// retryAfter is the refill time of one token, in whole seconds.
func (s *RateLimiterStore) retryAfter() string {
	secs := int((time.Minute / time.Duration(s.perMin)).Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// clientIP honors forwarding headers only from proxies the engine trusts.
func clientIP(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return c.Request.RemoteAddr
}

// RateLimitMiddleware limits requests per IP address.
func RateLimitMiddleware(store *RateLimiterStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := clientIP(c)
		if !store.getLimiter(ip, time.Now()).Allow() {
			logger.Warn("Rate limit exceeded", zap.String("ip", ip), zap.String("path", c.Request.URL.Path))
			c.Header("Retry-After", store.retryAfter())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Rate limit exceeded. Try again later.", "code": "rateLimited"})
			return
		}
		c.Next()
	}
}
