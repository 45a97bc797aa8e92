package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// SendLimiter throttles message sends per user with a token bucket.
// Reads are unthrottled; polling is the expected access pattern.
type SendLimiter struct {
	mu       sync.Mutex
	limiters map[string]*userLimiter
	rate     rate.Limit
	burst    int
}

type userLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewSendLimiter allows perMinute sends sustained, with burst headroom.
func NewSendLimiter(perMinute int, burst int) *SendLimiter {
	l := &SendLimiter{
		limiters: make(map[string]*userLimiter),
		rate:     rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
	}
	go l.cleanup(5 * time.Minute)
	return l
}

func (l *SendLimiter) allow(key string) bool {
	l.mu.Lock()
	ul, ok := l.limiters[key]
	if !ok {
		ul = &userLimiter{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[key] = ul
	}
	ul.lastAccess = time.Now()
	l.mu.Unlock()
	return ul.limiter.Allow()
}

// cleanup evicts limiters idle longer than maxIdle, forever.
func (l *SendLimiter) cleanup(maxIdle time.Duration) {
	ticker := time.NewTicker(maxIdle)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-maxIdle)
		l.mu.Lock()
		for key, ul := range l.limiters {
			if ul.lastAccess.Before(cutoff) {
				delete(l.limiters, key)
			}
		}
		l.mu.Unlock()
	}
}

// Middleware rejects over-rate requests with 429. Keyed by the
// authenticated user, so it must run after AuthMiddleware.
func (l *SendLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := GetUserID(c)
		if !l.allow(userID.String()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded, slow down",
			})
			return
		}
		c.Next()
	}
}
