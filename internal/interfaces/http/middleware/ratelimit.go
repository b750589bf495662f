package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/anchala/pos/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client key. It guards the login
// route so a short PIN cannot be brute forced: limit attempts refill
// evenly over window.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*bucket
	limit   int
	every   rate.Limit
	window  time.Duration
	now     func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows limit requests per window for each key
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit < 1 {
		limit = 1
	}
	return &RateLimiter{
		clients: make(map[string]*bucket),
		limit:   limit,
		every:   rate.Every(window / time.Duration(limit)),
		window:  window,
		now:     time.Now,
	}
}

// Allow spends one token for key
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	return rl.bucketLocked(key, now).AllowN(now, 1)
}

// Remaining returns the whole tokens left for key
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := rl.clients[key]
	if !ok {
		return rl.limit
	}
	return int(math.Floor(b.limiter.TokensAt(rl.now())))
}

// RetryAfter is the wait for one token to refill
func (rl *RateLimiter) RetryAfter() time.Duration {
	return rl.window / time.Duration(rl.limit)
}

// bucketLocked returns key's bucket, evicting buckets idle for two
// windows; callers hold mu
func (rl *RateLimiter) bucketLocked(key string, now time.Time) *rate.Limiter {
	for k, b := range rl.clients {
		if now.Sub(b.lastSeen) > rl.window*2 {
			delete(rl.clients, k)
		}
	}
	b, ok := rl.clients[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.every, rl.limit)}
		rl.clients[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// RateLimit limits requests per client IP
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if !limiter.Allow(key) {
			wait := int(math.Ceil(limiter.RetryAfter().Seconds()))
			c.Header("Retry-After", strconv.Itoa(wait))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited,
				"Too many requests. Please try again later.",
				getRequestIDFromContext(c),
			))
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key)))
		c.Next()
	}
}
