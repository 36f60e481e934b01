package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ──────────────────────────────────────────────────────────────────────────────
// Per-IP token bucket rate limiter
// ──────────────────────────────────────────────────────────────────────────────

// bucket tracks the remaining tokens for one client IP.
type bucket struct {
	mu       sync.Mutex
	tokens   float64
	lastSeen time.Time
}

// limiter maps client IPs to buckets refilled at rate tokens per second.
type limiter struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
	rate    float64
	burst   float64
}

func newLimiter(rps int) *limiter {
	burst := float64(rps)
	if burst < 10 {
		burst = 10
	}
	return &limiter{
		buckets: make(map[string]*bucket),
		rate:    float64(rps),
		burst:   burst,
	}
}

func (l *limiter) allow(key string) bool {
	l.mu.RLock()
	b, ok := l.buckets[key]
	l.mu.RUnlock()

	if !ok {
		l.mu.Lock()
		if b, ok = l.buckets[key]; !ok {
			b = &bucket{tokens: l.burst, lastSeen: time.Now()}
			l.buckets[key] = b
		}
		l.mu.Unlock()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.tokens += now.Sub(b.lastSeen).Seconds() * l.rate
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	b.lastSeen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// evictLoop drops buckets idle for 10 minutes so the map stays bounded.
func (l *limiter) evictLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-10 * time.Minute)
		l.mu.Lock()
		for ip, b := range l.buckets {
			b.mu.Lock()
			if b.lastSeen.Before(cutoff) {
				delete(l.buckets, ip)
			}
			b.mu.Unlock()
		}
		l.mu.Unlock()
	}
}

// RateLimitMiddleware enforces a per-IP token bucket allowance of rps
// requests per second. Clients over the limit receive 429.
func RateLimitMiddleware(rps int) gin.HandlerFunc {
	l := newLimiter(rps)
	go l.evictLoop()

	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests, please slow down",
			})
			return
		}
		c.Next()
	}
}
