package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// rateLimiter allows limit requests per user per fixed one-minute window.
type rateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	buckets map[int64]*bucket
}

type bucket struct {
	start time.Time
	count int
}

func newRateLimiter(limit int) *rateLimiter {
	return &rateLimiter{
		limit:   limit,
		window:  time.Minute,
		now:     time.Now,
		buckets: make(map[int64]*bucket),
	}
}

func (r *rateLimiter) allow(userID int64) bool {
	if r == nil || r.limit <= 0 {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	b, ok := r.buckets[userID]
	if !ok || now.Sub(b.start) >= r.window {
		r.sweep(now)
		r.buckets[userID] = &bucket{start: now, count: 1}
		return true
	}
	b.count++
	return b.count <= r.limit
}

// sweep drops expired buckets. Caller holds mu.
func (r *rateLimiter) sweep(now time.Time) {
	for id, b := range r.buckets {
		if now.Sub(b.start) >= r.window {
			delete(r.buckets, id)
		}
	}
}

// RateLimitMiddleware rejects requests over the caller's per-minute budget with 429.
// It must run after AuthMiddleware.
func RateLimitMiddleware(limiter *rateLimiter, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := c.Get(ContextKeyUserID)
		if !ok {
			c.Next()
			return
		}
		id, _ := uid.(int64)
		if !limiter.allow(id) {
			logger.Warn().Int64("user_id", id).Msg("send rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
