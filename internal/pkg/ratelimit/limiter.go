package ratelimit

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const idleTTL = 30 * time.Minute

// RateLimiter keeps one token bucket per key. Buckets idle for idleTTL are dropped.
type RateLimiter struct {
	mu     sync.Mutex
	limit  rate.Limit
	burst  int
	limits *cache.Cache
}

// NewRateLimiter returns nil when perSecond is not positive; a nil limiter allows everything.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limit:  rate.Limit(perSecond),
		burst:  burst,
		limits: cache.New(idleTTL, 10*time.Minute),
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if x, ok := rl.limits.Get(key); ok {
		limiter := x.(*rate.Limiter)
		rl.limits.Set(key, limiter, cache.DefaultExpiration)
		return limiter
	}

	limiter := rate.NewLimiter(rl.limit, rl.burst)
	rl.limits.Set(key, limiter, cache.DefaultExpiration)
	return limiter
}

// Allow reports whether a request for key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	if rl == nil {
		return true
	}
	return rl.getLimiter(key).Allow()
}
