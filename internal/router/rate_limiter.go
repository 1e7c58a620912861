package router

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig is a token bucket per connection.
type RateLimitConfig struct {
	PerSecond float64
	Burst     int
}

// DefaultRateLimit allows short bursts of typing without letting one client
// flood the hub.
func DefaultRateLimit() RateLimitConfig {
	return RateLimitConfig{PerSecond: 5, Burst: 10}
}

type clientLimit struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter tracks one token bucket per connection id.
type RateLimiter struct {
	mu      sync.Mutex
	cfg     RateLimitConfig
	clients map[string]*clientLimit
	now     func() time.Time
}

// NewRateLimiter creates a limiter with cfg applied to every connection.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		cfg:     cfg,
		clients: make(map[string]*clientLimit),
		now:     time.Now,
	}
}

// Allow consumes one token for connID.
func (rl *RateLimiter) Allow(connID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	limit, exists := rl.clients[connID]
	if !exists {
		limit = &clientLimit{limiter: rate.NewLimiter(rate.Limit(rl.cfg.PerSecond), rl.cfg.Burst)}
		rl.clients[connID] = limit
	}
	limit.lastSeen = now
	return limit.limiter.AllowN(now, 1)
}

// Forget drops connID's bucket.
func (rl *RateLimiter) Forget(connID string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.clients, connID)
}

// Cleanup removes buckets idle for longer than maxIdle.
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for connID, limit := range rl.clients {
		if now.Sub(limit.lastSeen) > maxIdle {
			delete(rl.clients, connID)
		}
	}
}

// Len is the number of tracked connections.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}
