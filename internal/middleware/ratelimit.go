package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Limits carries the per-class ceilings: authenticated agents get one,
// anonymous (IP-keyed) traffic another. The two are independent
// configuration, never a shared hard-coded value.
type Limits struct {
	Agent int
	Anon  int
}

// RateLimiter is a fixed-window counter over a mutex-guarded map. State
// is process-local; this is deliberately not a distributed limiter.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*windowEntry
	limits  Limits
	window  time.Duration
	now     func() time.Time
}

type windowEntry struct {
	count   int
	resetAt time.Time
}

func NewRateLimiter(limits Limits, window time.Duration) *RateLimiter {
	return NewRateLimiterWithNow(limits, window, time.Now)
}

func NewRateLimiterWithNow(limits Limits, window time.Duration, now func() time.Time) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*windowEntry),
		limits:  limits,
		window:  window,
		now:     now,
	}
}

// Sweep garbage-collects expired windows until ctx is cancelled. It
// holds the lock only for a single delete pass per tick and never blocks
// request handling beyond that.
func (rl *RateLimiter) Sweep(ctx context.Context) {
	if rl.window <= 0 {
		return
	}

	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, entry := range rl.windows {
				if now.After(entry.resetAt) {
					delete(rl.windows, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Allow admits or rejects one request for key under limit. A fresh or
// elapsed window restarts at count 1; window boundaries are sharp.
func (rl *RateLimiter) Allow(key string, limit int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, exists := rl.windows[key]
	if !exists || now.After(entry.resetAt) {
		rl.windows[key] = &windowEntry{count: 1, resetAt: now.Add(rl.window)}
		return true
	}

	entry.count++
	return entry.count <= limit
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// forwardedIP picks the first forwarded address when present, else the
// direct client IP.
func forwardedIP(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return c.ClientIP()
}

// RateLimit throttles mutating requests only. Keys are agent identity
// when present, client IP otherwise; admin requests are exempt.
func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isMutating(c.Request.Method) || IsAdmin(c) {
			c.Next()
			return
		}

		key, limit, class := "ip:"+forwardedIP(c), rl.limits.Anon, "ip"
		if agent, ok := AgentFromContext(c); ok {
			key, limit, class = "agent:"+agent.ID, rl.limits.Agent, "agent"
		}

		if !rl.Allow(key, limit) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate limit exceeded",
				"code":    "rate_limited",
				"limiter": class,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
