package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/surfer/config"
	"github.com/use-agent/surfer/models"
	"golang.org/x/time/rate"
)

const (
	limiterIdle = time.Hour
	sweepEvery  = 5 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiters holds one token bucket per identity (API key or client IP).
type Limiters struct {
	cfg config.RateLimitConfig
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*limiterEntry
}

// NewLimiters creates the bucket set. Until ctx ends, a background
// goroutine drops buckets unused for an hour.
func NewLimiters(ctx context.Context, cfg config.RateLimitConfig) *Limiters {
	l := &Limiters{
		cfg:     cfg,
		now:     time.Now,
		entries: make(map[string]*limiterEntry),
	}
	go func() {
		ticker := time.NewTicker(sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.sweep(l.now().Add(-limiterIdle))
			}
		}
	}()
	return l
}

// Allow spends one token from identity's bucket.
func (l *Limiters) Allow(identity string) bool {
	l.mu.Lock()
	e, ok := l.entries[identity]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.Burst)}
		l.entries[identity] = e
	}
	e.lastSeen = l.now()
	l.mu.Unlock()
	return e.limiter.AllowN(e.lastSeen, 1)
}

func (l *Limiters) sweep(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for id, e := range l.entries {
		if e.lastSeen.Before(cutoff) {
			delete(l.entries, id)
			n++
		}
	}
	return n
}

// RateLimit returns per-identity token-bucket rate limiting middleware
// powered by golang.org/x/time/rate. The API key set by Auth is preferred
// as identity; anonymous callers are keyed by IP.
func RateLimit(l *Limiters) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := c.GetString(IdentityKey)
		if identity == "" {
			identity = c.ClientIP()
		}

		if !l.Allow(identity) {
			abort(c, http.StatusTooManyRequests, models.ErrCodeRateLimited, "rate limit exceeded, please slow down")
			return
		}
		c.Next()
	}
}
