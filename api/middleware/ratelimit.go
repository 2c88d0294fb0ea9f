package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/tollwatch/config"
	"github.com/use-agent/tollwatch/models"
	"golang.org/x/time/rate"
)

// idleTTL is how long an unused bucket is kept.
const idleTTL = time.Hour

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter hands out one token bucket per caller identity (API key
// fingerprint, or client IP when auth is off).
type Limiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewLimiter creates a Limiter. A non-positive rate disables limiting.
func NewLimiter(cfg config.RateLimitConfig) *Limiter {
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limit:   rate.Limit(cfg.RequestsPerSecond),
		burst:   burst,
		buckets: make(map[string]*bucket),
	}
}

// Reserve takes a token for identity. When none is available it returns
// false and how long until one will be.
func (l *Limiter) Reserve(identity string, now time.Time) (bool, time.Duration) {
	if l.limit <= 0 {
		return true, 0
	}

	l.mu.Lock()
	b, ok := l.buckets[identity]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[identity] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return false, d
	}
	return true, 0
}

// Sweep evicts buckets not used since idleTTL before now.
func (l *Limiter) Sweep(now time.Time) int {
	cutoff := now.Add(-idleTTL)
	l.mu.Lock()
	defer l.mu.Unlock()
	evicted := 0
	for id, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, id)
			evicted++
		}
	}
	return evicted
}

// Run sweeps every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := l.Sweep(now); n > 0 {
				slog.Debug("ratelimit: evicted idle buckets", "count", n)
			}
		}
	}
}

// Middleware rejects callers over their rate with 429 and a Retry-After
// header.
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := c.GetString(IdentityKey)
		if identity == "" {
			identity = c.ClientIP()
		}

		ok, wait := l.Reserve(identity, time.Now())
		if !ok {
			if wait > 0 {
				c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeRateLimited,
					Message: "rate limit exceeded, please slow down",
				},
			})
			return
		}

		c.Next()
	}
}
