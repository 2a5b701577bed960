package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/use-agent/shopcrawl/config"
	"github.com/use-agent/shopcrawl/models"
)

const (
	limiterIdleTTL  = time.Hour
	limiterSweepInt = 5 * time.Minute
)

// clientLimiters holds one token bucket per client IP.
type clientLimiters struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	buckets map[string]*clientBucket
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newClientLimiters(cfg config.RateLimitConfig) *clientLimiters {
	return &clientLimiters{
		limit:   rate.Limit(cfg.RequestsPerSecond),
		burst:   cfg.Burst,
		buckets: make(map[string]*clientBucket),
	}
}

func (l *clientLimiters) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	b, ok := l.buckets[ip]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[ip] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	return b.limiter.AllowN(now, 1)
}

// sweep drops buckets idle since before cutoff and returns how many remain.
func (l *clientLimiters) sweep(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, ip)
		}
	}
	return len(l.buckets)
}

// retryAfter is the whole number of seconds until one token refills.
func (l *clientLimiters) retryAfter() string {
	if l.limit <= 0 {
		return "60"
	}
	return strconv.Itoa(int(math.Ceil(1 / float64(l.limit))))
}

// RateLimit returns per-client-IP token-bucket rate limiting middleware
// powered by golang.org/x/time/rate. A catalog crawl holds a browser
// session for minutes, so the default budget is small.
//
// Buckets idle for an hour are swept every five minutes.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	limiters := newClientLimiters(cfg)

	go func() {
		ticker := time.NewTicker(limiterSweepInt)
		defer ticker.Stop()
		for now := range ticker.C {
			limiters.sweep(now.Add(-limiterIdleTTL))
		}
	}()

	return func(c *gin.Context) {
		if limiters.allow(c.ClientIP(), time.Now()) {
			c.Next()
			return
		}
		c.Header("Retry-After", limiters.retryAfter())
		c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
			Error: &models.ErrorDetail{
				Code:    models.ErrCodeRateLimited,
				Message: "rate limit exceeded, please slow down",
			},
		})
	}
}
