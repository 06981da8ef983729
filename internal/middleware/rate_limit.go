package middleware

import (
	"sync"
	"time"

	"unicarpool/internal/utils"
	apperrors "unicarpool/pkg/errors"
	"unicarpool/pkg/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterIdleTimeout = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	log      *logger.Logger
}

// NewRateLimiter allows perMinute requests per IP, with bursts up to the same size.
func NewRateLimiter(perMinute int, log *logger.Logger) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		log:      log,
	}
}

func (rl *RateLimiter) limiter(ip string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Cleanup forgets clients idle for longer than the idle timeout.
func (rl *RateLimiter) Cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > limiterIdleTimeout {
			delete(rl.visitors, ip)
		}
	}
}

// Middleware rejects requests over the limit with TOO_MANY_REQUESTS.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !rl.limiter(ip, time.Now()).Allow() {
			rl.log.LogSecurityEvent("rate_limit_exceeded", "low", map[string]interface{}{
				"ip":   ip,
				"path": c.FullPath(),
			})
			utils.AbortWithError(c, apperrors.TooManyRequests("rate limit exceeded, try again later"))
			return
		}
		c.Next()
	}
}
