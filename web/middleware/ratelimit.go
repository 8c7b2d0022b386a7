package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/hospital-ui/hospital-ui/logger"
	"github.com/hospital-ui/hospital-ui/web/entity"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// RateLimitConfig configures rate limiting
type RateLimitConfig struct {
	RequestsPerMinute int
	BurstSize         int
	KeyFunc           func(c *gin.Context) string
	SkipPaths         []string
}

// DefaultRateLimitConfig limits each client IP to 10 attempts a minute.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 10,
		BurstSize:         5,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	}
}

func (config RateLimitConfig) shouldSkip(path string) bool {
	for _, skipPath := range config.SkipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	return false
}

// visitorIdle is how long an unused bucket is kept.
const visitorIdle = 10 * time.Minute

// RateLimitMiddleware keeps one token bucket per key. Buckets idle for
// longer than visitorIdle are dropped.
func RateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	visitors := cache.New(visitorIdle, time.Minute)
	every := rate.Every(time.Minute / time.Duration(max(config.RequestsPerMinute, 1)))

	get := func(key string) *rate.Limiter {
		if v, ok := visitors.Get(key); ok {
			visitors.SetDefault(key, v)
			return v.(*rate.Limiter)
		}
		limiter := rate.NewLimiter(every, max(config.BurstSize, 1))
		if err := visitors.Add(key, limiter, cache.DefaultExpiration); err != nil {
			// lost the race to another request for the same key
			if v, ok := visitors.Get(key); ok {
				return v.(*rate.Limiter)
			}
		}
		return limiter
	}

	return func(c *gin.Context) {
		if config.shouldSkip(c.Request.URL.Path) {
			c.Next()
			return
		}
		key := config.KeyFunc(c)
		if !get(key).Allow() {
			logger.Warningf("Rate limit exceeded for %s on %s", key, c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, entity.Msg{
				Success: false,
				Msg:     "Rate limit exceeded. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
