package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prajna-app/prajna-backend/internal/config"
	"github.com/prajna-app/prajna-backend/internal/response"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RateLimiter implements a fixed-window limiter backed by Redis so the limit
// holds across server replicas.
type RateLimiter struct {
	rdb      *redis.Client
	route    string
	limit    int64
	interval time.Duration
	log      zerolog.Logger
}

// NewRateLimiter creates a RateLimiter allowing limit requests per interval
// for each client on the named route.
func NewRateLimiter(rdb *redis.Client, route string, limit int, interval time.Duration, log zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		rdb:      rdb,
		route:    route,
		limit:    int64(limit),
		interval: interval,
		log:      log.With().Str("component", "rate_limiter").Str("route", route).Logger(),
	}
}

// Middleware returns a Gin middleware that rate-limits requests by user, or by IP
// when the request is unauthenticated. Redis failures let the request through.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit <= 0 {
			c.Next()
			return
		}

		client := c.ClientIP()
		if claims := GetClaims(c); claims != nil {
			client = claims.UserID()
		}

		window := time.Now().Unix() / int64(rl.interval.Seconds())
		key := config.CacheKey.RateLimitKey(rl.route, client, window)

		ctx := c.Request.Context()
		pipe := rl.rdb.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, rl.interval)
		if _, err := pipe.Exec(ctx); err != nil {
			rl.log.Warn().Err(err).Msg("Rate limit check failed, allowing request")
			c.Next()
			return
		}

		count := incr.Val()
		remaining := rl.limit - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.FormatInt(rl.limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > rl.limit {
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}
