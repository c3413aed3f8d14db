package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/iliyamo/county-health/internal/config"
	"github.com/iliyamo/county-health/internal/metrics"
)

// limiterScript refills the bucket stored at KEYS[1] and takes one token.
// It returns {allowed, remaining, retry_after_ms}.
var limiterScript = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local refill_tokens = tonumber(ARGV[3])
	local interval_ms = tonumber(ARGV[4])
	local ttl_seconds = tonumber(ARGV[5])

	local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])

	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	if interval_ms > 0 and refill_tokens > 0 then
		local elapsed = math.max(0, now_ms - last_refill)
		local intervals = math.floor(elapsed / interval_ms)
		if intervals > 0 then
			tokens = math.min(capacity, tokens + (intervals * refill_tokens))
			last_refill = last_refill + (intervals * interval_ms)
		end
	end

	local allowed = 0
	local retry_after_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		local until_next = interval_ms - (now_ms - last_refill)
		if until_next < 0 then until_next = 0 end
		retry_after_ms = until_next
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
	redis.call('EXPIRE', key, ttl_seconds)

	return { allowed, tokens, retry_after_ms }
`)

// localLimiter is the in-process fallback used when Redis is absent or
// failing. Buckets are per key and reset wholesale once the map grows past
// maxLocalKeys.
type localLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

const maxLocalKeys = 10000

func newLocalLimiter(cfg config.RateLimitConfig) *localLimiter {
	every := cfg.RefillInterval / time.Duration(cfg.RefillTokens)
	return &localLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(every),
		burst:    cfg.Capacity,
	}
}

func (l *localLimiter) take(key string) (allowed bool, remaining int64, retry time.Duration) {
	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		if len(l.limiters) >= maxLocalKeys {
			l.limiters = make(map[string]*rate.Limiter)
		}
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	l.mu.Unlock()

	now := time.Now()
	r := lim.ReserveN(now, 1)
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return false, 0, d
	}
	return true, int64(math.Max(0, math.Floor(lim.TokensAt(now)))), 0
}

// NewTokenBucket limits requests per key. With a Redis client the buckets
// are shared by every server instance; without one (or while Redis errors)
// each process limits on its own.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log logrus.FieldLogger) echo.MiddlewareFunc {
	if !cfg.Enabled {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return func(c echo.Context) error { return next(c) } }
	}
	local := newLocalLimiter(cfg)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)

			allowed, remaining, retry, err := takeRedis(c, cfg, rdb, key)
			if err != nil {
				if cfg.Debug {
					log.WithError(err).WithField("key", key).Warn("ratelimit: redis unavailable, limiting locally")
				}
				allowed, remaining, retry = local.take(key)
			}

			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if !allowed {
				secs := int(math.Ceil(retry.Seconds()))
				if secs < 1 {
					secs = 1
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				if cfg.Debug {
					log.WithFields(logrus.Fields{"key": key, "retry": retry}).Info("ratelimit: blocked")
				}
				metrics.RecordRateLimited()
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":  "Too many requests",
					"status": http.StatusTooManyRequests,
				})
			}
			return next(c)
		}
	}
}

// errNoRedis marks the local fallback path.
var errNoRedis = fmt.Errorf("no redis client")

func takeRedis(c echo.Context, cfg config.RateLimitConfig, rdb *redis.Client, key string) (bool, int64, time.Duration, error) {
	if rdb == nil {
		return false, 0, 0, errNoRedis
	}
	args := []interface{}{
		time.Now().UnixMilli(),
		cfg.Capacity,
		cfg.RefillTokens,
		cfg.RefillInterval.Milliseconds(),
		int64(cfg.TTL / time.Second),
	}
	vals, err := limiterScript.Run(c.Request().Context(), rdb, []string{key}, args...).Result()
	if err != nil {
		return false, 0, 0, err
	}
	arr, ok := vals.([]interface{})
	if !ok || len(arr) != 3 {
		return false, 0, 0, fmt.Errorf("unexpected script result %#v", vals)
	}
	allowed := asInt64(arr[0]) == 1
	return allowed, asInt64(arr[1]), time.Duration(asInt64(arr[2])) * time.Millisecond, nil
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	parts := []string{cfg.Prefix}
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	route := c.Request().Method + " " + c.Path()

	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		parts = append(parts, "ip", ip)
	case "route":
		parts = append(parts, "route", route)
	default: // "ip_route"
		parts = append(parts, "ip", ip, "route", route)
	}
	return strings.Join(parts, ":")
}
