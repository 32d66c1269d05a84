package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/admissions/portal/internal/app/models/dto"
	"github.com/admissions/portal/internal/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Limiter decides whether key may make another request within window
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) bool
}

// INCR the window counter, start its expiry on first hit, refuse once past limit.
const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

// RedisLimiter is a fixed-window limiter shared by every API instance
type RedisLimiter struct {
	client *redis.Client
	script *redis.Script
	logger zerolog.Logger
}

// NewRedisLimiter returns nil when client is nil
func NewRedisLimiter(client *redis.Client, logger zerolog.Logger) *RedisLimiter {
	if client == nil {
		return nil
	}
	return &RedisLimiter{
		client: client,
		script: redis.NewScript(rateLimitScript),
		logger: logger,
	}
}

// Allow fails open: redis errors let the request through.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	if l == nil || l.client == nil || key == "" || limit <= 0 || window <= 0 {
		return true
	}
	ttl := window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}

	ctx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()

	allowed, err := l.script.Run(ctx, l.client, []string{"ratelimit:" + key}, ttl, limit).Int64()
	if err != nil {
		l.logger.Warn().Err(err).Str("key", key).Msg("Rate limiter unavailable, allowing request")
		return true
	}
	return allowed == 1
}

// MemoryLimiter is the single-process fallback used when redis is disabled
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket
	now     func() time.Time
}

type rateBucket struct {
	count     int
	windowEnd time.Time
}

// NewMemoryLimiter creates an empty MemoryLimiter
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{buckets: make(map[string]*rateBucket), now: time.Now}
}

// Allow counts one request for key
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) bool {
	if key == "" || limit <= 0 || window <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	bucket, ok := l.buckets[key]
	if !ok || now.After(bucket.windowEnd) {
		l.buckets[key] = &rateBucket{count: 1, windowEnd: now.Add(window)}
		return true
	}
	if bucket.count >= limit {
		return false
	}
	bucket.count++
	return true
}

// RateLimitRule configures one limited route group
type RateLimitRule struct {
	Scope  string
	Limit  int
	Window time.Duration
}

// RateLimit throttles per authenticated user, or per client IP before JWTAuth has run.
// A nil limiter disables the check.
func RateLimit(limiter Limiter, rule RateLimitRule, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		subject := "ip:" + c.ClientIP()
		if actor, ok := ActorFromContext(c); ok {
			subject = fmt.Sprintf("user:%d", actor.UserID)
		}

		if !limiter.Allow(c.Request.Context(), rule.Scope+":"+subject, rule.Limit, rule.Window) {
			m.ObserveRateLimited(rule.Scope)
			c.Header("Retry-After", fmt.Sprintf("%d", int(rule.Window.Seconds())))
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeRateLimited, "Too many requests").
				WithDetails(fmt.Sprintf("limit of %d requests per %s exceeded", rule.Limit, rule.Window))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponse(errorDetail))
			return
		}
		c.Next()
	}
}
