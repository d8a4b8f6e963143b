package middleware

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/teacher-feedback-api/internal/service"
	appErrors "github.com/noah-isme/teacher-feedback-api/pkg/errors"
	"github.com/noah-isme/teacher-feedback-api/pkg/response"
)

const (
	rateLimitKeyPrefix = "tf:ratelimit"
	rateLimitTimeout   = 200 * time.Millisecond
)

// RateLimitRule bounds requests per client IP on one route within a fixed window.
type RateLimitRule struct {
	Name   string
	Max    int
	Window time.Duration
}

// windowCounter increments a fixed-window counter and reports the count and
// the time left in the window.
type windowCounter interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

type redisWindow struct {
	client redis.UniversalClient
}

func (w redisWindow) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	count, err := w.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if count == 1 {
		if err := w.client.Expire(ctx, key, window).Err(); err != nil {
			return count, window, err
		}
		return count, window, nil
	}
	ttl, err := w.client.TTL(ctx, key).Result()
	if err != nil {
		return count, window, err
	}
	if ttl < 0 {
		// counter lost its expiry; restore it so the key cannot live forever
		_ = w.client.Expire(ctx, key, window).Err()
		ttl = window
	}
	return count, ttl, nil
}

// RateLimit limits requests per client IP using Redis. A nil client or a
// non-positive limit disables it; Redis failures let the request through.
func RateLimit(client redis.UniversalClient, rule RateLimitRule, metrics *service.MetricsService, logger *zap.Logger) gin.HandlerFunc {
	if client == nil {
		return rateLimit(nil, rule, metrics, logger)
	}
	return rateLimit(redisWindow{client: client}, rule, metrics, logger)
}

func rateLimit(counter windowCounter, rule RateLimitRule, metrics *service.MetricsService, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rule.Window <= 0 {
		rule.Window = time.Minute
	}
	if counter == nil || rule.Max <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := fmt.Sprintf("%s:%s:%s", rateLimitKeyPrefix, rule.Name, c.ClientIP())

		ctx, cancel := context.WithTimeout(c.Request.Context(), rateLimitTimeout)
		count, ttl, err := counter.Increment(ctx, key, rule.Window)
		cancel()
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("rule", rule.Name), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.Max))
		remaining := int64(rule.Max) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(rule.Max) {
			retryAfter := int(math.Ceil(ttl.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			metrics.RecordRateLimited(rule.Name)
			response.Error(c, appErrors.ErrRateLimited)
			c.Abort()
			return
		}
		c.Next()
	}
}
