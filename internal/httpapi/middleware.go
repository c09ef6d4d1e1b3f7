package httpapi

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"brandintel/internal/apierr"
)

// requestIDMiddleware ensures every request carries a correlation ID,
// generating one when the caller did not supply X-Request-Id.
func requestIDMiddleware(c *fiber.Ctx) error {
	reqID := c.Get("X-Request-Id")
	if reqID == "" {
		reqID = uuid.New().String()
	}
	c.Locals("request_id", reqID)
	c.Set("X-Request-Id", reqID)
	return c.Next()
}

// authMiddleware requires the configured shared secret on every request,
// presented as the X-API-Key header.
func authMiddleware(apiKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if apiKey == "" || c.Get("X-API-Key") != apiKey {
			return writeError(c, apierr.New(apierr.CodeUnauthorized, "missing or invalid X-API-Key"))
		}
		return c.Next()
	}
}

// rateLimitMiddleware enforces a fixed-window per-minute limit per (IP,
// API key) pair using Redis INCR+EXPIRE, mirroring the scheme this
// pipeline's other Redis-backed components use for bounded state.
func rateLimitMiddleware(rdb *redis.Client, maxPerMinute int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rdb == nil || maxPerMinute <= 0 {
			return c.Next()
		}

		window := time.Now().UTC().Format("200601021504")
		bucket := fmt.Sprintf("%s:%s", c.IP(), c.Get("X-API-Key"))
		key := fmt.Sprintf("brandintel:rl:%s:%s", bucket, window)

		ctx := c.Context()
		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			return writeError(c, apierr.Wrap(apierr.CodeInternal, "rate limit increment failed", err))
		}
		if count == 1 {
			_ = rdb.Expire(ctx, key, time.Minute)
		}
		if count > int64(maxPerMinute) {
			return writeError(c, apierr.New(apierr.CodeRateLimitExceeded, "rate limit exceeded, try again later"))
		}

		return c.Next()
	}
}
