package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	fiberredis "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"

	"github.com/Alijeyrad/internhub_backend/config"
)

// NewLimiterWithRedis rate limits per caller over a sliding window shared by
// every node through redis. Callers are keyed by X-User-Id, falling back to
// the client IP.
func NewLimiterWithRedis(rdb *redis.Client, cfg config.RateLimitConfig) fiber.Handler {
	limit := cfg.Max
	if limit <= 0 {
		limit = 120
	}
	exp := time.Duration(cfg.ExpirationSeconds) * time.Second
	if exp <= 0 {
		exp = 30 * time.Second
	}

	storage := fiberredis.NewFromConnection(rdb)
	return limiter.New(limiter.Config{
		Storage:    storage,
		Max:        limit,
		Expiration: exp,
		KeyGenerator: func(c fiber.Ctx) string {
			if id := c.Get(HeaderUserID); id != "" {
				return "user:" + id
			}
			return "ip:" + c.IP()
		},
		LimiterMiddleware: limiter.SlidingWindow{},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"message": "too many requests"})
		},
	})
}
