package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/songforge/api/pkg/response"
)

type RateLimiter struct {
	redis *redis.Client
}

func NewRateLimiter(redisClient *redis.Client) *RateLimiter {
	return &RateLimiter{redis: redisClient}
}

// Limit creates a rate limiting middleware
func (rl *RateLimiter) Limit(keyPrefix string, maxRequests int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		if userID == "" {
			return c.Next() // Skip rate limiting if no user (auth middleware should catch this)
		}

		key := fmt.Sprintf("ratelimit:%s:%s", keyPrefix, userID)
		ctx := context.Background()

		// Increment counter
		count, err := rl.redis.Incr(ctx, key).Result()
		if err != nil {
			// If Redis fails, allow the request but log the error
			return c.Next()
		}

		// Set expiration on first request
		if count == 1 {
			rl.redis.Expire(ctx, key, window)
		}

		if count > int64(maxRequests) {
			// Get TTL for retry-after header
			ttl, _ := rl.redis.TTL(ctx, key).Result()
			c.Set("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds())))
			return response.RateLimited(c)
		}

		// Add rate limit headers
		c.Set("X-RateLimit-Limit", fmt.Sprintf("%d", maxRequests))
		c.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", maxRequests-int(count)))

		return c.Next()
	}
}

// GenerateLimit returns a rate limiter for primary generation
func (rl *RateLimiter) GenerateLimit(maxPerHour int) fiber.Handler {
	return rl.Limit("generate", maxPerHour, time.Hour)
}

// ExtendLimit returns a rate limiter for track extension
func (rl *RateLimiter) ExtendLimit(maxPerHour int) fiber.Handler {
	return rl.Limit("extend", maxPerHour, time.Hour)
}

// StemsLimit returns a rate limiter for stem separation
func (rl *RateLimiter) StemsLimit(maxPerHour int) fiber.Handler {
	return rl.Limit("stems", maxPerHour, time.Hour)
}

// ConcatLimit returns a rate limiter for concatenation
func (rl *RateLimiter) ConcatLimit(maxPerHour int) fiber.Handler {
	return rl.Limit("concat", maxPerHour, time.Hour)
}

// CoverLimit returns a rate limiter for direct cover generation
func (rl *RateLimiter) CoverLimit(maxPerHour int) fiber.Handler {
	return rl.Limit("cover", maxPerHour, time.Hour)
}
