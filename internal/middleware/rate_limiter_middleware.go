package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/fadilmartias/job-matcher/internal/util"
)

const (
	defaultRateMax    = 50
	defaultRateWindow = time.Minute
)

// RateLimiter allows max requests per client IP in a sliding window. Zero
// values fall back to 50 per minute.
func RateLimiter(max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = defaultRateMax
	}
	if window <= 0 {
		window = defaultRateWindow
	}
	retryAfter := strconv.Itoa(int(window.Seconds()))

	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        window,
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		LimiterMiddleware: limiter.SlidingWindow{},
		LimitReached: func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderRetryAfter, retryAfter)
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusTooManyRequests,
				Message: "Too many requests",
			})
		},
	})
}
