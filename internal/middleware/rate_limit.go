package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/prepstack/prepstack-api/internal/utils"
)

// RateLimit smooths short request bursts per authenticated user. The daily
// code submission cap is enforced separately in the service layer; this
// limiter only protects the judge from rapid-fire retries.
func RateLimit(identifier string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Minute
	}

	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        window,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			if userID := userIDKey(c); userID != "" {
				return identifier + ":" + userID
			}
			return identifier + ":" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return utils.SendError(c, fiber.StatusTooManyRequests, "too many requests, slow down")
		},
	})
}

func userIDKey(c *fiber.Ctx) string {
	id, ok := c.Locals("user_id").(uint)
	if !ok || id == 0 {
		return ""
	}
	return fmt.Sprintf("%d", id)
}
