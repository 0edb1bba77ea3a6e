package handler

import "github.com/gofiber/fiber/v2"

// userIDFromContext reads the user id bound by the JWT middleware. Zero means
// the request is unauthenticated.
func userIDFromContext(c *fiber.Ctx) uint {
	id, _ := c.Locals("user_id").(uint)
	return id
}
