package middlewares

import (
	"github.com/gofiber/fiber/v2"
)

// RequireRole restricts a route group to one role. It must run after
// SessionAuth; a missing identity is answered with 401 rather than
// panicking on a bad chain order.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals(SessionUserKey).(AuthUser)
		if !ok {
			return unauthenticated(c, "Authentication required")
		}
		if user.Role != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "Access denied. Admin privileges required.",
			})
		}
		return c.Next()
	}
}
