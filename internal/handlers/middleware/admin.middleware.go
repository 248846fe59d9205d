package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// RequireAdmin must run after RequireAuth.
func (m *Middleware) RequireAdmin() fiber.Handler {
	log := m.log.Function("RequireAdmin")

	return func(c *fiber.Ctx) error {
		user := GetUser(c)
		if user == nil {
			return unauthorized(c, "Authentication required")
		}

		if !user.IsAdmin() {
			log.Info("user is not admin", "userID", user.ID, "path", c.Path())
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Admin access required",
			})
		}

		return c.Next()
	}
}
