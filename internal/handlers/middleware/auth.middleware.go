package middleware

import (
	"context"
	"strings"
	"vmtracker/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type AuthContextKey string

const (
	UserKey      AuthContextKey = "user"
	UserKeyFiber string         = "User"
)

// RequireAuth validates the bearer token and loads the matching user,
// creating it the first time a subject is seen.
func (m *Middleware) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := logger.New("middleware").TraceFromContext(c.UserContext()).Function("RequireAuth")

		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			log.Debug("missing authorization header")
			return unauthorized(c, "Authorization header required")
		}

		scheme, token, found := strings.Cut(strings.TrimSpace(authHeader), " ")
		if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
			log.Debug("invalid authorization header format")
			return unauthorized(c, "Invalid authorization header format")
		}

		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			log.Info("token validation failed", "error", err.Error())
			return unauthorized(c, "Invalid or expired token")
		}

		user, err := m.userRepo.FindOrCreateBySubject(c.UserContext(), m.DB.SQL, claims.User())
		if err != nil {
			log.Er("failed to resolve user from token", err, "subject", claims.Subject)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "An unexpected error occurred.",
			})
		}

		c.Locals(UserKeyFiber, user)
		c.SetUserContext(context.WithValue(c.UserContext(), UserKey, user))

		return c.Next()
	}
}

func GetUser(c *fiber.Ctx) *models.User {
	user, ok := c.Locals(UserKeyFiber).(*models.User)
	if !ok {
		return nil
	}
	return user
}

func unauthorized(c *fiber.Ctx, message string) error {
	c.Set(fiber.HeaderWWWAuthenticate, `Bearer realm="vmtracker"`)
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"message": message,
	})
}
