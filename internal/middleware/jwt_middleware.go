package middleware

import (
	"strings"

	"teamhub/internal/logger"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v2"
)

const (
	localUserID   = "user_id"
	localUsername = "username"
	localActive   = "active"
)

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (jwt.MapClaims, error)
}

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(validator TokenValidator, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return unauthorized(c, "Authorization header is required")
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return unauthorized(c, "Authorization header format must be 'Bearer <token>'")
		}

		claims, err := validator.ValidateToken(parts[1])
		if err != nil {
			log.Debug("JWT validation failed", "error", err, "path", c.Path())
			return unauthorized(c, "Invalid or expired token")
		}

		active, _ := claims["active"].(bool)
		c.Locals(localUserID, claims["user_id"])
		c.Locals(localUsername, claims["username"])
		c.Locals(localActive, active)

		return c.Next()
	}
}

// RequireActive rejects tokens issued before the account was activated.
// It must run after AuthRequired.
func RequireActive() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if active, _ := c.Locals(localActive).(bool); !active {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"type":    "inactive",
				"message": "Account is not activated",
			})
		}
		return c.Next()
	}
}

// UserID returns the authenticated user's ID.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"type":    "unauthorized",
		"message": message,
	})
}
