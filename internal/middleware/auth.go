package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/yamenzk/ptrainer/pkg/utils"
)

const (
	LocalClientID   = "client_id"
	LocalMembership = "membership"
)

// AuthRequired accepts a bearer token, or a token query parameter for
// websocket upgrades where browsers cannot set headers.
func AuthRequired(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Query("token")
		if tokenString == "" {
			authHeader := c.Get("Authorization")
			if authHeader == "" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Missing authorization header",
				})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid authorization header format",
				})
			}
			tokenString = parts[1]
		}

		claims, err := utils.ValidateToken(tokenString, secret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals(LocalClientID, claims.ClientID)
		c.Locals(LocalMembership, claims.Membership)

		return c.Next()
	}
}
