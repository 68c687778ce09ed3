package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/vhsilvat/MetaMorfose/internal/services"
	"github.com/vhsilvat/MetaMorfose/pkg/utils"
)

// AuthRequired validates the bearer token and resolves (creating on first
// sight) the local user record. The user's database id lands in
// c.Locals("user_id").
func AuthRequired(secret string, identity *services.IdentityService) fiber.Handler {
	return func(c *fiber.Ctx) error {
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

		claims, err := utils.ValidateToken(parts[1], secret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		user, err := identity.EnsureUser(c.Context(), services.IdentitySummary{
			ExternalID: claims.Subject,
			Email:      claims.Email,
		})
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to resolve user",
			})
		}

		c.Locals("user_id", user.ID)
		c.Locals("external_id", user.ExternalID)
		c.Locals("user", user)

		return c.Next()
	}
}
