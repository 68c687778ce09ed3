package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/vhsilvat/MetaMorfose/internal/models"
)

func currentUserID(c *fiber.Ctx) (int64, error) {
	userID, ok := c.Locals("user_id").(int64)
	if !ok || userID <= 0 {
		return 0, fmt.Errorf("missing user id in context")
	}
	return userID, nil
}

func currentUser(c *fiber.Ctx) (*models.User, error) {
	user, ok := c.Locals("user").(*models.User)
	if !ok || user == nil {
		return nil, fmt.Errorf("missing user in context")
	}
	return user, nil
}
