package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/vhsilvat/MetaMorfose/internal/models"
	"github.com/vhsilvat/MetaMorfose/internal/services"
)

type SubscriptionHandler struct {
	service subscriptionApplicationService
}

type subscriptionApplicationService interface {
	GetSubscription(ctx context.Context, userID int64) (*models.Subscription, error)
}

func NewSubscriptionHandler(service *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{service: service}
}

func (h *SubscriptionHandler) GetSubscription(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sub, err := h.service.GetSubscription(c.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No subscription"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load subscription"})
	}

	return c.JSON(fiber.Map{
		"subscription": sub,
		"active":       sub.IsActive(),
	})
}
