package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/vhsilvat/MetaMorfose/internal/models"
	"github.com/vhsilvat/MetaMorfose/internal/services"
)

type ProfileHandler struct {
	identity   profileApplicationService
	onboarding onboardingReconciler
}

type profileApplicationService interface {
	GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error)
}

type onboardingReconciler interface {
	Reconcile(ctx context.Context, user *models.User) (bool, error)
}

func NewProfileHandler(identity *services.IdentityService, onboarding *services.OnboardingService) *ProfileHandler {
	return &ProfileHandler{identity: identity, onboarding: onboarding}
}

// GetProfile returns the user with progression and onboarding state. It
// repairs onboarding drift before responding so clients never see a state
// behind the user's actual level.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	if user.AnamneseLevel > 0 {
		if _, err := h.onboarding.Reconcile(c.Context(), user); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load profile"})
		}
	}

	profile, err := h.identity.GetProfile(c.Context(), user.ID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load profile"})
	}

	return c.JSON(fiber.Map{"profile": profile})
}
