package handlers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vhsilvat/MetaMorfose/internal/models"
	"github.com/vhsilvat/MetaMorfose/internal/services"
)

type PlanHandler struct {
	plans   planApplicationService
	planner planGenerationService
}

type planApplicationService interface {
	GetCurrentPlan(ctx context.Context, userID int64) (*models.DailyPlan, error)
	GetPlanHistory(ctx context.Context, userID int64, limit int) ([]models.DailyPlan, error)
	MarkCompleted(ctx context.Context, userID, planID int64, completionPct int) error
	SubmitFeedback(ctx context.Context, userID, planID int64, input services.PlanFeedbackInput) (*models.Feedback, error)
	GetFeedback(ctx context.Context, userID, planID int64) ([]models.Feedback, error)
}

type planGenerationService interface {
	GeneratePlan(ctx context.Context, userID int64, date time.Time) (*models.DailyPlan, error)
}

func NewPlanHandler(plans *services.PlanService, planner *services.PlannerService) *PlanHandler {
	return &PlanHandler{plans: plans, planner: planner}
}

func (h *PlanHandler) GetCurrent(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	plan, err := h.plans.GetCurrentPlan(c.Context(), userID)
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.JSON(fiber.Map{"plan": plan})
}

func (h *PlanHandler) GetHistory(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must be a positive integer"})
		}
		limit = n
	}

	plans, err := h.plans.GetPlanHistory(c.Context(), userID, limit)
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.JSON(fiber.Map{"plans": plans})
}

func (h *PlanHandler) Generate(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	plan, err := h.planner.GeneratePlan(c.Context(), userID, time.Now().UTC())
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"plan": plan})
}

type completePlanRequest struct {
	CompletionPct int `json:"completionPct"`
}

func (h *PlanHandler) MarkCompleted(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	planID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || planID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid plan id"})
	}

	req := completePlanRequest{CompletionPct: 100}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
	}

	if err := h.plans.MarkCompleted(c.Context(), userID, planID, req.CompletionPct); err != nil {
		return mapPlanError(c, err)
	}
	return c.JSON(fiber.Map{"status": "completed"})
}

type planFeedbackRequest struct {
	PlanCompletion    int                       `json:"planCompletion"`
	WorkoutFeedback   *models.WorkoutFeedback   `json:"workoutFeedback,omitempty"`
	NutritionFeedback *models.NutritionFeedback `json:"nutritionFeedback,omitempty"`
	GeneralFeedback   *string                   `json:"generalFeedback,omitempty"`
}

func (h *PlanHandler) SubmitFeedback(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	planID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || planID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid plan id"})
	}

	var req planFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	feedback, err := h.plans.SubmitFeedback(c.Context(), userID, planID, services.PlanFeedbackInput{
		PlanCompletion:    req.PlanCompletion,
		WorkoutFeedback:   req.WorkoutFeedback,
		NutritionFeedback: req.NutritionFeedback,
		GeneralFeedback:   req.GeneralFeedback,
	})
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"feedback": feedback})
}

func (h *PlanHandler) GetFeedback(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	planID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || planID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid plan id"})
	}

	feedback, err := h.plans.GetFeedback(c.Context(), userID, planID)
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.JSON(fiber.Map{"feedback": feedback})
}

func mapPlanError(c *fiber.Ctx, err error) error {
	var validationErr *services.ValidationError
	var parseErr *services.PlanParseError
	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validationErr.Message,
			"field": validationErr.Field,
		})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Plan not found"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrIncompleteProfile):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Complete your intake questionnaire first"})
	case errors.Is(err, services.ErrTooManyAttempts):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Daily generation limit reached"})
	case errors.As(err, &parseErr), errors.Is(err, services.ErrUpstream):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Plan generation failed, please try again"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process plan request"})
	}
}
