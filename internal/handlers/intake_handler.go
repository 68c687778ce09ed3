package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/vhsilvat/MetaMorfose/internal/models"
	"github.com/vhsilvat/MetaMorfose/internal/services"
)

type IntakeHandler struct {
	service intakeApplicationService
}

type intakeApplicationService interface {
	SubmitStep(ctx context.Context, user *models.User, step int, submission services.StepSubmission) (*models.IntakeStepRecord, error)
	GetRecords(ctx context.Context, userID int64, step *int) ([]models.IntakeStepRecord, error)
	GetProgress(ctx context.Context, user *models.User) (*services.IntakeProgress, error)
}

func NewIntakeHandler(service *services.IntakeService) *IntakeHandler {
	return &IntakeHandler{service: service}
}

type submitStepRequest struct {
	Step1 *services.Step1Input `json:"step1,omitempty"`
	Step2 *services.Step2Input `json:"step2,omitempty"`
	Step3 *services.Step3Input `json:"step3,omitempty"`
	Step4 *services.Step4Input `json:"step4,omitempty"`
	Step5 *services.Step5Input `json:"step5,omitempty"`
}

func (h *IntakeHandler) SubmitStep(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	step, err := strconv.Atoi(c.Params("step"))
	if err != nil || step < 1 || step > 5 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Step must be between 1 and 5"})
	}

	var req submitStepRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	record, err := h.service.SubmitStep(c.Context(), user, step, services.StepSubmission{
		Step1: req.Step1,
		Step2: req.Step2,
		Step3: req.Step3,
		Step4: req.Step4,
		Step5: req.Step5,
	})
	if err != nil {
		return mapIntakeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"record": record})
}

func (h *IntakeHandler) GetRecords(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var step *int
	if raw := c.Query("step"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 5 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Step must be between 1 and 5"})
		}
		step = &n
	}

	records, err := h.service.GetRecords(c.Context(), userID, step)
	if err != nil {
		return mapIntakeError(c, err)
	}

	return c.JSON(fiber.Map{"records": records})
}

func (h *IntakeHandler) GetProgress(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	progress, err := h.service.GetProgress(c.Context(), user)
	if err != nil {
		return mapIntakeError(c, err)
	}

	return c.JSON(fiber.Map{"progress": progress})
}

func mapIntakeError(c *fiber.Ctx, err error) error {
	var validationErr *services.ValidationError
	var sequenceErr *services.SequenceError
	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validationErr.Message,
			"field": validationErr.Field,
		})
	case errors.As(err, &sequenceErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     sequenceErr.Error(),
			"next_step": sequenceErr.NextStep(),
		})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request payload"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process intake request"})
	}
}
