package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vhsilvat/MetaMorfose/internal/models"
	"github.com/vhsilvat/MetaMorfose/internal/repository"
)

const (
	defaultHistoryLimit = 30
	maxHistoryLimit     = 90
)

type planStore interface {
	GetByID(ctx context.Context, planID int64) (*models.DailyPlan, error)
	GetByUserAndDate(ctx context.Context, userID int64, date time.Time) (*models.DailyPlan, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.DailyPlan, error)
	MarkCompleted(ctx context.Context, planID int64) error
}

type feedbackStore interface {
	Create(ctx context.Context, input repository.CreateFeedbackInput) (*models.Feedback, error)
	ListByPlan(ctx context.Context, planID int64) ([]models.Feedback, error)
}

// PlanService serves stored daily plans and records their completion and
// feedback. Generation lives in PlannerService.
type PlanService struct {
	planRepo     planStore
	feedbackRepo feedbackStore
}

func NewPlanService(planRepo planStore, feedbackRepo feedbackStore) *PlanService {
	return &PlanService{planRepo: planRepo, feedbackRepo: feedbackRepo}
}

// GetCurrentPlan returns today's plan, or nil when none was generated
// yet. A missing plan is a normal state, not an error.
func (s *PlanService) GetCurrentPlan(ctx context.Context, userID int64) (*models.DailyPlan, error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	plan, err := s.planRepo.GetByUserAndDate(ctx, userID, today)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return plan, nil
}

// GetPlanHistory lists past plans, newest first. A non-positive limit
// falls back to the default window.
func (s *PlanService) GetPlanHistory(ctx context.Context, userID int64, limit int) ([]models.DailyPlan, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.planRepo.ListByUser(ctx, userID, limit)
}

// MarkCompleted flags the plan done and records a minimal feedback entry
// with the reported completion percentage.
func (s *PlanService) MarkCompleted(ctx context.Context, userID, planID int64, completionPct int) error {
	plan, err := s.ownedPlan(ctx, userID, planID)
	if err != nil {
		return err
	}
	if completionPct < 0 || completionPct > 100 {
		return validationErr("completionPct", "must be between 0 and 100")
	}

	if err := s.planRepo.MarkCompleted(ctx, plan.ID); err != nil {
		return err
	}

	note := fmt.Sprintf("Plan completed with %d%% execution", completionPct)
	_, err = s.feedbackRepo.Create(ctx, repository.CreateFeedbackInput{
		UserID:          userID,
		RelatedPlanID:   &plan.ID,
		PlanCompletion:  completionPct,
		GeneralFeedback: &note,
	})
	return err
}

type PlanFeedbackInput struct {
	PlanCompletion    int
	WorkoutFeedback   *models.WorkoutFeedback
	NutritionFeedback *models.NutritionFeedback
	GeneralFeedback   *string
}

// SubmitFeedback records detailed feedback on a plan and marks it
// completed in the same call.
func (s *PlanService) SubmitFeedback(ctx context.Context, userID, planID int64, input PlanFeedbackInput) (*models.Feedback, error) {
	plan, err := s.ownedPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	if input.PlanCompletion < 0 || input.PlanCompletion > 100 {
		return nil, validationErr("planCompletion", "must be between 0 and 100")
	}

	feedback, err := s.feedbackRepo.Create(ctx, repository.CreateFeedbackInput{
		UserID:            userID,
		RelatedPlanID:     &plan.ID,
		PlanCompletion:    input.PlanCompletion,
		WorkoutFeedback:   input.WorkoutFeedback,
		NutritionFeedback: input.NutritionFeedback,
		GeneralFeedback:   input.GeneralFeedback,
	})
	if err != nil {
		return nil, err
	}

	if !plan.Completed {
		if err := s.planRepo.MarkCompleted(ctx, plan.ID); err != nil {
			return nil, err
		}
	}
	return feedback, nil
}

func (s *PlanService) GetFeedback(ctx context.Context, userID, planID int64) ([]models.Feedback, error) {
	if _, err := s.ownedPlan(ctx, userID, planID); err != nil {
		return nil, err
	}
	return s.feedbackRepo.ListByPlan(ctx, planID)
}

func (s *PlanService) ownedPlan(ctx context.Context, userID, planID int64) (*models.DailyPlan, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if plan.UserID != userID {
		return nil, ErrForbidden
	}
	return plan, nil
}
