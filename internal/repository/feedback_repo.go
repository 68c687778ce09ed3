package repository

import (
	"context"

	"github.com/vhsilvat/MetaMorfose/internal/models"
)

type FeedbackRepository struct {
	db DBTX
}

func NewFeedbackRepository(db DBTX) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

type CreateFeedbackInput struct {
	UserID            int64
	RelatedPlanID     *int64
	PlanCompletion    int
	WorkoutFeedback   *models.WorkoutFeedback
	NutritionFeedback *models.NutritionFeedback
	GeneralFeedback   *string
}

func (r *FeedbackRepository) Create(ctx context.Context, input CreateFeedbackInput) (*models.Feedback, error) {
	query := `
		INSERT INTO feedbacks (user_id, related_plan_id, plan_completion, workout_feedback, nutrition_feedback, general_feedback)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, date, related_plan_id, plan_completion,
				  workout_feedback, nutrition_feedback, general_feedback
	`
	var feedback models.Feedback
	err := r.db.QueryRow(ctx, query,
		input.UserID,
		input.RelatedPlanID,
		input.PlanCompletion,
		input.WorkoutFeedback,
		input.NutritionFeedback,
		input.GeneralFeedback,
	).Scan(
		&feedback.ID,
		&feedback.UserID,
		&feedback.Date,
		&feedback.RelatedPlanID,
		&feedback.PlanCompletion,
		&feedback.WorkoutFeedback,
		&feedback.NutritionFeedback,
		&feedback.GeneralFeedback,
	)
	if err != nil {
		return nil, err
	}
	return &feedback, nil
}

func (r *FeedbackRepository) ListByPlan(ctx context.Context, planID int64) ([]models.Feedback, error) {
	query := `
		SELECT id, user_id, date, related_plan_id, plan_completion,
			   workout_feedback, nutrition_feedback, general_feedback
		FROM feedbacks
		WHERE related_plan_id = $1
		ORDER BY date DESC
	`
	rows, err := r.db.Query(ctx, query, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	feedbacks := make([]models.Feedback, 0)
	for rows.Next() {
		var feedback models.Feedback
		if err := rows.Scan(
			&feedback.ID,
			&feedback.UserID,
			&feedback.Date,
			&feedback.RelatedPlanID,
			&feedback.PlanCompletion,
			&feedback.WorkoutFeedback,
			&feedback.NutritionFeedback,
			&feedback.GeneralFeedback,
		); err != nil {
			return nil, err
		}
		feedbacks = append(feedbacks, feedback)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return feedbacks, nil
}
