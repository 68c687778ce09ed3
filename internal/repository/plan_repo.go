package repository

import (
	"context"
	"time"

	"github.com/vhsilvat/MetaMorfose/internal/models"
)

type PlanRepository struct {
	db DBTX
}

func NewPlanRepository(db DBTX) *PlanRepository {
	return &PlanRepository{db: db}
}

type CreateDailyPlanInput struct {
	UserID        int64
	Date          time.Time
	Schedule      []models.ScheduleEntry
	WorkoutPlan   *models.WorkoutPlan
	NutritionPlan *models.NutritionPlan
	WellbeingTips []string
	GeneratedBy   string
}

// Upsert writes the plan for (user, date). Regenerating for the same day
// overwrites instead of duplicating.
func (r *PlanRepository) Upsert(ctx context.Context, input CreateDailyPlanInput) (*models.DailyPlan, error) {
	query := `
		INSERT INTO daily_plans (user_id, date, schedule, workout_plan, nutrition_plan, wellbeing_tips, completed, generated_by)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)
		ON CONFLICT (user_id, date)
		DO UPDATE SET schedule = EXCLUDED.schedule,
					  workout_plan = EXCLUDED.workout_plan,
					  nutrition_plan = EXCLUDED.nutrition_plan,
					  wellbeing_tips = EXCLUDED.wellbeing_tips,
					  completed = FALSE,
					  generated_by = EXCLUDED.generated_by,
					  updated_at = NOW()
		RETURNING id, user_id, date, schedule, workout_plan, nutrition_plan, wellbeing_tips,
				  completed, generated_by, created_at, updated_at
	`
	return r.scanPlan(r.db.QueryRow(ctx, query,
		input.UserID,
		input.Date,
		input.Schedule,
		input.WorkoutPlan,
		input.NutritionPlan,
		input.WellbeingTips,
		input.GeneratedBy,
	))
}

func (r *PlanRepository) GetByID(ctx context.Context, planID int64) (*models.DailyPlan, error) {
	query := `
		SELECT id, user_id, date, schedule, workout_plan, nutrition_plan, wellbeing_tips,
			   completed, generated_by, created_at, updated_at
		FROM daily_plans
		WHERE id = $1
	`
	return r.scanPlan(r.db.QueryRow(ctx, query, planID))
}

func (r *PlanRepository) GetByUserAndDate(ctx context.Context, userID int64, date time.Time) (*models.DailyPlan, error) {
	query := `
		SELECT id, user_id, date, schedule, workout_plan, nutrition_plan, wellbeing_tips,
			   completed, generated_by, created_at, updated_at
		FROM daily_plans
		WHERE user_id = $1 AND date = $2
	`
	return r.scanPlan(r.db.QueryRow(ctx, query, userID, date))
}

func (r *PlanRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.DailyPlan, error) {
	query := `
		SELECT id, user_id, date, schedule, workout_plan, nutrition_plan, wellbeing_tips,
			   completed, generated_by, created_at, updated_at
		FROM daily_plans
		WHERE user_id = $1
		ORDER BY date DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := make([]models.DailyPlan, 0)
	for rows.Next() {
		var plan models.DailyPlan
		if err := rows.Scan(
			&plan.ID,
			&plan.UserID,
			&plan.Date,
			&plan.Schedule,
			&plan.WorkoutPlan,
			&plan.NutritionPlan,
			&plan.WellbeingTips,
			&plan.Completed,
			&plan.GeneratedBy,
			&plan.CreatedAt,
			&plan.UpdatedAt,
		); err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *PlanRepository) MarkCompleted(ctx context.Context, planID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE daily_plans SET completed = TRUE, updated_at = NOW() WHERE id = $1`, planID)
	return err
}

func (r *PlanRepository) scanPlan(row interface{ Scan(dest ...any) error }) (*models.DailyPlan, error) {
	var plan models.DailyPlan
	err := row.Scan(
		&plan.ID,
		&plan.UserID,
		&plan.Date,
		&plan.Schedule,
		&plan.WorkoutPlan,
		&plan.NutritionPlan,
		&plan.WellbeingTips,
		&plan.Completed,
		&plan.GeneratedBy,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &plan, nil
}
