package repository

import (
	"context"
	"time"

	"github.com/vhsilvat/MetaMorfose/internal/models"
)

type OnboardingRepository struct {
	db DBTX
}

func NewOnboardingRepository(db DBTX) *OnboardingRepository {
	return &OnboardingRepository{db: db}
}

func (r *OnboardingRepository) CreateInitial(ctx context.Context, userID int64, firstReminder models.Reminder) (*models.OnboardingState, error) {
	query := `
		INSERT INTO onboarding_states (user_id, completed_steps, next_step, scheduled_reminders)
		VALUES ($1, '{}', 'anamnese-step-1', $2)
		RETURNING id, user_id, completed_steps, next_step, scheduled_reminders, next_collection
	`
	return r.scanState(r.db.QueryRow(ctx, query, userID, []models.Reminder{firstReminder}))
}

func (r *OnboardingRepository) GetByUserID(ctx context.Context, userID int64) (*models.OnboardingState, error) {
	query := `
		SELECT id, user_id, completed_steps, next_step, scheduled_reminders, next_collection
		FROM onboarding_states
		WHERE user_id = $1
	`
	return r.scanState(r.db.QueryRow(ctx, query, userID))
}

type UpdateOnboardingInput struct {
	CompletedSteps     *[]string
	NextStep           *string
	ScheduledReminders *[]models.Reminder
	NextCollection     *models.Collection
}

func (r *OnboardingRepository) Update(ctx context.Context, userID int64, input UpdateOnboardingInput) (*models.OnboardingState, error) {
	query := `
		UPDATE onboarding_states
		SET completed_steps = COALESCE($1, completed_steps),
			next_step = COALESCE($2, next_step),
			scheduled_reminders = COALESCE($3, scheduled_reminders),
			next_collection = COALESCE($4, next_collection)
		WHERE user_id = $5
		RETURNING id, user_id, completed_steps, next_step, scheduled_reminders, next_collection
	`
	return r.scanState(r.db.QueryRow(ctx, query,
		input.CompletedSteps,
		input.NextStep,
		input.ScheduledReminders,
		input.NextCollection,
		userID,
	))
}

// ListWithDueReminders returns every onboarding state that has at least one
// unsent reminder due at or before the given time.
func (r *OnboardingRepository) ListWithDueReminders(ctx context.Context, due time.Time) ([]models.OnboardingState, error) {
	query := `
		SELECT id, user_id, completed_steps, next_step, scheduled_reminders, next_collection
		FROM onboarding_states
		WHERE EXISTS (
			SELECT 1
			FROM jsonb_array_elements(scheduled_reminders) AS reminder
			WHERE (reminder->>'sent')::boolean = FALSE
			  AND (reminder->>'date')::timestamptz <= $1
		)
	`
	rows, err := r.db.Query(ctx, query, due)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	states := make([]models.OnboardingState, 0)
	for rows.Next() {
		var state models.OnboardingState
		if err := rows.Scan(
			&state.ID,
			&state.UserID,
			&state.CompletedSteps,
			&state.NextStep,
			&state.ScheduledReminders,
			&state.NextCollection,
		); err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return states, nil
}

func (r *OnboardingRepository) scanState(row interface{ Scan(dest ...any) error }) (*models.OnboardingState, error) {
	var state models.OnboardingState
	err := row.Scan(
		&state.ID,
		&state.UserID,
		&state.CompletedSteps,
		&state.NextStep,
		&state.ScheduledReminders,
		&state.NextCollection,
	)
	if err != nil {
		return nil, err
	}
	return &state, nil
}
