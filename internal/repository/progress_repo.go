package repository

import (
	"context"

	"github.com/vhsilvat/MetaMorfose/internal/models"
)

type ProgressRepository struct {
	db DBTX
}

func NewProgressRepository(db DBTX) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// CreateInitial seeds the progression row for a new user. Level 1 with the
// dashboard and intake features unlocked.
func (r *ProgressRepository) CreateInitial(ctx context.Context, userID int64) (*models.UserProgress, error) {
	query := `
		INSERT INTO user_progress (user_id, unlocked_features, achievements, level)
		VALUES ($1, $2, '[]'::jsonb, 1)
		RETURNING id, user_id, unlocked_features, achievements,
				  weekly_streak, completed_workouts, total_training_time, level
	`
	return r.scanProgress(r.db.QueryRow(ctx, query, userID, []string{"dashboard", "anamnese"}))
}

func (r *ProgressRepository) GetByUserID(ctx context.Context, userID int64) (*models.UserProgress, error) {
	query := `
		SELECT id, user_id, unlocked_features, achievements,
			   weekly_streak, completed_workouts, total_training_time, level
		FROM user_progress
		WHERE user_id = $1
	`
	return r.scanProgress(r.db.QueryRow(ctx, query, userID))
}

type UpdateProgressInput struct {
	UnlockedFeatures  *[]string
	Achievements      *[]models.Achievement
	WeeklyStreak      *int
	CompletedWorkouts *int
	TotalTrainingTime *int
	Level             *int
}

func (r *ProgressRepository) Update(ctx context.Context, userID int64, input UpdateProgressInput) (*models.UserProgress, error) {
	query := `
		UPDATE user_progress
		SET unlocked_features = COALESCE($1, unlocked_features),
			achievements = COALESCE($2, achievements),
			weekly_streak = COALESCE($3, weekly_streak),
			completed_workouts = COALESCE($4, completed_workouts),
			total_training_time = COALESCE($5, total_training_time),
			level = COALESCE($6, level)
		WHERE user_id = $7
		RETURNING id, user_id, unlocked_features, achievements,
				  weekly_streak, completed_workouts, total_training_time, level
	`
	return r.scanProgress(r.db.QueryRow(ctx, query,
		input.UnlockedFeatures,
		input.Achievements,
		input.WeeklyStreak,
		input.CompletedWorkouts,
		input.TotalTrainingTime,
		input.Level,
		userID,
	))
}

func (r *ProgressRepository) scanProgress(row interface{ Scan(dest ...any) error }) (*models.UserProgress, error) {
	var progress models.UserProgress
	err := row.Scan(
		&progress.ID,
		&progress.UserID,
		&progress.UnlockedFeatures,
		&progress.Achievements,
		&progress.WeeklyStreak,
		&progress.CompletedWorkouts,
		&progress.TotalTrainingTime,
		&progress.Level,
	)
	if err != nil {
		return nil, err
	}
	return &progress, nil
}
