package repository

import (
	"context"

	"github.com/vhsilvat/MetaMorfose/internal/models"
)

type IntakeRepository struct {
	db DBTX
}

func NewIntakeRepository(db DBTX) *IntakeRepository {
	return &IntakeRepository{db: db}
}

// Upsert stores the payload for (user, step). A resubmission overwrites the
// existing record; concurrent duplicates converge last-write-wins.
func (r *IntakeRepository) Upsert(ctx context.Context, userID int64, step int, payload models.IntakeStepPayload) (*models.IntakeStepRecord, error) {
	query := `
		INSERT INTO intake_steps (user_id, step, payload, completed_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, step)
		DO UPDATE SET payload = EXCLUDED.payload, completed_at = NOW()
		RETURNING id, user_id, step, completed_at, payload
	`
	var record models.IntakeStepRecord
	err := r.db.QueryRow(ctx, query, userID, step, payload).Scan(
		&record.ID,
		&record.UserID,
		&record.Step,
		&record.CompletedAt,
		&record.Payload,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *IntakeRepository) GetByUserAndStep(ctx context.Context, userID int64, step int) (*models.IntakeStepRecord, error) {
	query := `
		SELECT id, user_id, step, completed_at, payload
		FROM intake_steps
		WHERE user_id = $1 AND step = $2
	`
	var record models.IntakeStepRecord
	err := r.db.QueryRow(ctx, query, userID, step).Scan(
		&record.ID,
		&record.UserID,
		&record.Step,
		&record.CompletedAt,
		&record.Payload,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *IntakeRepository) ListByUser(ctx context.Context, userID int64) ([]models.IntakeStepRecord, error) {
	query := `
		SELECT id, user_id, step, completed_at, payload
		FROM intake_steps
		WHERE user_id = $1
		ORDER BY step ASC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]models.IntakeStepRecord, 0)
	for rows.Next() {
		var record models.IntakeStepRecord
		if err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.Step,
			&record.CompletedAt,
			&record.Payload,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *IntakeRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM intake_steps WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}
