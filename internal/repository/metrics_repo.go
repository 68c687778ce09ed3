package repository

import (
	"context"
	"time"

	"github.com/vhsilvat/MetaMorfose/internal/models"
)

// MetricsRepository covers the physical-metrics, sleep and wellbeing time
// series. Intake steps 3 and 5 mirror derived records into these tables.
type MetricsRepository struct {
	db DBTX
}

func NewMetricsRepository(db DBTX) *MetricsRepository {
	return &MetricsRepository{db: db}
}

func (r *MetricsRepository) InsertPhysicalMetric(ctx context.Context, userID int64, weight float64, measurements *models.BodyMeasurements) (*models.PhysicalMetric, error) {
	query := `
		INSERT INTO physical_metrics (user_id, weight, body_measurements)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, date, weight, body_measurements, notes
	`
	var metric models.PhysicalMetric
	err := r.db.QueryRow(ctx, query, userID, weight, measurements).Scan(
		&metric.ID,
		&metric.UserID,
		&metric.Date,
		&metric.Weight,
		&metric.BodyMeasurements,
		&metric.Notes,
	)
	if err != nil {
		return nil, err
	}
	return &metric, nil
}

type InsertSleepInput struct {
	Duration float64
	Quality  int
	BedTime  string
	WakeTime string
	Notes    *string
}

func (r *MetricsRepository) InsertSleepRecord(ctx context.Context, userID int64, input InsertSleepInput) (*models.SleepRecord, error) {
	query := `
		INSERT INTO sleep_data (user_id, duration, quality, bed_time, wake_time, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, date, duration, quality, bed_time, wake_time, notes
	`
	var record models.SleepRecord
	err := r.db.QueryRow(ctx, query,
		userID, input.Duration, input.Quality, input.BedTime, input.WakeTime, input.Notes,
	).Scan(
		&record.ID,
		&record.UserID,
		&record.Date,
		&record.Duration,
		&record.Quality,
		&record.BedTime,
		&record.WakeTime,
		&record.Notes,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

type InsertWellbeingInput struct {
	EnergyLevel  int
	StressLevel  int
	Mood         string
	GeneralNotes *string
}

func (r *MetricsRepository) InsertWellbeingRecord(ctx context.Context, userID int64, input InsertWellbeingInput) (*models.WellbeingRecord, error) {
	query := `
		INSERT INTO wellbeing (user_id, energy_level, stress_level, mood, general_notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, date, energy_level, stress_level, mood, general_notes
	`
	var record models.WellbeingRecord
	err := r.db.QueryRow(ctx, query,
		userID, input.EnergyLevel, input.StressLevel, input.Mood, input.GeneralNotes,
	).Scan(
		&record.ID,
		&record.UserID,
		&record.Date,
		&record.EnergyLevel,
		&record.StressLevel,
		&record.Mood,
		&record.GeneralNotes,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *MetricsRepository) ListPhysicalMetrics(ctx context.Context, userID int64, since time.Time) ([]models.PhysicalMetric, error) {
	query := `
		SELECT id, user_id, date, weight, body_measurements, notes
		FROM physical_metrics
		WHERE user_id = $1 AND date >= $2
		ORDER BY date DESC
	`
	rows, err := r.db.Query(ctx, query, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metrics := make([]models.PhysicalMetric, 0)
	for rows.Next() {
		var metric models.PhysicalMetric
		if err := rows.Scan(
			&metric.ID,
			&metric.UserID,
			&metric.Date,
			&metric.Weight,
			&metric.BodyMeasurements,
			&metric.Notes,
		); err != nil {
			return nil, err
		}
		metrics = append(metrics, metric)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return metrics, nil
}
