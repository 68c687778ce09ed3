package models

import "time"

// PhysicalMetric is one point in the weight/measurement time series.
// Step 3 of the intake mirrors its measurements here.
type PhysicalMetric struct {
	ID               int64             `json:"id"`
	UserID           int64             `json:"user_id"`
	Date             time.Time         `json:"date"`
	Weight           float64           `json:"weight"`
	BodyMeasurements *BodyMeasurements `json:"body_measurements,omitempty"`
	Notes            *string           `json:"notes,omitempty"`
}

type SleepRecord struct {
	ID       int64     `json:"id"`
	UserID   int64     `json:"user_id"`
	Date     time.Time `json:"date"`
	Duration float64   `json:"duration"`
	Quality  int       `json:"quality"`
	BedTime  string    `json:"bed_time"`
	WakeTime string    `json:"wake_time"`
	Notes    *string   `json:"notes,omitempty"`
}

type WellbeingRecord struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Date         time.Time `json:"date"`
	EnergyLevel  int       `json:"energy_level"`
	StressLevel  int       `json:"stress_level"`
	Mood         string    `json:"mood"`
	GeneralNotes *string   `json:"general_notes,omitempty"`
}
