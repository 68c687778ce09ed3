package models

import "time"

type Achievement struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	AchievedAt  time.Time `json:"achievedAt"`
}

type UserProgress struct {
	ID                int64         `json:"id"`
	UserID            int64         `json:"user_id"`
	UnlockedFeatures  []string      `json:"unlocked_features"`
	Achievements      []Achievement `json:"achievements"`
	WeeklyStreak      int           `json:"weekly_streak"`
	CompletedWorkouts int           `json:"completed_workouts"`
	TotalTrainingTime int           `json:"total_training_time"`
	Level             int           `json:"level"`
}

// HasFeature reports whether the feature tag has been unlocked.
func (p *UserProgress) HasFeature(tag string) bool {
	for _, f := range p.UnlockedFeatures {
		if f == tag {
			return true
		}
	}
	return false
}

// HasAchievement reports whether an achievement with the id exists.
func (p *UserProgress) HasAchievement(id string) bool {
	for _, a := range p.Achievements {
		if a.ID == id {
			return true
		}
	}
	return false
}
