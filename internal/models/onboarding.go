package models

import "time"

type Reminder struct {
	Type string    `json:"type"`
	Date time.Time `json:"date"`
	Sent bool      `json:"sent"`
}

type Collection struct {
	Type    string    `json:"type"`
	DueDate time.Time `json:"dueDate"`
}

type OnboardingState struct {
	ID                 int64       `json:"id"`
	UserID             int64       `json:"user_id"`
	CompletedSteps     []string    `json:"completed_steps"`
	NextStep           string      `json:"next_step"`
	ScheduledReminders []Reminder  `json:"scheduled_reminders"`
	NextCollection     *Collection `json:"next_collection,omitempty"`
}

// HasCompletedStep reports whether the step tag is already recorded.
func (s *OnboardingState) HasCompletedStep(tag string) bool {
	for _, t := range s.CompletedSteps {
		if t == tag {
			return true
		}
	}
	return false
}
