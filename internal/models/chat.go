package models

import "time"

type ChatMessage struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	Context   *string   `json:"context,omitempty"`
	ModelID   *string   `json:"model_id,omitempty"`
}
