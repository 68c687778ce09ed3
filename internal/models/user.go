package models

import "time"

type User struct {
	ID               int64      `json:"id"`
	ExternalID       string     `json:"external_id"`
	Email            string     `json:"email"`
	FirstName        *string    `json:"first_name,omitempty"`
	LastName         *string    `json:"last_name,omitempty"`
	ImageURL         *string    `json:"image_url,omitempty"`
	AnamneseLevel    int        `json:"anamnese_level"`
	IsComplete       bool       `json:"is_complete"`
	StripeCustomerID *string    `json:"stripe_customer_id,omitempty"`
	RegisteredAt     time.Time  `json:"registered_at"`
	LastActiveAt     *time.Time `json:"last_active_at,omitempty"`
}

// DisplayName is the user's full name, falling back to the email address
// when the identity provider supplied no name.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != nil && u.LastName != nil:
		return *u.FirstName + " " + *u.LastName
	case u.FirstName != nil:
		return *u.FirstName
	default:
		return u.Email
	}
}

// UserProfile is the composite returned by GET /me: the user plus the
// progression and onboarding records that belong to it.
type UserProfile struct {
	User       User             `json:"user"`
	Progress   *UserProgress    `json:"progress,omitempty"`
	Onboarding *OnboardingState `json:"onboarding,omitempty"`
}
