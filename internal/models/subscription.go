package models

import "time"

type PaymentRecord struct {
	InvoiceID string    `json:"invoiceId"`
	Status    string    `json:"status"`
	Amount    float64   `json:"amount"`
	Date      time.Time `json:"date"`
}

type Subscription struct {
	ID                   int64           `json:"id"`
	UserID               int64           `json:"user_id"`
	StripeCustomerID     string          `json:"stripe_customer_id"`
	StripeSubscriptionID string          `json:"stripe_subscription_id"`
	StripePriceID        string          `json:"stripe_price_id"`
	Status               string          `json:"status"`
	CurrentPeriodEnd     time.Time       `json:"current_period_end"`
	CancelAtPeriodEnd    bool            `json:"cancel_at_period_end"`
	LastPaymentStatus    *string         `json:"last_payment_status,omitempty"`
	LastPaymentDate      *time.Time      `json:"last_payment_date,omitempty"`
	PaymentHistory       []PaymentRecord `json:"payment_history"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// IsActive reports whether the subscription currently grants access.
func (s *Subscription) IsActive() bool {
	return s.Status == "active" || s.Status == "trialing"
}
