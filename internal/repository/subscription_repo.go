package repository

import (
	"context"
	"time"

	"github.com/vhsilvat/MetaMorfose/internal/models"
)

type SubscriptionRepository struct {
	db DBTX
}

func NewSubscriptionRepository(db DBTX) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

type UpsertSubscriptionInput struct {
	UserID               int64
	StripeCustomerID     string
	StripeSubscriptionID string
	StripePriceID        string
	Status               string
	CurrentPeriodEnd     time.Time
	CancelAtPeriodEnd    bool
}

// Upsert keeps one subscription row per user, keyed on the provider's
// subscription id for webhook-driven updates.
func (r *SubscriptionRepository) Upsert(ctx context.Context, input UpsertSubscriptionInput) (*models.Subscription, error) {
	query := `
		INSERT INTO subscriptions (user_id, stripe_customer_id, stripe_subscription_id, stripe_price_id,
								   status, current_period_end, cancel_at_period_end)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id)
		DO UPDATE SET stripe_customer_id = EXCLUDED.stripe_customer_id,
					  stripe_subscription_id = EXCLUDED.stripe_subscription_id,
					  stripe_price_id = EXCLUDED.stripe_price_id,
					  status = EXCLUDED.status,
					  current_period_end = EXCLUDED.current_period_end,
					  cancel_at_period_end = EXCLUDED.cancel_at_period_end,
					  updated_at = NOW()
		RETURNING id, user_id, stripe_customer_id, stripe_subscription_id, stripe_price_id,
				  status, current_period_end, cancel_at_period_end,
				  last_payment_status, last_payment_date, payment_history, created_at, updated_at
	`
	return r.scanSubscription(r.db.QueryRow(ctx, query,
		input.UserID,
		input.StripeCustomerID,
		input.StripeSubscriptionID,
		input.StripePriceID,
		input.Status,
		input.CurrentPeriodEnd,
		input.CancelAtPeriodEnd,
	))
}

func (r *SubscriptionRepository) GetByUserID(ctx context.Context, userID int64) (*models.Subscription, error) {
	query := `
		SELECT id, user_id, stripe_customer_id, stripe_subscription_id, stripe_price_id,
			   status, current_period_end, cancel_at_period_end,
			   last_payment_status, last_payment_date, payment_history, created_at, updated_at
		FROM subscriptions
		WHERE user_id = $1
	`
	return r.scanSubscription(r.db.QueryRow(ctx, query, userID))
}

func (r *SubscriptionRepository) GetByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error) {
	query := `
		SELECT id, user_id, stripe_customer_id, stripe_subscription_id, stripe_price_id,
			   status, current_period_end, cancel_at_period_end,
			   last_payment_status, last_payment_date, payment_history, created_at, updated_at
		FROM subscriptions
		WHERE stripe_subscription_id = $1
	`
	return r.scanSubscription(r.db.QueryRow(ctx, query, stripeSubscriptionID))
}

type UpdateSubscriptionStatusInput struct {
	Status            string
	CurrentPeriodEnd  time.Time
	CancelAtPeriodEnd bool
	StripePriceID     *string
}

func (r *SubscriptionRepository) UpdateStatus(ctx context.Context, stripeSubscriptionID string, input UpdateSubscriptionStatusInput) (*models.Subscription, error) {
	query := `
		UPDATE subscriptions
		SET status = $1,
			current_period_end = $2,
			cancel_at_period_end = $3,
			stripe_price_id = COALESCE($4, stripe_price_id),
			updated_at = NOW()
		WHERE stripe_subscription_id = $5
		RETURNING id, user_id, stripe_customer_id, stripe_subscription_id, stripe_price_id,
				  status, current_period_end, cancel_at_period_end,
				  last_payment_status, last_payment_date, payment_history, created_at, updated_at
	`
	return r.scanSubscription(r.db.QueryRow(ctx, query,
		input.Status,
		input.CurrentPeriodEnd,
		input.CancelAtPeriodEnd,
		input.StripePriceID,
		stripeSubscriptionID,
	))
}

// AppendPayment records an invoice outcome in the payment history.
func (r *SubscriptionRepository) AppendPayment(ctx context.Context, stripeSubscriptionID string, payment models.PaymentRecord) (*models.Subscription, error) {
	query := `
		UPDATE subscriptions
		SET payment_history = payment_history || $1::jsonb,
			last_payment_status = $2,
			last_payment_date = $3,
			updated_at = NOW()
		WHERE stripe_subscription_id = $4
		RETURNING id, user_id, stripe_customer_id, stripe_subscription_id, stripe_price_id,
				  status, current_period_end, cancel_at_period_end,
				  last_payment_status, last_payment_date, payment_history, created_at, updated_at
	`
	return r.scanSubscription(r.db.QueryRow(ctx, query,
		[]models.PaymentRecord{payment},
		payment.Status,
		payment.Date,
		stripeSubscriptionID,
	))
}

func (r *SubscriptionRepository) scanSubscription(row interface{ Scan(dest ...any) error }) (*models.Subscription, error) {
	var sub models.Subscription
	err := row.Scan(
		&sub.ID,
		&sub.UserID,
		&sub.StripeCustomerID,
		&sub.StripeSubscriptionID,
		&sub.StripePriceID,
		&sub.Status,
		&sub.CurrentPeriodEnd,
		&sub.CancelAtPeriodEnd,
		&sub.LastPaymentStatus,
		&sub.LastPaymentDate,
		&sub.PaymentHistory,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
