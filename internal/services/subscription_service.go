package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stripe/stripe-go/v81"
	"go.uber.org/zap"

	"github.com/vhsilvat/MetaMorfose/internal/models"
	"github.com/vhsilvat/MetaMorfose/internal/repository"
)

type subscriptionStore interface {
	Upsert(ctx context.Context, input repository.UpsertSubscriptionInput) (*models.Subscription, error)
	GetByUserID(ctx context.Context, userID int64) (*models.Subscription, error)
	GetByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error)
	UpdateStatus(ctx context.Context, stripeSubscriptionID string, input repository.UpdateSubscriptionStatusInput) (*models.Subscription, error)
	AppendPayment(ctx context.Context, stripeSubscriptionID string, payment models.PaymentRecord) (*models.Subscription, error)
}

type billingUserStore interface {
	GetByExternalID(ctx context.Context, externalID string) (*models.User, error)
	SetStripeCustomerID(ctx context.Context, userID int64, customerID string) error
}

// premiumFeatureTags are unlocked for every paying subscriber. The
// subscription also covers the intake-gated features, so a subscriber who
// skipped the questionnaire still gets the full set.
var premiumFeatureTags = []string{
	"dashboard", "anamnese", "workouts", "nutrition", "metrics",
	"sleep", "wellbeing", "dailyPlans", "statistics", "ai-chat",
	"premium-insights", "advanced-tracking",
}

// SubscriptionService applies Stripe webhook events to the local
// subscription records and keeps feature entitlements in step.
type SubscriptionService struct {
	subscriptionRepo subscriptionStore
	userRepo         billingUserStore
	progressRepo     progressStore
	log              *zap.Logger
}

func NewSubscriptionService(
	subscriptionRepo subscriptionStore,
	userRepo billingUserStore,
	progressRepo progressStore,
	log *zap.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
		progressRepo:     progressRepo,
		log:              log,
	}
}

// HandleCheckoutCompleted links the Stripe customer to the local user and
// records the new subscription. The checkout session is created with the
// user's external id as client reference.
func (s *SubscriptionService) HandleCheckoutCompleted(ctx context.Context, session *stripe.CheckoutSession) error {
	if session.ClientReferenceID == "" || session.Customer == nil || session.Subscription == nil {
		return fmt.Errorf("%w: checkout session missing reference, customer or subscription", ErrInvalidInput)
	}

	user, err := s.userRepo.GetByExternalID(ctx, session.ClientReferenceID)
	if err != nil {
		return fmt.Errorf("resolve user %q: %w", session.ClientReferenceID, err)
	}
	if err := s.userRepo.SetStripeCustomerID(ctx, user.ID, session.Customer.ID); err != nil {
		return fmt.Errorf("link stripe customer: %w", err)
	}

	sub := session.Subscription
	_, err = s.subscriptionRepo.Upsert(ctx, repository.UpsertSubscriptionInput{
		UserID:               user.ID,
		StripeCustomerID:     session.Customer.ID,
		StripeSubscriptionID: sub.ID,
		StripePriceID:        subscriptionPriceID(sub),
		Status:               string(sub.Status),
		CurrentPeriodEnd:     time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
	})
	if err != nil {
		return fmt.Errorf("record subscription: %w", err)
	}

	if isEntitledStatus(sub.Status) {
		if err := s.unlockPremiumFeatures(ctx, user.ID); err != nil {
			return fmt.Errorf("unlock premium features: %w", err)
		}
	}

	s.log.Info("subscription linked",
		zap.Int64("user_id", user.ID),
		zap.String("stripe_subscription_id", sub.ID),
		zap.String("status", string(sub.Status)))
	return nil
}

// HandleSubscriptionUpdated applies status changes, including
// cancellations, pushed by Stripe.
func (s *SubscriptionService) HandleSubscriptionUpdated(ctx context.Context, sub *stripe.Subscription) error {
	priceID := subscriptionPriceID(sub)
	input := repository.UpdateSubscriptionStatusInput{
		Status:            string(sub.Status),
		CurrentPeriodEnd:  time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if priceID != "" {
		input.StripePriceID = &priceID
	}

	updated, err := s.subscriptionRepo.UpdateStatus(ctx, sub.ID, input)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Event for a subscription never seen through checkout; log
			// and let Stripe retry after the checkout event lands.
			s.log.Warn("subscription update for unknown subscription",
				zap.String("stripe_subscription_id", sub.ID))
			return ErrNotFound
		}
		return fmt.Errorf("update subscription: %w", err)
	}

	// Cancellation leaves features unlocked; the subscription stays paid
	// through the current period.
	if isEntitledStatus(sub.Status) {
		if err := s.unlockPremiumFeatures(ctx, updated.UserID); err != nil {
			return fmt.Errorf("unlock premium features: %w", err)
		}
	}
	return nil
}

// HandleInvoiceEvent appends the invoice outcome to the payment history.
func (s *SubscriptionService) HandleInvoiceEvent(ctx context.Context, invoice *stripe.Invoice) error {
	if invoice.Subscription == nil {
		return nil
	}

	payment := models.PaymentRecord{
		InvoiceID: invoice.ID,
		Status:    string(invoice.Status),
		Amount:    float64(invoice.AmountPaid) / 100,
		Date:      time.Unix(invoice.Created, 0).UTC(),
	}
	if _, err := s.subscriptionRepo.AppendPayment(ctx, invoice.Subscription.ID, payment); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("append payment: %w", err)
	}
	return nil
}

// GetSubscription returns the user's subscription, or ErrNotFound when the
// user never subscribed.
func (s *SubscriptionService) GetSubscription(ctx context.Context, userID int64) (*models.Subscription, error) {
	sub, err := s.subscriptionRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sub, nil
}

func (s *SubscriptionService) unlockPremiumFeatures(ctx context.Context, userID int64) error {
	progress, err := s.progressRepo.GetByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user progress: %w", err)
	}

	features := progress.UnlockedFeatures
	changed := false
	for _, tag := range premiumFeatureTags {
		if !progress.HasFeature(tag) {
			features = append(features, tag)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	if _, err := s.progressRepo.Update(ctx, userID, repository.UpdateProgressInput{
		UnlockedFeatures: &features,
	}); err != nil {
		return fmt.Errorf("apply premium unlocks: %w", err)
	}
	s.log.Info("premium features unlocked", zap.Int64("user_id", userID))
	return nil
}

func isEntitledStatus(status stripe.SubscriptionStatus) bool {
	return status == stripe.SubscriptionStatusActive || status == stripe.SubscriptionStatusTrialing
}

func subscriptionPriceID(sub *stripe.Subscription) string {
	if sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		return ""
	}
	return sub.Items.Data[0].Price.ID
}
