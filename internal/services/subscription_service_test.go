package services

import (
	"context"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v81"
	"go.uber.org/zap"

	"github.com/vhsilvat/MetaMorfose/internal/models"
	"github.com/vhsilvat/MetaMorfose/internal/repository"
)

type stubSubscriptionRepo struct {
	subscription *models.Subscription
	lastUpsert   repository.UpsertSubscriptionInput
	upserts      int
	lastStatus   repository.UpdateSubscriptionStatusInput
	statusCalls  int
}

func (s *stubSubscriptionRepo) Upsert(_ context.Context, input repository.UpsertSubscriptionInput) (*models.Subscription, error) {
	s.upserts++
	s.lastUpsert = input
	return &models.Subscription{UserID: input.UserID, StripeSubscriptionID: input.StripeSubscriptionID, Status: input.Status}, nil
}

func (s *stubSubscriptionRepo) GetByUserID(_ context.Context, _ int64) (*models.Subscription, error) {
	return s.subscription, nil
}

func (s *stubSubscriptionRepo) GetByStripeSubscriptionID(_ context.Context, _ string) (*models.Subscription, error) {
	return s.subscription, nil
}

func (s *stubSubscriptionRepo) UpdateStatus(_ context.Context, _ string, input repository.UpdateSubscriptionStatusInput) (*models.Subscription, error) {
	s.statusCalls++
	s.lastStatus = input
	return s.subscription, nil
}

func (s *stubSubscriptionRepo) AppendPayment(_ context.Context, _ string, _ models.PaymentRecord) (*models.Subscription, error) {
	return s.subscription, nil
}

type stubBillingUserRepo struct {
	user            *models.User
	linkedCustomers []string
}

func (s *stubBillingUserRepo) GetByExternalID(_ context.Context, _ string) (*models.User, error) {
	return s.user, nil
}

func (s *stubBillingUserRepo) SetStripeCustomerID(_ context.Context, _ int64, customerID string) error {
	s.linkedCustomers = append(s.linkedCustomers, customerID)
	return nil
}

func activeCheckoutSession() *stripe.CheckoutSession {
	return &stripe.CheckoutSession{
		ClientReferenceID: "ext_123",
		Customer:          &stripe.Customer{ID: "cus_9"},
		Subscription: &stripe.Subscription{
			ID:               "sub_9",
			Status:           stripe.SubscriptionStatusActive,
			CurrentPeriodEnd: time.Now().Add(30 * 24 * time.Hour).Unix(),
			Items: &stripe.SubscriptionItemList{
				Data: []*stripe.SubscriptionItem{{Price: &stripe.Price{ID: "price_monthly"}}},
			},
		},
	}
}

func TestHandleCheckoutCompletedUnlocksPremiumFeatures(t *testing.T) {
	subs := &stubSubscriptionRepo{}
	users := &stubBillingUserRepo{user: &models.User{ID: 9, ExternalID: "ext_123", Email: "ana@example.com"}}
	progress := &stubProgressStore{progress: &models.UserProgress{
		UserID:           9,
		UnlockedFeatures: []string{"dashboard", "anamnese"},
		Level:            1,
	}}
	service := NewSubscriptionService(subs, users, progress, zap.NewNop())

	if err := service.HandleCheckoutCompleted(context.Background(), activeCheckoutSession()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if subs.upserts != 1 || subs.lastUpsert.StripePriceID != "price_monthly" {
		t.Errorf("Expected one upsert with price_monthly, got %d (%+v)", subs.upserts, subs.lastUpsert)
	}
	if len(users.linkedCustomers) != 1 || users.linkedCustomers[0] != "cus_9" {
		t.Errorf("Expected customer cus_9 linked, got %v", users.linkedCustomers)
	}
	if progress.updates != 1 {
		t.Fatalf("Expected one progress update, got %d", progress.updates)
	}
	features := *progress.lastUpdate.UnlockedFeatures
	unlocked := make(map[string]bool, len(features))
	for _, f := range features {
		unlocked[f] = true
	}
	for _, tag := range []string{"workouts", "premium-insights", "advanced-tracking", "ai-chat"} {
		if !unlocked[tag] {
			t.Errorf("Expected feature %q unlocked, got %v", tag, features)
		}
	}
}

func TestHandleCheckoutCompletedSkipsUnlockWhenNotEntitled(t *testing.T) {
	progress := &stubProgressStore{progress: &models.UserProgress{UserID: 9, UnlockedFeatures: []string{"dashboard"}}}
	users := &stubBillingUserRepo{user: &models.User{ID: 9, ExternalID: "ext_123"}}
	service := NewSubscriptionService(&stubSubscriptionRepo{}, users, progress, zap.NewNop())

	session := activeCheckoutSession()
	session.Subscription.Status = stripe.SubscriptionStatusIncomplete

	if err := service.HandleCheckoutCompleted(context.Background(), session); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if progress.updates != 0 {
		t.Errorf("Expected no unlock for incomplete subscription, got %d updates", progress.updates)
	}
}

func TestHandleSubscriptionUpdatedUnlocksOnActivation(t *testing.T) {
	subs := &stubSubscriptionRepo{subscription: &models.Subscription{UserID: 9, StripeSubscriptionID: "sub_9"}}
	progress := &stubProgressStore{progress: &models.UserProgress{UserID: 9, UnlockedFeatures: []string{"dashboard", "anamnese"}}}
	service := NewSubscriptionService(subs, &stubBillingUserRepo{}, progress, zap.NewNop())

	sub := activeCheckoutSession().Subscription
	if err := service.HandleSubscriptionUpdated(context.Background(), sub); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if subs.statusCalls != 1 || subs.lastStatus.Status != "active" {
		t.Errorf("Expected one active status update, got %d (%+v)", subs.statusCalls, subs.lastStatus)
	}
	if progress.updates != 1 {
		t.Errorf("Expected premium unlock on activation, got %d updates", progress.updates)
	}
}

func TestHandleSubscriptionUpdatedKeepsFeaturesOnCancellation(t *testing.T) {
	subs := &stubSubscriptionRepo{subscription: &models.Subscription{UserID: 9, StripeSubscriptionID: "sub_9"}}
	progress := &stubProgressStore{progress: &models.UserProgress{UserID: 9, UnlockedFeatures: premiumFeatureTags}}
	service := NewSubscriptionService(subs, &stubBillingUserRepo{}, progress, zap.NewNop())

	sub := activeCheckoutSession().Subscription
	sub.Status = stripe.SubscriptionStatusCanceled
	sub.CancelAtPeriodEnd = true

	if err := service.HandleSubscriptionUpdated(context.Background(), sub); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if subs.lastStatus.Status != "canceled" {
		t.Errorf("Expected canceled status recorded, got %q", subs.lastStatus.Status)
	}
	if progress.updates != 0 {
		t.Errorf("Expected features left untouched on cancellation, got %d updates", progress.updates)
	}
}

func TestUnlockPremiumFeaturesIsIdempotent(t *testing.T) {
	subs := &stubSubscriptionRepo{}
	users := &stubBillingUserRepo{user: &models.User{ID: 9, ExternalID: "ext_123"}}
	progress := &stubProgressStore{progress: &models.UserProgress{UserID: 9, UnlockedFeatures: premiumFeatureTags}}
	service := NewSubscriptionService(subs, users, progress, zap.NewNop())

	if err := service.HandleCheckoutCompleted(context.Background(), activeCheckoutSession()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if progress.updates != 0 {
		t.Errorf("Expected no update when everything is already unlocked, got %d", progress.updates)
	}
}
