package services

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vhsilvat/MetaMorfose/internal/models"
	"github.com/vhsilvat/MetaMorfose/internal/repository"
)

type stubOnboardingRepo struct {
	state         *models.OnboardingState
	lastUpdate    repository.UpdateOnboardingInput
	updates       int
	initialCalls  int
	firstReminder models.Reminder
}

func (s *stubOnboardingRepo) CreateInitial(_ context.Context, userID int64, firstReminder models.Reminder) (*models.OnboardingState, error) {
	s.initialCalls++
	s.firstReminder = firstReminder
	return &models.OnboardingState{
		UserID:             userID,
		NextStep:           "anamnese-step-1",
		ScheduledReminders: []models.Reminder{firstReminder},
	}, nil
}

func (s *stubOnboardingRepo) GetByUserID(_ context.Context, _ int64) (*models.OnboardingState, error) {
	return s.state, nil
}

func (s *stubOnboardingRepo) Update(_ context.Context, _ int64, input repository.UpdateOnboardingInput) (*models.OnboardingState, error) {
	s.updates++
	s.lastUpdate = input
	return s.state, nil
}

func TestRecordCompletionStepOneSchedulesReminder(t *testing.T) {
	repo := &stubOnboardingRepo{state: &models.OnboardingState{UserID: 3, NextStep: "anamnese-step-1"}}
	service := NewOnboardingService(repo, zap.NewNop())

	if err := service.RecordCompletion(context.Background(), 3, "anamnese-step-1"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if repo.lastUpdate.NextStep == nil || *repo.lastUpdate.NextStep != "anamnese-step-2" {
		t.Errorf("Expected next step anamnese-step-2, got %v", repo.lastUpdate.NextStep)
	}
	if repo.lastUpdate.ScheduledReminders == nil {
		t.Fatal("Expected a scheduled reminder")
	}
	reminders := *repo.lastUpdate.ScheduledReminders
	if len(reminders) != 1 || reminders[0].Type != "anamnese" {
		t.Fatalf("Expected one anamnese reminder, got %v", reminders)
	}
	wait := time.Until(reminders[0].Date)
	if wait < 47*time.Hour || wait > 49*time.Hour {
		t.Errorf("Expected reminder roughly two days out, got %v", wait)
	}
	if repo.lastUpdate.NextCollection != nil {
		t.Errorf("Expected no collection for step 1, got %v", repo.lastUpdate.NextCollection)
	}
}

func TestRecordCompletionFinalStepAddsCompleteTag(t *testing.T) {
	repo := &stubOnboardingRepo{state: &models.OnboardingState{
		UserID:         3,
		CompletedSteps: []string{"anamnese-step-1", "anamnese-step-2", "anamnese-step-3", "anamnese-step-4"},
		NextStep:       "anamnese-step-5",
	}}
	service := NewOnboardingService(repo, zap.NewNop())

	if err := service.RecordCompletion(context.Background(), 3, "anamnese-step-5"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	completed := *repo.lastUpdate.CompletedSteps
	if completed[len(completed)-1] != "anamnese-complete" {
		t.Errorf("Expected trailing anamnese-complete tag, got %v", completed)
	}
	if *repo.lastUpdate.NextStep != "create-first-plan" {
		t.Errorf("Expected next step create-first-plan, got %q", *repo.lastUpdate.NextStep)
	}
	reminders := *repo.lastUpdate.ScheduledReminders
	if len(reminders) != 1 || reminders[0].Type != "first-plan" {
		t.Errorf("Expected a first-plan reminder, got %v", reminders)
	}
	if repo.lastUpdate.NextCollection == nil || repo.lastUpdate.NextCollection.Type != "daily-plan" {
		t.Errorf("Expected daily-plan collection, got %v", repo.lastUpdate.NextCollection)
	}
}

func TestRecordCompletionFirstPlanGeneratedSkipsReminder(t *testing.T) {
	repo := &stubOnboardingRepo{state: &models.OnboardingState{UserID: 3, NextStep: "create-first-plan"}}
	service := NewOnboardingService(repo, zap.NewNop())

	if err := service.RecordCompletion(context.Background(), 3, "first-plan-generated"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if repo.lastUpdate.ScheduledReminders != nil {
		t.Errorf("Expected no reminder, got %v", *repo.lastUpdate.ScheduledReminders)
	}
	if *repo.lastUpdate.NextStep != "track-first-workout" {
		t.Errorf("Expected next step track-first-workout, got %q", *repo.lastUpdate.NextStep)
	}
	if repo.lastUpdate.NextCollection == nil || repo.lastUpdate.NextCollection.Type != "workout" {
		t.Errorf("Expected workout collection, got %v", repo.lastUpdate.NextCollection)
	}
}

func TestRecordCompletionIsIdempotent(t *testing.T) {
	repo := &stubOnboardingRepo{state: &models.OnboardingState{
		UserID:         3,
		CompletedSteps: []string{"anamnese-step-1"},
		NextStep:       "anamnese-step-2",
	}}
	service := NewOnboardingService(repo, zap.NewNop())

	if err := service.RecordCompletion(context.Background(), 3, "anamnese-step-1"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if repo.updates != 0 {
		t.Errorf("Expected no write for repeated tag, got %d", repo.updates)
	}
}

func TestRecordCompletionRejectsUnknownStep(t *testing.T) {
	service := NewOnboardingService(&stubOnboardingRepo{}, zap.NewNop())

	err := service.RecordCompletion(context.Background(), 3, "anamnese-step-9")
	if err == nil {
		t.Fatal("Expected error for unknown step tag")
	}
}

func TestReconcileRepairsMissingStepsWithoutReminders(t *testing.T) {
	repo := &stubOnboardingRepo{state: &models.OnboardingState{
		UserID:         3,
		CompletedSteps: []string{"anamnese-step-1"},
		NextStep:       "anamnese-step-2",
	}}
	service := NewOnboardingService(repo, zap.NewNop())
	user := &models.User{ID: 3, AnamneseLevel: 3}

	repaired, err := service.Reconcile(context.Background(), user)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !repaired {
		t.Fatal("Expected reconcile to report a repair")
	}

	completed := *repo.lastUpdate.CompletedSteps
	if len(completed) != 3 {
		t.Fatalf("Expected three completed steps, got %v", completed)
	}
	if *repo.lastUpdate.NextStep != "anamnese-step-4" {
		t.Errorf("Expected next step anamnese-step-4, got %q", *repo.lastUpdate.NextStep)
	}
	if repo.lastUpdate.ScheduledReminders != nil {
		t.Errorf("Expected repair to enqueue no reminders")
	}
}

func TestReconcileCompleteStateIsNoOp(t *testing.T) {
	repo := &stubOnboardingRepo{state: &models.OnboardingState{
		UserID:         3,
		CompletedSteps: []string{"anamnese-step-1", "anamnese-step-2"},
		NextStep:       "anamnese-step-3",
	}}
	service := NewOnboardingService(repo, zap.NewNop())
	user := &models.User{ID: 3, AnamneseLevel: 2}

	repaired, err := service.Reconcile(context.Background(), user)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if repaired || repo.updates != 0 {
		t.Errorf("Expected no repair for consistent state")
	}
}
