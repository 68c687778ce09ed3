package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vhsilvat/MetaMorfose/internal/models"
	"github.com/vhsilvat/MetaMorfose/internal/repository"
)

const day = 24 * time.Hour

// onboardingMilestones drives the scheduler: for each completed step tag it
// names the next expected step, the reminder to enqueue and its offset from
// now, and an optional data-collection descriptor.
var onboardingMilestones = map[string]struct {
	NextStep       string
	ReminderType   string
	ReminderDelay  time.Duration
	NoReminder     bool
	CollectionType string
}{
	"anamnese-step-1":      {NextStep: "anamnese-step-2", ReminderType: "anamnese", ReminderDelay: 2 * day},
	"anamnese-step-2":      {NextStep: "anamnese-step-3", ReminderType: "anamnese", ReminderDelay: 4 * day},
	"anamnese-step-3":      {NextStep: "anamnese-step-4", ReminderType: "anamnese"},
	"anamnese-step-4":      {NextStep: "anamnese-step-5", ReminderType: "anamnese", ReminderDelay: 5 * day},
	"anamnese-step-5":      {NextStep: "create-first-plan", ReminderType: "first-plan", CollectionType: "daily-plan"},
	"first-plan-generated": {NextStep: "track-first-workout", NoReminder: true, CollectionType: "workout"},
}

// OnboardingService maintains the per-user onboarding state: completed step
// tags, the next expected step, and the append-only reminder queue.
type OnboardingService struct {
	onboardingRepo onboardingStore
	log            *zap.Logger
}

func NewOnboardingService(onboardingRepo onboardingStore, log *zap.Logger) *OnboardingService {
	return &OnboardingService{onboardingRepo: onboardingRepo, log: log}
}

// RecordCompletion appends the step tag, recomputes the next step and
// enqueues the milestone's reminder. Recording the same tag twice is a
// no-op.
func (s *OnboardingService) RecordCompletion(ctx context.Context, userID int64, stepTag string) error {
	milestone, ok := onboardingMilestones[stepTag]
	if !ok {
		return fmt.Errorf("%w: unknown onboarding step %q", ErrInvalidInput, stepTag)
	}

	state, err := s.onboardingRepo.GetByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load onboarding state: %w", err)
	}
	if state.HasCompletedStep(stepTag) {
		return nil
	}

	now := time.Now().UTC()
	completed := append(state.CompletedSteps, stepTag)
	if stepTag == "anamnese-step-5" {
		completed = append(completed, "anamnese-complete")
	}
	nextStep := milestone.NextStep

	input := repository.UpdateOnboardingInput{
		CompletedSteps: &completed,
		NextStep:       &nextStep,
	}
	if !milestone.NoReminder {
		reminders := append(state.ScheduledReminders, models.Reminder{
			Type: milestone.ReminderType,
			Date: now.Add(milestone.ReminderDelay),
			Sent: false,
		})
		input.ScheduledReminders = &reminders
	}
	if milestone.CollectionType != "" {
		input.NextCollection = &models.Collection{Type: milestone.CollectionType, DueDate: now}
	}

	if _, err := s.onboardingRepo.Update(ctx, userID, input); err != nil {
		return fmt.Errorf("update onboarding state: %w", err)
	}
	return nil
}

func (s *OnboardingService) GetState(ctx context.Context, userID int64) (*models.OnboardingState, error) {
	return s.onboardingRepo.GetByUserID(ctx, userID)
}

// Reconcile repairs an onboarding state left behind by the progression
// level. The two records are written sequentially without a transaction, so
// a crash between the writes can strand a user; progression is written
// first and wins. Repaired steps get no reminders.
func (s *OnboardingService) Reconcile(ctx context.Context, user *models.User) (bool, error) {
	state, err := s.onboardingRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		return false, fmt.Errorf("load onboarding state: %w", err)
	}

	completed := state.CompletedSteps
	repaired := false
	for step := 1; step <= user.AnamneseLevel; step++ {
		tag := fmt.Sprintf("anamnese-step-%d", step)
		if state.HasCompletedStep(tag) {
			continue
		}
		completed = append(completed, tag)
		if step == 5 {
			completed = append(completed, "anamnese-complete")
		}
		repaired = true
	}
	if !repaired {
		return false, nil
	}

	nextStep := "anamnese-step-1"
	if user.AnamneseLevel >= 5 {
		nextStep = "create-first-plan"
	} else if user.AnamneseLevel >= 1 {
		nextStep = onboardingMilestones[fmt.Sprintf("anamnese-step-%d", user.AnamneseLevel)].NextStep
	}
	if state.HasCompletedStep("first-plan-generated") {
		nextStep = "track-first-workout"
	}

	if _, err := s.onboardingRepo.Update(ctx, user.ID, repository.UpdateOnboardingInput{
		CompletedSteps: &completed,
		NextStep:       &nextStep,
	}); err != nil {
		return false, fmt.Errorf("repair onboarding state: %w", err)
	}

	s.log.Info("repaired onboarding state",
		zap.Int64("user_id", user.ID),
		zap.Int("level", user.AnamneseLevel),
		zap.String("next_step", nextStep))
	return true, nil
}
