package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vhsilvat/MetaMorfose/internal/mail"
	"github.com/vhsilvat/MetaMorfose/internal/models"
	"github.com/vhsilvat/MetaMorfose/internal/repository"
)

type reminderLister interface {
	ListWithDueReminders(ctx context.Context, due time.Time) ([]models.OnboardingState, error)
	Update(ctx context.Context, userID int64, input repository.UpdateOnboardingInput) (*models.OnboardingState, error)
}

var reminderTemplates = map[string]struct {
	Subject string
	Body    string
}{
	"anamnese": {
		Subject: "Your profile is waiting for you",
		Body: `<p>Hi %s,</p>
<p>You are partway through your intake questionnaire. Finishing it unlocks
personalized daily plans built around your goals.</p>
<p>It takes just a few minutes to pick up where you left off.</p>`,
	},
	"first-plan": {
		Subject: "Your first plan is ready to be created",
		Body: `<p>Hi %s,</p>
<p>Your profile is complete. Open the app to generate your first daily
plan, tailored to your training, nutrition and sleep.</p>`,
	},
}

// ReminderService periodically delivers due onboarding reminders by email
// and marks them sent.
type ReminderService struct {
	onboardingRepo reminderLister
	userRepo       planUserLookup
	sender         mail.Sender
	interval       time.Duration
	log            *zap.Logger
}

func NewReminderService(
	onboardingRepo reminderLister,
	userRepo planUserLookup,
	sender mail.Sender,
	interval time.Duration,
	log *zap.Logger,
) *ReminderService {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &ReminderService{
		onboardingRepo: onboardingRepo,
		userRepo:       userRepo,
		sender:         sender,
		interval:       interval,
		log:            log,
	}
}

// Run polls for due reminders until the context is canceled. Intended to
// run in its own goroutine.
func (s *ReminderService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.DispatchDue(ctx); err != nil {
				s.log.Error("reminder dispatch failed", zap.Error(err))
			}
		}
	}
}

// DispatchDue sends every unsent reminder whose date has passed. A send
// failure leaves the reminder unsent so the next cycle retries it.
func (s *ReminderService) DispatchDue(ctx context.Context) error {
	now := time.Now().UTC()
	states, err := s.onboardingRepo.ListWithDueReminders(ctx, now)
	if err != nil {
		return fmt.Errorf("list due reminders: %w", err)
	}

	for _, state := range states {
		user, err := s.userRepo.GetByID(ctx, state.UserID)
		if err != nil {
			s.log.Error("reminder user lookup failed",
				zap.Int64("user_id", state.UserID), zap.Error(err))
			continue
		}

		changed := false
		reminders := make([]models.Reminder, len(state.ScheduledReminders))
		copy(reminders, state.ScheduledReminders)
		for i, reminder := range reminders {
			if reminder.Sent || reminder.Date.After(now) {
				continue
			}
			if err := s.sendReminder(user, reminder); err != nil {
				s.log.Error("reminder send failed",
					zap.Int64("user_id", user.ID),
					zap.String("type", reminder.Type),
					zap.Error(err))
				continue
			}
			reminders[i].Sent = true
			changed = true
		}
		if !changed {
			continue
		}

		if _, err := s.onboardingRepo.Update(ctx, state.UserID, repository.UpdateOnboardingInput{
			ScheduledReminders: &reminders,
		}); err != nil {
			s.log.Error("reminder state update failed",
				zap.Int64("user_id", state.UserID), zap.Error(err))
		}
	}
	return nil
}

func (s *ReminderService) sendReminder(user *models.User, reminder models.Reminder) error {
	tmpl, ok := reminderTemplates[reminder.Type]
	if !ok {
		return fmt.Errorf("no template for reminder type %q", reminder.Type)
	}
	return s.sender.Send(user.Email, tmpl.Subject, fmt.Sprintf(tmpl.Body, user.DisplayName()))
}
