package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vhsilvat/MetaMorfose/internal/models"
	"github.com/vhsilvat/MetaMorfose/internal/repository"
)

// stepFeatureUnlocks is the declarative step -> feature-tags table consulted
// on advancement. Steps without an entry unlock nothing extra.
var stepFeatureUnlocks = map[int][]string{
	4: {"nutrition", "metrics"},
	5: {"workouts", "sleep", "wellbeing", "dailyPlans", "statistics", "ai-chat"},
}

const completionAchievementID = "anamnese-complete"

type levelStore interface {
	UpdateLevel(ctx context.Context, userID int64, level int) error
	MarkComplete(ctx context.Context, userID int64, level int) error
}

type onboardingRecorder interface {
	RecordCompletion(ctx context.Context, userID int64, stepTag string) error
}

type firstPlanDispatcher interface {
	DispatchFirstPlan(userID int64)
}

// ProgressService is the progression tracker: it raises the user's intake
// level, fans out feature unlocks and achievements, and kicks off the first
// plan generation when the intake finishes.
type ProgressService struct {
	userRepo     levelStore
	progressRepo progressStore
	onboarding   onboardingRecorder
	planner      firstPlanDispatcher
	log          *zap.Logger
}

func NewProgressService(
	userRepo levelStore,
	progressRepo progressStore,
	onboarding onboardingRecorder,
	planner firstPlanDispatcher,
	log *zap.Logger,
) *ProgressService {
	return &ProgressService{
		userRepo:     userRepo,
		progressRepo: progressRepo,
		onboarding:   onboarding,
		planner:      planner,
		log:          log,
	}
}

// Advance raises the level to step if it is higher than the current one.
// Re-submitting an already-completed step is a no-op: the level never
// regresses and unlocks never duplicate.
func (s *ProgressService) Advance(ctx context.Context, user *models.User, step int) error {
	if user == nil || step < 1 || step > 5 {
		return ErrInvalidInput
	}
	if step <= user.AnamneseLevel {
		return nil
	}

	if step == 5 {
		if err := s.userRepo.MarkComplete(ctx, user.ID, step); err != nil {
			return fmt.Errorf("mark intake complete: %w", err)
		}
	} else {
		if err := s.userRepo.UpdateLevel(ctx, user.ID, step); err != nil {
			return fmt.Errorf("update intake level: %w", err)
		}
	}

	if err := s.applyUnlocks(ctx, user.ID, step); err != nil {
		return err
	}

	if err := s.onboarding.RecordCompletion(ctx, user.ID, fmt.Sprintf("anamnese-step-%d", step)); err != nil {
		// The level update already landed; the reconcile pass can repair
		// the onboarding side later.
		s.log.Error("onboarding update failed after level advance",
			zap.Int64("user_id", user.ID),
			zap.Int("step", step),
			zap.Error(err))
		return fmt.Errorf("record onboarding completion: %w", err)
	}

	wasComplete := user.IsComplete
	user.AnamneseLevel = step
	if step == 5 {
		user.IsComplete = true
		if !wasComplete {
			s.planner.DispatchFirstPlan(user.ID)
		}
	}
	return nil
}

func (s *ProgressService) applyUnlocks(ctx context.Context, userID int64, step int) error {
	progress, err := s.progressRepo.GetByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user progress: %w", err)
	}

	input := repository.UpdateProgressInput{}
	changed := false

	if unlocks := stepFeatureUnlocks[step]; len(unlocks) > 0 {
		features := progress.UnlockedFeatures
		for _, tag := range unlocks {
			if !progress.HasFeature(tag) {
				features = append(features, tag)
				changed = true
			}
		}
		if changed {
			input.UnlockedFeatures = &features
		}
	}

	if step == 5 {
		if !progress.HasAchievement(completionAchievementID) {
			achievements := append(progress.Achievements, models.Achievement{
				ID:          completionAchievementID,
				Name:        "Complete Profile",
				Description: "Completed every step of the initial intake questionnaire",
				AchievedAt:  time.Now().UTC(),
			})
			input.Achievements = &achievements
			changed = true
		}
		if progress.Level < 2 {
			level := 2
			input.Level = &level
			changed = true
		}
	}

	if !changed {
		return nil
	}
	if _, err := s.progressRepo.Update(ctx, userID, input); err != nil {
		return fmt.Errorf("apply feature unlocks: %w", err)
	}
	return nil
}
