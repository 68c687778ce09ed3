package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vhsilvat/MetaMorfose/internal/llm"
	"github.com/vhsilvat/MetaMorfose/internal/models"
	"github.com/vhsilvat/MetaMorfose/internal/repository"
)

const (
	intakeStepCount = 5

	planTemperature     = 0.7
	planMaxOutputTokens = 4000
	planRequestTimeout  = 60 * time.Second

	// Each user gets a small daily budget of generation attempts; failed
	// parses count against it.
	planAttemptsPerDay = 3
)

type planWriter interface {
	Upsert(ctx context.Context, input repository.CreateDailyPlanInput) (*models.DailyPlan, error)
}

type planUserLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type intakeReader interface {
	ListByUser(ctx context.Context, userID int64) ([]models.IntakeStepRecord, error)
}

// PlannerService runs the plan-generation pipeline: aggregate the intake
// profile, prompt the model, parse the response and persist the plan.
type PlannerService struct {
	userRepo   planUserLookup
	intakeRepo intakeReader
	planRepo   planWriter
	onboarding onboardingRecorder
	generator  llm.TextGenerator
	log        *zap.Logger

	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
}

func NewPlannerService(
	userRepo planUserLookup,
	intakeRepo intakeReader,
	planRepo planWriter,
	onboarding onboardingRecorder,
	generator llm.TextGenerator,
	log *zap.Logger,
) *PlannerService {
	return &PlannerService{
		userRepo:   userRepo,
		intakeRepo: intakeRepo,
		planRepo:   planRepo,
		onboarding: onboarding,
		generator:  generator,
		log:        log,
		limiters:   make(map[int64]*rate.Limiter),
	}
}

// GeneratePlan produces and stores the plan for (user, date). It fails
// fast when the intake profile is incomplete, and leaves any existing plan
// untouched when the model response cannot be parsed.
func (s *PlannerService) GeneratePlan(ctx context.Context, userID int64, date time.Time) (*models.DailyPlan, error) {
	if !s.allowAttempt(userID) {
		return nil, ErrTooManyAttempts
	}

	attemptID := uuid.NewString()
	log := s.log.With(zap.Int64("user_id", userID), zap.String("attempt_id", attemptID))

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	records, err := s.intakeRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load intake records: %w", err)
	}
	if len(records) < intakeStepCount {
		log.Warn("plan generation refused", zap.String("stage", "aggregating"),
			zap.Int("records", len(records)))
		return nil, ErrIncompleteProfile
	}

	profile := buildProfileDocument(user, records)
	prompt := buildPlanPrompt(profile, date)

	reqCtx, cancel := context.WithTimeout(ctx, planRequestTimeout)
	defer cancel()

	raw, err := s.generator.GenerateText(reqCtx, prompt, llm.GenerateOptions{
		SystemInstruction: plannerSystemInstruction,
		Temperature:       planTemperature,
		MaxOutputTokens:   planMaxOutputTokens,
	})
	if err != nil {
		log.Error("plan generation failed", zap.String("stage", "requesting"), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	generated, err := ParseGeneratedPlan(raw)
	if err != nil {
		var parseErr *PlanParseError
		if errors.As(err, &parseErr) {
			log.Error("plan generation failed", zap.String("stage", "parsing"),
				zap.String("reason", parseErr.Reason),
				zap.String("raw_response", parseErr.Raw))
		}
		return nil, err
	}

	plan, err := s.planRepo.Upsert(ctx, repository.CreateDailyPlanInput{
		UserID:        userID,
		Date:          date.Truncate(24 * time.Hour),
		Schedule:      generated.Schedule,
		WorkoutPlan:   generated.WorkoutPlan,
		NutritionPlan: generated.NutritionPlan,
		WellbeingTips: generated.WellbeingTips,
		GeneratedBy:   "system",
	})
	if err != nil {
		return nil, fmt.Errorf("persist plan: %w", err)
	}

	log.Info("plan generated", zap.String("stage", "persisted"), zap.Int64("plan_id", plan.ID))
	return plan, nil
}

// DispatchFirstPlan generates the user's first plan in the background once
// the intake completes. Errors are logged, not returned; the user can
// still request a plan manually.
func (s *PlannerService) DispatchFirstPlan(userID int64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*planRequestTimeout)
		defer cancel()

		if _, err := s.GeneratePlan(ctx, userID, time.Now().UTC()); err != nil {
			s.log.Error("first plan generation failed",
				zap.Int64("user_id", userID), zap.Error(err))
			return
		}
		if err := s.onboarding.RecordCompletion(ctx, userID, "first-plan-generated"); err != nil {
			s.log.Error("first plan onboarding update failed",
				zap.Int64("user_id", userID), zap.Error(err))
		}
	}()
}

func (s *PlannerService) allowAttempt(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	limiter, ok := s.limiters[userID]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(24*time.Hour/planAttemptsPerDay), planAttemptsPerDay)
		s.limiters[userID] = limiter
	}
	return limiter.Allow()
}

const plannerSystemInstruction = "You are a fitness and wellbeing coach. " +
	"You design one-day plans covering training, nutrition and recovery, " +
	"tailored to the client profile you are given. You always answer with a " +
	"single JSON document and nothing else."

// buildProfileDocument consolidates the five intake records into the
// client profile section of the prompt. Record order follows step order.
func buildProfileDocument(user *models.User, records []models.IntakeStepRecord) string {
	var b strings.Builder

	byStep := make(map[int]models.IntakeStepPayload, len(records))
	for _, r := range records {
		byStep[r.Step] = r.Payload
	}

	b.WriteString("## Personal\n")
	b.WriteString(fmt.Sprintf("Name: %s\n", user.DisplayName()))
	if p, ok := byStep[1]; ok {
		if p.Age != nil {
			b.WriteString(fmt.Sprintf("Age: %d\n", *p.Age))
		}
		if p.Height != nil {
			b.WriteString(fmt.Sprintf("Height: %.0f cm\n", *p.Height))
		}
		if p.ExperienceLevel != nil {
			b.WriteString(fmt.Sprintf("Experience: %s\n", *p.ExperienceLevel))
		}
		if len(p.PrimaryGoals) > 0 {
			b.WriteString("Primary goals: " + strings.Join(p.PrimaryGoals, ", ") + "\n")
		}
		if len(p.SecondaryGoals) > 0 {
			b.WriteString("Secondary goals: " + strings.Join(p.SecondaryGoals, ", ") + "\n")
		}
	}

	if p, ok := byStep[2]; ok {
		b.WriteString("\n## Training background\n")
		if p.TrainingHistory != nil {
			b.WriteString("History: " + *p.TrainingHistory + "\n")
		}
		if p.CurrentTrainingFrequency != nil {
			b.WriteString(fmt.Sprintf("Current frequency: %d sessions/week\n", *p.CurrentTrainingFrequency))
		}
		for _, injury := range p.PreviousInjuries {
			b.WriteString(fmt.Sprintf("Injury: %s (%s)", injury.BodyPart, injury.Description))
			if injury.AffectsTraining {
				b.WriteString(" [affects training]")
			}
			b.WriteString("\n")
		}
	}

	if p, ok := byStep[3]; ok {
		b.WriteString("\n## Physical assessment\n")
		if p.InitialMeasurements != nil {
			b.WriteString(fmt.Sprintf("Weight: %.1f kg\n", p.InitialMeasurements.Weight))
		}
		if len(p.PosturalObservations) > 0 {
			b.WriteString("Postural notes: " + strings.Join(p.PosturalObservations, "; ") + "\n")
		}
	}

	if p, ok := byStep[4]; ok {
		b.WriteString("\n## Nutrition\n")
		if p.DietType != nil {
			b.WriteString("Diet: " + *p.DietType + "\n")
		}
		if p.MealsPerDay != nil {
			b.WriteString(fmt.Sprintf("Meals per day: %d\n", *p.MealsPerDay))
		}
		if len(p.FoodAllergies) > 0 {
			b.WriteString("Allergies: " + strings.Join(p.FoodAllergies, ", ") + "\n")
		}
		if p.FoodPreferences != nil {
			if len(p.FoodPreferences.Likes) > 0 {
				b.WriteString("Likes: " + strings.Join(p.FoodPreferences.Likes, ", ") + "\n")
			}
			if len(p.FoodPreferences.Dislikes) > 0 {
				b.WriteString("Dislikes: " + strings.Join(p.FoodPreferences.Dislikes, ", ") + "\n")
			}
		}
		if len(p.SupplementsUsed) > 0 {
			b.WriteString("Supplements: " + strings.Join(p.SupplementsUsed, ", ") + "\n")
		}
	}

	if p, ok := byStep[5]; ok {
		b.WriteString("\n## Lifestyle and recovery\n")
		if p.SleepPatterns != nil {
			b.WriteString(fmt.Sprintf("Sleep: %.1f h/night, quality %d/10, %s to %s\n",
				p.SleepPatterns.AverageDuration, p.SleepPatterns.QualityRating,
				p.SleepPatterns.Bedtime, p.SleepPatterns.WakeTime))
			if len(p.SleepPatterns.SleepChallenges) > 0 {
				b.WriteString("Sleep challenges: " + strings.Join(p.SleepPatterns.SleepChallenges, ", ") + "\n")
			}
		}
		if p.StressLevels != nil {
			b.WriteString(fmt.Sprintf("Stress: %d/10\n", *p.StressLevels))
		}
		if p.RecoveryCapacity != nil {
			b.WriteString(fmt.Sprintf("Recovery capacity: %d/10\n", *p.RecoveryCapacity))
		}
		if p.Lifestyle != nil {
			b.WriteString(fmt.Sprintf("Occupation: %s (%s, %s schedule)\n",
				p.Lifestyle.Occupation, p.Lifestyle.ActivityLevel, p.Lifestyle.WorkSchedule))
		}
	}

	return b.String()
}

func buildPlanPrompt(profile string, date time.Time) string {
	var b strings.Builder
	b.WriteString("Create a complete daily plan for ")
	b.WriteString(date.Format("Monday, 2006-01-02"))
	b.WriteString(" for the following client.\n\n")
	b.WriteString(profile)
	b.WriteString(`
Respond with a single JSON document inside a ` + "```json" + ` fence, matching exactly this shape:

` + "```json" + `
{
  "schedule": [
    {"time": "HH:MM", "activity": "string", "duration": minutes, "details": "optional string"}
  ],
  "workoutPlan": {
    "type": "string",
    "focusArea": "string",
    "exercises": [
      {"name": "string", "sets": n, "repsRange": "string", "restTime": seconds, "notes": "optional string"}
    ],
    "warmup": "optional string",
    "cooldown": "optional string"
  },
  "nutritionPlan": {
    "totalCaloriesTarget": kcal,
    "macrosTarget": {"protein": g, "carbs": g, "fat": g},
    "hydrationTarget": liters,
    "mealSuggestions": [
      {"time": "HH:MM", "description": "string", "options": ["string"]}
    ]
  },
  "wellbeingTips": ["string"]
}
` + "```" + `

The schedule must not be empty. Respect the client's injuries, diet and sleep window. Do not add any text outside the fence.`)
	return b.String()
}
