package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vhsilvat/MetaMorfose/internal/models"
	"github.com/vhsilvat/MetaMorfose/internal/repository"
)

type intakeStore interface {
	Upsert(ctx context.Context, userID int64, step int, payload models.IntakeStepPayload) (*models.IntakeStepRecord, error)
	GetByUserAndStep(ctx context.Context, userID int64, step int) (*models.IntakeStepRecord, error)
	ListByUser(ctx context.Context, userID int64) ([]models.IntakeStepRecord, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
}

type metricsStore interface {
	InsertPhysicalMetric(ctx context.Context, userID int64, weight float64, measurements *models.BodyMeasurements) (*models.PhysicalMetric, error)
	InsertSleepRecord(ctx context.Context, userID int64, input repository.InsertSleepInput) (*models.SleepRecord, error)
	InsertWellbeingRecord(ctx context.Context, userID int64, input repository.InsertWellbeingInput) (*models.WellbeingRecord, error)
}

type progressionTracker interface {
	Advance(ctx context.Context, user *models.User, step int) error
}

type Step1Input struct {
	Age             int      `json:"age"`
	Height          float64  `json:"height"`
	PrimaryGoals    []string `json:"primaryGoals"`
	SecondaryGoals  []string `json:"secondaryGoals"`
	ExperienceLevel string   `json:"experienceLevel"`
}

type Step2Input struct {
	TrainingHistory          string          `json:"trainingHistory"`
	PreviousInjuries         []models.Injury `json:"previousInjuries"`
	CurrentTrainingFrequency int             `json:"currentTrainingFrequency"`
}

type Step3Input struct {
	PosturalObservations []string                `json:"posturalObservations"`
	InitialMeasurements  models.BodyMeasurements `json:"initialMeasurements"`
}

type Step4Input struct {
	DietType        string                 `json:"dietType"`
	FoodAllergies   []string               `json:"foodAllergies"`
	FoodPreferences models.FoodPreferences `json:"foodPreferences"`
	MealsPerDay     int                    `json:"mealsPerDay"`
	SupplementsUsed []string               `json:"supplementsUsed"`
}

type Step5Input struct {
	SleepPatterns    models.SleepPatterns `json:"sleepPatterns"`
	StressLevels     int                  `json:"stressLevels"`
	RecoveryCapacity int                  `json:"recoveryCapacity"`
	Lifestyle        models.Lifestyle     `json:"lifestyle"`
}

// StepSubmission carries exactly one step payload; the field matching the
// submitted step number must be set.
type StepSubmission struct {
	Step1 *Step1Input
	Step2 *Step2Input
	Step3 *Step3Input
	Step4 *Step4Input
	Step5 *Step5Input
}

// IntakeService validates and stores the five intake steps, mirrors the
// derived metric records, and drives the progression tracker on first-time
// completions.
type IntakeService struct {
	intakeRepo  intakeStore
	metricsRepo metricsStore
	tracker     progressionTracker
}

func NewIntakeService(intakeRepo intakeStore, metricsRepo metricsStore, tracker progressionTracker) *IntakeService {
	return &IntakeService{
		intakeRepo:  intakeRepo,
		metricsRepo: metricsRepo,
		tracker:     tracker,
	}
}

// SubmitStep upserts the record for (user, step). Completing a new step
// advances progression synchronously before returning.
func (s *IntakeService) SubmitStep(ctx context.Context, user *models.User, step int, submission StepSubmission) (*models.IntakeStepRecord, error) {
	if user == nil || step < 1 || step > 5 {
		return nil, ErrInvalidInput
	}
	if step > user.AnamneseLevel+1 {
		return nil, &SequenceError{RequestedStep: step, CurrentLevel: user.AnamneseLevel}
	}

	payload, err := s.buildPayload(step, submission)
	if err != nil {
		return nil, err
	}

	record, err := s.intakeRepo.Upsert(ctx, user.ID, step, *payload)
	if err != nil {
		return nil, fmt.Errorf("store intake step %d: %w", step, err)
	}

	if err := s.mirrorDerivedRecords(ctx, user.ID, step, payload); err != nil {
		return nil, err
	}

	if step > user.AnamneseLevel {
		if err := s.tracker.Advance(ctx, user, step); err != nil {
			return nil, fmt.Errorf("advance progression to step %d: %w", step, err)
		}
	}
	return record, nil
}

func (s *IntakeService) GetRecords(ctx context.Context, userID int64, step *int) ([]models.IntakeStepRecord, error) {
	if step != nil {
		record, err := s.intakeRepo.GetByUserAndStep(ctx, userID, *step)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return []models.IntakeStepRecord{}, nil
			}
			return nil, err
		}
		return []models.IntakeStepRecord{*record}, nil
	}
	return s.intakeRepo.ListByUser(ctx, userID)
}

type IntakeProgress struct {
	CurrentLevel   int   `json:"current_level"`
	CompletedSteps []int `json:"completed_steps"`
	IsComplete     bool  `json:"is_complete"`
	NextStep       *int  `json:"next_step,omitempty"`
}

func (s *IntakeService) GetProgress(ctx context.Context, user *models.User) (*IntakeProgress, error) {
	records, err := s.intakeRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	completed := make([]int, 0, len(records))
	for _, record := range records {
		completed = append(completed, record.Step)
	}
	progress := &IntakeProgress{
		CurrentLevel:   user.AnamneseLevel,
		CompletedSteps: completed,
		IsComplete:     user.IsComplete,
	}
	if next := user.AnamneseLevel + 1; next <= 5 {
		progress.NextStep = &next
	}
	return progress, nil
}

// CanAccessStep mirrors the gate used by SubmitStep.
func (s *IntakeService) CanAccessStep(user *models.User, step int) bool {
	return user.AnamneseLevel >= step-1
}

func (s *IntakeService) buildPayload(step int, submission StepSubmission) (*models.IntakeStepPayload, error) {
	var payload models.IntakeStepPayload
	switch step {
	case 1:
		if submission.Step1 == nil {
			return nil, ErrInvalidInput
		}
		if err := validateStep1(*submission.Step1); err != nil {
			return nil, err
		}
		input := submission.Step1
		payload.Age = &input.Age
		payload.Height = &input.Height
		payload.PrimaryGoals = input.PrimaryGoals
		payload.SecondaryGoals = input.SecondaryGoals
		payload.ExperienceLevel = &input.ExperienceLevel
	case 2:
		if submission.Step2 == nil {
			return nil, ErrInvalidInput
		}
		if err := validateStep2(*submission.Step2); err != nil {
			return nil, err
		}
		input := submission.Step2
		payload.TrainingHistory = &input.TrainingHistory
		payload.PreviousInjuries = input.PreviousInjuries
		payload.CurrentTrainingFrequency = &input.CurrentTrainingFrequency
	case 3:
		if submission.Step3 == nil {
			return nil, ErrInvalidInput
		}
		if err := validateStep3(*submission.Step3); err != nil {
			return nil, err
		}
		input := submission.Step3
		payload.PosturalObservations = input.PosturalObservations
		measurements := input.InitialMeasurements
		payload.InitialMeasurements = &measurements
	case 4:
		if submission.Step4 == nil {
			return nil, ErrInvalidInput
		}
		if err := validateStep4(*submission.Step4); err != nil {
			return nil, err
		}
		input := submission.Step4
		payload.DietType = &input.DietType
		payload.FoodAllergies = input.FoodAllergies
		preferences := input.FoodPreferences
		payload.FoodPreferences = &preferences
		payload.MealsPerDay = &input.MealsPerDay
		payload.SupplementsUsed = input.SupplementsUsed
	case 5:
		if submission.Step5 == nil {
			return nil, ErrInvalidInput
		}
		if err := validateStep5(*submission.Step5); err != nil {
			return nil, err
		}
		input := submission.Step5
		sleep := input.SleepPatterns
		payload.SleepPatterns = &sleep
		payload.StressLevels = &input.StressLevels
		payload.RecoveryCapacity = &input.RecoveryCapacity
		lifestyle := input.Lifestyle
		payload.Lifestyle = &lifestyle
	}
	return &payload, nil
}

// mirrorDerivedRecords copies step 3 measurements into the physical-metrics
// series and derives the sleep and wellbeing rows from step 5.
func (s *IntakeService) mirrorDerivedRecords(ctx context.Context, userID int64, step int, payload *models.IntakeStepPayload) error {
	switch step {
	case 3:
		_, err := s.metricsRepo.InsertPhysicalMetric(ctx, userID,
			payload.InitialMeasurements.Weight, payload.InitialMeasurements)
		if err != nil {
			return fmt.Errorf("mirror physical metrics: %w", err)
		}
	case 5:
		sleep := payload.SleepPatterns
		_, err := s.metricsRepo.InsertSleepRecord(ctx, userID, repository.InsertSleepInput{
			Duration: sleep.AverageDuration,
			Quality:  sleep.QualityRating,
			BedTime:  sleep.Bedtime,
			WakeTime: sleep.WakeTime,
			Notes:    sleepChallengeNotes(sleep.SleepChallenges),
		})
		if err != nil {
			return fmt.Errorf("mirror sleep record: %w", err)
		}

		notes := fmt.Sprintf("Self-assessed recovery capacity: %d/10", *payload.RecoveryCapacity)
		_, err = s.metricsRepo.InsertWellbeingRecord(ctx, userID, repository.InsertWellbeingInput{
			EnergyLevel:  10 - *payload.StressLevels,
			StressLevel:  *payload.StressLevels,
			Mood:         moodForStress(*payload.StressLevels),
			GeneralNotes: &notes,
		})
		if err != nil {
			return fmt.Errorf("mirror wellbeing record: %w", err)
		}
	}
	return nil
}

func moodForStress(stress int) string {
	switch {
	case stress <= 3:
		return "excellent"
	case stress <= 6:
		return "good"
	default:
		return "fair"
	}
}
