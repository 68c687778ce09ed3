package services

import (
	"context"
	"errors"
	"testing"

	"github.com/vhsilvat/MetaMorfose/internal/models"
	"github.com/vhsilvat/MetaMorfose/internal/repository"
)

type stubIntakeRepo struct {
	upsertResult *models.IntakeStepRecord
	upsertErr    error
	getResult    *models.IntakeStepRecord
	getErr       error
	listResult   []models.IntakeStepRecord
	listErr      error
	lastUserID   int64
	lastStep     int
	lastPayload  models.IntakeStepPayload
	upsertCalls  int
}

func (r *stubIntakeRepo) Upsert(_ context.Context, userID int64, step int, payload models.IntakeStepPayload) (*models.IntakeStepRecord, error) {
	r.upsertCalls++
	r.lastUserID = userID
	r.lastStep = step
	r.lastPayload = payload
	if r.upsertResult != nil {
		return r.upsertResult, r.upsertErr
	}
	return &models.IntakeStepRecord{UserID: userID, Step: step, Payload: payload}, r.upsertErr
}

func (r *stubIntakeRepo) GetByUserAndStep(_ context.Context, _ int64, _ int) (*models.IntakeStepRecord, error) {
	return r.getResult, r.getErr
}

func (r *stubIntakeRepo) ListByUser(_ context.Context, _ int64) ([]models.IntakeStepRecord, error) {
	return r.listResult, r.listErr
}

func (r *stubIntakeRepo) CountByUser(_ context.Context, _ int64) (int, error) {
	return len(r.listResult), nil
}

type stubMetricsRepo struct {
	physicalCalls  int
	sleepCalls     int
	wellbeingCalls int
	lastWeight     float64
	lastSleep      repository.InsertSleepInput
	lastWellbeing  repository.InsertWellbeingInput
}

func (r *stubMetricsRepo) InsertPhysicalMetric(_ context.Context, userID int64, weight float64, measurements *models.BodyMeasurements) (*models.PhysicalMetric, error) {
	r.physicalCalls++
	r.lastWeight = weight
	return &models.PhysicalMetric{UserID: userID, Weight: weight, BodyMeasurements: measurements}, nil
}

func (r *stubMetricsRepo) InsertSleepRecord(_ context.Context, userID int64, input repository.InsertSleepInput) (*models.SleepRecord, error) {
	r.sleepCalls++
	r.lastSleep = input
	return &models.SleepRecord{UserID: userID}, nil
}

func (r *stubMetricsRepo) InsertWellbeingRecord(_ context.Context, userID int64, input repository.InsertWellbeingInput) (*models.WellbeingRecord, error) {
	r.wellbeingCalls++
	r.lastWellbeing = input
	return &models.WellbeingRecord{UserID: userID}, nil
}

type stubTracker struct {
	advanceCalls int
	lastStep     int
	err          error
}

func (t *stubTracker) Advance(_ context.Context, _ *models.User, step int) error {
	t.advanceCalls++
	t.lastStep = step
	return t.err
}

func validStep1() *Step1Input {
	return &Step1Input{
		Age:             28,
		Height:          178,
		PrimaryGoals:    []string{"build muscle"},
		ExperienceLevel: "intermediate",
	}
}

func validStep5() *Step5Input {
	return &Step5Input{
		SleepPatterns: models.SleepPatterns{
			AverageDuration: 7.5,
			QualityRating:   6,
			Bedtime:         "23:00",
			WakeTime:        "06:30",
			SleepChallenges: []string{"trouble falling asleep"},
		},
		StressLevels:     7,
		RecoveryCapacity: 5,
		Lifestyle: models.Lifestyle{
			Occupation:    "software engineer",
			ActivityLevel: "lightly active",
			WorkSchedule:  "regular",
		},
	}
}

func TestSubmitStepStoresPayloadAndAdvances(t *testing.T) {
	intakeRepo := &stubIntakeRepo{}
	tracker := &stubTracker{}
	service := NewIntakeService(intakeRepo, &stubMetricsRepo{}, tracker)
	user := &models.User{ID: 7, AnamneseLevel: 0}

	record, err := service.SubmitStep(context.Background(), user, 1, StepSubmission{Step1: validStep1()})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if record.Step != 1 {
		t.Errorf("Expected step 1 record, got %d", record.Step)
	}
	if intakeRepo.lastPayload.Age == nil || *intakeRepo.lastPayload.Age != 28 {
		t.Errorf("Expected age 28 in payload, got %v", intakeRepo.lastPayload.Age)
	}
	if tracker.advanceCalls != 1 || tracker.lastStep != 1 {
		t.Errorf("Expected one advance to step 1, got %d calls to step %d", tracker.advanceCalls, tracker.lastStep)
	}
}

func TestSubmitStepRejectsSkippingAhead(t *testing.T) {
	intakeRepo := &stubIntakeRepo{}
	service := NewIntakeService(intakeRepo, &stubMetricsRepo{}, &stubTracker{})
	user := &models.User{ID: 7, AnamneseLevel: 0}

	_, err := service.SubmitStep(context.Background(), user, 3, StepSubmission{
		Step3: &Step3Input{InitialMeasurements: models.BodyMeasurements{Weight: 80}},
	})

	var sequenceErr *SequenceError
	if !errors.As(err, &sequenceErr) {
		t.Fatalf("Expected SequenceError, got %v", err)
	}
	if sequenceErr.NextStep() != 1 {
		t.Errorf("Expected redirect to step 1, got %d", sequenceErr.NextStep())
	}
	if intakeRepo.upsertCalls != 0 {
		t.Errorf("Expected no write on sequence violation")
	}
}

func TestSubmitStepRejectsInvalidAge(t *testing.T) {
	service := NewIntakeService(&stubIntakeRepo{}, &stubMetricsRepo{}, &stubTracker{})
	user := &models.User{ID: 7}

	input := validStep1()
	input.Age = 15
	_, err := service.SubmitStep(context.Background(), user, 1, StepSubmission{Step1: input})

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if validationErr.Field != "age" {
		t.Errorf("Expected field age, got %q", validationErr.Field)
	}
}

func TestSubmitStepResubmissionDoesNotAdvance(t *testing.T) {
	tracker := &stubTracker{}
	service := NewIntakeService(&stubIntakeRepo{}, &stubMetricsRepo{}, tracker)
	user := &models.User{ID: 7, AnamneseLevel: 3}

	_, err := service.SubmitStep(context.Background(), user, 1, StepSubmission{Step1: validStep1()})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if tracker.advanceCalls != 0 {
		t.Errorf("Expected no advancement on resubmission, got %d calls", tracker.advanceCalls)
	}
}

func TestSubmitStepThreeMirrorsPhysicalMetrics(t *testing.T) {
	metricsRepo := &stubMetricsRepo{}
	service := NewIntakeService(&stubIntakeRepo{}, metricsRepo, &stubTracker{})
	user := &models.User{ID: 7, AnamneseLevel: 2}

	_, err := service.SubmitStep(context.Background(), user, 3, StepSubmission{
		Step3: &Step3Input{InitialMeasurements: models.BodyMeasurements{Weight: 82.5}},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if metricsRepo.physicalCalls != 1 {
		t.Fatalf("Expected one physical metric insert, got %d", metricsRepo.physicalCalls)
	}
	if metricsRepo.lastWeight != 82.5 {
		t.Errorf("Expected weight 82.5, got %v", metricsRepo.lastWeight)
	}
}

func TestSubmitStepFiveDerivesSleepAndWellbeing(t *testing.T) {
	metricsRepo := &stubMetricsRepo{}
	service := NewIntakeService(&stubIntakeRepo{}, metricsRepo, &stubTracker{})
	user := &models.User{ID: 7, AnamneseLevel: 4}

	_, err := service.SubmitStep(context.Background(), user, 5, StepSubmission{Step5: validStep5()})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if metricsRepo.sleepCalls != 1 || metricsRepo.wellbeingCalls != 1 {
		t.Fatalf("Expected sleep and wellbeing inserts, got %d and %d",
			metricsRepo.sleepCalls, metricsRepo.wellbeingCalls)
	}
	if metricsRepo.lastSleep.Duration != 7.5 || metricsRepo.lastSleep.BedTime != "23:00" {
		t.Errorf("Expected sleep patterns to carry over, got %+v", metricsRepo.lastSleep)
	}
	if metricsRepo.lastWellbeing.EnergyLevel != 3 {
		t.Errorf("Expected energy 3 for stress 7, got %d", metricsRepo.lastWellbeing.EnergyLevel)
	}
	if metricsRepo.lastWellbeing.Mood != "fair" {
		t.Errorf("Expected mood fair for stress 7, got %q", metricsRepo.lastWellbeing.Mood)
	}
}

func TestSubmitStepRejectsBadBedtimeFormat(t *testing.T) {
	service := NewIntakeService(&stubIntakeRepo{}, &stubMetricsRepo{}, &stubTracker{})
	user := &models.User{ID: 7, AnamneseLevel: 4}

	input := validStep5()
	input.SleepPatterns.Bedtime = "25:00"
	_, err := service.SubmitStep(context.Background(), user, 5, StepSubmission{Step5: input})

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
}

func TestGetProgressReportsNextStep(t *testing.T) {
	intakeRepo := &stubIntakeRepo{listResult: []models.IntakeStepRecord{{Step: 1}, {Step: 2}}}
	service := NewIntakeService(intakeRepo, &stubMetricsRepo{}, &stubTracker{})
	user := &models.User{ID: 7, AnamneseLevel: 2}

	progress, err := service.GetProgress(context.Background(), user)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if progress.NextStep == nil || *progress.NextStep != 3 {
		t.Errorf("Expected next step 3, got %v", progress.NextStep)
	}
	if progress.IsComplete {
		t.Errorf("Expected incomplete profile")
	}
}
