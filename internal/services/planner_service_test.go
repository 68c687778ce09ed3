package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vhsilvat/MetaMorfose/internal/llm"
	"github.com/vhsilvat/MetaMorfose/internal/models"
	"github.com/vhsilvat/MetaMorfose/internal/repository"
)

type stubUserLookup struct {
	user *models.User
	err  error
}

func (s *stubUserLookup) GetByID(_ context.Context, _ int64) (*models.User, error) {
	return s.user, s.err
}

type stubIntakeReader struct {
	records []models.IntakeStepRecord
	err     error
}

func (s *stubIntakeReader) ListByUser(_ context.Context, _ int64) ([]models.IntakeStepRecord, error) {
	return s.records, s.err
}

type stubPlanWriter struct {
	lastInput repository.CreateDailyPlanInput
	upserts   int
	err       error
}

func (s *stubPlanWriter) Upsert(_ context.Context, input repository.CreateDailyPlanInput) (*models.DailyPlan, error) {
	s.upserts++
	s.lastInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &models.DailyPlan{
		ID:          42,
		UserID:      input.UserID,
		Date:        input.Date,
		Schedule:    input.Schedule,
		GeneratedBy: input.GeneratedBy,
	}, nil
}

type stubGenerator struct {
	response   string
	err        error
	calls      int
	lastPrompt string
	lastOpts   llm.GenerateOptions
}

func (s *stubGenerator) GenerateText(_ context.Context, prompt string, opts llm.GenerateOptions) (string, error) {
	s.calls++
	s.lastPrompt = prompt
	s.lastOpts = opts
	return s.response, s.err
}

func fullIntakeRecords() []models.IntakeStepRecord {
	records := make([]models.IntakeStepRecord, 0, 5)
	for step := 1; step <= 5; step++ {
		records = append(records, models.IntakeStepRecord{Step: step, UserID: 9})
	}
	return records
}

func newTestPlanner(writer *stubPlanWriter, reader *stubIntakeReader, gen *stubGenerator) *PlannerService {
	first := "Ana"
	return NewPlannerService(
		&stubUserLookup{user: &models.User{ID: 9, FirstName: &first, Email: "ana@example.com"}},
		reader,
		writer,
		&stubRecorder{},
		gen,
		zap.NewNop(),
	)
}

func TestGeneratePlanPersistsParsedPlan(t *testing.T) {
	writer := &stubPlanWriter{}
	gen := &stubGenerator{response: "```json\n" + validPlanJSON + "\n```"}
	service := newTestPlanner(writer, &stubIntakeReader{records: fullIntakeRecords()}, gen)

	date := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)
	plan, err := service.GeneratePlan(context.Background(), 9, date)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if plan.GeneratedBy != "system" {
		t.Errorf("Expected generatedBy system, got %q", plan.GeneratedBy)
	}
	if writer.upserts != 1 {
		t.Fatalf("Expected one upsert, got %d", writer.upserts)
	}
	if !writer.lastInput.Date.Equal(date.Truncate(24 * time.Hour)) {
		t.Errorf("Expected date truncated to midnight, got %v", writer.lastInput.Date)
	}
	if len(writer.lastInput.Schedule) != 2 {
		t.Errorf("Expected parsed schedule to be persisted, got %d entries", len(writer.lastInput.Schedule))
	}
	if gen.lastOpts.Temperature != planTemperature || gen.lastOpts.MaxOutputTokens != planMaxOutputTokens {
		t.Errorf("Expected generation options %v/%v, got %+v", planTemperature, planMaxOutputTokens, gen.lastOpts)
	}
}

func TestGeneratePlanRefusesIncompleteProfile(t *testing.T) {
	gen := &stubGenerator{}
	reader := &stubIntakeReader{records: fullIntakeRecords()[:4]}
	service := newTestPlanner(&stubPlanWriter{}, reader, gen)

	_, err := service.GeneratePlan(context.Background(), 9, time.Now().UTC())
	if !errors.Is(err, ErrIncompleteProfile) {
		t.Fatalf("Expected ErrIncompleteProfile, got %v", err)
	}
	if gen.calls != 0 {
		t.Errorf("Expected no model call for incomplete profile, got %d", gen.calls)
	}
}

func TestGeneratePlanWrapsUpstreamFailure(t *testing.T) {
	gen := &stubGenerator{err: errors.New("model overloaded")}
	service := newTestPlanner(&stubPlanWriter{}, &stubIntakeReader{records: fullIntakeRecords()}, gen)

	_, err := service.GeneratePlan(context.Background(), 9, time.Now().UTC())
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("Expected ErrUpstream, got %v", err)
	}
}

func TestGeneratePlanDoesNotPersistUnparsableResponse(t *testing.T) {
	writer := &stubPlanWriter{}
	gen := &stubGenerator{response: "I cannot produce a plan today."}
	service := newTestPlanner(writer, &stubIntakeReader{records: fullIntakeRecords()}, gen)

	_, err := service.GeneratePlan(context.Background(), 9, time.Now().UTC())
	var parseErr *PlanParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected PlanParseError, got %v", err)
	}
	if writer.upserts != 0 {
		t.Errorf("Expected no upsert on parse failure, got %d", writer.upserts)
	}
}

func TestGeneratePlanEnforcesDailyAttemptBudget(t *testing.T) {
	gen := &stubGenerator{response: "```json\n" + validPlanJSON + "\n```"}
	service := newTestPlanner(&stubPlanWriter{}, &stubIntakeReader{records: fullIntakeRecords()}, gen)

	for i := 0; i < planAttemptsPerDay; i++ {
		if _, err := service.GeneratePlan(context.Background(), 9, time.Now().UTC()); err != nil {
			t.Fatalf("Expected attempt %d to pass, got %v", i+1, err)
		}
	}

	_, err := service.GeneratePlan(context.Background(), 9, time.Now().UTC())
	if !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("Expected ErrTooManyAttempts on attempt %d, got %v", planAttemptsPerDay+1, err)
	}
}

func TestGeneratePlanPromptCarriesProfile(t *testing.T) {
	gen := &stubGenerator{response: "```json\n" + validPlanJSON + "\n```"}
	service := newTestPlanner(&stubPlanWriter{}, &stubIntakeReader{records: fullIntakeRecords()}, gen)

	if _, err := service.GeneratePlan(context.Background(), 9, time.Now().UTC()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if gen.lastOpts.SystemInstruction == "" {
		t.Error("Expected a system instruction")
	}
	if want := "Name: Ana"; !strings.Contains(gen.lastPrompt, want) {
		t.Errorf("Expected prompt to carry %q", want)
	}
}
