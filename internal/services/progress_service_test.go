package services

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/vhsilvat/MetaMorfose/internal/models"
	"github.com/vhsilvat/MetaMorfose/internal/repository"
)

type stubLevelStore struct {
	updateCalls   int
	completeCalls int
	lastLevel     int
}

func (s *stubLevelStore) UpdateLevel(_ context.Context, _ int64, level int) error {
	s.updateCalls++
	s.lastLevel = level
	return nil
}

func (s *stubLevelStore) MarkComplete(_ context.Context, _ int64, level int) error {
	s.completeCalls++
	s.lastLevel = level
	return nil
}

type stubProgressStore struct {
	progress     *models.UserProgress
	lastUpdate   repository.UpdateProgressInput
	updates      int
	initialCalls int
}

func (s *stubProgressStore) CreateInitial(_ context.Context, userID int64) (*models.UserProgress, error) {
	s.initialCalls++
	return &models.UserProgress{UserID: userID, UnlockedFeatures: []string{"dashboard", "anamnese"}, Level: 1}, nil
}

func (s *stubProgressStore) GetByUserID(_ context.Context, _ int64) (*models.UserProgress, error) {
	return s.progress, nil
}

func (s *stubProgressStore) Update(_ context.Context, _ int64, input repository.UpdateProgressInput) (*models.UserProgress, error) {
	s.updates++
	s.lastUpdate = input
	return s.progress, nil
}

type stubRecorder struct {
	tags []string
	err  error
}

func (s *stubRecorder) RecordCompletion(_ context.Context, _ int64, stepTag string) error {
	s.tags = append(s.tags, stepTag)
	return s.err
}

type stubDispatcher struct {
	dispatched []int64
}

func (s *stubDispatcher) DispatchFirstPlan(userID int64) {
	s.dispatched = append(s.dispatched, userID)
}

func baseProgress() *models.UserProgress {
	return &models.UserProgress{
		UserID:           7,
		UnlockedFeatures: []string{"dashboard", "anamnese"},
		Level:            1,
	}
}

func TestAdvanceMidStepUnlocksNothingExtra(t *testing.T) {
	levels := &stubLevelStore{}
	progress := &stubProgressStore{progress: baseProgress()}
	recorder := &stubRecorder{}
	service := NewProgressService(levels, progress, recorder, &stubDispatcher{}, zap.NewNop())
	user := &models.User{ID: 7, AnamneseLevel: 1}

	if err := service.Advance(context.Background(), user, 2); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if levels.updateCalls != 1 || levels.lastLevel != 2 {
		t.Errorf("Expected level update to 2, got %d calls at %d", levels.updateCalls, levels.lastLevel)
	}
	if progress.updates != 0 {
		t.Errorf("Expected no progress update for step 2, got %d", progress.updates)
	}
	if len(recorder.tags) != 1 || recorder.tags[0] != "anamnese-step-2" {
		t.Errorf("Expected onboarding tag anamnese-step-2, got %v", recorder.tags)
	}
	if user.AnamneseLevel != 2 {
		t.Errorf("Expected in-memory level 2, got %d", user.AnamneseLevel)
	}
}

func TestAdvanceStepFourUnlocksNutritionAndMetrics(t *testing.T) {
	progress := &stubProgressStore{progress: baseProgress()}
	service := NewProgressService(&stubLevelStore{}, progress, &stubRecorder{}, &stubDispatcher{}, zap.NewNop())
	user := &models.User{ID: 7, AnamneseLevel: 3}

	if err := service.Advance(context.Background(), user, 4); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if progress.lastUpdate.UnlockedFeatures == nil {
		t.Fatal("Expected feature unlock update")
	}
	features := *progress.lastUpdate.UnlockedFeatures
	want := map[string]bool{"nutrition": false, "metrics": false}
	for _, f := range features {
		if _, ok := want[f]; ok {
			want[f] = true
		}
	}
	for tag, seen := range want {
		if !seen {
			t.Errorf("Expected feature %q to be unlocked, got %v", tag, features)
		}
	}
}

func TestAdvanceStepFiveCompletesProfile(t *testing.T) {
	levels := &stubLevelStore{}
	progress := &stubProgressStore{progress: baseProgress()}
	dispatcher := &stubDispatcher{}
	service := NewProgressService(levels, progress, &stubRecorder{}, dispatcher, zap.NewNop())
	user := &models.User{ID: 7, AnamneseLevel: 4}

	if err := service.Advance(context.Background(), user, 5); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if levels.completeCalls != 1 {
		t.Errorf("Expected MarkComplete once, got %d", levels.completeCalls)
	}
	if progress.lastUpdate.UnlockedFeatures == nil {
		t.Fatal("Expected feature unlock update")
	}
	unlocked := make(map[string]bool)
	for _, f := range *progress.lastUpdate.UnlockedFeatures {
		unlocked[f] = true
	}
	for _, tag := range []string{"dashboard", "anamnese", "workouts", "sleep", "wellbeing", "dailyPlans", "statistics", "ai-chat"} {
		if !unlocked[tag] {
			t.Errorf("Expected feature %q unlocked after the final step, got %v", tag, *progress.lastUpdate.UnlockedFeatures)
		}
	}
	if progress.lastUpdate.Achievements == nil || len(*progress.lastUpdate.Achievements) != 1 {
		t.Fatalf("Expected completion achievement, got %+v", progress.lastUpdate.Achievements)
	}
	if (*progress.lastUpdate.Achievements)[0].ID != "anamnese-complete" {
		t.Errorf("Expected anamnese-complete achievement, got %q", (*progress.lastUpdate.Achievements)[0].ID)
	}
	if progress.lastUpdate.Level == nil || *progress.lastUpdate.Level != 2 {
		t.Errorf("Expected progression level 2, got %v", progress.lastUpdate.Level)
	}
	if !user.IsComplete {
		t.Errorf("Expected in-memory completion flag")
	}
	if len(dispatcher.dispatched) != 1 || dispatcher.dispatched[0] != 7 {
		t.Errorf("Expected one first-plan dispatch for user 7, got %v", dispatcher.dispatched)
	}
}

func TestAdvanceStepFiveDoesNotDispatchTwice(t *testing.T) {
	dispatcher := &stubDispatcher{}
	service := NewProgressService(&stubLevelStore{}, &stubProgressStore{progress: baseProgress()}, &stubRecorder{}, dispatcher, zap.NewNop())
	user := &models.User{ID: 7, AnamneseLevel: 4, IsComplete: true}

	if err := service.Advance(context.Background(), user, 5); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(dispatcher.dispatched) != 0 {
		t.Errorf("Expected no dispatch for already-complete user, got %v", dispatcher.dispatched)
	}
}

func TestAdvanceLowerStepIsNoOp(t *testing.T) {
	levels := &stubLevelStore{}
	recorder := &stubRecorder{}
	service := NewProgressService(levels, &stubProgressStore{progress: baseProgress()}, recorder, &stubDispatcher{}, zap.NewNop())
	user := &models.User{ID: 7, AnamneseLevel: 3}

	if err := service.Advance(context.Background(), user, 2); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if levels.updateCalls != 0 || len(recorder.tags) != 0 {
		t.Errorf("Expected no writes when step is behind level")
	}
}

func TestAdvanceSkipsAlreadyUnlockedFeatures(t *testing.T) {
	state := baseProgress()
	state.UnlockedFeatures = append(state.UnlockedFeatures, "nutrition", "metrics")
	progress := &stubProgressStore{progress: state}
	service := NewProgressService(&stubLevelStore{}, progress, &stubRecorder{}, &stubDispatcher{}, zap.NewNop())
	user := &models.User{ID: 7, AnamneseLevel: 3}

	if err := service.Advance(context.Background(), user, 4); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if progress.updates != 0 {
		t.Errorf("Expected no update when features already unlocked, got %d", progress.updates)
	}
}
