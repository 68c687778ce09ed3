package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vhsilvat/MetaMorfose/internal/llm"
	"github.com/vhsilvat/MetaMorfose/internal/models"
	"github.com/vhsilvat/MetaMorfose/internal/repository"
)

const (
	chatRequestTimeout = 45 * time.Second
	chatMaxTokens      = 1024
	chatHistoryLimit   = 50
)

type chatStore interface {
	Create(ctx context.Context, input repository.CreateChatMessageInput) (*models.ChatMessage, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.ChatMessage, error)
}

type featureChecker interface {
	GetByUserID(ctx context.Context, userID int64) (*models.UserProgress, error)
}

// ChatService answers coaching questions with the model, grounded in the
// user's intake profile. The feature unlocks at the end of the intake.
type ChatService struct {
	chatRepo     chatStore
	progressRepo featureChecker
	userRepo     planUserLookup
	intakeRepo   intakeReader
	generator    llm.TextGenerator
	modelID      string
	log          *zap.Logger
}

func NewChatService(
	chatRepo chatStore,
	progressRepo featureChecker,
	userRepo planUserLookup,
	intakeRepo intakeReader,
	generator llm.TextGenerator,
	modelID string,
	log *zap.Logger,
) *ChatService {
	return &ChatService{
		chatRepo:     chatRepo,
		progressRepo: progressRepo,
		userRepo:     userRepo,
		intakeRepo:   intakeRepo,
		generator:    generator,
		modelID:      modelID,
		log:          log,
	}
}

// Ask sends the user's question to the model and persists the exchange.
// Returns ErrFeatureLocked until the intake is complete.
func (s *ChatService) Ask(ctx context.Context, userID int64, prompt string) (*models.ChatMessage, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, validationErr("prompt", "must not be empty")
	}
	if len(prompt) > 4000 {
		return nil, validationErr("prompt", "must be at most 4000 characters")
	}

	progress, err := s.progressRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	if !progress.HasFeature("ai-chat") {
		return nil, ErrFeatureLocked
	}

	system, err := s.buildSystemPrompt(ctx, userID)
	if err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, chatRequestTimeout)
	defer cancel()

	response, err := s.generator.GenerateText(reqCtx, prompt, llm.GenerateOptions{
		SystemInstruction: system,
		Temperature:       0.7,
		MaxOutputTokens:   chatMaxTokens,
	})
	if err != nil {
		s.log.Error("chat generation failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return s.chatRepo.Create(ctx, repository.CreateChatMessageInput{
		UserID:   userID,
		Prompt:   prompt,
		Response: response,
		ModelID:  &s.modelID,
	})
}

func (s *ChatService) History(ctx context.Context, userID int64, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 || limit > chatHistoryLimit {
		limit = chatHistoryLimit
	}
	return s.chatRepo.ListByUser(ctx, userID, limit)
}

func (s *ChatService) buildSystemPrompt(ctx context.Context, userID int64) (string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	records, err := s.intakeRepo.ListByUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load intake records: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a personal fitness and wellbeing coach. Answer briefly, ")
	b.WriteString("practically and in the client's context. Never give medical diagnoses; ")
	b.WriteString("refer the client to a doctor for health concerns.\n\nClient profile:\n")
	b.WriteString(buildProfileDocument(user, records))
	return b.String(), nil
}
