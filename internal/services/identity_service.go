package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vhsilvat/MetaMorfose/internal/models"
	"github.com/vhsilvat/MetaMorfose/internal/repository"
)

type userStore interface {
	Create(ctx context.Context, input repository.CreateUserInput) (*models.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	UpdatePartial(ctx context.Context, userID int64, input repository.UpdateUserInput) (*models.User, error)
	DeleteByExternalID(ctx context.Context, externalID string) error
	Touch(ctx context.Context, userID int64) error
}

type progressStore interface {
	CreateInitial(ctx context.Context, userID int64) (*models.UserProgress, error)
	GetByUserID(ctx context.Context, userID int64) (*models.UserProgress, error)
	Update(ctx context.Context, userID int64, input repository.UpdateProgressInput) (*models.UserProgress, error)
}

type onboardingStore interface {
	CreateInitial(ctx context.Context, userID int64, firstReminder models.Reminder) (*models.OnboardingState, error)
	GetByUserID(ctx context.Context, userID int64) (*models.OnboardingState, error)
	Update(ctx context.Context, userID int64, input repository.UpdateOnboardingInput) (*models.OnboardingState, error)
}

// IdentitySummary carries the fields the identity provider asserts about a
// signed-in user.
type IdentitySummary struct {
	ExternalID string
	Email      string
	FirstName  *string
	LastName   *string
	ImageURL   *string
}

// IdentityService maps external identities to internal users, creating the
// user with its progression and onboarding rows on first use.
type IdentityService struct {
	userRepo       userStore
	progressRepo   progressStore
	onboardingRepo onboardingStore
}

func NewIdentityService(userRepo userStore, progressRepo progressStore, onboardingRepo onboardingStore) *IdentityService {
	return &IdentityService{
		userRepo:       userRepo,
		progressRepo:   progressRepo,
		onboardingRepo: onboardingRepo,
	}
}

// EnsureUser resolves the identity to an internal user, creating it on
// first sign-in.
func (s *IdentityService) EnsureUser(ctx context.Context, identity IdentitySummary) (*models.User, error) {
	if identity.ExternalID == "" || identity.Email == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.userRepo.GetByExternalID(ctx, identity.ExternalID)
	if err == nil {
		_ = s.userRepo.Touch(ctx, user.ID)
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	return s.createUser(ctx, identity)
}

// SyncUser applies an identity-provider webhook event: create on first
// event, update profile fields afterwards.
func (s *IdentityService) SyncUser(ctx context.Context, identity IdentitySummary) (*models.User, error) {
	if identity.ExternalID == "" || identity.Email == "" {
		return nil, ErrInvalidInput
	}

	existing, err := s.userRepo.GetByExternalID(ctx, identity.ExternalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.createUser(ctx, identity)
		}
		return nil, err
	}

	return s.userRepo.UpdatePartial(ctx, existing.ID, repository.UpdateUserInput{
		Email:     &identity.Email,
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		ImageURL:  identity.ImageURL,
	})
}

func (s *IdentityService) RemoveUser(ctx context.Context, externalID string) error {
	if _, err := s.userRepo.GetByExternalID(ctx, externalID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return s.userRepo.DeleteByExternalID(ctx, externalID)
}

// GetProfile returns the user with its progression and onboarding state.
func (s *IdentityService) GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	profile := &models.UserProfile{User: *user}
	if progress, err := s.progressRepo.GetByUserID(ctx, userID); err == nil {
		profile.Progress = progress
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if onboarding, err := s.onboardingRepo.GetByUserID(ctx, userID); err == nil {
		profile.Onboarding = onboarding
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return profile, nil
}

func (s *IdentityService) createUser(ctx context.Context, identity IdentitySummary) (*models.User, error) {
	user, err := s.userRepo.Create(ctx, repository.CreateUserInput{
		ExternalID: identity.ExternalID,
		Email:      identity.Email,
		FirstName:  identity.FirstName,
		LastName:   identity.LastName,
		ImageURL:   identity.ImageURL,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.progressRepo.CreateInitial(ctx, user.ID); err != nil {
		return nil, err
	}
	firstReminder := models.Reminder{Type: "anamnese", Date: time.Now().UTC(), Sent: false}
	if _, err := s.onboardingRepo.CreateInitial(ctx, user.ID, firstReminder); err != nil {
		return nil, err
	}
	return user, nil
}
