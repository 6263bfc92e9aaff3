package services

import (
	"context"
	stderrors "errors"

	"github.com/vytor/arenalobby/internal/errors"
	"github.com/vytor/arenalobby/internal/logger"
	"github.com/vytor/arenalobby/internal/models"
	"github.com/vytor/arenalobby/internal/repository"
)

// ProfileService handles profile-related business logic
type ProfileService interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	CreateProfile(ctx context.Context, profile models.Profile) (*models.Profile, error)
	Leaderboard(ctx context.Context, limit int) ([]models.Profile, error)
	AwardPoints(ctx context.Context, award models.Award) (*models.Profile, error)
}

type profileService struct {
	profileRepo repository.ProfileRepository
}

// NewProfileService creates a new ProfileService
func NewProfileService(profileRepo repository.ProfileRepository) ProfileService {
	return &profileService{profileRepo: profileRepo}
}

func (s *profileService) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting profile: id=%s", id)

	profile, err := s.profileRepo.Get(ctx, id)
	if err != nil {
		log.Error("failed to get profile: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if profile == nil {
		return nil, errors.NewNotFoundError("profile", id)
	}
	return profile, nil
}

func (s *profileService) CreateProfile(ctx context.Context, profile models.Profile) (*models.Profile, error) {
	log := logger.FromContext(ctx)
	log.Debug("creating profile: id=%s username=%s", profile.ID, profile.Username)

	if profile.ID == "" {
		return nil, errors.NewValidationError("id", "cannot be empty")
	}
	if profile.Username == "" {
		return nil, errors.NewValidationError("username", "cannot be empty")
	}

	created, err := s.profileRepo.Create(ctx, profile)
	if err != nil {
		if stderrors.Is(err, repository.ErrInvalid) {
			return nil, errors.NewConflictError("profile already exists", err)
		}
		log.Error("failed to create profile: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return created, nil
}

func (s *profileService) Leaderboard(ctx context.Context, limit int) ([]models.Profile, error) {
	log := logger.FromContext(ctx)
	log.Debug("loading leaderboard: limit=%d", limit)

	profiles, err := s.profileRepo.TopByScore(ctx, limit)
	if err != nil {
		log.Error("failed to load leaderboard: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return profiles, nil
}

func (s *profileService) AwardPoints(ctx context.Context, award models.Award) (*models.Profile, error) {
	log := logger.FromContext(ctx)
	log.Debug("awarding points: profile_id=%s points=%d", award.ProfileID, award.Points)

	if award.Points <= 0 {
		return nil, errors.NewValidationError("points", "must be positive")
	}
	switch award.Outcome {
	case models.OutcomeNone, models.OutcomeWin, models.OutcomeLoss:
	default:
		return nil, errors.NewValidationError("outcome", "must be win or loss")
	}

	profile, err := s.profileRepo.Award(ctx, award)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NewNotFoundError("profile", award.ProfileID)
		}
		log.Error("failed to award points: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return profile, nil
}
