package services

import (
	"context"
	stderrors "errors"
	"slices"

	"github.com/vytor/arenalobby/internal/errors"
	"github.com/vytor/arenalobby/internal/logger"
	"github.com/vytor/arenalobby/internal/models"
	"github.com/vytor/arenalobby/internal/repository"
)

// MatchService handles match-related business logic
type MatchService interface {
	RecentMatches(ctx context.Context, limit int) ([]models.Match, error)
	CreateMatch(ctx context.Context, hostID string, settings models.MatchSettings) (*models.Match, error)
	JoinMatch(ctx context.Context, matchID, userID string) (*models.Match, error)
}

type matchService struct {
	matchRepo repository.MatchRepository
}

// NewMatchService creates a new MatchService
func NewMatchService(matchRepo repository.MatchRepository) MatchService {
	return &matchService{matchRepo: matchRepo}
}

func (s *matchService) RecentMatches(ctx context.Context, limit int) ([]models.Match, error) {
	log := logger.FromContext(ctx)
	log.Debug("loading recent matches: limit=%d", limit)

	matches, err := s.matchRepo.Recent(ctx, limit)
	if err != nil {
		log.Error("failed to load matches: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return matches, nil
}

// CreateMatch opens a waiting match hosted by hostID, who takes the first slot.
func (s *matchService) CreateMatch(ctx context.Context, hostID string, settings models.MatchSettings) (*models.Match, error) {
	log := logger.FromContext(ctx)
	settings = settings.WithDefaults()
	log.Debug("creating match: host=%s name=%q mode=%s", hostID, settings.Name, settings.Mode)

	if hostID == "" {
		return nil, errors.NewValidationError("host_id", "cannot be empty")
	}
	if !slices.Contains(models.MatchModes, settings.Mode) {
		return nil, errors.NewValidationError("mode", "must be one of Competitive, Friendly, Tournament")
	}

	stadium := settings.Stadium
	prize := models.DefaultPrize
	match, err := s.matchRepo.Create(ctx, models.Match{
		Name:           settings.Name,
		HostID:         hostID,
		Mode:           settings.Mode,
		Status:         models.MatchWaiting,
		Difficulty:     settings.Difficulty,
		Duration:       settings.Duration,
		Stadium:        &stadium,
		Prize:          &prize,
		MaxPlayers:     models.DefaultMaxPlayers,
		CurrentPlayers: 1,
	})
	if err != nil {
		if stderrors.Is(err, repository.ErrInvalid) {
			return nil, errors.NewValidationError("match", err.Error())
		}
		log.Error("failed to create match: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return match, nil
}

func (s *matchService) JoinMatch(ctx context.Context, matchID, userID string) (*models.Match, error) {
	log := logger.FromContext(ctx)
	log.Debug("joining match: match_id=%s user_id=%s", matchID, userID)

	match, err := s.matchRepo.Join(ctx, matchID, userID)
	switch {
	case err == nil:
		return match, nil
	case stderrors.Is(err, repository.ErrMatchFull):
		return nil, errors.NewMatchFullError(matchID)
	case stderrors.Is(err, repository.ErrAlreadyJoined):
		return nil, errors.NewConflictError("already joined this match", err)
	case stderrors.Is(err, repository.ErrNotFound):
		return nil, errors.NewNotFoundError("match", matchID)
	default:
		log.Error("failed to join match: %v", err)
		return nil, errors.NewInternalError(err)
	}
}
