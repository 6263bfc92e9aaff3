package services

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/vytor/arenalobby/internal/errors"
	"github.com/vytor/arenalobby/internal/logger"
	"github.com/vytor/arenalobby/internal/models"
	"github.com/vytor/arenalobby/internal/repository"
)

// NewTournament describes a tournament opened by an operator.
type NewTournament struct {
	Name            string
	PrizePool       string
	MaxParticipants int
	EndDate         *time.Time
}

// TournamentService handles the tournament lifecycle
type TournamentService interface {
	// OpenTournament returns the current open tournament, or nil when none is open.
	OpenTournament(ctx context.Context) (*models.Tournament, error)
	StartTournament(ctx context.Context, t NewTournament) (*models.Tournament, error)
	CloseTournament(ctx context.Context, id string) error
}

type tournamentService struct {
	tournamentRepo repository.TournamentRepository
	now            func() time.Time
}

// NewTournamentService creates a new TournamentService
func NewTournamentService(tournamentRepo repository.TournamentRepository) TournamentService {
	return &tournamentService{tournamentRepo: tournamentRepo, now: time.Now}
}

func (s *tournamentService) OpenTournament(ctx context.Context) (*models.Tournament, error) {
	log := logger.FromContext(ctx)
	log.Debug("loading open tournament")

	t, err := s.tournamentRepo.Open(ctx)
	if err != nil {
		log.Error("failed to load tournament: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return t, nil
}

// StartTournament creates a tournament that is open from now on.
func (s *tournamentService) StartTournament(ctx context.Context, nt NewTournament) (*models.Tournament, error) {
	log := logger.FromContext(ctx)

	name := strings.TrimSpace(nt.Name)
	if name == "" {
		return nil, errors.NewValidationError("name", "cannot be empty")
	}
	if nt.MaxParticipants < 0 {
		return nil, errors.NewValidationError("max_participants", "cannot be negative")
	}
	start := s.now().UTC()
	if nt.EndDate != nil && !nt.EndDate.After(start) {
		return nil, errors.NewValidationError("end_date", "must be in the future")
	}
	log.Debug("opening tournament: name=%q", name)

	t, err := s.tournamentRepo.Create(ctx, models.Tournament{
		Name:            name,
		PrizePool:       nt.PrizePool,
		MaxParticipants: nt.MaxParticipants,
		Status:          models.TournamentOpen,
		StartDate:       &start,
		EndDate:         nt.EndDate,
	})
	if err != nil {
		log.Error("failed to open tournament: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return t, nil
}

func (s *tournamentService) CloseTournament(ctx context.Context, id string) error {
	log := logger.FromContext(ctx)
	log.Debug("closing tournament: id=%s", id)

	if err := s.tournamentRepo.UpdateStatus(ctx, id, models.TournamentClosed); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NewNotFoundError("tournament", id)
		}
		log.Error("failed to close tournament: %v", err)
		return errors.NewInternalError(err)
	}
	return nil
}
