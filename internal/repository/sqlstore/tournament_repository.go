package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/vytor/arenalobby/internal/db"
	"github.com/vytor/arenalobby/internal/logger"
	"github.com/vytor/arenalobby/internal/models"
	"github.com/vytor/arenalobby/internal/realtime"
	"github.com/vytor/arenalobby/internal/repository"
)

var tournamentColumns = []string{
	"id", "name", "prize_pool", "max_participants", "current_participants", "status",
	"start_date", "end_date", "created_at",
}

type tournamentRepository struct {
	store *db.DB
	pub   realtime.Publisher
}

// NewTournamentRepository creates a new TournamentRepository implementation
func NewTournamentRepository(store *db.DB, pub realtime.Publisher) repository.TournamentRepository {
	return &tournamentRepository{store: store, pub: pub}
}

func scanTournament(row rowScanner) (*models.Tournament, error) {
	var (
		t          models.Tournament
		start, end sql.NullTime
	)
	if err := row.Scan(&t.ID, &t.Name, &t.PrizePool, &t.MaxParticipants, &t.CurrentParticipants, &t.Status,
		&start, &end, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.StartDate = timePtr(start)
	t.EndDate = timePtr(end)
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

// Open picks the most recently started open tournament.
func (r *tournamentRepository) Open(ctx context.Context) (*models.Tournament, error) {
	log := logger.FromContext(ctx).WithPrefix("tournament_repo")
	log.Debug("getting open tournament")

	query, args, err := r.store.Builder.Select(tournamentColumns...).
		From("tournaments").
		Where(squirrel.Eq{"status": models.TournamentOpen}).
		OrderBy("COALESCE(start_date, created_at) DESC", "created_at DESC", "id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	t, err := scanTournament(r.store.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("no open tournament")
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get open tournament: %v", err)
		return nil, err
	}
	return t, nil
}

func (r *tournamentRepository) Create(ctx context.Context, t models.Tournament) (*models.Tournament, error) {
	log := logger.FromContext(ctx).WithPrefix("tournament_repo")

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now()
	}
	if t.Status == "" {
		t.Status = models.TournamentUpcoming
	}
	log.Debug("creating tournament: id=%s name=%q", t.ID, t.Name)

	query, args, err := r.store.Builder.Insert("tournaments").
		Columns(tournamentColumns...).
		Values(t.ID, t.Name, t.PrizePool, t.MaxParticipants, t.CurrentParticipants, t.Status,
			utcPtr(t.StartDate), utcPtr(t.EndDate), t.CreatedAt.UTC()).
		ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := r.store.ExecContext(ctx, query, args...); err != nil {
		if isCheckViolation(err) {
			return nil, fmt.Errorf("tournament %q: %w", t.Name, repository.ErrInvalid)
		}
		log.Error("failed to create tournament: %v", err)
		return nil, err
	}

	r.pub.Publish(ctx, realtime.Change{Table: realtime.TableTournaments, Event: realtime.Insert, RecordID: t.ID})
	log.Info("tournament created: id=%s status=%s", t.ID, t.Status)
	return &t, nil
}

func (r *tournamentRepository) UpdateStatus(ctx context.Context, id string, status models.TournamentStatus) error {
	log := logger.FromContext(ctx).WithPrefix("tournament_repo")
	log.Debug("updating tournament status: id=%s status=%s", id, status)

	query, args, err := r.store.Builder.Update("tournaments").
		Set("status", status).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.store.ExecContext(ctx, query, args...)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("tournament status %q: %w", status, repository.ErrInvalid)
		}
		log.Error("failed to update tournament status: %v", err)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}

	r.pub.Publish(ctx, realtime.Change{Table: realtime.TableTournaments, Event: realtime.Update, RecordID: id})
	return nil
}
