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

var matchWithHostColumns = []string{
	"m.id", "m.name", "m.host_id", "m.mode", "m.status", "m.difficulty", "m.duration", "m.stadium",
	"m.prize", "m.max_players", "m.current_players", "m.score", "m.minute", "m.created_at",
	"m.started_at", "m.completed_at",
	"p.id", "p.username", "p.level", "p.xp", "p.rank", "p.score", "p.wins", "p.losses", "p.avatar",
	"p.created_at", "p.updated_at",
}

type matchRepository struct {
	store *db.DB
	pub   realtime.Publisher
}

// NewMatchRepository creates a new MatchRepository implementation
func NewMatchRepository(store *db.DB, pub realtime.Publisher) repository.MatchRepository {
	return &matchRepository{store: store, pub: pub}
}

func scanMatchWithHost(row rowScanner) (*models.Match, error) {
	var (
		m                                    models.Match
		host                                 models.Profile
		stadium, prize, score, minute, avatar sql.NullString
		startedAt, completedAt               sql.NullTime
	)
	err := row.Scan(
		&m.ID, &m.Name, &m.HostID, &m.Mode, &m.Status, &m.Difficulty, &m.Duration, &stadium,
		&prize, &m.MaxPlayers, &m.CurrentPlayers, &score, &minute, &m.CreatedAt,
		&startedAt, &completedAt,
		&host.ID, &host.Username, &host.Level, &host.XP, &host.Rank, &host.Score, &host.Wins, &host.Losses, &avatar,
		&host.CreatedAt, &host.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Stadium = stringPtr(stadium)
	m.Prize = stringPtr(prize)
	m.Score = stringPtr(score)
	m.Minute = stringPtr(minute)
	m.CreatedAt = m.CreatedAt.UTC()
	m.StartedAt = timePtr(startedAt)
	m.CompletedAt = timePtr(completedAt)
	host.Avatar = stringPtr(avatar)
	host.CreatedAt = host.CreatedAt.UTC()
	host.UpdatedAt = host.UpdatedAt.UTC()
	m.Host = &host
	return &m, nil
}

func (r *matchRepository) selectWithHost() squirrel.SelectBuilder {
	return r.store.Builder.Select(matchWithHostColumns...).
		From("matches m").
		Join("profiles p ON p.id = m.host_id")
}

func (r *matchRepository) get(ctx context.Context, q runner, id string) (*models.Match, error) {
	query, args, err := r.selectWithHost().Where(squirrel.Eq{"m.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	m, err := scanMatchWithHost(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return m, err
}

func (r *matchRepository) Get(ctx context.Context, id string) (*models.Match, error) {
	log := logger.FromContext(ctx).WithPrefix("match_repo")
	log.Debug("getting match: id=%s", id)

	m, err := r.get(ctx, r.store, id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Error("failed to get match: %v", err)
	}
	return m, err
}

func (r *matchRepository) Recent(ctx context.Context, limit int) ([]models.Match, error) {
	log := logger.FromContext(ctx).WithPrefix("match_repo")
	log.Debug("listing %d most recent matches", limit)

	query, args, err := r.selectWithHost().
		OrderBy("m.created_at DESC", "m.id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.store.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list matches: %v", err)
		return nil, err
	}
	defer rows.Close()

	matches := make([]models.Match, 0, limit)
	for rows.Next() {
		m, err := scanMatchWithHost(rows)
		if err != nil {
			log.Error("failed to scan match row: %v", err)
			return nil, err
		}
		matches = append(matches, *m)
	}

	log.Debug("found %d matches", len(matches))
	return matches, rows.Err()
}

// Create inserts the match and records its host as the first participant.
func (r *matchRepository) Create(ctx context.Context, match models.Match) (*models.Match, error) {
	log := logger.FromContext(ctx).WithPrefix("match_repo")

	if match.ID == "" {
		match.ID = uuid.NewString()
	}
	if match.CreatedAt.IsZero() {
		match.CreatedAt = now()
	}
	if match.Status == "" {
		match.Status = models.MatchWaiting
	}
	log.Debug("creating match: id=%s host=%s", match.ID, match.HostID)

	var created *models.Match
	err := r.store.Tx(ctx, func(tx *sql.Tx) error {
		query, args, err := r.store.Builder.Insert("matches").
			Columns("id", "name", "host_id", "mode", "status", "difficulty", "duration", "stadium", "prize",
				"max_players", "current_players", "created_at").
			Values(match.ID, match.Name, match.HostID, match.Mode, match.Status, match.Difficulty, match.Duration,
				match.Stadium, match.Prize, match.MaxPlayers, match.CurrentPlayers, match.CreatedAt.UTC()).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isCheckViolation(err) {
				return fmt.Errorf("match %s: %w", match.Name, repository.ErrInvalid)
			}
			return err
		}

		if match.CurrentPlayers > 0 {
			if err := r.insertParticipant(ctx, tx, match.ID, match.HostID); err != nil {
				return err
			}
		}

		created, err = r.get(ctx, tx, match.ID)
		return err
	})
	if err != nil {
		log.Error("failed to create match: %v", err)
		return nil, err
	}

	r.pub.Publish(ctx, realtime.Change{Table: realtime.TableMatches, Event: realtime.Insert, RecordID: created.ID})
	log.Info("match created: id=%s name=%q", created.ID, created.Name)
	return created, nil
}

// Join claims a slot with a conditional increment, so current_players never exceeds max_players
// however many joins race.
func (r *matchRepository) Join(ctx context.Context, matchID, userID string) (*models.Match, error) {
	log := logger.FromContext(ctx).WithPrefix("match_repo").WithFields(map[string]any{
		"match_id": matchID,
		"user_id":  userID,
	})
	log.Debug("joining match")

	var joined *models.Match
	err := r.store.Tx(ctx, func(tx *sql.Tx) error {
		exists, err := r.isParticipant(ctx, tx, matchID, userID)
		if err != nil {
			return err
		}
		if exists {
			return repository.ErrAlreadyJoined
		}

		ts := now()
		query, args, err := r.store.Builder.Update("matches").
			Set("current_players", squirrel.Expr("current_players + 1")).
			Set("status", squirrel.Expr("CASE WHEN current_players + 1 = max_players THEN ? ELSE status END", string(models.MatchLive))).
			Set("started_at", squirrel.Expr("CASE WHEN current_players + 1 = max_players THEN ? ELSE started_at END", ts)).
			Where(squirrel.Eq{"id": matchID}).
			Where("current_players < max_players").
			ToSql()
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			if _, err := r.get(ctx, tx, matchID); err != nil {
				return err
			}
			return repository.ErrMatchFull
		}

		if err := r.insertParticipant(ctx, tx, matchID, userID); err != nil {
			return err
		}

		joined, err = r.get(ctx, tx, matchID)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrMatchFull), errors.Is(err, repository.ErrAlreadyJoined), errors.Is(err, repository.ErrNotFound):
			log.Debug("join rejected: %v", err)
		default:
			log.Error("failed to join match: %v", err)
		}
		return nil, err
	}

	r.pub.Publish(ctx, realtime.Change{Table: realtime.TableMatchParticipants, Event: realtime.Insert, RecordID: matchID})
	r.pub.Publish(ctx, realtime.Change{Table: realtime.TableMatches, Event: realtime.Update, RecordID: matchID})
	log.Info("joined match: players=%d/%d status=%s", joined.CurrentPlayers, joined.MaxPlayers, joined.Status)
	return joined, nil
}

func (r *matchRepository) isParticipant(ctx context.Context, q runner, matchID, userID string) (bool, error) {
	query, args, err := r.store.Builder.Select("COUNT(*)").
		From("match_participants").
		Where(squirrel.Eq{"match_id": matchID, "user_id": userID}).
		ToSql()
	if err != nil {
		return false, err
	}
	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *matchRepository) insertParticipant(ctx context.Context, tx *sql.Tx, matchID, userID string) error {
	query, args, err := r.store.Builder.Insert("match_participants").
		Columns("match_id", "user_id", "joined_at").
		Values(matchID, userID, now()).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrAlreadyJoined
		}
		return err
	}
	return nil
}
