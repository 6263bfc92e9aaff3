package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/arenalobby/internal/db"
	"github.com/vytor/arenalobby/internal/logger"
	"github.com/vytor/arenalobby/internal/models"
	"github.com/vytor/arenalobby/internal/realtime"
	"github.com/vytor/arenalobby/internal/repository"
)

var profileColumns = []string{
	"id", "username", "level", "xp", "rank", "score", "wins", "losses", "avatar", "created_at", "updated_at",
}

type profileRepository struct {
	store *db.DB
	pub   realtime.Publisher
}

// NewProfileRepository creates a new ProfileRepository implementation
func NewProfileRepository(store *db.DB, pub realtime.Publisher) repository.ProfileRepository {
	return &profileRepository{store: store, pub: pub}
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	var (
		p      models.Profile
		avatar sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Username, &p.Level, &p.XP, &p.Rank, &p.Score, &p.Wins, &p.Losses, &avatar, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Avatar = stringPtr(avatar)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func (r *profileRepository) get(ctx context.Context, q runner, id string) (*models.Profile, error) {
	query, args, err := r.store.Builder.Select(profileColumns...).
		From("profiles").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanProfile(q.QueryRowContext(ctx, query, args...))
}

func (r *profileRepository) Get(ctx context.Context, id string) (*models.Profile, error) {
	log := logger.FromContext(ctx).WithPrefix("profile_repo")
	log.Debug("getting profile: id=%s", id)

	p, err := r.get(ctx, r.store, id)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("profile not found: id=%s", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get profile: %v", err)
		return nil, err
	}
	return p, nil
}

func (r *profileRepository) Create(ctx context.Context, profile models.Profile) (*models.Profile, error) {
	log := logger.FromContext(ctx).WithPrefix("profile_repo")
	log.Debug("creating profile: id=%s username=%s", profile.ID, profile.Username)

	ts := now()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = ts
	}
	profile.UpdatedAt = profile.CreatedAt
	if profile.Level == 0 {
		profile.Level = models.LevelForXP(profile.XP)
	}

	var created *models.Profile
	err := r.store.Tx(ctx, func(tx *sql.Tx) error {
		query, args, err := r.store.Builder.Insert("profiles").
			Columns(profileColumns...).
			Values(profile.ID, profile.Username, profile.Level, profile.XP, 0, profile.Score,
				profile.Wins, profile.Losses, profile.Avatar, profile.CreatedAt.UTC(), profile.UpdatedAt.UTC()).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("profile %s: %w", profile.ID, repository.ErrInvalid)
			}
			return err
		}
		if err := r.recomputeRanks(ctx, tx); err != nil {
			return err
		}
		created, err = r.get(ctx, tx, profile.ID)
		return err
	})
	if err != nil {
		log.Error("failed to create profile: %v", err)
		return nil, err
	}

	r.pub.Publish(ctx, realtime.Change{Table: realtime.TableProfiles, Event: realtime.Insert, RecordID: created.ID})
	log.Debug("profile created: id=%s rank=%d", created.ID, created.Rank)
	return created, nil
}

func (r *profileRepository) TopByScore(ctx context.Context, limit int) ([]models.Profile, error) {
	log := logger.FromContext(ctx).WithPrefix("profile_repo")
	log.Debug("listing top %d profiles by score", limit)

	query, args, err := r.store.Builder.Select(profileColumns...).
		From("profiles").
		OrderBy("score DESC", "created_at ASC", "id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.store.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list profiles: %v", err)
		return nil, err
	}
	defer rows.Close()

	profiles := make([]models.Profile, 0, limit)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			log.Error("failed to scan profile row: %v", err)
			return nil, err
		}
		profiles = append(profiles, *p)
	}

	log.Debug("found %d profiles", len(profiles))
	return profiles, rows.Err()
}

// Award adds points to a profile and recomputes every rank in the same transaction.
func (r *profileRepository) Award(ctx context.Context, award models.Award) (*models.Profile, error) {
	log := logger.FromContext(ctx).WithPrefix("profile_repo").WithField("profile_id", award.ProfileID)
	log.Debug("awarding %d points (outcome=%q)", award.Points, award.Outcome)

	var wins, losses int
	switch award.Outcome {
	case models.OutcomeWin:
		wins = 1
	case models.OutcomeLoss:
		losses = 1
	}

	var updated *models.Profile
	err := r.store.Tx(ctx, func(tx *sql.Tx) error {
		query, args, err := r.store.Builder.Update("profiles").
			Set("score", squirrel.Expr("score + ?", award.Points)).
			Set("xp", squirrel.Expr("xp + ?", award.Points)).
			Set("level", squirrel.Expr("CASE WHEN xp + ? < 0 THEN 1 ELSE 1 + (xp + ?) / ? END", award.Points, award.Points, models.XPPerLevel)).
			Set("wins", squirrel.Expr("wins + ?", wins)).
			Set("losses", squirrel.Expr("losses + ?", losses)).
			Set("updated_at", now()).
			Where(squirrel.Eq{"id": award.ProfileID}).
			ToSql()
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return repository.ErrNotFound
		}
		if err := r.recomputeRanks(ctx, tx); err != nil {
			return err
		}
		updated, err = r.get(ctx, tx, award.ProfileID)
		return err
	})
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Error("failed to award points: %v", err)
		}
		return nil, err
	}

	r.pub.Publish(ctx, realtime.Change{Table: realtime.TableProfiles, Event: realtime.Update, RecordID: updated.ID})
	log.Info("points awarded: score=%d level=%d rank=%d", updated.Score, updated.Level, updated.Rank)
	return updated, nil
}

func (r *profileRepository) recomputeRanks(ctx context.Context, tx *sql.Tx) error {
	query, args, err := r.store.Builder.Update("profiles").
		Set("rank", squirrel.Expr("(SELECT COUNT(*) + 1 FROM profiles p2 WHERE p2.score > profiles.score)")).
		ToSql()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}
