package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/arenalobby/internal/db"
	"github.com/vytor/arenalobby/internal/logger"
	"github.com/vytor/arenalobby/internal/models"
	"github.com/vytor/arenalobby/internal/repository"
)

type userRepository struct {
	store *db.DB
}

// NewUserRepository creates a new UserRepository implementation
func NewUserRepository(store *db.DB) repository.UserRepository {
	return &userRepository{store: store}
}

func (r *userRepository) Create(ctx context.Context, identity models.Identity) error {
	log := logger.FromContext(ctx).WithPrefix("user_repo")
	log.Debug("creating identity: id=%s", identity.ID)

	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = now()
	}
	query, args, err := r.store.Builder.Insert("users").
		Columns("id", "email", "password_hash", "created_at").
		Values(identity.ID, identity.Email, identity.PasswordHash, identity.CreatedAt.UTC()).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.store.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateEmail
		}
		log.Error("failed to create identity: %v", err)
		return err
	}
	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.Identity, error) {
	return r.getBy(ctx, "email", email)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.Identity, error) {
	return r.getBy(ctx, "id", id)
}

func (r *userRepository) getBy(ctx context.Context, column, value string) (*models.Identity, error) {
	log := logger.FromContext(ctx).WithPrefix("user_repo")

	query, args, err := r.store.Builder.Select("id", "email", "password_hash", "created_at").
		From("users").
		Where(squirrel.Eq{column: value}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var u models.Identity
	err = r.store.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("identity not found by %s", column)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get identity by %s: %v", column, err)
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}
