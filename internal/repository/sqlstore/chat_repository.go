package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/oklog/ulid/v2"
	"github.com/vytor/arenalobby/internal/db"
	"github.com/vytor/arenalobby/internal/logger"
	"github.com/vytor/arenalobby/internal/models"
	"github.com/vytor/arenalobby/internal/realtime"
	"github.com/vytor/arenalobby/internal/repository"
)

type chatRepository struct {
	store *db.DB
	pub   realtime.Publisher
}

// NewChatRepository creates a new ChatRepository implementation
func NewChatRepository(store *db.DB, pub realtime.Publisher) repository.ChatRepository {
	return &chatRepository{store: store, pub: pub}
}

func scanMessage(row rowScanner) (*models.ChatMessage, error) {
	var (
		m      models.ChatMessage
		p      models.Profile
		avatar sql.NullString
	)
	err := row.Scan(&m.ID, &m.UserID, &m.Message, &m.CreatedAt,
		&p.ID, &p.Username, &p.Level, &p.XP, &p.Rank, &p.Score, &p.Wins, &p.Losses, &avatar, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.CreatedAt = m.CreatedAt.UTC()
	p.Avatar = stringPtr(avatar)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	m.Profile = &p
	return &m, nil
}

func (r *chatRepository) selectWithProfile() squirrel.SelectBuilder {
	return r.store.Builder.Select(
		"c.id", "c.user_id", "c.message", "c.created_at",
		"p.id", "p.username", "p.level", "p.xp", "p.rank", "p.score", "p.wins", "p.losses", "p.avatar",
		"p.created_at", "p.updated_at",
	).
		From("chat_messages c").
		Join("profiles p ON p.id = c.user_id")
}

func (r *chatRepository) Recent(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	log := logger.FromContext(ctx).WithPrefix("chat_repo")
	log.Debug("listing %d most recent messages", limit)

	query, args, err := r.selectWithProfile().
		OrderBy("c.created_at DESC", "c.id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.store.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list messages: %v", err)
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.ChatMessage, 0, limit)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			log.Error("failed to scan message row: %v", err)
			return nil, err
		}
		messages = append(messages, *m)
	}

	log.Debug("found %d messages", len(messages))
	return messages, rows.Err()
}

func (r *chatRepository) Create(ctx context.Context, msg models.ChatMessage) (*models.ChatMessage, error) {
	log := logger.FromContext(ctx).WithPrefix("chat_repo")

	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now()
	}
	log.Debug("creating message: id=%s user=%s", msg.ID, msg.UserID)

	var created *models.ChatMessage
	err := r.store.Tx(ctx, func(tx *sql.Tx) error {
		query, args, err := r.store.Builder.Insert("chat_messages").
			Columns("id", "user_id", "message", "created_at").
			Values(msg.ID, msg.UserID, msg.Message, msg.CreatedAt.UTC()).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isCheckViolation(err) {
				return fmt.Errorf("chat message: %w", repository.ErrInvalid)
			}
			return err
		}

		query, args, err = r.selectWithProfile().Where(squirrel.Eq{"c.id": msg.ID}).ToSql()
		if err != nil {
			return err
		}
		created, err = scanMessage(tx.QueryRowContext(ctx, query, args...))
		if errors.Is(err, sql.ErrNoRows) {
			// the author has no profile row
			return fmt.Errorf("profile %s: %w", msg.UserID, repository.ErrNotFound)
		}
		return err
	})
	if err != nil {
		log.Error("failed to create message: %v", err)
		return nil, err
	}

	r.pub.Publish(ctx, realtime.Change{Table: realtime.TableChatMessages, Event: realtime.Insert, RecordID: created.ID})
	log.Debug("message created: id=%s", created.ID)
	return created, nil
}
