package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/arenalobby/internal/db"
)

func openMemory(t *testing.T) *db.DB {
	t.Helper()
	store, err := db.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := db.Open("mysql", "whatever")
	assert.Error(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()

	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx))

	var applied int
	require.NoError(t, store.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&applied))
	assert.Equal(t, 1, applied)

	for _, table := range []string{"users", "profiles", "matches", "match_participants", "chat_messages", "tournaments"} {
		var name string
		err := store.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		assert.NoError(t, err, "table %s should exist", table)
	}
}

func TestTx_RollsBackOnError(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))

	boom := errors.New("boom")
	err := store.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO users (id, email, password_hash, created_at) VALUES ('u1', 'a@b.com', 'x', CURRENT_TIMESTAMP)`); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, store.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n))
	assert.Zero(t, n)
}

func TestSchema_RejectsOverfullMatch(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))

	_, err := store.ExecContext(ctx, `INSERT INTO profiles (id, username, created_at, updated_at) VALUES ('p1', 'host', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	_, err = store.ExecContext(ctx, `
INSERT INTO matches (id, name, host_id, mode, difficulty, duration, max_players, current_players, created_at)
VALUES ('m1', 'x', 'p1', 'Competitive', 'Normal', '10 Minutes', 2, 3, CURRENT_TIMESTAMP)`)
	assert.Error(t, err)
}
