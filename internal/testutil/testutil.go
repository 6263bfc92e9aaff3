package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vytor/arenalobby/internal/db"
	"github.com/vytor/arenalobby/internal/realtime"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
func NewTestDB(t *testing.T) *db.DB {
	store, err := db.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()), "failed to apply migrations")
	return store
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

// RecordingPublisher keeps every published change.
type RecordingPublisher struct {
	mu      sync.Mutex
	changes []realtime.Change
}

func (p *RecordingPublisher) Publish(_ context.Context, c realtime.Change) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
}

func (p *RecordingPublisher) Changes() []realtime.Change {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]realtime.Change(nil), p.changes...)
}

func (p *RecordingPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = nil
}
