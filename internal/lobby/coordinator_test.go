package lobby_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vytor/arenalobby/internal/lobby"
	"github.com/vytor/arenalobby/internal/realtime"
)

type recordingReloader struct {
	mu    sync.Mutex
	views []lobby.View
}

func (r *recordingReloader) Reload(_ context.Context, v lobby.View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v)
}

func (r *recordingReloader) count(v lobby.View) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, got := range r.views {
		if got == v {
			n++
		}
	}
	return n
}

func (r *recordingReloader) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

func startCoordinator(t *testing.T, signedIn bool) (*realtime.Broker, *recordingReloader, *lobby.Coordinator) {
	t.Helper()
	broker := realtime.NewBroker()
	reloader := &recordingReloader{}
	coord := lobby.NewCoordinator(broker, reloader, signedIn)
	require.NoError(t, coord.Start(context.Background()))
	t.Cleanup(func() {
		coord.Stop()
		broker.Close()
	})
	return broker, reloader, coord
}

func TestCoordinator_OpensOneChannelPerTable(t *testing.T) {
	broker, _, coord := startCoordinator(t, true)

	names := make([]string, 0, 3)
	for _, ch := range coord.Channels() {
		assert.Equal(t, realtime.Active, ch.State())
		names = append(names, ch.Name())
	}
	assert.ElementsMatch(t, []string{"matches:*", "chat_messages:INSERT", "profiles:UPDATE"}, names)
	assert.Equal(t, 3, broker.Channels())

	require.NoError(t, coord.Start(context.Background()))
	assert.Equal(t, 3, broker.Channels(), "second start is a no-op")
}

func TestCoordinator_ChatInsertReloadsMessagesOnly(t *testing.T) {
	broker, reloader, _ := startCoordinator(t, true)
	ctx := context.Background()

	broker.Publish(ctx, realtime.Change{Table: realtime.TableChatMessages, Event: realtime.Insert, RecordID: "c1"})

	assert.Eventually(t, func() bool { return reloader.count(lobby.ViewMessages) == 1 }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return reloader.total() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestCoordinator_Routing(t *testing.T) {
	broker, reloader, _ := startCoordinator(t, true)
	ctx := context.Background()

	broker.Publish(ctx, realtime.Change{Table: realtime.TableMatches, Event: realtime.Delete, RecordID: "m1"})
	assert.Eventually(t, func() bool { return reloader.count(lobby.ViewMatches) == 1 }, time.Second, 5*time.Millisecond)

	broker.Publish(ctx, realtime.Change{Table: realtime.TableProfiles, Event: realtime.Update, RecordID: "u1"})
	assert.Eventually(t, func() bool {
		return reloader.count(lobby.ViewLeaderboard) == 1 && reloader.count(lobby.ViewProfile) == 1
	}, time.Second, 5*time.Millisecond)

	// Events outside the filters are ignored.
	broker.Publish(ctx, realtime.Change{Table: realtime.TableChatMessages, Event: realtime.Delete, RecordID: "c1"})
	broker.Publish(ctx, realtime.Change{Table: realtime.TableProfiles, Event: realtime.Insert, RecordID: "u2"})
	broker.Publish(ctx, realtime.Change{Table: realtime.TableTournaments, Event: realtime.Update, RecordID: "t1"})
	assert.Never(t, func() bool { return reloader.total() > 3 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestCoordinator_SignedOutSkipsProfile(t *testing.T) {
	broker, reloader, _ := startCoordinator(t, false)

	broker.Publish(context.Background(), realtime.Change{Table: realtime.TableProfiles, Event: realtime.Update, RecordID: "u1"})

	assert.Eventually(t, func() bool { return reloader.count(lobby.ViewLeaderboard) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, reloader.count(lobby.ViewProfile))
}

func TestCoordinator_StopUnsubscribes(t *testing.T) {
	broker, reloader, coord := startCoordinator(t, true)
	channels := coord.Channels()

	coord.Stop()
	coord.Stop()

	for _, ch := range channels {
		assert.Equal(t, realtime.Unsubscribed, ch.State())
	}
	assert.Empty(t, coord.Channels())
	assert.Equal(t, 0, broker.Channels())

	broker.Publish(context.Background(), realtime.Change{Table: realtime.TableMatches, Event: realtime.Insert, RecordID: "m2"})
	assert.Never(t, func() bool { return reloader.total() > 0 }, 30*time.Millisecond, 5*time.Millisecond)
}

func TestCoordinator_StartFailureLeavesNothingOpen(t *testing.T) {
	broker := realtime.NewBroker()
	broker.Close()

	coord := lobby.NewCoordinator(broker, &recordingReloader{}, true)
	err := coord.Start(context.Background())
	assert.ErrorIs(t, err, realtime.ErrBrokerClosed)
	assert.Empty(t, coord.Channels())
}
