package realtime_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/arenalobby/internal/realtime"
)

type recorder struct {
	mu      sync.Mutex
	changes []realtime.Change
	got     chan struct{}
}

func newRecorder() *recorder {
	return &recorder{got: make(chan struct{}, 64)}
}

func (r *recorder) handle(_ context.Context, c realtime.Change) {
	r.mu.Lock()
	r.changes = append(r.changes, c)
	r.mu.Unlock()
	r.got <- struct{}{}
}

func (r *recorder) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.got:
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for change %d of %d", i+1, n)
		}
	}
}

func (r *recorder) none(t *testing.T, within time.Duration) {
	t.Helper()
	select {
	case <-r.got:
		t.Fatalf("expected no change within %v", within)
	case <-time.After(within):
	}
}

func (r *recorder) snapshot() []realtime.Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]realtime.Change(nil), r.changes...)
}

func TestChangeMatches(t *testing.T) {
	c := realtime.Change{Table: realtime.TableChatMessages, Event: realtime.Insert}

	assert.True(t, c.Matches(realtime.TableChatMessages, realtime.Insert))
	assert.True(t, c.Matches(realtime.TableChatMessages, realtime.All))
	assert.False(t, c.Matches(realtime.TableChatMessages, realtime.Update))
	assert.False(t, c.Matches(realtime.TableMatches, realtime.All))
}

func TestBroker_DeliversMatchingChangesOnly(t *testing.T) {
	b := realtime.NewBroker()
	defer b.Close()

	chat := newRecorder()
	matches := newRecorder()
	ctx := context.Background()

	chatCh, err := b.Subscribe(ctx, realtime.TableChatMessages, realtime.Insert, chat.handle)
	require.NoError(t, err)
	_, err = b.Subscribe(ctx, realtime.TableMatches, realtime.All, matches.handle)
	require.NoError(t, err)
	assert.Equal(t, realtime.Active, chatCh.State())
	assert.Equal(t, "chat_messages:INSERT", chatCh.Name())

	b.Publish(ctx, realtime.Change{Table: realtime.TableChatMessages, Event: realtime.Insert, RecordID: "c1"})
	b.Publish(ctx, realtime.Change{Table: realtime.TableChatMessages, Event: realtime.Delete, RecordID: "c1"})
	b.Publish(ctx, realtime.Change{Table: realtime.TableMatches, Event: realtime.Update, RecordID: "m1"})
	b.Publish(ctx, realtime.Change{Table: realtime.TableMatches, Event: realtime.Delete, RecordID: "m2"})

	chat.wait(t, 1)
	matches.wait(t, 2)
	chat.none(t, 50*time.Millisecond)

	got := chat.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].RecordID)
	assert.False(t, got[0].At.IsZero(), "publish should stamp the change")
}

func TestChannel_UnsubscribeStopsDelivery(t *testing.T) {
	b := realtime.NewBroker()
	defer b.Close()

	rec := newRecorder()
	ch, err := b.Subscribe(context.Background(), realtime.TableProfiles, realtime.Update, rec.handle)
	require.NoError(t, err)
	require.Equal(t, 1, b.Channels())

	ch.Unsubscribe()
	ch.Unsubscribe()

	assert.Equal(t, realtime.Unsubscribed, ch.State())
	assert.Equal(t, 0, b.Channels())

	b.Publish(context.Background(), realtime.Change{Table: realtime.TableProfiles, Event: realtime.Update})
	rec.none(t, 50*time.Millisecond)
}

func TestChannel_ContextCancelTearsDown(t *testing.T) {
	b := realtime.NewBroker()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := b.Subscribe(ctx, realtime.TableMatches, realtime.All, func(context.Context, realtime.Change) {})
	require.NoError(t, err)

	cancel()
	assert.Eventually(t, func() bool {
		return ch.State() == realtime.Unsubscribed && b.Channels() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestBroker_SubscribeWithCancelledContext(t *testing.T) {
	b := realtime.NewBroker()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch, err := b.Subscribe(ctx, realtime.TableMatches, realtime.All, func(context.Context, realtime.Change) {})
	assert.Error(t, err)
	assert.Nil(t, ch)
	assert.Equal(t, 0, b.Channels())
}

func TestBroker_CloseRejectsSubscriptions(t *testing.T) {
	b := realtime.NewBroker()
	ch, err := b.Subscribe(context.Background(), realtime.TableMatches, realtime.All, func(context.Context, realtime.Change) {})
	require.NoError(t, err)

	b.Close()
	assert.Equal(t, realtime.Unsubscribed, ch.State())

	_, err = b.Subscribe(context.Background(), realtime.TableMatches, realtime.All, func(context.Context, realtime.Change) {})
	assert.ErrorIs(t, err, realtime.ErrBrokerClosed)
}

func TestBroker_FullQueueCoalesces(t *testing.T) {
	b := realtime.NewBroker(realtime.WithBuffer(1))
	defer b.Close()

	release := make(chan struct{})
	started := make(chan struct{}, 8)
	var mu sync.Mutex
	calls := 0

	_, err := b.Subscribe(context.Background(), realtime.TableChatMessages, realtime.Insert, func(context.Context, realtime.Change) {
		mu.Lock()
		calls++
		mu.Unlock()
		started <- struct{}{}
		<-release
	})
	require.NoError(t, err)

	ctx := context.Background()
	b.Publish(ctx, realtime.Change{Table: realtime.TableChatMessages, Event: realtime.Insert})
	<-started // handler busy with the first change

	for i := 0; i < 5; i++ {
		b.Publish(ctx, realtime.Change{Table: realtime.TableChatMessages, Event: realtime.Insert})
	}
	close(release)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 2
	}, time.Second, 5*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 2, calls, "queued notifications should coalesce into one pending delivery")
	mu.Unlock()
}

func TestChannel_HandlerPanicDoesNotKillChannel(t *testing.T) {
	b := realtime.NewBroker()
	defer b.Close()

	rec := newRecorder()
	first := true
	_, err := b.Subscribe(context.Background(), realtime.TableMatches, realtime.All, func(ctx context.Context, c realtime.Change) {
		if first {
			first = false
			panic("boom")
		}
		rec.handle(ctx, c)
	})
	require.NoError(t, err)

	b.Publish(context.Background(), realtime.Change{Table: realtime.TableMatches, Event: realtime.Insert, RecordID: "a"})
	b.Publish(context.Background(), realtime.Change{Table: realtime.TableMatches, Event: realtime.Insert, RecordID: "b"})

	rec.wait(t, 1)
	assert.Equal(t, "b", rec.snapshot()[0].RecordID)
}
