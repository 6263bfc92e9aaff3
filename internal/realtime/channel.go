package realtime

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vytor/arenalobby/internal/logger"
)

// State is a channel's position in its lifecycle.
type State int32

const (
	Unsubscribed State = iota
	Subscribing
	Active
)

func (s State) String() string {
	switch s {
	case Unsubscribed:
		return "unsubscribed"
	case Subscribing:
		return "subscribing"
	case Active:
		return "active"
	default:
		return "unknown"
	}
}

// Handler is invoked on the channel's own goroutine for every matching change.
type Handler func(ctx context.Context, c Change)

// Channel is a long-lived subscription to one table/event combination.
type Channel struct {
	id      uint64
	table   string
	filter  Event
	handler Handler
	broker  *Broker

	state atomic.Int32
	queue chan Change
	stop  chan struct{}
	done  chan struct{}
	once  sync.Once
	log   *logger.Logger
}

// Name identifies the channel as table:event.
func (ch *Channel) Name() string {
	return fmt.Sprintf("%s:%s", ch.table, ch.filter)
}

func (ch *Channel) Table() string { return ch.table }
func (ch *Channel) Filter() Event { return ch.filter }

func (ch *Channel) State() State {
	return State(ch.state.Load())
}

// Unsubscribe tears the channel down and waits for an in-flight handler to return.
// It is safe to call more than once and from any goroutine except the handler itself.
func (ch *Channel) Unsubscribe() {
	ch.close()
	<-ch.done
}

func (ch *Channel) close() {
	ch.once.Do(func() {
		ch.broker.remove(ch.id)
		close(ch.stop)
	})
}

// offer enqueues c without blocking. A full queue already holds a pending
// notification for this channel, so dropping c loses nothing.
func (ch *Channel) offer(c Change) bool {
	if ch.State() != Active {
		return false
	}
	select {
	case ch.queue <- c:
		return true
	default:
		ch.log.Debug("queue full, coalescing %s %s", c.Table, c.Event)
		return false
	}
}

func (ch *Channel) run(ctx context.Context) {
	defer func() {
		ch.state.Store(int32(Unsubscribed))
		close(ch.done)
		ch.log.Debug("channel unsubscribed")
	}()

	for {
		select {
		case <-ch.stop:
			return
		case <-ctx.Done():
			ch.close()
			return
		case c := <-ch.queue:
			ch.dispatch(ctx, c)
		}
	}
}

func (ch *Channel) dispatch(ctx context.Context, c Change) {
	defer func() {
		if rec := recover(); rec != nil {
			ch.log.Error("handler panicked on %s %s: %v", c.Table, c.Event, rec)
		}
	}()
	ch.handler(ctx, c)
}
