package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vytor/arenalobby/internal/logger"
)

var ErrBrokerClosed = errors.New("realtime: broker closed")

// Broker fans change notifications out to subscribed channels.
type Broker struct {
	mu       sync.RWMutex
	channels map[uint64]*Channel
	nextID   uint64
	buffer   int
	closed   bool
	now      func() time.Time
	log      *logger.Logger
}

type Option func(*Broker)

// WithBuffer sets each channel's queue size.
func WithBuffer(n int) Option {
	return func(b *Broker) {
		if n > 0 {
			b.buffer = n
		}
	}
}

// WithClock overrides the time stamped on published changes.
func WithClock(now func() time.Time) Option {
	return func(b *Broker) {
		b.now = now
	}
}

func NewBroker(opts ...Option) *Broker {
	b := &Broker{
		channels: make(map[uint64]*Channel),
		buffer:   16,
		now:      time.Now,
		log:      logger.Default().WithPrefix("realtime"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe opens a channel delivering changes on table that pass filter.
// The channel lives until Unsubscribe is called, ctx is cancelled or the broker closes.
func (b *Broker) Subscribe(ctx context.Context, table string, filter Event, h Handler) (*Channel, error) {
	ch := &Channel{
		table:   table,
		filter:  filter,
		handler: h,
		broker:  b,
		queue:   make(chan Change, b.buffer),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	ch.state.Store(int32(Subscribing))

	if err := ctx.Err(); err != nil {
		ch.state.Store(int32(Unsubscribed))
		return nil, err
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		ch.state.Store(int32(Unsubscribed))
		return nil, ErrBrokerClosed
	}
	b.nextID++
	ch.id = b.nextID
	ch.log = b.log.WithField("channel", ch.Name())
	b.channels[ch.id] = ch
	ch.state.Store(int32(Active))
	b.mu.Unlock()

	go ch.run(ctx)
	ch.log.Debug("channel active")
	return ch, nil
}

// Publish delivers c to every matching channel without blocking.
func (b *Broker) Publish(ctx context.Context, c Change) {
	if c.At.IsZero() {
		c.At = b.now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	delivered := 0
	for _, ch := range b.channels {
		if c.Matches(ch.table, ch.filter) && ch.offer(c) {
			delivered++
		}
	}
	logger.FromContext(ctx).WithPrefix("realtime").Debug("published %s %s id=%s to %d channel(s)", c.Table, c.Event, c.RecordID, delivered)
}

// Channels returns the number of registered channels.
func (b *Broker) Channels() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.channels)
}

// Close unsubscribes every channel and rejects further subscriptions.
func (b *Broker) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	open := make([]*Channel, 0, len(b.channels))
	for _, ch := range b.channels {
		open = append(open, ch)
	}
	b.mu.Unlock()

	for _, ch := range open {
		ch.Unsubscribe()
	}
	b.log.Info("broker closed, %d channel(s) torn down", len(open))
}

func (b *Broker) remove(id uint64) {
	b.mu.Lock()
	delete(b.channels, id)
	b.mu.Unlock()
}
