package lobby

import (
	"context"
	"sync"

	"github.com/vytor/arenalobby/internal/logger"
	"github.com/vytor/arenalobby/internal/realtime"
)

// Subscriber opens realtime channels.
type Subscriber interface {
	Subscribe(ctx context.Context, table string, filter realtime.Event, h realtime.Handler) (*realtime.Channel, error)
}

// Reloader re-runs a view's loader.
type Reloader interface {
	Reload(ctx context.Context, v View)
}

type route struct {
	table  string
	filter realtime.Event
	views  []View
}

// routes maps watched tables to the views they invalidate.
func routes(signedIn bool) []route {
	profileViews := []View{ViewLeaderboard}
	if signedIn {
		profileViews = append(profileViews, ViewProfile)
	}
	return []route{
		{table: realtime.TableMatches, filter: realtime.All, views: []View{ViewMatches}},
		{table: realtime.TableChatMessages, filter: realtime.Insert, views: []View{ViewMessages}},
		{table: realtime.TableProfiles, filter: realtime.Update, views: profileViews},
	}
}

// Coordinator keeps one channel per watched table and turns notifications into
// reloads. It never touches entities itself.
type Coordinator struct {
	sub      Subscriber
	reloader Reloader
	routes   []route

	mu       sync.Mutex
	channels []*realtime.Channel

	log *logger.Logger
}

func NewCoordinator(sub Subscriber, reloader Reloader, signedIn bool) *Coordinator {
	return &Coordinator{
		sub:      sub,
		reloader: reloader,
		routes:   routes(signedIn),
		log:      logger.Default().WithPrefix("coordinator"),
	}
}

// Start subscribes every route. If any subscription fails the ones already open are torn down.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.channels) > 0 {
		return nil
	}

	opened := make([]*realtime.Channel, 0, len(c.routes))
	for _, rt := range c.routes {
		views := rt.views
		ch, err := c.sub.Subscribe(ctx, rt.table, rt.filter, func(ctx context.Context, change realtime.Change) {
			c.log.Debug("%s %s id=%s -> reload %v", change.Table, change.Event, change.RecordID, views)
			for _, v := range views {
				c.reloader.Reload(ctx, v)
			}
		})
		if err != nil {
			c.log.Error("failed to subscribe to %s: %v", rt.table, err)
			for _, open := range opened {
				open.Unsubscribe()
			}
			return err
		}
		opened = append(opened, ch)
	}

	c.channels = opened
	c.log.Debug("coordinator started with %d channel(s)", len(opened))
	return nil
}

// Stop unsubscribes every channel.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	channels := c.channels
	c.channels = nil
	c.mu.Unlock()

	for _, ch := range channels {
		ch.Unsubscribe()
	}
	if len(channels) > 0 {
		c.log.Debug("coordinator stopped, %d channel(s) unsubscribed", len(channels))
	}
}

// Channels returns the open channel handles.
func (c *Coordinator) Channels() []*realtime.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*realtime.Channel(nil), c.channels...)
}
