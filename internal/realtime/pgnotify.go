package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/vytor/arenalobby/internal/logger"
)

// PGListener forwards PostgreSQL NOTIFY payloads emitted by the change
// triggers to a Publisher, so writes from other processes reach local channels.
type PGListener struct {
	dsn     string
	channel string
	pub     Publisher
	log     *logger.Logger
}

func NewPGListener(dsn, channel string, pub Publisher) *PGListener {
	return &PGListener{
		dsn:     dsn,
		channel: channel,
		pub:     pub,
		log:     logger.Default().WithPrefix("pg-listener").WithField("channel", channel),
	}
}

// Run listens until ctx is cancelled. It does not reconnect; a dropped
// connection is returned as an error.
func (l *PGListener) Run(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		l.log.Error("failed to connect: %v", err)
		return err
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		l.log.Error("failed to listen: %v", err)
		return err
	}
	l.log.Info("listening for change notifications")

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.log.Debug("listener stopped")
				return nil
			}
			l.log.Error("wait for notification failed: %v", err)
			return err
		}

		change, err := ParseNotification(n.Payload)
		if err != nil {
			l.log.Warn("dropping malformed payload %q: %v", n.Payload, err)
			continue
		}
		l.pub.Publish(ctx, change)
	}
}

// ParseNotification decodes a trigger payload such as
// {"table":"matches","event":"UPDATE","id":"..."}.
func ParseNotification(payload string) (Change, error) {
	var c Change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return Change{}, err
	}
	if c.Table == "" {
		return Change{}, errors.New("missing table")
	}
	c.Event = Event(strings.ToUpper(string(c.Event)))
	switch c.Event {
	case Insert, Update, Delete:
	default:
		return Change{}, fmt.Errorf("unknown event %q", c.Event)
	}
	return c, nil
}
