package realtime

import (
	"context"
	"time"
)

// Event is the kind of row change a notification reports.
type Event string

const (
	Insert Event = "INSERT"
	Update Event = "UPDATE"
	Delete Event = "DELETE"
	// All matches every event.
	All Event = "*"
)

// Watched tables.
const (
	TableProfiles          = "profiles"
	TableMatches           = "matches"
	TableMatchParticipants = "match_participants"
	TableChatMessages      = "chat_messages"
	TableTournaments       = "tournaments"
)

// Change signals that a row in Table was touched. It does not carry row data.
type Change struct {
	Table    string    `json:"table"`
	Event    Event     `json:"event"`
	RecordID string    `json:"id"`
	At       time.Time `json:"at"`
}

// Matches reports whether a change passes a table/event filter.
func (c Change) Matches(table string, filter Event) bool {
	if c.Table != table {
		return false
	}
	return filter == All || filter == c.Event
}

// Publisher accepts change notifications.
type Publisher interface {
	Publish(ctx context.Context, c Change)
}

type discard struct{}

func (discard) Publish(context.Context, Change) {}

// Discard drops every notification.
var Discard Publisher = discard{}
