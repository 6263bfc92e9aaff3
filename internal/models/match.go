package models

import "time"

type MatchStatus string

const (
	MatchWaiting   MatchStatus = "waiting"
	MatchLive      MatchStatus = "live"
	MatchCompleted MatchStatus = "completed"
)

type Match struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	HostID         string      `json:"host_id"`
	Mode           string      `json:"mode"`
	Status         MatchStatus `json:"status"`
	Difficulty     string      `json:"difficulty"`
	Duration       string      `json:"duration"`
	Stadium        *string     `json:"stadium"`
	Prize          *string     `json:"prize"`
	MaxPlayers     int         `json:"max_players"`
	CurrentPlayers int         `json:"current_players"`
	Score          *string     `json:"score"`
	Minute         *string     `json:"minute"`
	CreatedAt      time.Time   `json:"created_at"`
	StartedAt      *time.Time  `json:"started_at"`
	CompletedAt    *time.Time  `json:"completed_at"`
	Host           *Profile    `json:"host,omitempty"`
}

// Full reports whether no free slot is left.
func (m Match) Full() bool {
	return m.CurrentPlayers >= m.MaxPlayers
}

// StatusAfterJoin is the status a match takes once its player count reaches players.
func StatusAfterJoin(players, maxPlayers int) MatchStatus {
	if players == maxPlayers {
		return MatchLive
	}
	return MatchWaiting
}

// MatchSettings are the caller-chosen fields of a new match.
type MatchSettings struct {
	Name       string `json:"name"`
	Mode       string `json:"mode"`
	Difficulty string `json:"difficulty"`
	Duration   string `json:"duration"`
	Stadium    string `json:"stadium"`
}

type MatchParticipant struct {
	MatchID  string    `json:"match_id"`
	UserID   string    `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}
