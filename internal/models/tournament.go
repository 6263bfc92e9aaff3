package models

import "time"

type TournamentStatus string

const (
	TournamentUpcoming  TournamentStatus = "upcoming"
	TournamentOpen      TournamentStatus = "open"
	TournamentClosed    TournamentStatus = "closed"
	TournamentCompleted TournamentStatus = "completed"
)

type Tournament struct {
	ID                  string           `json:"id"`
	Name                string           `json:"name"`
	PrizePool           string           `json:"prize_pool"`
	MaxParticipants     int              `json:"max_participants"`
	CurrentParticipants int              `json:"current_participants"`
	Status              TournamentStatus `json:"status"`
	StartDate           *time.Time       `json:"start_date"`
	EndDate             *time.Time       `json:"end_date"`
	CreatedAt           time.Time        `json:"created_at"`
}

// TimeLeft returns the remaining time until EndDate, or false when no end is set.
func (t Tournament) TimeLeft(now time.Time) (time.Duration, bool) {
	if t.EndDate == nil {
		return 0, false
	}
	return t.EndDate.Sub(now), true
}
