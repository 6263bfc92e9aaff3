package models

import "time"

type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Level     int       `json:"level"`
	XP        int       `json:"xp"`
	Rank      int       `json:"rank"`
	Score     int       `json:"score"`
	Wins      int       `json:"wins"`
	Losses    int       `json:"losses"`
	Avatar    *string   `json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Outcome is the result recorded alongside an award of points.
type Outcome string

const (
	OutcomeNone Outcome = ""
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
)

// Award adds points to a profile's score and xp.
type Award struct {
	ProfileID string
	Points    int
	Outcome   Outcome
}

// XPPerLevel is the xp needed to climb one level.
const XPPerLevel = 1000

// LevelForXP returns the level a profile with xp experience sits at.
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return 1 + xp/XPPerLevel
}
