package models

// Defaults for a new match; blank settings fall back to the lobby form's preselected values.
const (
	DefaultMaxPlayers = 2
	DefaultPrize      = "50 Coins"

	DefaultMatchName  = "My Championship Match"
	DefaultMode       = "Competitive"
	DefaultDifficulty = "Normal"
	DefaultDuration   = "10 Minutes"
	DefaultStadium    = "Old Trafford"
)

// MatchModes lists the modes the store accepts.
var MatchModes = []string{"Competitive", "Friendly", "Tournament"}

// WithDefaults returns s with blank fields replaced by the defaults.
func (s MatchSettings) WithDefaults() MatchSettings {
	if s.Name == "" {
		s.Name = DefaultMatchName
	}
	if s.Mode == "" {
		s.Mode = DefaultMode
	}
	if s.Difficulty == "" {
		s.Difficulty = DefaultDifficulty
	}
	if s.Duration == "" {
		s.Duration = DefaultDuration
	}
	if s.Stadium == "" {
		s.Stadium = DefaultStadium
	}
	return s
}
