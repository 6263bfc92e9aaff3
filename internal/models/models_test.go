package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/arenalobby/internal/models"
)

func TestStatusAfterJoin(t *testing.T) {
	assert.Equal(t, models.MatchLive, models.StatusAfterJoin(2, 2))
	assert.Equal(t, models.MatchWaiting, models.StatusAfterJoin(2, 4))
	assert.Equal(t, models.MatchWaiting, models.StatusAfterJoin(3, 4))
}

func TestMatchFull(t *testing.T) {
	assert.True(t, models.Match{CurrentPlayers: 2, MaxPlayers: 2}.Full())
	assert.False(t, models.Match{CurrentPlayers: 1, MaxPlayers: 2}.Full())
}

func TestLevelForXP(t *testing.T) {
	assert.Equal(t, 1, models.LevelForXP(0))
	assert.Equal(t, 1, models.LevelForXP(999))
	assert.Equal(t, 2, models.LevelForXP(1000))
	assert.Equal(t, 4, models.LevelForXP(3500))
	assert.Equal(t, 1, models.LevelForXP(-20))
}

func TestMatchSettings_WithDefaults(t *testing.T) {
	s := models.MatchSettings{Name: "Derby", Stadium: "San Siro"}.WithDefaults()

	assert.Equal(t, "Derby", s.Name)
	assert.Equal(t, "Competitive", s.Mode)
	assert.Equal(t, "Normal", s.Difficulty)
	assert.Equal(t, "10 Minutes", s.Duration)
	assert.Equal(t, "San Siro", s.Stadium)
}

func TestSignedIn_Expired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := models.SignedIn{UserID: "u", ExpiresAt: now.Add(time.Minute)}

	assert.False(t, s.Expired(now))
	assert.True(t, s.Expired(now.Add(time.Minute)))
}

func TestTournament_TimeLeft(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := now.Add(50 * time.Hour)

	left, ok := models.Tournament{EndDate: &end}.TimeLeft(now)
	assert.True(t, ok)
	assert.Equal(t, 50*time.Hour, left)

	_, ok = models.Tournament{}.TimeLeft(now)
	assert.False(t, ok)
}
