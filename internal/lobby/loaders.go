package lobby

import (
	"context"
	"fmt"

	"github.com/vytor/arenalobby/internal/errors"
	"github.com/vytor/arenalobby/internal/logger"
	"github.com/vytor/arenalobby/internal/models"
)

// Fixed view sizes.
const (
	MatchesLimit     = 10
	LeaderboardLimit = 5
	MessagesLimit    = 20
)

// Load runs the loader for v. On failure the previous snapshot is kept and the
// error is returned; a result overtaken by a newer load of v is discarded.
func (c *Controller) Load(ctx context.Context, v View) error {
	switch v {
	case ViewProfile:
		return c.LoadProfile(ctx)
	case ViewMatches:
		return c.LoadMatches(ctx)
	case ViewLeaderboard:
		return c.LoadLeaderboard(ctx)
	case ViewMessages:
		return c.LoadMessages(ctx)
	case ViewTournament:
		return c.LoadTournament(ctx)
	default:
		return fmt.Errorf("unknown view %d", v)
	}
}

// LoadProfile loads the signed-in user's profile. A missing profile empties the view.
func (c *Controller) LoadProfile(ctx context.Context) error {
	seq := c.state.Begin(ViewProfile)
	userID := c.Session().UserID

	profile, err := c.svc.Profiles.GetProfile(ctx, userID)
	if err != nil && !errors.HasCode(err, errors.ErrCodeNotFound) {
		return c.loadFailed(ctx, ViewProfile, err)
	}
	return c.apply(ctx, ViewProfile, seq, func(s *Snapshot) { s.Profile = profile })
}

func (c *Controller) LoadMatches(ctx context.Context) error {
	seq := c.state.Begin(ViewMatches)

	matches, err := c.svc.Matches.RecentMatches(ctx, MatchesLimit)
	if err != nil {
		return c.loadFailed(ctx, ViewMatches, err)
	}
	if matches == nil {
		matches = []models.Match{}
	}
	return c.apply(ctx, ViewMatches, seq, func(s *Snapshot) { s.Matches = matches })
}

func (c *Controller) LoadLeaderboard(ctx context.Context) error {
	seq := c.state.Begin(ViewLeaderboard)

	profiles, err := c.svc.Profiles.Leaderboard(ctx, LeaderboardLimit)
	if err != nil {
		return c.loadFailed(ctx, ViewLeaderboard, err)
	}
	if profiles == nil {
		profiles = []models.Profile{}
	}
	return c.apply(ctx, ViewLeaderboard, seq, func(s *Snapshot) { s.Leaderboard = profiles })
}

// LoadMessages loads the latest messages, oldest first.
func (c *Controller) LoadMessages(ctx context.Context) error {
	seq := c.state.Begin(ViewMessages)

	messages, err := c.svc.Chat.RecentMessages(ctx, MessagesLimit)
	if err != nil {
		return c.loadFailed(ctx, ViewMessages, err)
	}
	if messages == nil {
		messages = []models.ChatMessage{}
	}
	return c.apply(ctx, ViewMessages, seq, func(s *Snapshot) { s.Messages = messages })
}

func (c *Controller) LoadTournament(ctx context.Context) error {
	seq := c.state.Begin(ViewTournament)

	tournament, err := c.svc.Tournaments.OpenTournament(ctx)
	if err != nil {
		return c.loadFailed(ctx, ViewTournament, err)
	}
	return c.apply(ctx, ViewTournament, seq, func(s *Snapshot) { s.Tournament = tournament })
}

func (c *Controller) apply(ctx context.Context, v View, seq uint64, set func(*Snapshot)) error {
	if !c.state.Apply(v, seq, set) {
		logger.FromContext(ctx).WithPrefix("lobby").Debug("discarding stale %s result (seq=%d)", v, seq)
	}
	return nil
}

func (c *Controller) loadFailed(ctx context.Context, v View, err error) error {
	logger.FromContext(ctx).WithPrefix("lobby").Warn("failed to load %s: %v", v, err)
	return fmt.Errorf("load %s: %w", v, err)
}
