package lobby

import (
	"context"
	"strings"

	"github.com/vytor/arenalobby/internal/errors"
	"github.com/vytor/arenalobby/internal/models"
)

// CreateMatch hosts a new match as the session user and reloads the matches view.
func (c *Controller) CreateMatch(ctx context.Context, settings models.MatchSettings) (*models.Match, error) {
	match, err := c.svc.Matches.CreateMatch(ctx, c.Session().UserID, settings)
	if err != nil {
		return nil, err
	}
	c.Reload(ctx, ViewMatches)
	return match, nil
}

// JoinMatch joins a match from the current matches view. A match that is full
// or not in the view is rejected without reaching the store.
func (c *Controller) JoinMatch(ctx context.Context, matchID string) (*models.Match, error) {
	m, ok := c.state.Snapshot().Match(matchID)
	if !ok {
		return nil, errors.NewNotFoundError("match", matchID)
	}
	if m.Full() {
		return nil, errors.NewMatchFullError(matchID)
	}

	joined, err := c.svc.Matches.JoinMatch(ctx, matchID, c.Session().UserID)
	if err != nil {
		return nil, err
	}
	c.Reload(ctx, ViewMatches)
	return joined, nil
}

// SendMessage posts trimmed text to the lobby chat and reloads the messages view.
func (c *Controller) SendMessage(ctx context.Context, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.NewValidationError("message", "cannot be empty")
	}

	msg, err := c.svc.Chat.SendMessage(ctx, c.Session().UserID, text)
	if err != nil {
		return nil, err
	}
	c.Reload(ctx, ViewMessages)
	return msg, nil
}
