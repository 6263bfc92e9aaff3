package repository

import (
	"context"
	"errors"

	"github.com/vytor/arenalobby/internal/models"
)

var (
	ErrNotFound       = errors.New("repository: not found")
	ErrMatchFull      = errors.New("repository: match is full")
	ErrAlreadyJoined  = errors.New("repository: already joined")
	ErrDuplicateEmail = errors.New("repository: email already registered")
	ErrInvalid        = errors.New("repository: constraint violated")
)

// UserRepository handles identity data access for the auth provider
type UserRepository interface {
	Create(ctx context.Context, identity models.Identity) error
	// GetByEmail returns nil, nil when no identity uses the email.
	GetByEmail(ctx context.Context, email string) (*models.Identity, error)
	GetByID(ctx context.Context, id string) (*models.Identity, error)
}

// ProfileRepository handles profile data access
type ProfileRepository interface {
	// Get returns nil, nil when the profile does not exist.
	Get(ctx context.Context, id string) (*models.Profile, error)
	Create(ctx context.Context, profile models.Profile) (*models.Profile, error)
	TopByScore(ctx context.Context, limit int) ([]models.Profile, error)
	Award(ctx context.Context, award models.Award) (*models.Profile, error)
}

// MatchRepository handles match data access
type MatchRepository interface {
	Get(ctx context.Context, id string) (*models.Match, error)
	Recent(ctx context.Context, limit int) ([]models.Match, error)
	Create(ctx context.Context, match models.Match) (*models.Match, error)
	// Join adds userID to the match, failing with ErrMatchFull when no slot is left.
	Join(ctx context.Context, matchID, userID string) (*models.Match, error)
}

// ChatRepository handles chat message data access
type ChatRepository interface {
	// Recent returns up to limit messages, newest first.
	Recent(ctx context.Context, limit int) ([]models.ChatMessage, error)
	Create(ctx context.Context, msg models.ChatMessage) (*models.ChatMessage, error)
}

// TournamentRepository handles tournament data access
type TournamentRepository interface {
	// Open returns the current open tournament, or nil, nil when none is open.
	Open(ctx context.Context) (*models.Tournament, error)
	Create(ctx context.Context, t models.Tournament) (*models.Tournament, error)
	UpdateStatus(ctx context.Context, id string, status models.TournamentStatus) error
}
