package models

import "time"

// Session is either SignedOut or SignedIn.
type Session interface {
	isSession()
}

type SignedOut struct{}

type SignedIn struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (SignedOut) isSession() {}
func (SignedIn) isSession()  {}

// Expired reports whether the session is past its expiry at now.
func (s SignedIn) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Identity is an authenticated account known to the auth provider.
type Identity struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
