package services

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/vytor/arenalobby/internal/errors"
	"github.com/vytor/arenalobby/internal/logger"
	"github.com/vytor/arenalobby/internal/models"
)

// Authenticator is the auth provider boundary.
type Authenticator interface {
	SignUp(ctx context.Context, email, password string) (*models.Identity, error)
	SignIn(ctx context.Context, email, password string) (models.SignedIn, error)
	IssueSession(ctx context.Context, userID string) (models.SignedIn, error)
	SignOut(ctx context.Context, token string) error
	Session(ctx context.Context, token string) models.Session
}

// AccountService combines the auth provider with profile creation
type AccountService interface {
	SignUp(ctx context.Context, email, password, username string) (*models.Profile, models.SignedIn, error)
	SignIn(ctx context.Context, email, password string) (models.SignedIn, error)
	SignOut(ctx context.Context, token string) error
	Session(ctx context.Context, token string) models.Session
}

type accountService struct {
	auth     Authenticator
	profiles ProfileService
}

// NewAccountService creates a new AccountService
func NewAccountService(auth Authenticator, profiles ProfileService) AccountService {
	return &accountService{auth: auth, profiles: profiles}
}

// DeriveUsername returns the trimmed username, or the part of email before "@" when it is blank.
func DeriveUsername(email, username string) string {
	if u := strings.TrimSpace(username); u != "" {
		return u
	}
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	return local
}

// DeriveAvatar is the upper-cased first letter of the username input, or of the email.
func DeriveAvatar(email, username string) string {
	source := strings.TrimSpace(username)
	if source == "" {
		source = strings.TrimSpace(email)
	}
	r, _ := utf8.DecodeRuneInString(source)
	if r == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(r))
}

// SignUp creates the identity and then its profile. A profile failure leaves the
// identity in place.
func (s *accountService) SignUp(ctx context.Context, email, password, username string) (*models.Profile, models.SignedIn, error) {
	log := logger.FromContext(ctx)

	identity, err := s.auth.SignUp(ctx, email, password)
	if err != nil {
		return nil, models.SignedIn{}, err
	}

	name := DeriveUsername(email, username)
	avatar := DeriveAvatar(email, username)
	var avatarPtr *string
	if avatar != "" {
		avatarPtr = &avatar
	}

	profile, err := s.profiles.CreateProfile(ctx, models.Profile{
		ID:       identity.ID,
		Username: name,
		Level:    1,
		Avatar:   avatarPtr,
	})
	if err != nil {
		log.Error("identity %s created without profile: %v", identity.ID, err)
		return nil, models.SignedIn{}, err
	}

	session, err := s.auth.IssueSession(ctx, identity.ID)
	if err != nil {
		return profile, models.SignedIn{}, err
	}
	log.Info("signed up user %s as %q", identity.ID, profile.Username)
	return profile, session, nil
}

func (s *accountService) SignIn(ctx context.Context, email, password string) (models.SignedIn, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return models.SignedIn{}, errors.NewValidationError("credentials", "email and password are required")
	}
	return s.auth.SignIn(ctx, email, password)
}

func (s *accountService) SignOut(ctx context.Context, token string) error {
	return s.auth.SignOut(ctx, token)
}

func (s *accountService) Session(ctx context.Context, token string) models.Session {
	return s.auth.Session(ctx, token)
}
