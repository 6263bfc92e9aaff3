package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/vytor/arenalobby/internal/errors"
	"github.com/vytor/arenalobby/internal/logger"
	"github.com/vytor/arenalobby/internal/models"
	"github.com/vytor/arenalobby/internal/repository"
)

const MinPasswordLength = 6

// Listener is told about every session change. userID is set for both variants.
type Listener func(ctx context.Context, userID string, session models.Session)

// Service is the authentication provider: identities, signed session tokens,
// sign-out revocation and session-change callbacks.
type Service struct {
	users  repository.UserRepository
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time

	revoked *ttlcache.Cache[string, struct{}]

	mu        sync.RWMutex
	listeners map[uint64]Listener
	nextID    uint64

	log *logger.Logger
}

type Option func(*Service)

// WithClock overrides the clock used for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.cost = cost
	}
}

func NewService(users repository.UserRepository, secret string, ttl time.Duration, opts ...Option) *Service {
	s := &Service{
		users:     users,
		secret:    []byte(secret),
		ttl:       ttl,
		cost:      bcrypt.DefaultCost,
		now:       time.Now,
		revoked:   ttlcache.New[string, struct{}](ttlcache.WithDisableTouchOnHit[string, struct{}]()),
		listeners: make(map[uint64]Listener),
		log:       logger.Default().WithPrefix("auth"),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.revoked.Start()
	return s
}

// Close stops the revocation cache janitor.
func (s *Service) Close() {
	s.revoked.Stop()
}

// OnChange registers l and returns a func that removes it.
func (s *Service) OnChange(l Listener) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = l
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Service) notify(ctx context.Context, userID string, session models.Session) {
	s.mu.RLock()
	ls := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.mu.RUnlock()

	for _, l := range ls {
		l(ctx, userID, session)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp registers a new identity. It does not issue a session; see IssueSession.
func (s *Service) SignUp(ctx context.Context, email, password string) (*models.Identity, error) {
	log := logger.FromContext(ctx).WithPrefix("auth")
	email = normalizeEmail(email)

	if !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("email", "must be a valid address")
	}
	if len(password) < MinPasswordLength {
		return nil, apperrors.NewValidationError("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		log.Error("failed to hash password: %v", err)
		return nil, apperrors.NewInternalError(err)
	}

	identity := models.Identity{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, identity); err != nil {
		if stderrors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewConflictError("user already registered", err)
		}
		log.Error("failed to create identity: %v", err)
		return nil, apperrors.NewInternalError(err)
	}

	log.Info("identity created: id=%s", identity.ID)
	return &identity, nil
}

// SignIn checks the credentials and issues a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (models.SignedIn, error) {
	log := logger.FromContext(ctx).WithPrefix("auth")

	identity, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		log.Error("failed to look up identity: %v", err)
		return models.SignedIn{}, apperrors.NewInternalError(err)
	}
	if identity == nil {
		return models.SignedIn{}, apperrors.NewUnauthorizedError("invalid login credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		log.Debug("password mismatch for identity %s", identity.ID)
		return models.SignedIn{}, apperrors.NewUnauthorizedError("invalid login credentials")
	}

	return s.IssueSession(ctx, identity.ID)
}

// IssueSession signs a token for userID and announces the new session.
func (s *Service) IssueSession(ctx context.Context, userID string) (models.SignedIn, error) {
	issued := s.now()
	expires := issued.Add(s.ttl)

	claims := gojwt.RegisteredClaims{
		Subject:   userID,
		ID:        ulid.Make().String(),
		IssuedAt:  gojwt.NewNumericDate(issued),
		ExpiresAt: gojwt.NewNumericDate(expires),
	}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("auth").Error("failed to sign token: %v", err)
		return models.SignedIn{}, apperrors.NewInternalError(err)
	}

	session := models.SignedIn{UserID: userID, Token: token, ExpiresAt: claims.ExpiresAt.Time.UTC()}
	s.notify(ctx, userID, session)
	return session, nil
}

func (s *Service) parse(token string) (*gojwt.RegisteredClaims, error) {
	claims := &gojwt.RegisteredClaims{}
	_, err := gojwt.ParseWithClaims(token, claims, func(*gojwt.Token) (any, error) {
		return s.secret, nil
	},
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("token missing subject or expiry")
	}
	return claims, nil
}

// Authenticate validates a session token.
func (s *Service) Authenticate(ctx context.Context, token string) (models.SignedIn, error) {
	if token == "" {
		return models.SignedIn{}, apperrors.NewUnauthorizedError("missing session token")
	}
	claims, err := s.parse(token)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("auth").Debug("rejected token: %v", err)
		return models.SignedIn{}, apperrors.NewUnauthorizedError("invalid session token")
	}
	if s.revoked.Has(claims.ID) {
		return models.SignedIn{}, apperrors.NewUnauthorizedError("session signed out")
	}
	return models.SignedIn{UserID: claims.Subject, Token: token, ExpiresAt: claims.ExpiresAt.Time.UTC()}, nil
}

// Session answers the session-state query; any invalid token reads as signed out.
func (s *Service) Session(ctx context.Context, token string) models.Session {
	session, err := s.Authenticate(ctx, token)
	if err != nil {
		return models.SignedOut{}
	}
	return session
}

// SignOut revokes the token until it would have expired and announces SignedOut.
func (s *Service) SignOut(ctx context.Context, token string) error {
	session, err := s.Authenticate(ctx, token)
	if err != nil {
		return err
	}
	claims, err := s.parse(token)
	if err != nil {
		return apperrors.NewUnauthorizedError("invalid session token")
	}

	if ttl := claims.ExpiresAt.Time.Sub(s.now()); ttl > 0 {
		s.revoked.Set(claims.ID, struct{}{}, ttl)
	}
	logger.FromContext(ctx).WithPrefix("auth").Info("signed out user %s", session.UserID)
	s.notify(ctx, session.UserID, models.SignedOut{})
	return nil
}
