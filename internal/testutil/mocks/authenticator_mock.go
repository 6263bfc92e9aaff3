package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/arenalobby/internal/models"
)

// MockAuthenticator is a mock implementation of services.Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) SignUp(ctx context.Context, email, password string) (*models.Identity, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Identity), args.Error(1)
}

func (m *MockAuthenticator) SignIn(ctx context.Context, email, password string) (models.SignedIn, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(models.SignedIn), args.Error(1)
}

func (m *MockAuthenticator) IssueSession(ctx context.Context, userID string) (models.SignedIn, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.SignedIn), args.Error(1)
}

func (m *MockAuthenticator) SignOut(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockAuthenticator) Session(ctx context.Context, token string) models.Session {
	args := m.Called(ctx, token)
	return args.Get(0).(models.Session)
}
