package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/arenalobby/internal/models"
)

// MockTournamentRepository is a mock implementation of repository.TournamentRepository
type MockTournamentRepository struct {
	mock.Mock
}

func (m *MockTournamentRepository) Open(ctx context.Context) (*models.Tournament, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tournament), args.Error(1)
}

func (m *MockTournamentRepository) Create(ctx context.Context, t models.Tournament) (*models.Tournament, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tournament), args.Error(1)
}

func (m *MockTournamentRepository) UpdateStatus(ctx context.Context, id string, status models.TournamentStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}
