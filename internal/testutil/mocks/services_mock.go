package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/arenalobby/internal/models"
	"github.com/vytor/arenalobby/internal/services"
)

// MockProfileService is a mock implementation of services.ProfileService
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileService) CreateProfile(ctx context.Context, profile models.Profile) (*models.Profile, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileService) Leaderboard(ctx context.Context, limit int) ([]models.Profile, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Profile), args.Error(1)
}

func (m *MockProfileService) AwardPoints(ctx context.Context, award models.Award) (*models.Profile, error) {
	args := m.Called(ctx, award)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

// MockMatchService is a mock implementation of services.MatchService
type MockMatchService struct {
	mock.Mock
}

func (m *MockMatchService) RecentMatches(ctx context.Context, limit int) ([]models.Match, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Match), args.Error(1)
}

func (m *MockMatchService) CreateMatch(ctx context.Context, hostID string, settings models.MatchSettings) (*models.Match, error) {
	args := m.Called(ctx, hostID, settings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *MockMatchService) JoinMatch(ctx context.Context, matchID, userID string) (*models.Match, error) {
	args := m.Called(ctx, matchID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

// MockChatService is a mock implementation of services.ChatService
type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) RecentMessages(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatMessage), args.Error(1)
}

func (m *MockChatService) SendMessage(ctx context.Context, userID, text string) (*models.ChatMessage, error) {
	args := m.Called(ctx, userID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatMessage), args.Error(1)
}

// MockTournamentService is a mock implementation of services.TournamentService
type MockTournamentService struct {
	mock.Mock
}

func (m *MockTournamentService) OpenTournament(ctx context.Context) (*models.Tournament, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tournament), args.Error(1)
}

func (m *MockTournamentService) StartTournament(ctx context.Context, t services.NewTournament) (*models.Tournament, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tournament), args.Error(1)
}

func (m *MockTournamentService) CloseTournament(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
