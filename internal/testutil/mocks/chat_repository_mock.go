package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/arenalobby/internal/models"
)

// MockChatRepository is a mock implementation of repository.ChatRepository
type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) Recent(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatMessage), args.Error(1)
}

func (m *MockChatRepository) Create(ctx context.Context, msg models.ChatMessage) (*models.ChatMessage, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatMessage), args.Error(1)
}
