package services

import (
	"context"
	stderrors "errors"
	"slices"
	"strings"

	"github.com/vytor/arenalobby/internal/errors"
	"github.com/vytor/arenalobby/internal/logger"
	"github.com/vytor/arenalobby/internal/models"
	"github.com/vytor/arenalobby/internal/repository"
)

// ChatService handles lobby chat
type ChatService interface {
	// RecentMessages returns the newest limit messages in ascending time order.
	RecentMessages(ctx context.Context, limit int) ([]models.ChatMessage, error)
	SendMessage(ctx context.Context, userID, text string) (*models.ChatMessage, error)
}

type chatService struct {
	chatRepo repository.ChatRepository
}

// NewChatService creates a new ChatService
func NewChatService(chatRepo repository.ChatRepository) ChatService {
	return &chatService{chatRepo: chatRepo}
}

func (s *chatService) RecentMessages(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	log := logger.FromContext(ctx)
	log.Debug("loading recent messages: limit=%d", limit)

	messages, err := s.chatRepo.Recent(ctx, limit)
	if err != nil {
		log.Error("failed to load messages: %v", err)
		return nil, errors.NewInternalError(err)
	}
	slices.Reverse(messages)
	return messages, nil
}

func (s *chatService) SendMessage(ctx context.Context, userID, text string) (*models.ChatMessage, error) {
	log := logger.FromContext(ctx)

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.NewValidationError("message", "cannot be empty")
	}
	log.Debug("sending message: user_id=%s length=%d", userID, len(text))

	msg, err := s.chatRepo.Create(ctx, models.ChatMessage{UserID: userID, Message: text})
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NewNotFoundError("profile", userID)
		}
		log.Error("failed to send message: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return msg, nil
}
