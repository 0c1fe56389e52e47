package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lifelink-backend/internal/domain"
	"lifelink-backend/internal/repository/postgres"
	apperrors "lifelink-backend/pkg/errors"
	"lifelink-backend/pkg/logger"
)

// Look back at most this many month buckets when loading history
const historyMonths = 6

// ConversationRepository defines conversation index operations
type ConversationRepository interface {
	GetOrCreate(ctx context.Context, userA, userB uuid.UUID) (*domain.Conversation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Conversation, error)
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
}

// MessageRepository defines message storage operations
type MessageRepository interface {
	Save(message *domain.Message) error
	GetRecent(conversationID uuid.UUID, limit, maxMonths int) ([]*domain.Message, error)
	MarkConversationRead(conversationID uuid.UUID, readerID uuid.UUID) (int, error)
	CountUnread(conversationID uuid.UUID, readerID uuid.UUID) (int, error)
}

// FeedPublisher emits row-change events for connected clients to re-fetch on
type FeedPublisher interface {
	PublishInsert(ctx context.Context, table string, rowID, userID uuid.UUID) error
}

// Service handles chat business logic
type Service struct {
	convRepo    ConversationRepository
	messageRepo MessageRepository
	feed        FeedPublisher
}

// NewService creates a new chat service. feed may be nil.
func NewService(convRepo ConversationRepository, messageRepo MessageRepository, feed FeedPublisher) *Service {
	return &Service{
		convRepo:    convRepo,
		messageRepo: messageRepo,
		feed:        feed,
	}
}

// OpenConversation returns the conversation between the caller and the other
// user, creating it on first contact
func (s *Service) OpenConversation(ctx context.Context, userID, otherID uuid.UUID) (*domain.Conversation, error) {
	if userID == otherID {
		return nil, apperrors.ValidationError("Cannot open a conversation with yourself")
	}

	conv, err := s.convRepo.GetOrCreate(ctx, userID, otherID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	return conv, nil
}

// SendMessage stores a message and signals both participants
func (s *Service) SendMessage(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.MissingFieldError("content")
	}

	conv, err := s.getAuthorized(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	message := &domain.Message{
		ConversationID: conversationID,
		Bucket:         domain.CalculateBucket(now),
		MessageID:      uuid.New(),
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      now,
	}

	if err := s.messageRepo.Save(message); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	if err := s.convRepo.Touch(ctx, conversationID, now); err != nil {
		logger.Warn("Failed to touch conversation",
			zap.String("conversation_id", conversationID.String()),
			zap.Error(err))
	}

	if s.feed != nil {
		recipient := conv.OtherParticipant(senderID)
		if err := s.feed.PublishInsert(ctx, domain.FeedTableChatMessages, message.MessageID, recipient); err != nil {
			logger.Warn("Failed to publish chat message event", zap.Error(err))
		}
	}

	return message, nil
}

// GetMessages returns recent messages of a conversation, newest first
func (s *Service) GetMessages(ctx context.Context, conversationID, userID uuid.UUID, limit int) ([]*domain.Message, error) {
	if _, err := s.getAuthorized(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	messages, err := s.messageRepo.GetRecent(conversationID, limit, historyMonths)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	return messages, nil
}

// MarkRead flags the partner's messages as read and returns the count
func (s *Service) MarkRead(ctx context.Context, conversationID, userID uuid.UUID) (int, error) {
	if _, err := s.getAuthorized(ctx, conversationID, userID); err != nil {
		return 0, err
	}

	updated, err := s.messageRepo.MarkConversationRead(conversationID, userID)
	if err != nil {
		return 0, apperrors.DatabaseError(err)
	}

	return updated, nil
}

// ListConversations returns the user's conversations with unread counts,
// most recently active first
func (s *Service) ListConversations(ctx context.Context, userID uuid.UUID) ([]*domain.Conversation, error) {
	conversations, err := s.convRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	for _, conv := range conversations {
		unread, err := s.messageRepo.CountUnread(conv.ID, userID)
		if err != nil {
			logger.Warn("Failed to count unread messages",
				zap.String("conversation_id", conv.ID.String()),
				zap.Error(err))
			continue
		}
		conv.UnreadCount = unread
	}

	return conversations, nil
}

func (s *Service) getAuthorized(ctx context.Context, conversationID, userID uuid.UUID) (*domain.Conversation, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.NotFoundError("Conversation")
		}
		return nil, apperrors.DatabaseError(err)
	}
	if !conv.HasParticipant(userID) {
		return nil, apperrors.ForbiddenError("You are not a participant of this conversation")
	}
	return conv, nil
}
