package push

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lifelink-backend/pkg/logger"
)

// Provider defines interface for sending push notifications
type Provider interface {
	Send(ctx context.Context, notification *Notification, tokens []string) (*SendResult, error)
}

// SendResult contains the result of a push notification send operation
type SendResult struct {
	SuccessCount  int
	FailureCount  int
	InvalidTokens []string
	Errors        []error
}

// Notification represents a push notification
type Notification struct {
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
	Priority string            `json:"priority,omitempty"` // high, normal, low
	Sound    string            `json:"sound,omitempty"`
	Badge    *int              `json:"badge,omitempty"`
	Category string            `json:"category,omitempty"`
}

// TokenType represents the type of push notification token
type TokenType string

const (
	TokenTypeFCM  TokenType = "fcm"  // Firebase Cloud Messaging
	TokenTypeAPNs TokenType = "apns" // Apple Push Notification Service
	TokenTypeWeb  TokenType = "web"  // Web Push
)

// Token represents a push notification token for a user
type Token struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Token     string    `json:"token"`
	Type      TokenType `json:"type"`
	Platform  string    `json:"platform,omitempty"` // ios, android, web
	Active    bool      `json:"active"`
	CreatedAt int64     `json:"created_at"`
	UpdatedAt int64     `json:"updated_at"`
}

// TokenRepository defines interface for storing and retrieving push tokens
type TokenRepository interface {
	Store(ctx context.Context, token *Token) error
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*Token, error)
	GetByToken(ctx context.Context, token string) (*Token, error)
	Update(ctx context.Context, token *Token) error
	Delete(ctx context.Context, tokenID uuid.UUID) error
	MarkInactiveByToken(ctx context.Context, token string) error
}

// Service handles push notification operations
type Service struct {
	provider Provider
	repo     TokenRepository
}

// NewService creates a new push notification service
func NewService(provider Provider, repo TokenRepository) *Service {
	return &Service{
		provider: provider,
		repo:     repo,
	}
}

// RegisterToken registers a new push notification token for a user
func (s *Service) RegisterToken(ctx context.Context, token *Token) error {
	existing, err := s.repo.GetByToken(ctx, token.Token)
	if err == nil && existing != nil {
		existing.Active = true
		existing.UpdatedAt = token.UpdatedAt
		existing.Platform = token.Platform
		return s.repo.Update(ctx, existing)
	}

	return s.repo.Store(ctx, token)
}

// UnregisterToken removes a push notification token
func (s *Service) UnregisterToken(ctx context.Context, tokenID uuid.UUID) error {
	return s.repo.Delete(ctx, tokenID)
}

// SendCallInvitation notifies every invitee that they were invited to a
// conference call
func (s *Service) SendCallInvitation(ctx context.Context, callID uuid.UUID, title, initiatorName string, inviteeIDs []uuid.UUID) error {
	notification := &Notification{
		Title:    "Conference Call Invitation",
		Body:     fmt.Sprintf("%s invited you to \"%s\"", initiatorName, title),
		Priority: "high",
		Sound:    "default",
		Category: "CALL_INVITATION",
		Data: map[string]string{
			"type":      "call_invitation",
			"call_id":   callID.String(),
			"title":     title,
			"initiator": initiatorName,
			"timestamp": fmt.Sprintf("%d", time.Now().Unix()),
		},
	}

	return s.sendToUsers(ctx, notification, inviteeIDs)
}

// SendContactRequest notifies a recipient about a new contact request
func (s *Service) SendContactRequest(ctx context.Context, requestID uuid.UUID, senderName string, recipientID uuid.UUID) error {
	notification := &Notification{
		Title:    "New Contact Request",
		Body:     fmt.Sprintf("%s wants to get in touch with you", senderName),
		Priority: "normal",
		Sound:    "default",
		Category: "CONTACT_REQUEST",
		Data: map[string]string{
			"type":       "contact_request",
			"request_id": requestID.String(),
			"sender":     senderName,
		},
	}

	return s.sendToUsers(ctx, notification, []uuid.UUID{recipientID})
}

// sendToUsers resolves active tokens for the given users and dispatches the
// notification through the configured provider
func (s *Service) sendToUsers(ctx context.Context, notification *Notification, userIDs []uuid.UUID) error {
	var allTokens []string
	for _, userID := range userIDs {
		tokens, err := s.repo.GetByUserID(ctx, userID)
		if err != nil {
			logger.Warn("Failed to get push tokens for user",
				zap.String("user_id", userID.String()),
				zap.Error(err))
			continue
		}

		for _, token := range tokens {
			if token.Active {
				allTokens = append(allTokens, token.Token)
			}
		}
	}

	if len(allTokens) == 0 {
		logger.Info("No active push tokens found for recipients",
			zap.Int("recipient_count", len(userIDs)))
		return nil
	}

	result, err := s.provider.Send(ctx, notification, allTokens)
	if err != nil {
		logger.Error("Failed to send push notification",
			zap.String("category", notification.Category),
			zap.Int("token_count", len(allTokens)),
			zap.Error(err))
		return fmt.Errorf("failed to send push notification: %w", err)
	}

	logger.Info("Push notification sent",
		zap.String("category", notification.Category),
		zap.Int("success_count", result.SuccessCount),
		zap.Int("failure_count", result.FailureCount),
		zap.Int("invalid_tokens", len(result.InvalidTokens)))

	if len(result.InvalidTokens) > 0 {
		s.handleInvalidTokens(ctx, result.InvalidTokens)
	}

	return nil
}

// handleInvalidTokens marks tokens rejected by the provider as inactive so
// they are not retried
func (s *Service) handleInvalidTokens(ctx context.Context, tokens []string) {
	for _, token := range tokens {
		if err := s.repo.MarkInactiveByToken(ctx, token); err != nil {
			logger.Warn("Failed to mark invalid token inactive", zap.Error(err))
		}
	}
}

// MockProvider is a no-op provider used in development and tests
type MockProvider struct{}

// Send implements Provider, pretending every token succeeded
func (m *MockProvider) Send(_ context.Context, notification *Notification, tokens []string) (*SendResult, error) {
	logger.Debug("Mock push notification",
		zap.String("title", notification.Title),
		zap.Int("token_count", len(tokens)))
	return &SendResult{SuccessCount: len(tokens)}, nil
}
