package contact

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

// ContactRepository defines contact request persistence operations
type ContactRepository interface {
	Create(ctx context.Context, req *domain.ContactRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ContactRequest, error)
	HasPending(ctx context.Context, senderID, recipientID uuid.UUID) (bool, error)
	ListReceived(ctx context.Context, recipientID uuid.UUID) ([]*domain.ContactRequest, error)
	ListSent(ctx context.Context, senderID uuid.UUID) ([]*domain.ContactRequest, error)
	Respond(ctx context.Context, id, recipientID uuid.UUID, status string, responseText *string, respondedAt time.Time) error
}

// ProfileReader resolves recipient profiles
type ProfileReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
}

// FeedPublisher emits row-change events for connected clients to re-fetch on
type FeedPublisher interface {
	PublishInsert(ctx context.Context, table string, rowID, userID uuid.UUID) error
	PublishUpdate(ctx context.Context, table string, rowID, userID uuid.UUID) error
}

// Notifier delivers push notifications for contact requests
type Notifier interface {
	SendContactRequest(ctx context.Context, requestID uuid.UUID, senderName string, recipientID uuid.UUID) error
}

// Service handles contact request business logic
type Service struct {
	contactRepo ContactRepository
	profileRepo ProfileReader
	feed        FeedPublisher
	notifier    Notifier
}

// NewService creates a new contact service. feed and notifier may be nil.
func NewService(contactRepo ContactRepository, profileRepo ProfileReader, feed FeedPublisher, notifier Notifier) *Service {
	return &Service{
		contactRepo: contactRepo,
		profileRepo: profileRepo,
		feed:        feed,
		notifier:    notifier,
	}
}

// Send creates a contact request from sender to recipient
func (s *Service) Send(ctx context.Context, senderID, recipientID uuid.UUID, message string) (*domain.ContactRequest, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.MissingFieldError("message")
	}
	if senderID == recipientID {
		return nil, apperrors.ValidationError("Cannot send a contact request to yourself")
	}

	if _, err := s.profileRepo.GetByID(ctx, recipientID); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.ProfileNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}

	pending, err := s.contactRepo.HasPending(ctx, senderID, recipientID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if pending {
		return nil, apperrors.ConflictError("A pending request to this user already exists")
	}

	now := time.Now().UTC()
	req := &domain.ContactRequest{
		ID:          uuid.New(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Message:     message,
		Status:      domain.ContactStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.contactRepo.Create(ctx, req); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	if s.feed != nil {
		if err := s.feed.PublishInsert(ctx, domain.FeedTableContactRequests, req.ID, recipientID); err != nil {
			logger.Warn("Failed to publish contact request event", zap.Error(err))
		}
	}

	if s.notifier != nil {
		senderName := ""
		if sender, err := s.profileRepo.GetByID(ctx, senderID); err == nil {
			senderName = sender.FullName
		}
		if err := s.notifier.SendContactRequest(ctx, req.ID, senderName, recipientID); err != nil {
			logger.Warn("Failed to send contact request notification",
				zap.String("request_id", req.ID.String()),
				zap.Error(err))
		}
	}

	logger.Info("Contact request sent",
		zap.String("request_id", req.ID.String()),
		zap.String("sender_id", senderID.String()),
		zap.String("recipient_id", recipientID.String()))

	return req, nil
}

// Respond records the recipient's accept or decline with an optional reply
func (s *Service) Respond(ctx context.Context, id, recipientID uuid.UUID, accept bool, responseText string) (*domain.ContactRequest, error) {
	req, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.NotFoundError("Contact request")
		}
		return nil, apperrors.DatabaseError(err)
	}

	if req.RecipientID != recipientID {
		return nil, apperrors.ForbiddenError("Contact request is addressed to another user")
	}

	status := domain.ContactStatusDeclined
	if accept {
		status = domain.ContactStatusAccepted
	}

	var response *string
	if text := strings.TrimSpace(responseText); text != "" {
		response = &text
	}

	now := time.Now().UTC()
	if err := s.contactRepo.Respond(ctx, id, recipientID, status, response, now); err != nil {
		if errors.Is(err, postgres.ErrNoTransition) {
			return nil, apperrors.ConflictError("Contact request has already been responded to")
		}
		return nil, apperrors.DatabaseError(err)
	}

	req.Status = status
	req.Response = response
	req.UpdatedAt = now

	if s.feed != nil {
		if err := s.feed.PublishUpdate(ctx, domain.FeedTableContactRequests, req.ID, req.SenderID); err != nil {
			logger.Warn("Failed to publish contact request event", zap.Error(err))
		}
	}

	logger.Info("Contact request responded",
		zap.String("request_id", id.String()),
		zap.String("status", status))

	return req, nil
}

// ListReceived returns requests addressed to the user, newest first
func (s *Service) ListReceived(ctx context.Context, userID uuid.UUID) ([]*domain.ContactRequest, error) {
	reqs, err := s.contactRepo.ListReceived(ctx, userID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return reqs, nil
}

// ListSent returns requests created by the user, newest first
func (s *Service) ListSent(ctx context.Context, userID uuid.UUID) ([]*domain.ContactRequest, error) {
	reqs, err := s.contactRepo.ListSent(ctx, userID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return reqs, nil
}
