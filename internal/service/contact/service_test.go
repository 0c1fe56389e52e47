package contact

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"lifelink-backend/internal/domain"
	"lifelink-backend/internal/repository/postgres"
	apperrors "lifelink-backend/pkg/errors"
)

// MockContactRepository is a mock implementation of ContactRepository
type MockContactRepository struct {
	mock.Mock
}

func (m *MockContactRepository) Create(ctx context.Context, req *domain.ContactRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockContactRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ContactRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContactRequest), args.Error(1)
}

func (m *MockContactRepository) HasPending(ctx context.Context, senderID, recipientID uuid.UUID) (bool, error) {
	args := m.Called(ctx, senderID, recipientID)
	return args.Bool(0), args.Error(1)
}

func (m *MockContactRepository) ListReceived(ctx context.Context, recipientID uuid.UUID) ([]*domain.ContactRequest, error) {
	args := m.Called(ctx, recipientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ContactRequest), args.Error(1)
}

func (m *MockContactRepository) ListSent(ctx context.Context, senderID uuid.UUID) ([]*domain.ContactRequest, error) {
	args := m.Called(ctx, senderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ContactRequest), args.Error(1)
}

func (m *MockContactRepository) Respond(ctx context.Context, id, recipientID uuid.UUID, status string, responseText *string, respondedAt time.Time) error {
	args := m.Called(ctx, id, recipientID, status, responseText, respondedAt)
	return args.Error(0)
}

// MockProfileReader is a mock implementation of ProfileReader
type MockProfileReader struct {
	mock.Mock
}

func (m *MockProfileReader) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func TestSend(t *testing.T) {
	mockRepo := new(MockContactRepository)
	mockProfiles := new(MockProfileReader)
	service := NewService(mockRepo, mockProfiles, nil, nil)

	senderID := uuid.New()
	recipientID := uuid.New()

	mockProfiles.On("GetByID", mock.Anything, recipientID).Return(&domain.Profile{ID: recipientID}, nil)
	mockRepo.On("HasPending", mock.Anything, senderID, recipientID).Return(false, nil)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.ContactRequest")).Return(nil)

	req, err := service.Send(context.Background(), senderID, recipientID, "I may be a match for your kidney listing")

	assert.NoError(t, err)
	assert.Equal(t, domain.ContactStatusPending, req.Status)
	assert.Equal(t, senderID, req.SenderID)
	mockRepo.AssertExpectations(t)
}

func TestSend_DuplicatePending(t *testing.T) {
	mockRepo := new(MockContactRepository)
	mockProfiles := new(MockProfileReader)
	service := NewService(mockRepo, mockProfiles, nil, nil)

	senderID := uuid.New()
	recipientID := uuid.New()

	mockProfiles.On("GetByID", mock.Anything, recipientID).Return(&domain.Profile{ID: recipientID}, nil)
	mockRepo.On("HasPending", mock.Anything, senderID, recipientID).Return(true, nil)

	_, err := service.Send(context.Background(), senderID, recipientID, "Hello again")

	assert.Error(t, err)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, apperrors.ErrCodeConflict, appErr.Code)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestSend_ToSelf(t *testing.T) {
	service := NewService(new(MockContactRepository), new(MockProfileReader), nil, nil)

	userID := uuid.New()
	_, err := service.Send(context.Background(), userID, userID, "Hi me")

	assert.Error(t, err)
}

func TestSend_EmptyMessage(t *testing.T) {
	service := NewService(new(MockContactRepository), new(MockProfileReader), nil, nil)

	_, err := service.Send(context.Background(), uuid.New(), uuid.New(), "   ")

	assert.Error(t, err)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, apperrors.ErrCodeMissingField, appErr.Code)
}

func TestRespond_Accept(t *testing.T) {
	mockRepo := new(MockContactRepository)
	service := NewService(mockRepo, new(MockProfileReader), nil, nil)

	requestID := uuid.New()
	recipientID := uuid.New()

	mockRepo.On("GetByID", mock.Anything, requestID).Return(&domain.ContactRequest{
		ID:          requestID,
		SenderID:    uuid.New(),
		RecipientID: recipientID,
		Status:      domain.ContactStatusPending,
	}, nil)
	mockRepo.On("Respond", mock.Anything, requestID, recipientID,
		domain.ContactStatusAccepted, mock.Anything, mock.AnythingOfType("time.Time")).Return(nil)

	req, err := service.Respond(context.Background(), requestID, recipientID, true, "Happy to talk")

	assert.NoError(t, err)
	assert.Equal(t, domain.ContactStatusAccepted, req.Status)
	assert.Equal(t, "Happy to talk", *req.Response)
}

func TestRespond_WrongRecipient(t *testing.T) {
	mockRepo := new(MockContactRepository)
	service := NewService(mockRepo, new(MockProfileReader), nil, nil)

	requestID := uuid.New()
	mockRepo.On("GetByID", mock.Anything, requestID).Return(&domain.ContactRequest{
		ID:          requestID,
		RecipientID: uuid.New(),
		Status:      domain.ContactStatusPending,
	}, nil)

	_, err := service.Respond(context.Background(), requestID, uuid.New(), true, "")

	assert.Error(t, err)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, apperrors.ErrCodeForbidden, appErr.Code)
	mockRepo.AssertNotCalled(t, "Respond")
}

func TestRespond_AlreadyResponded(t *testing.T) {
	mockRepo := new(MockContactRepository)
	service := NewService(mockRepo, new(MockProfileReader), nil, nil)

	requestID := uuid.New()
	recipientID := uuid.New()

	mockRepo.On("GetByID", mock.Anything, requestID).Return(&domain.ContactRequest{
		ID:          requestID,
		RecipientID: recipientID,
		Status:      domain.ContactStatusAccepted,
	}, nil)
	mockRepo.On("Respond", mock.Anything, requestID, recipientID,
		domain.ContactStatusDeclined, mock.Anything, mock.AnythingOfType("time.Time")).
		Return(postgres.ErrNoTransition)

	_, err := service.Respond(context.Background(), requestID, recipientID, false, "")

	assert.Error(t, err)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, apperrors.ErrCodeConflict, appErr.Code)
}
