package call

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

// MockCallRepository is a mock implementation of CallRepository
type MockCallRepository struct {
	mock.Mock
}

func (m *MockCallRepository) CreateWithParticipants(ctx context.Context, call *domain.CallRequest, participants []*domain.CallParticipant) error {
	args := m.Called(ctx, call, participants)
	return args.Error(0)
}

func (m *MockCallRepository) GetByID(ctx context.Context, callID uuid.UUID) (*domain.CallRequest, error) {
	args := m.Called(ctx, callID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CallRequest), args.Error(1)
}

func (m *MockCallRepository) GetParticipants(ctx context.Context, callID uuid.UUID) ([]*domain.CallParticipant, error) {
	args := m.Called(ctx, callID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CallParticipant), args.Error(1)
}

func (m *MockCallRepository) GetParticipantByID(ctx context.Context, participantID uuid.UUID) (*domain.CallParticipant, error) {
	args := m.Called(ctx, participantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CallParticipant), args.Error(1)
}

func (m *MockCallRepository) GetParticipantByCallAndUser(ctx context.Context, callID, userID uuid.UUID) (*domain.CallParticipant, error) {
	args := m.Called(ctx, callID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CallParticipant), args.Error(1)
}

func (m *MockCallRepository) RespondParticipant(ctx context.Context, participantID uuid.UUID, status string, respondedAt time.Time) error {
	args := m.Called(ctx, participantID, status, respondedAt)
	return args.Error(0)
}

func (m *MockCallRepository) MarkJoined(ctx context.Context, participantID uuid.UUID) error {
	args := m.Called(ctx, participantID)
	return args.Error(0)
}

func (m *MockCallRepository) Start(ctx context.Context, callID uuid.UUID, startedAt time.Time) (bool, error) {
	args := m.Called(ctx, callID, startedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockCallRepository) End(ctx context.Context, callID uuid.UUID, endedAt time.Time) error {
	args := m.Called(ctx, callID, endedAt)
	return args.Error(0)
}

func (m *MockCallRepository) ListCreatedBy(ctx context.Context, initiatorID uuid.UUID) ([]*domain.CallRequest, error) {
	args := m.Called(ctx, initiatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CallRequest), args.Error(1)
}

func (m *MockCallRepository) ListInvitations(ctx context.Context, userID uuid.UUID) ([]*domain.CallParticipant, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CallParticipant), args.Error(1)
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

// MockFeedPublisher is a mock implementation of FeedPublisher
type MockFeedPublisher struct {
	mock.Mock
}

func (m *MockFeedPublisher) PublishInsert(ctx context.Context, table string, rowID, userID uuid.UUID) error {
	args := m.Called(ctx, table, rowID, userID)
	return args.Error(0)
}

func (m *MockFeedPublisher) PublishUpdate(ctx context.Context, table string, rowID, userID uuid.UUID) error {
	args := m.Called(ctx, table, rowID, userID)
	return args.Error(0)
}

func newTestService(callRepo *MockCallRepository, profileRepo *MockProfileReader) *Service {
	return NewService(callRepo, profileRepo, nil, nil, nil)
}

func TestCreateCall(t *testing.T) {
	mockCallRepo := new(MockCallRepository)
	mockProfiles := new(MockProfileReader)
	service := newTestService(mockCallRepo, mockProfiles)

	initiatorID := uuid.New()
	inviteeA := uuid.New()
	inviteeB := uuid.New()

	mockProfiles.On("GetByID", mock.Anything, inviteeA).Return(&domain.Profile{ID: inviteeA}, nil)
	mockProfiles.On("GetByID", mock.Anything, inviteeB).Return(&domain.Profile{ID: inviteeB}, nil)
	mockCallRepo.On("CreateWithParticipants", mock.Anything,
		mock.AnythingOfType("*domain.CallRequest"),
		mock.AnythingOfType("[]*domain.CallParticipant")).Return(nil)

	call, err := service.CreateCall(context.Background(), &CreateCallInput{
		InitiatorID:    initiatorID,
		Title:          "Kidney match review",
		ParticipantIDs: []uuid.UUID{inviteeA, inviteeB},
	})

	assert.NoError(t, err)
	assert.NotNil(t, call)
	assert.Equal(t, domain.CallStatusPending, call.Status)
	assert.Equal(t, initiatorID, call.InitiatorID)
	assert.Contains(t, call.RoomName, "conference-"+initiatorID.String())
	assert.Len(t, call.Participants, 2)
	for _, p := range call.Participants {
		assert.Equal(t, domain.ParticipantInvited, p.Status)
		assert.Equal(t, call.ID, p.CallRequestID)
	}
	mockCallRepo.AssertExpectations(t)
}

func TestCreateCall_EmptyTitle(t *testing.T) {
	service := newTestService(new(MockCallRepository), new(MockProfileReader))

	_, err := service.CreateCall(context.Background(), &CreateCallInput{
		InitiatorID:    uuid.New(),
		Title:          "   ",
		ParticipantIDs: []uuid.UUID{uuid.New()},
	})

	assert.Error(t, err)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, apperrors.ErrCodeMissingField, appErr.Code)
}

func TestCreateCall_NoParticipants(t *testing.T) {
	service := newTestService(new(MockCallRepository), new(MockProfileReader))

	_, err := service.CreateCall(context.Background(), &CreateCallInput{
		InitiatorID: uuid.New(),
		Title:       "Review",
	})

	assert.Error(t, err)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
}

func TestCreateCall_SelfInvite(t *testing.T) {
	service := newTestService(new(MockCallRepository), new(MockProfileReader))

	initiatorID := uuid.New()
	_, err := service.CreateCall(context.Background(), &CreateCallInput{
		InitiatorID:    initiatorID,
		Title:          "Review",
		ParticipantIDs: []uuid.UUID{initiatorID},
	})

	assert.Error(t, err)
}

func TestCreateCall_DeduplicatesInvitees(t *testing.T) {
	mockCallRepo := new(MockCallRepository)
	mockProfiles := new(MockProfileReader)
	service := newTestService(mockCallRepo, mockProfiles)

	inviteeID := uuid.New()
	mockProfiles.On("GetByID", mock.Anything, inviteeID).Return(&domain.Profile{ID: inviteeID}, nil)
	mockCallRepo.On("CreateWithParticipants", mock.Anything,
		mock.AnythingOfType("*domain.CallRequest"),
		mock.AnythingOfType("[]*domain.CallParticipant")).Return(nil)

	call, err := service.CreateCall(context.Background(), &CreateCallInput{
		InitiatorID:    uuid.New(),
		Title:          "Review",
		ParticipantIDs: []uuid.UUID{inviteeID, inviteeID, inviteeID},
	})

	assert.NoError(t, err)
	assert.Len(t, call.Participants, 1)
}

func TestCreateCall_UnknownInvitee(t *testing.T) {
	mockCallRepo := new(MockCallRepository)
	mockProfiles := new(MockProfileReader)
	service := newTestService(mockCallRepo, mockProfiles)

	inviteeID := uuid.New()
	mockProfiles.On("GetByID", mock.Anything, inviteeID).Return(nil, postgres.ErrNotFound)

	_, err := service.CreateCall(context.Background(), &CreateCallInput{
		InitiatorID:    uuid.New(),
		Title:          "Review",
		ParticipantIDs: []uuid.UUID{inviteeID},
	})

	assert.Error(t, err)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, apperrors.ErrCodeProfileNotFound, appErr.Code)
	mockCallRepo.AssertNotCalled(t, "CreateWithParticipants")
}

func TestRespond_Accept(t *testing.T) {
	mockCallRepo := new(MockCallRepository)
	service := newTestService(mockCallRepo, new(MockProfileReader))

	callID := uuid.New()
	userID := uuid.New()
	participant := &domain.CallParticipant{
		ID:            uuid.New(),
		CallRequestID: callID,
		UserID:        userID,
		Status:        domain.ParticipantInvited,
	}

	mockCallRepo.On("GetParticipantByID", mock.Anything, participant.ID).Return(participant, nil)
	mockCallRepo.On("GetByID", mock.Anything, callID).Return(&domain.CallRequest{
		ID:     callID,
		Status: domain.CallStatusPending,
	}, nil)
	mockCallRepo.On("RespondParticipant", mock.Anything, participant.ID,
		domain.ParticipantAccepted, mock.AnythingOfType("time.Time")).Return(nil)

	result, err := service.Respond(context.Background(), participant.ID, userID, true)

	assert.NoError(t, err)
	assert.Equal(t, domain.ParticipantAccepted, result.Status)
	assert.NotNil(t, result.RespondedAt)
	mockCallRepo.AssertExpectations(t)
}

func TestRespond_BroadcastsParticipantUpdate(t *testing.T) {
	mockCallRepo := new(MockCallRepository)
	mockFeed := new(MockFeedPublisher)
	service := NewService(mockCallRepo, new(MockProfileReader), mockFeed, nil, nil)

	callID := uuid.New()
	userID := uuid.New()
	initiatorID := uuid.New()
	participant := &domain.CallParticipant{
		ID:            uuid.New(),
		CallRequestID: callID,
		UserID:        userID,
		Status:        domain.ParticipantInvited,
	}

	mockCallRepo.On("GetParticipantByID", mock.Anything, participant.ID).Return(participant, nil)
	mockCallRepo.On("GetByID", mock.Anything, callID).Return(&domain.CallRequest{
		ID:          callID,
		InitiatorID: initiatorID,
		Status:      domain.CallStatusPending,
	}, nil)
	mockCallRepo.On("RespondParticipant", mock.Anything, participant.ID,
		domain.ParticipantAccepted, mock.AnythingOfType("time.Time")).Return(nil)

	// Every invitee watching the call must get the re-fetch signal, so the
	// participant update is unscoped rather than addressed to the initiator.
	mockFeed.On("PublishUpdate", mock.Anything, domain.FeedTableCallParticipants,
		participant.ID, uuid.Nil).Return(nil)

	_, err := service.Respond(context.Background(), participant.ID, userID, true)

	assert.NoError(t, err)
	mockFeed.AssertExpectations(t)
	mockFeed.AssertNotCalled(t, "PublishUpdate", mock.Anything,
		domain.FeedTableCallParticipants, participant.ID, initiatorID)
}

func TestRespond_AlreadyResponded(t *testing.T) {
	mockCallRepo := new(MockCallRepository)
	service := newTestService(mockCallRepo, new(MockProfileReader))

	callID := uuid.New()
	userID := uuid.New()
	participant := &domain.CallParticipant{
		ID:            uuid.New(),
		CallRequestID: callID,
		UserID:        userID,
		Status:        domain.ParticipantAccepted,
	}

	mockCallRepo.On("GetParticipantByID", mock.Anything, participant.ID).Return(participant, nil)
	mockCallRepo.On("GetByID", mock.Anything, callID).Return(&domain.CallRequest{
		ID:     callID,
		Status: domain.CallStatusPending,
	}, nil)
	mockCallRepo.On("RespondParticipant", mock.Anything, participant.ID,
		domain.ParticipantDeclined, mock.AnythingOfType("time.Time")).Return(postgres.ErrNoTransition)

	_, err := service.Respond(context.Background(), participant.ID, userID, false)

	assert.Error(t, err)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, apperrors.ErrCodeAlreadyResponded, appErr.Code)
	assert.Equal(t, 409, appErr.StatusCode)
}

func TestRespond_WrongUser(t *testing.T) {
	mockCallRepo := new(MockCallRepository)
	service := newTestService(mockCallRepo, new(MockProfileReader))

	participant := &domain.CallParticipant{
		ID:            uuid.New(),
		CallRequestID: uuid.New(),
		UserID:        uuid.New(),
		Status:        domain.ParticipantInvited,
	}

	mockCallRepo.On("GetParticipantByID", mock.Anything, participant.ID).Return(participant, nil)

	_, err := service.Respond(context.Background(), participant.ID, uuid.New(), true)

	assert.Error(t, err)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, apperrors.ErrCodeForbidden, appErr.Code)
	mockCallRepo.AssertNotCalled(t, "RespondParticipant")
}

func TestJoin_AllAcceptedStartsCall(t *testing.T) {
	mockCallRepo := new(MockCallRepository)
	service := newTestService(mockCallRepo, new(MockProfileReader))

	callID := uuid.New()
	userID := uuid.New()
	own := &domain.CallParticipant{
		ID:            uuid.New(),
		CallRequestID: callID,
		UserID:        userID,
		Status:        domain.ParticipantAccepted,
	}
	other := &domain.CallParticipant{
		ID:            uuid.New(),
		CallRequestID: callID,
		UserID:        uuid.New(),
		Status:        domain.ParticipantAccepted,
	}

	mockCallRepo.On("GetByID", mock.Anything, callID).Return(&domain.CallRequest{
		ID:          callID,
		InitiatorID: uuid.New(),
		Status:      domain.CallStatusPending,
	}, nil)
	mockCallRepo.On("GetParticipants", mock.Anything, callID).Return(
		[]*domain.CallParticipant{own, other}, nil)
	mockCallRepo.On("Start", mock.Anything, callID, mock.AnythingOfType("time.Time")).Return(true, nil)
	mockCallRepo.On("MarkJoined", mock.Anything, own.ID).Return(nil)

	result, err := service.Join(context.Background(), callID, userID)

	assert.NoError(t, err)
	assert.True(t, result.Started)
	assert.False(t, result.Waiting)
	assert.Equal(t, domain.CallStatusActive, result.Call.Status)
	assert.NotNil(t, result.Call.StartedAt)
	assert.Equal(t, domain.ParticipantJoined, own.Status)
	mockCallRepo.AssertExpectations(t)
}

func TestJoin_WaitingForResponses(t *testing.T) {
	mockCallRepo := new(MockCallRepository)
	service := newTestService(mockCallRepo, new(MockProfileReader))

	callID := uuid.New()
	userID := uuid.New()
	own := &domain.CallParticipant{
		ID:            uuid.New(),
		CallRequestID: callID,
		UserID:        userID,
		Status:        domain.ParticipantAccepted,
	}
	undecided := &domain.CallParticipant{
		ID:            uuid.New(),
		CallRequestID: callID,
		UserID:        uuid.New(),
		Status:        domain.ParticipantInvited,
		UserName:      "Dr. C",
	}

	mockCallRepo.On("GetByID", mock.Anything, callID).Return(&domain.CallRequest{
		ID:          callID,
		InitiatorID: uuid.New(),
		Status:      domain.CallStatusPending,
	}, nil)
	mockCallRepo.On("GetParticipants", mock.Anything, callID).Return(
		[]*domain.CallParticipant{own, undecided}, nil)

	result, err := service.Join(context.Background(), callID, userID)

	assert.NoError(t, err)
	assert.True(t, result.Waiting)
	assert.False(t, result.Started)
	assert.Equal(t, []string{"Dr. C"}, result.Pending)
	mockCallRepo.AssertNotCalled(t, "Start")
	mockCallRepo.AssertNotCalled(t, "MarkJoined")
}

func TestJoin_DeclinedParticipantBlocksStart(t *testing.T) {
	mockCallRepo := new(MockCallRepository)
	service := newTestService(mockCallRepo, new(MockProfileReader))

	callID := uuid.New()
	initiatorID := uuid.New()
	declined := &domain.CallParticipant{
		ID:            uuid.New(),
		CallRequestID: callID,
		UserID:        uuid.New(),
		Status:        domain.ParticipantDeclined,
		UserName:      "Dr. B",
	}

	mockCallRepo.On("GetByID", mock.Anything, callID).Return(&domain.CallRequest{
		ID:          callID,
		InitiatorID: initiatorID,
		Status:      domain.CallStatusPending,
	}, nil)
	mockCallRepo.On("GetParticipants", mock.Anything, callID).Return(
		[]*domain.CallParticipant{declined}, nil)

	result, err := service.Join(context.Background(), callID, initiatorID)

	assert.NoError(t, err)
	assert.True(t, result.Waiting)
	mockCallRepo.AssertNotCalled(t, "Start")
}

func TestJoin_RejoinActiveCall(t *testing.T) {
	mockCallRepo := new(MockCallRepository)
	service := newTestService(mockCallRepo, new(MockProfileReader))

	callID := uuid.New()
	userID := uuid.New()
	own := &domain.CallParticipant{
		ID:            uuid.New(),
		CallRequestID: callID,
		UserID:        userID,
		Status:        domain.ParticipantJoined,
	}
	undecided := &domain.CallParticipant{
		ID:            uuid.New(),
		CallRequestID: callID,
		UserID:        uuid.New(),
		Status:        domain.ParticipantInvited,
	}

	startedAt := time.Now().Add(-5 * time.Minute)
	mockCallRepo.On("GetByID", mock.Anything, callID).Return(&domain.CallRequest{
		ID:          callID,
		InitiatorID: uuid.New(),
		Status:      domain.CallStatusActive,
		StartedAt:   &startedAt,
	}, nil)
	mockCallRepo.On("GetParticipants", mock.Anything, callID).Return(
		[]*domain.CallParticipant{own, undecided}, nil)

	result, err := service.Join(context.Background(), callID, userID)

	assert.NoError(t, err)
	assert.False(t, result.Waiting)
	assert.False(t, result.Started)
	mockCallRepo.AssertNotCalled(t, "Start")
}

func TestJoin_InvitedCannotJoin(t *testing.T) {
	mockCallRepo := new(MockCallRepository)
	service := newTestService(mockCallRepo, new(MockProfileReader))

	callID := uuid.New()
	userID := uuid.New()
	own := &domain.CallParticipant{
		ID:            uuid.New(),
		CallRequestID: callID,
		UserID:        userID,
		Status:        domain.ParticipantInvited,
	}

	mockCallRepo.On("GetByID", mock.Anything, callID).Return(&domain.CallRequest{
		ID:          callID,
		InitiatorID: uuid.New(),
		Status:      domain.CallStatusPending,
	}, nil)
	mockCallRepo.On("GetParticipants", mock.Anything, callID).Return(
		[]*domain.CallParticipant{own}, nil)

	_, err := service.Join(context.Background(), callID, userID)

	assert.Error(t, err)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, apperrors.ErrCodeConflict, appErr.Code)
}

func TestJoin_NonParticipant(t *testing.T) {
	mockCallRepo := new(MockCallRepository)
	service := newTestService(mockCallRepo, new(MockProfileReader))

	callID := uuid.New()

	mockCallRepo.On("GetByID", mock.Anything, callID).Return(&domain.CallRequest{
		ID:          callID,
		InitiatorID: uuid.New(),
		Status:      domain.CallStatusPending,
	}, nil)
	mockCallRepo.On("GetParticipants", mock.Anything, callID).Return(
		[]*domain.CallParticipant{}, nil)

	_, err := service.Join(context.Background(), callID, uuid.New())

	assert.Error(t, err)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, apperrors.ErrCodeForbidden, appErr.Code)
}

func TestJoin_EndedCall(t *testing.T) {
	mockCallRepo := new(MockCallRepository)
	service := newTestService(mockCallRepo, new(MockProfileReader))

	callID := uuid.New()
	mockCallRepo.On("GetByID", mock.Anything, callID).Return(&domain.CallRequest{
		ID:     callID,
		Status: domain.CallStatusEnded,
	}, nil)

	_, err := service.Join(context.Background(), callID, uuid.New())

	assert.Error(t, err)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, apperrors.ErrCodeConflict, appErr.Code)
}

func TestJoin_StartRaceFallsThrough(t *testing.T) {
	mockCallRepo := new(MockCallRepository)
	service := newTestService(mockCallRepo, new(MockProfileReader))

	callID := uuid.New()
	userID := uuid.New()
	own := &domain.CallParticipant{
		ID:            uuid.New(),
		CallRequestID: callID,
		UserID:        userID,
		Status:        domain.ParticipantAccepted,
	}

	mockCallRepo.On("GetByID", mock.Anything, callID).Return(&domain.CallRequest{
		ID:          callID,
		InitiatorID: uuid.New(),
		Status:      domain.CallStatusPending,
	}, nil)
	mockCallRepo.On("GetParticipants", mock.Anything, callID).Return(
		[]*domain.CallParticipant{own}, nil)
	// another participant started the call between our read and our update
	mockCallRepo.On("Start", mock.Anything, callID, mock.AnythingOfType("time.Time")).Return(false, nil)
	mockCallRepo.On("MarkJoined", mock.Anything, own.ID).Return(nil)

	result, err := service.Join(context.Background(), callID, userID)

	assert.NoError(t, err)
	assert.False(t, result.Started)
	assert.False(t, result.Waiting)
	assert.Equal(t, domain.CallStatusActive, result.Call.Status)
}

func TestEnd(t *testing.T) {
	mockCallRepo := new(MockCallRepository)
	service := newTestService(mockCallRepo, new(MockProfileReader))

	callID := uuid.New()
	initiatorID := uuid.New()

	mockCallRepo.On("GetByID", mock.Anything, callID).Return(&domain.CallRequest{
		ID:          callID,
		InitiatorID: initiatorID,
		Status:      domain.CallStatusActive,
	}, nil)
	mockCallRepo.On("End", mock.Anything, callID, mock.AnythingOfType("time.Time")).Return(nil)

	err := service.End(context.Background(), callID, initiatorID)

	assert.NoError(t, err)
	mockCallRepo.AssertExpectations(t)
}

func TestEnd_NotInitiator(t *testing.T) {
	mockCallRepo := new(MockCallRepository)
	service := newTestService(mockCallRepo, new(MockProfileReader))

	callID := uuid.New()
	mockCallRepo.On("GetByID", mock.Anything, callID).Return(&domain.CallRequest{
		ID:          callID,
		InitiatorID: uuid.New(),
		Status:      domain.CallStatusActive,
	}, nil)

	err := service.End(context.Background(), callID, uuid.New())

	assert.Error(t, err)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, apperrors.ErrCodeForbidden, appErr.Code)
	mockCallRepo.AssertNotCalled(t, "End")
}

// TestFullCallLifecycle walks the intended flow: an initiator invites two
// colleagues, both accept, the first join starts the call, a later join
// re-enters without re-checking the gate, and the initiator ends it.
func TestFullCallLifecycle(t *testing.T) {
	mockCallRepo := new(MockCallRepository)
	mockProfiles := new(MockProfileReader)
	service := newTestService(mockCallRepo, mockProfiles)

	initiatorID := uuid.New()
	drB := uuid.New()
	drC := uuid.New()

	mockProfiles.On("GetByID", mock.Anything, drB).Return(&domain.Profile{ID: drB, FullName: "Dr. B"}, nil)
	mockProfiles.On("GetByID", mock.Anything, drC).Return(&domain.Profile{ID: drC, FullName: "Dr. C"}, nil)

	var created *domain.CallRequest
	var createdParts []*domain.CallParticipant
	mockCallRepo.On("CreateWithParticipants", mock.Anything,
		mock.AnythingOfType("*domain.CallRequest"),
		mock.AnythingOfType("[]*domain.CallParticipant")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*domain.CallRequest)
			createdParts = args.Get(2).([]*domain.CallParticipant)
		}).Return(nil)

	call, err := service.CreateCall(context.Background(), &CreateCallInput{
		InitiatorID:    initiatorID,
		Title:          "Transplant board",
		ParticipantIDs: []uuid.UUID{drB, drC},
	})
	assert.NoError(t, err)
	assert.Equal(t, created.ID, call.ID)
	assert.Len(t, createdParts, 2)

	// both invitees accept
	for _, p := range createdParts {
		p := p
		mockCallRepo.On("GetParticipantByID", mock.Anything, p.ID).Return(p, nil)
		mockCallRepo.On("GetByID", mock.Anything, call.ID).Return(created, nil)
		mockCallRepo.On("RespondParticipant", mock.Anything, p.ID,
			domain.ParticipantAccepted, mock.AnythingOfType("time.Time")).
			Run(func(args mock.Arguments) { p.Status = domain.ParticipantAccepted }).Return(nil)

		_, err := service.Respond(context.Background(), p.ID, p.UserID, true)
		assert.NoError(t, err)
	}

	// first join satisfies the gate and starts the call
	mockCallRepo.On("GetParticipants", mock.Anything, call.ID).Return(createdParts, nil)
	mockCallRepo.On("Start", mock.Anything, call.ID, mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) {
			created.Status = domain.CallStatusActive
			at := args.Get(2).(time.Time)
			created.StartedAt = &at
		}).Return(true, nil).Once()
	mockCallRepo.On("MarkJoined", mock.Anything, createdParts[0].ID).
		Run(func(mock.Arguments) { createdParts[0].Status = domain.ParticipantJoined }).Return(nil)

	result, err := service.Join(context.Background(), call.ID, drB)
	assert.NoError(t, err)
	assert.True(t, result.Started)
	firstStartedAt := *created.StartedAt

	// second join re-enters the now-active call without the gate
	mockCallRepo.On("MarkJoined", mock.Anything, createdParts[1].ID).
		Run(func(mock.Arguments) { createdParts[1].Status = domain.ParticipantJoined }).Return(nil)

	result, err = service.Join(context.Background(), call.ID, drC)
	assert.NoError(t, err)
	assert.False(t, result.Started)
	assert.False(t, result.Waiting)
	assert.Equal(t, firstStartedAt, *created.StartedAt)

	// initiator ends the call
	mockCallRepo.On("End", mock.Anything, call.ID, mock.AnythingOfType("time.Time")).Return(nil)
	err = service.End(context.Background(), call.ID, initiatorID)
	assert.NoError(t, err)
}
