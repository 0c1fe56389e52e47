package call

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lifelink-backend/internal/domain"
	"lifelink-backend/internal/repository/postgres"
	apperrors "lifelink-backend/pkg/errors"
	"lifelink-backend/pkg/logger"
	"lifelink-backend/pkg/metrics"
)

// CallRepository defines call persistence operations
type CallRepository interface {
	CreateWithParticipants(ctx context.Context, call *domain.CallRequest, participants []*domain.CallParticipant) error
	GetByID(ctx context.Context, callID uuid.UUID) (*domain.CallRequest, error)
	GetParticipants(ctx context.Context, callID uuid.UUID) ([]*domain.CallParticipant, error)
	GetParticipantByID(ctx context.Context, participantID uuid.UUID) (*domain.CallParticipant, error)
	GetParticipantByCallAndUser(ctx context.Context, callID, userID uuid.UUID) (*domain.CallParticipant, error)
	RespondParticipant(ctx context.Context, participantID uuid.UUID, status string, respondedAt time.Time) error
	MarkJoined(ctx context.Context, participantID uuid.UUID) error
	Start(ctx context.Context, callID uuid.UUID, startedAt time.Time) (bool, error)
	End(ctx context.Context, callID uuid.UUID, endedAt time.Time) error
	ListCreatedBy(ctx context.Context, initiatorID uuid.UUID) ([]*domain.CallRequest, error)
	ListInvitations(ctx context.Context, userID uuid.UUID) ([]*domain.CallParticipant, error)
}

// ProfileReader resolves profiles for invitee validation
type ProfileReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
}

// FeedPublisher emits row-change events for connected clients to re-fetch on
type FeedPublisher interface {
	PublishInsert(ctx context.Context, table string, rowID, userID uuid.UUID) error
	PublishUpdate(ctx context.Context, table string, rowID, userID uuid.UUID) error
}

// Notifier delivers push notifications for call invitations
type Notifier interface {
	SendCallInvitation(ctx context.Context, callID uuid.UUID, title, initiatorName string, inviteeIDs []uuid.UUID) error
}

// Service handles conference call business logic
type Service struct {
	callRepo    CallRepository
	profileRepo ProfileReader
	feed        FeedPublisher
	notifier    Notifier
	metrics     *metrics.Metrics
}

// NewService creates a new call service. notifier and m may be nil.
func NewService(callRepo CallRepository, profileRepo ProfileReader, feed FeedPublisher, notifier Notifier, m *metrics.Metrics) *Service {
	return &Service{
		callRepo:    callRepo,
		profileRepo: profileRepo,
		feed:        feed,
		notifier:    notifier,
		metrics:     m,
	}
}

// CreateCallInput contains call creation data
type CreateCallInput struct {
	InitiatorID    uuid.UUID
	Title          string
	ParticipantIDs []uuid.UUID
}

// JoinResult describes the outcome of a join attempt
type JoinResult struct {
	Call *domain.CallRequest `json:"call"`
	// Started reports whether this join transitioned the call to active
	Started bool `json:"started"`
	// Waiting is set when the join gate is not yet satisfied. The caller
	// should poll or wait for a feed event instead of entering the room.
	Waiting bool `json:"waiting"`
	// Pending holds the names of participants who have not accepted yet,
	// populated only while waiting
	Pending []string `json:"pending,omitempty"`
}

// CreateCall validates the invitation list and creates the call request
// together with one invited participant row per invitee, atomically
func (s *Service) CreateCall(ctx context.Context, input *CreateCallInput) (*domain.CallRequest, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.MissingFieldError("title")
	}
	if len(input.ParticipantIDs) == 0 {
		return nil, apperrors.ValidationError("At least one participant is required")
	}

	seen := make(map[uuid.UUID]bool, len(input.ParticipantIDs))
	var inviteeIDs []uuid.UUID
	for _, id := range input.ParticipantIDs {
		if id == input.InitiatorID {
			return nil, apperrors.ValidationError("Initiator cannot be invited to their own call")
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		inviteeIDs = append(inviteeIDs, id)
	}

	for _, id := range inviteeIDs {
		if _, err := s.profileRepo.GetByID(ctx, id); err != nil {
			if errors.Is(err, postgres.ErrNotFound) {
				return nil, apperrors.ProfileNotFoundError().WithDetails(id.String())
			}
			return nil, apperrors.DatabaseError(err)
		}
	}

	now := time.Now().UTC()
	call := &domain.CallRequest{
		ID:          uuid.New(),
		InitiatorID: input.InitiatorID,
		RoomName:    fmt.Sprintf("conference-%s-%d", input.InitiatorID, now.UnixMilli()),
		Title:       title,
		Status:      domain.CallStatusPending,
		CreatedAt:   now,
	}

	participants := make([]*domain.CallParticipant, 0, len(inviteeIDs))
	for _, id := range inviteeIDs {
		participants = append(participants, &domain.CallParticipant{
			ID:            uuid.New(),
			CallRequestID: call.ID,
			UserID:        id,
			Status:        domain.ParticipantInvited,
			CreatedAt:     now,
		})
	}

	if err := s.callRepo.CreateWithParticipants(ctx, call, participants); err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	call.Participants = participants

	if s.metrics != nil {
		s.metrics.RecordCallCreated()
	}

	s.publishInsert(ctx, domain.FeedTableCallRequests, call.ID, uuid.Nil)
	for _, p := range participants {
		s.publishInsert(ctx, domain.FeedTableCallParticipants, p.ID, p.UserID)
	}

	if s.notifier != nil {
		initiatorName := ""
		if initiator, err := s.profileRepo.GetByID(ctx, input.InitiatorID); err == nil {
			initiatorName = initiator.FullName
		}
		if err := s.notifier.SendCallInvitation(ctx, call.ID, call.Title, initiatorName, inviteeIDs); err != nil {
			logger.Warn("Failed to send call invitation notifications",
				zap.String("call_id", call.ID.String()),
				zap.Error(err))
		}
	}

	logger.Info("Call request created",
		zap.String("call_id", call.ID.String()),
		zap.String("initiator_id", input.InitiatorID.String()),
		zap.Int("participants", len(participants)))

	return call, nil
}

// Respond records a participant's accept or decline. Only the invited state
// may transition; a repeated response is a conflict, never a state change.
func (s *Service) Respond(ctx context.Context, participantID, userID uuid.UUID, accept bool) (*domain.CallParticipant, error) {
	participant, err := s.callRepo.GetParticipantByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.ParticipantNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}

	if participant.UserID != userID {
		return nil, apperrors.ForbiddenError("Invitation belongs to another user")
	}

	call, err := s.callRepo.GetByID(ctx, participant.CallRequestID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.CallNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}
	if call.Status == domain.CallStatusEnded {
		return nil, apperrors.ConflictError("Call has ended")
	}

	status := domain.ParticipantDeclined
	if accept {
		status = domain.ParticipantAccepted
	}

	now := time.Now().UTC()
	if err := s.callRepo.RespondParticipant(ctx, participantID, status, now); err != nil {
		if errors.Is(err, postgres.ErrNoTransition) {
			return nil, apperrors.AlreadyRespondedError()
		}
		return nil, apperrors.DatabaseError(err)
	}

	participant.Status = status
	participant.RespondedAt = &now

	if s.metrics != nil {
		s.metrics.RecordInvitationResponse(status)
	}

	// Broadcast so every invitee watching the call re-fetches, not just
	// the initiator.
	s.publishUpdate(ctx, domain.FeedTableCallParticipants, participant.ID, uuid.Nil)

	logger.Info("Invitation response recorded",
		zap.String("participant_id", participantID.String()),
		zap.String("call_id", call.ID.String()),
		zap.String("status", status))

	return participant, nil
}

// Join applies the join gate. A pending call starts only once every invited
// participant has accepted; an active call admits accepted participants and
// the initiator without re-checking the gate. Waiting is a normal outcome,
// not an error.
func (s *Service) Join(ctx context.Context, callID, userID uuid.UUID) (*JoinResult, error) {
	call, err := s.callRepo.GetByID(ctx, callID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.CallNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}

	if call.Status == domain.CallStatusEnded {
		return nil, apperrors.ConflictError("Call has ended")
	}

	participants, err := s.callRepo.GetParticipants(ctx, callID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	call.Participants = participants

	var own *domain.CallParticipant
	if userID != call.InitiatorID {
		for _, p := range participants {
			if p.UserID == userID {
				own = p
				break
			}
		}
		if own == nil {
			return nil, apperrors.ForbiddenError("You are not a participant of this call")
		}
		switch own.Status {
		case domain.ParticipantInvited:
			return nil, apperrors.ConflictError("Accept the invitation before joining")
		case domain.ParticipantDeclined:
			return nil, apperrors.ForbiddenError("You declined this call")
		}
	}

	// Active calls are rejoinable without the gate
	if call.Status == domain.CallStatusActive {
		s.markJoined(ctx, own)
		if s.metrics != nil {
			s.metrics.RecordJoinGate("rejoined")
		}
		return &JoinResult{Call: call}, nil
	}

	var pending []string
	for _, p := range participants {
		if p.Status != domain.ParticipantAccepted && p.Status != domain.ParticipantJoined {
			pending = append(pending, p.UserName)
		}
	}
	if len(pending) > 0 {
		if s.metrics != nil {
			s.metrics.RecordJoinGate("waiting")
		}
		return &JoinResult{Call: call, Waiting: true, Pending: pending}, nil
	}

	now := time.Now().UTC()
	started, err := s.callRepo.Start(ctx, callID, now)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if started {
		call.Status = domain.CallStatusActive
		call.StartedAt = &now
		if s.metrics != nil {
			s.metrics.RecordCallStarted()
			s.metrics.RecordJoinGate("started")
		}
		s.publishUpdate(ctx, domain.FeedTableCallRequests, call.ID, uuid.Nil)
		logger.Info("Call started",
			zap.String("call_id", call.ID.String()),
			zap.Int("participants", len(participants)))
	} else {
		// another participant won the start race; the call is live
		call.Status = domain.CallStatusActive
	}

	s.markJoined(ctx, own)

	return &JoinResult{Call: call, Started: started}, nil
}

func (s *Service) markJoined(ctx context.Context, own *domain.CallParticipant) {
	if own == nil || own.Status == domain.ParticipantJoined {
		return
	}
	if err := s.callRepo.MarkJoined(ctx, own.ID); err != nil {
		if !errors.Is(err, postgres.ErrNoTransition) {
			logger.Warn("Failed to mark participant joined",
				zap.String("participant_id", own.ID.String()),
				zap.Error(err))
		}
		return
	}
	own.Status = domain.ParticipantJoined
	s.publishUpdate(ctx, domain.FeedTableCallParticipants, own.ID, uuid.Nil)
}

// End terminates an active call. Only the initiator may end a call.
func (s *Service) End(ctx context.Context, callID, userID uuid.UUID) error {
	call, err := s.callRepo.GetByID(ctx, callID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return apperrors.CallNotFoundError()
		}
		return apperrors.DatabaseError(err)
	}

	if call.InitiatorID != userID {
		return apperrors.ForbiddenError("Only the initiator can end a call")
	}

	if err := s.callRepo.End(ctx, callID, time.Now().UTC()); err != nil {
		if errors.Is(err, postgres.ErrNoTransition) {
			return apperrors.ConflictError("Call is not active")
		}
		return apperrors.DatabaseError(err)
	}

	if s.metrics != nil {
		s.metrics.RecordCallEnded()
	}

	s.publishUpdate(ctx, domain.FeedTableCallRequests, callID, uuid.Nil)

	logger.Info("Call ended", zap.String("call_id", callID.String()))

	return nil
}

// GetCall retrieves a call with its participants. Access is limited to the
// initiator and invited participants.
func (s *Service) GetCall(ctx context.Context, callID, userID uuid.UUID) (*domain.CallRequest, error) {
	call, err := s.callRepo.GetByID(ctx, callID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.CallNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}

	participants, err := s.callRepo.GetParticipants(ctx, callID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	call.Participants = participants

	if call.InitiatorID != userID {
		member := false
		for _, p := range participants {
			if p.UserID == userID {
				member = true
				break
			}
		}
		if !member {
			return nil, apperrors.ForbiddenError("You are not a participant of this call")
		}
	}

	return call, nil
}

// ListCreated retrieves calls the user initiated, newest first
func (s *Service) ListCreated(ctx context.Context, userID uuid.UUID) ([]*domain.CallRequest, error) {
	calls, err := s.callRepo.ListCreatedBy(ctx, userID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return calls, nil
}

// ListInvitations retrieves invitations addressed to the user, newest first
func (s *Service) ListInvitations(ctx context.Context, userID uuid.UUID) ([]*domain.CallParticipant, error) {
	invitations, err := s.callRepo.ListInvitations(ctx, userID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return invitations, nil
}

func (s *Service) publishInsert(ctx context.Context, table string, rowID, userID uuid.UUID) {
	if s.feed == nil {
		return
	}
	if err := s.feed.PublishInsert(ctx, table, rowID, userID); err != nil {
		logger.Warn("Failed to publish feed event",
			zap.String("table", table),
			zap.Error(err))
	}
}

func (s *Service) publishUpdate(ctx context.Context, table string, rowID, userID uuid.UUID) {
	if s.feed == nil {
		return
	}
	if err := s.feed.PublishUpdate(ctx, table, rowID, userID); err != nil {
		logger.Warn("Failed to publish feed event",
			zap.String("table", table),
			zap.Error(err))
	}
}
