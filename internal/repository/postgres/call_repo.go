package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lifelink-backend/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// ErrNoTransition is returned by guarded updates when the row was not in the
// required state, e.g. responding to an invitation that was already answered
var ErrNoTransition = errors.New("no transition")

// CallRepository handles call request and participant persistence
type CallRepository struct {
	pool *pgxpool.Pool
}

// NewCallRepository creates a new call repository
func NewCallRepository(pool *pgxpool.Pool) *CallRepository {
	return &CallRepository{pool: pool}
}

// CreateWithParticipants inserts the call request and all participant rows in
// a single transaction, so a failed participant insert never leaves an
// orphaned request behind.
func (r *CallRepository) CreateWithParticipants(ctx context.Context, call *domain.CallRequest, participants []*domain.CallParticipant) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO call_requests (id, initiator_id, room_name, title, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.Exec(ctx, query,
		call.ID,
		call.InitiatorID,
		call.RoomName,
		call.Title,
		call.Status,
		call.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create call request: %w", err)
	}

	for _, p := range participants {
		_, err = tx.Exec(ctx, `
			INSERT INTO call_participants (id, call_request_id, user_id, status, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`,
			p.ID,
			p.CallRequestID,
			p.UserID,
			p.Status,
			p.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create call participant: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit call creation: %w", err)
	}

	return nil
}

// GetByID retrieves a call request by ID
func (r *CallRepository) GetByID(ctx context.Context, callID uuid.UUID) (*domain.CallRequest, error) {
	query := `
		SELECT c.id, c.initiator_id, c.room_name, c.title, c.status,
		       c.created_at, c.started_at, c.ended_at, p.full_name
		FROM call_requests c
		JOIN profiles p ON p.id = c.initiator_id
		WHERE c.id = $1
	`

	call := &domain.CallRequest{}
	err := r.pool.QueryRow(ctx, query, callID).Scan(
		&call.ID,
		&call.InitiatorID,
		&call.RoomName,
		&call.Title,
		&call.Status,
		&call.CreatedAt,
		&call.StartedAt,
		&call.EndedAt,
		&call.InitiatorName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get call request: %w", err)
	}

	return call, nil
}

// GetParticipants retrieves all participant rows for a call request
func (r *CallRepository) GetParticipants(ctx context.Context, callID uuid.UUID) ([]*domain.CallParticipant, error) {
	query := `
		SELECT cp.id, cp.call_request_id, cp.user_id, cp.status,
		       cp.responded_at, cp.created_at, p.full_name
		FROM call_participants cp
		JOIN profiles p ON p.id = cp.user_id
		WHERE cp.call_request_id = $1
		ORDER BY cp.created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, callID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	var participants []*domain.CallParticipant
	for rows.Next() {
		p := &domain.CallParticipant{}
		err := rows.Scan(
			&p.ID,
			&p.CallRequestID,
			&p.UserID,
			&p.Status,
			&p.RespondedAt,
			&p.CreatedAt,
			&p.UserName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}

	return participants, nil
}

// GetParticipantByID retrieves a single participant row
func (r *CallRepository) GetParticipantByID(ctx context.Context, participantID uuid.UUID) (*domain.CallParticipant, error) {
	query := `
		SELECT id, call_request_id, user_id, status, responded_at, created_at
		FROM call_participants
		WHERE id = $1
	`

	p := &domain.CallParticipant{}
	err := r.pool.QueryRow(ctx, query, participantID).Scan(
		&p.ID,
		&p.CallRequestID,
		&p.UserID,
		&p.Status,
		&p.RespondedAt,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}

	return p, nil
}

// GetParticipantByCallAndUser retrieves the participant row for a user within
// a call, if any
func (r *CallRepository) GetParticipantByCallAndUser(ctx context.Context, callID, userID uuid.UUID) (*domain.CallParticipant, error) {
	query := `
		SELECT id, call_request_id, user_id, status, responded_at, created_at
		FROM call_participants
		WHERE call_request_id = $1 AND user_id = $2
	`

	p := &domain.CallParticipant{}
	err := r.pool.QueryRow(ctx, query, callID, userID).Scan(
		&p.ID,
		&p.CallRequestID,
		&p.UserID,
		&p.Status,
		&p.RespondedAt,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}

	return p, nil
}

// RespondParticipant transitions a participant from invited to the given
// status, recording the response time. The guard on the current status makes
// a second response fail with ErrNoTransition instead of flipping state.
func (r *CallRepository) RespondParticipant(ctx context.Context, participantID uuid.UUID, status string, respondedAt time.Time) error {
	query := `
		UPDATE call_participants
		SET status = $2, responded_at = $3
		WHERE id = $1 AND status = 'invited'
	`

	tag, err := r.pool.Exec(ctx, query, participantID, status, respondedAt)
	if err != nil {
		return fmt.Errorf("failed to respond to invitation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoTransition
	}

	return nil
}

// MarkJoined transitions an accepted participant to joined
func (r *CallRepository) MarkJoined(ctx context.Context, participantID uuid.UUID) error {
	query := `
		UPDATE call_participants
		SET status = 'joined'
		WHERE id = $1 AND status = 'accepted'
	`

	tag, err := r.pool.Exec(ctx, query, participantID)
	if err != nil {
		return fmt.Errorf("failed to mark participant joined: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoTransition
	}

	return nil
}

// Start transitions a pending call request to active, setting started_at.
// The status guard makes the transition idempotent: starting an already
// active call affects zero rows and never double-sets the timestamp.
func (r *CallRepository) Start(ctx context.Context, callID uuid.UUID, startedAt time.Time) (bool, error) {
	query := `
		UPDATE call_requests
		SET status = 'active', started_at = $2
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := r.pool.Exec(ctx, query, callID, startedAt)
	if err != nil {
		return false, fmt.Errorf("failed to start call: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// End marks an active call request as ended
func (r *CallRepository) End(ctx context.Context, callID uuid.UUID, endedAt time.Time) error {
	query := `
		UPDATE call_requests
		SET status = 'ended', ended_at = $2
		WHERE id = $1 AND status = 'active'
	`

	tag, err := r.pool.Exec(ctx, query, callID, endedAt)
	if err != nil {
		return fmt.Errorf("failed to end call: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoTransition
	}

	return nil
}

// ListCreatedBy retrieves call requests created by a user, newest first,
// with participant rows attached
func (r *CallRepository) ListCreatedBy(ctx context.Context, initiatorID uuid.UUID) ([]*domain.CallRequest, error) {
	query := `
		SELECT c.id, c.initiator_id, c.room_name, c.title, c.status,
		       c.created_at, c.started_at, c.ended_at, p.full_name
		FROM call_requests c
		JOIN profiles p ON p.id = c.initiator_id
		WHERE c.initiator_id = $1
		ORDER BY c.created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, initiatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list created calls: %w", err)
	}
	defer rows.Close()

	var calls []*domain.CallRequest
	for rows.Next() {
		call := &domain.CallRequest{}
		err := rows.Scan(
			&call.ID,
			&call.InitiatorID,
			&call.RoomName,
			&call.Title,
			&call.Status,
			&call.CreatedAt,
			&call.StartedAt,
			&call.EndedAt,
			&call.InitiatorName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan call request: %w", err)
		}
		calls = append(calls, call)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list created calls: %w", err)
	}

	for _, call := range calls {
		participants, err := r.GetParticipants(ctx, call.ID)
		if err != nil {
			return nil, err
		}
		call.Participants = participants
	}

	return calls, nil
}

// ListInvitations retrieves participant rows for a user, newest first, with
// the owning call request attached
func (r *CallRepository) ListInvitations(ctx context.Context, userID uuid.UUID) ([]*domain.CallParticipant, error) {
	query := `
		SELECT cp.id, cp.call_request_id, cp.user_id, cp.status,
		       cp.responded_at, cp.created_at,
		       c.id, c.initiator_id, c.room_name, c.title, c.status,
		       c.created_at, c.started_at, c.ended_at, p.full_name
		FROM call_participants cp
		JOIN call_requests c ON c.id = cp.call_request_id
		JOIN profiles p ON p.id = c.initiator_id
		WHERE cp.user_id = $1
		ORDER BY cp.created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	var invitations []*domain.CallParticipant
	for rows.Next() {
		p := &domain.CallParticipant{CallRequest: &domain.CallRequest{}}
		err := rows.Scan(
			&p.ID,
			&p.CallRequestID,
			&p.UserID,
			&p.Status,
			&p.RespondedAt,
			&p.CreatedAt,
			&p.CallRequest.ID,
			&p.CallRequest.InitiatorID,
			&p.CallRequest.RoomName,
			&p.CallRequest.Title,
			&p.CallRequest.Status,
			&p.CallRequest.CreatedAt,
			&p.CallRequest.StartedAt,
			&p.CallRequest.EndedAt,
			&p.CallRequest.InitiatorName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}

	return invitations, nil
}
