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

// ConversationRepository handles chat conversation persistence. Message
// bodies live in Cassandra; Postgres holds the conversation index.
type ConversationRepository struct {
	pool *pgxpool.Pool
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(pool *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{pool: pool}
}

// GetOrCreate returns the conversation between two users, creating it if
// none exists. Participants are stored in normalized order so the same pair
// always maps to one row.
func (r *ConversationRepository) GetOrCreate(ctx context.Context, userA, userB uuid.UUID) (*domain.Conversation, error) {
	one, two := userA, userB
	if two.String() < one.String() {
		one, two = two, one
	}

	conv, err := r.getByParticipants(ctx, one, two)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	conv = &domain.Conversation{
		ID:             uuid.New(),
		ParticipantOne: one,
		ParticipantTwo: two,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	query := `
		INSERT INTO chat_conversations (id, participant_one, participant_two, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (participant_one, participant_two) DO NOTHING
	`
	tag, err := r.pool.Exec(ctx, query,
		conv.ID,
		conv.ParticipantOne,
		conv.ParticipantTwo,
		conv.CreatedAt,
		conv.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// lost the race, fetch the winner's row
		return r.getByParticipants(ctx, one, two)
	}

	return conv, nil
}

func (r *ConversationRepository) getByParticipants(ctx context.Context, one, two uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT id, participant_one, participant_two, created_at, updated_at
		FROM chat_conversations
		WHERE participant_one = $1 AND participant_two = $2
	`

	conv := &domain.Conversation{}
	err := r.pool.QueryRow(ctx, query, one, two).Scan(
		&conv.ID,
		&conv.ParticipantOne,
		&conv.ParticipantTwo,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	return conv, nil
}

// GetByID retrieves a conversation by ID
func (r *ConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT id, participant_one, participant_two, created_at, updated_at
		FROM chat_conversations
		WHERE id = $1
	`

	conv := &domain.Conversation{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&conv.ID,
		&conv.ParticipantOne,
		&conv.ParticipantTwo,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	return conv, nil
}

// ListByUser retrieves a user's conversations, most recently active first,
// with the partner's display name attached
func (r *ConversationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Conversation, error) {
	query := `
		SELECT c.id, c.participant_one, c.participant_two, c.created_at, c.updated_at,
		       p.full_name
		FROM chat_conversations c
		JOIN profiles p ON p.id = CASE
			WHEN c.participant_one = $1 THEN c.participant_two
			ELSE c.participant_one
		END
		WHERE c.participant_one = $1 OR c.participant_two = $1
		ORDER BY c.updated_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*domain.Conversation
	for rows.Next() {
		conv := &domain.Conversation{}
		err := rows.Scan(
			&conv.ID,
			&conv.ParticipantOne,
			&conv.ParticipantTwo,
			&conv.CreatedAt,
			&conv.UpdatedAt,
			&conv.OtherName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	return conversations, nil
}

// Touch bumps a conversation's updated_at so it sorts to the top of the
// owner's list after a new message
func (r *ConversationRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE chat_conversations SET updated_at = $2 WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, id, at); err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}

	return nil
}
