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

// ContactRepository handles contact request persistence
type ContactRepository struct {
	pool *pgxpool.Pool
}

// NewContactRepository creates a new contact repository
func NewContactRepository(pool *pgxpool.Pool) *ContactRepository {
	return &ContactRepository{pool: pool}
}

// Create inserts a new contact request
func (r *ContactRepository) Create(ctx context.Context, req *domain.ContactRequest) error {
	query := `
		INSERT INTO contact_requests (id, sender_id, recipient_id, message,
			status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		req.ID,
		req.SenderID,
		req.RecipientID,
		req.Message,
		req.Status,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create contact request: %w", err)
	}

	return nil
}

// GetByID retrieves a contact request by ID
func (r *ContactRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ContactRequest, error) {
	query := `
		SELECT cr.id, cr.sender_id, cr.recipient_id, cr.message, cr.response,
		       cr.status, cr.created_at, cr.updated_at, s.full_name, rp.full_name
		FROM contact_requests cr
		JOIN profiles s ON s.id = cr.sender_id
		JOIN profiles rp ON rp.id = cr.recipient_id
		WHERE cr.id = $1
	`

	req := &domain.ContactRequest{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&req.ID,
		&req.SenderID,
		&req.RecipientID,
		&req.Message,
		&req.Response,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
		&req.SenderName,
		&req.RecipientName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contact request: %w", err)
	}

	return req, nil
}

// HasPending reports whether a pending request already exists between sender
// and recipient, preventing duplicate outreach
func (r *ContactRepository) HasPending(ctx context.Context, senderID, recipientID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM contact_requests
			WHERE sender_id = $1 AND recipient_id = $2 AND status = 'pending'
		)
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, senderID, recipientID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check pending contact request: %w", err)
	}

	return exists, nil
}

// ListReceived retrieves contact requests addressed to a user, newest first
func (r *ContactRepository) ListReceived(ctx context.Context, recipientID uuid.UUID) ([]*domain.ContactRequest, error) {
	query := `
		SELECT cr.id, cr.sender_id, cr.recipient_id, cr.message, cr.response,
		       cr.status, cr.created_at, cr.updated_at, s.full_name, rp.full_name
		FROM contact_requests cr
		JOIN profiles s ON s.id = cr.sender_id
		JOIN profiles rp ON rp.id = cr.recipient_id
		WHERE cr.recipient_id = $1
		ORDER BY cr.created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list received contact requests: %w", err)
	}
	defer rows.Close()

	return r.scanContactRequests(rows)
}

// ListSent retrieves contact requests created by a user, newest first
func (r *ContactRepository) ListSent(ctx context.Context, senderID uuid.UUID) ([]*domain.ContactRequest, error) {
	query := `
		SELECT cr.id, cr.sender_id, cr.recipient_id, cr.message, cr.response,
		       cr.status, cr.created_at, cr.updated_at, s.full_name, rp.full_name
		FROM contact_requests cr
		JOIN profiles s ON s.id = cr.sender_id
		JOIN profiles rp ON rp.id = cr.recipient_id
		WHERE cr.sender_id = $1
		ORDER BY cr.created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, senderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sent contact requests: %w", err)
	}
	defer rows.Close()

	return r.scanContactRequests(rows)
}

// Respond transitions a pending request to accepted or declined, recording
// the recipient's optional response text. Only the recipient's pending row
// matches, so a second response leaves the row untouched.
func (r *ContactRepository) Respond(ctx context.Context, id, recipientID uuid.UUID, status string, responseText *string, respondedAt time.Time) error {
	query := `
		UPDATE contact_requests
		SET status = $3, response = $4, updated_at = $5
		WHERE id = $1 AND recipient_id = $2 AND status = 'pending'
	`

	tag, err := r.pool.Exec(ctx, query, id, recipientID, status, responseText, respondedAt)
	if err != nil {
		return fmt.Errorf("failed to respond to contact request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoTransition
	}

	return nil
}

func (r *ContactRepository) scanContactRequests(rows pgx.Rows) ([]*domain.ContactRequest, error) {
	var reqs []*domain.ContactRequest
	for rows.Next() {
		req := &domain.ContactRequest{}
		err := rows.Scan(
			&req.ID,
			&req.SenderID,
			&req.RecipientID,
			&req.Message,
			&req.Response,
			&req.Status,
			&req.CreatedAt,
			&req.UpdatedAt,
			&req.SenderName,
			&req.RecipientName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact request: %w", err)
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read contact requests: %w", err)
	}

	return reqs, nil
}
