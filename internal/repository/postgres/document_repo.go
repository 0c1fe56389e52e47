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

// DocumentRepository handles medical document metadata persistence. The
// object bytes themselves live in the object store.
type DocumentRepository struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

// Create inserts a new document record
func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	query := `
		INSERT INTO documents (id, user_id, file_name, file_size, content_type,
			object_key, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		doc.ID,
		doc.UserID,
		doc.FileName,
		doc.FileSize,
		doc.ContentType,
		doc.ObjectKey,
		doc.Status,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	return nil
}

// GetByID retrieves a document by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	query := `
		SELECT id, user_id, file_name, file_size, content_type, object_key,
		       status, created_at, updated_at
		FROM documents
		WHERE id = $1 AND status != 'deleted'
	`

	doc := &domain.Document{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&doc.ID,
		&doc.UserID,
		&doc.FileName,
		&doc.FileSize,
		&doc.ContentType,
		&doc.ObjectKey,
		&doc.Status,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return doc, nil
}

// ListByUser retrieves a user's completed documents, newest first
func (r *DocumentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Document, error) {
	query := `
		SELECT id, user_id, file_name, file_size, content_type, object_key,
		       status, created_at, updated_at
		FROM documents
		WHERE user_id = $1 AND status = 'completed'
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		doc := &domain.Document{}
		err := rows.Scan(
			&doc.ID,
			&doc.UserID,
			&doc.FileName,
			&doc.FileSize,
			&doc.ContentType,
			&doc.ObjectKey,
			&doc.Status,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	return docs, nil
}

// UpdateStatus moves a document through its upload lifecycle
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, at time.Time) error {
	query := `UPDATE documents SET status = $2, updated_at = $3 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, status, at)
	if err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
