package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lifelink-backend/internal/domain"
)

// RequirementRepository handles organ requirement persistence
type RequirementRepository struct {
	pool *pgxpool.Pool
}

// NewRequirementRepository creates a new requirement repository
func NewRequirementRepository(pool *pgxpool.Pool) *RequirementRepository {
	return &RequirementRepository{pool: pool}
}

// Create inserts a new organ requirement
func (r *RequirementRepository) Create(ctx context.Context, req *domain.Requirement) error {
	query := `
		INSERT INTO organ_requirements (id, patient_id, organ_type, blood_type_required,
			urgency, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		req.ID,
		req.PatientID,
		req.OrganType,
		req.BloodTypeRequired,
		req.Urgency,
		req.Description,
		req.Status,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create requirement: %w", err)
	}

	return nil
}

// GetByID retrieves an organ requirement by ID
func (r *RequirementRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Requirement, error) {
	query := `
		SELECT o.id, o.patient_id, o.organ_type, o.blood_type_required, o.urgency,
		       o.description, o.status, o.created_at, o.updated_at, p.full_name
		FROM organ_requirements o
		JOIN profiles p ON p.id = o.patient_id
		WHERE o.id = $1
	`

	req := &domain.Requirement{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&req.ID,
		&req.PatientID,
		&req.OrganType,
		&req.BloodTypeRequired,
		&req.Urgency,
		&req.Description,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
		&req.PatientName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get requirement: %w", err)
	}

	return req, nil
}

// ListActive retrieves active requirements ordered by urgency (critical
// first), then recency, paginated
func (r *RequirementRepository) ListActive(ctx context.Context, limit, offset int) ([]*domain.Requirement, error) {
	query := `
		SELECT o.id, o.patient_id, o.organ_type, o.blood_type_required, o.urgency,
		       o.description, o.status, o.created_at, o.updated_at, p.full_name
		FROM organ_requirements o
		JOIN profiles p ON p.id = o.patient_id
		WHERE o.status = 'active'
		ORDER BY CASE o.urgency
			WHEN 'critical' THEN 0
			WHEN 'urgent' THEN 1
			ELSE 2
		END, o.created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list requirements: %w", err)
	}
	defer rows.Close()

	return r.scanRequirements(rows)
}

// ListByPatient retrieves all requirements of a patient, newest first
func (r *RequirementRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*domain.Requirement, error) {
	query := `
		SELECT o.id, o.patient_id, o.organ_type, o.blood_type_required, o.urgency,
		       o.description, o.status, o.created_at, o.updated_at, p.full_name
		FROM organ_requirements o
		JOIN profiles p ON p.id = o.patient_id
		WHERE o.patient_id = $1
		ORDER BY o.created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list patient requirements: %w", err)
	}
	defer rows.Close()

	return r.scanRequirements(rows)
}

// CountActive returns the number of active requirements
func (r *RequirementRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM organ_requirements WHERE status = 'active'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count requirements: %w", err)
	}
	return count, nil
}

// UpdateStatus transitions an active requirement to fulfilled or cancelled.
// Ownership is enforced here so a patient can only close their own listing.
func (r *RequirementRepository) UpdateStatus(ctx context.Context, id, patientID uuid.UUID, status string) error {
	query := `
		UPDATE organ_requirements
		SET status = $3, updated_at = now()
		WHERE id = $1 AND patient_id = $2 AND status = 'active'
	`

	tag, err := r.pool.Exec(ctx, query, id, patientID, status)
	if err != nil {
		return fmt.Errorf("failed to update requirement status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoTransition
	}

	return nil
}

func (r *RequirementRepository) scanRequirements(rows pgx.Rows) ([]*domain.Requirement, error) {
	var reqs []*domain.Requirement
	for rows.Next() {
		req := &domain.Requirement{}
		err := rows.Scan(
			&req.ID,
			&req.PatientID,
			&req.OrganType,
			&req.BloodTypeRequired,
			&req.Urgency,
			&req.Description,
			&req.Status,
			&req.CreatedAt,
			&req.UpdatedAt,
			&req.PatientName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan requirement: %w", err)
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read requirements: %w", err)
	}

	return reqs, nil
}
