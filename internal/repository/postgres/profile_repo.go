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

// ProfileRepository handles profile persistence
type ProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

const profileColumns = `
	id, email, full_name, role, phone, location, age, blood_type,
	medical_history, approved_by_doctor, approved_by, approved_at,
	created_at, updated_at
`

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	p := &domain.Profile{}
	err := row.Scan(
		&p.ID,
		&p.Email,
		&p.FullName,
		&p.Role,
		&p.Phone,
		&p.Location,
		&p.Age,
		&p.BloodType,
		&p.MedicalHistory,
		&p.ApprovedByDoctor,
		&p.ApprovedBy,
		&p.ApprovedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a new profile
func (r *ProfileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	query := `
		INSERT INTO profiles (id, email, full_name, role, phone, location, age,
			blood_type, medical_history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		profile.ID,
		profile.Email,
		profile.FullName,
		profile.Role,
		profile.Phone,
		profile.Location,
		profile.Age,
		profile.BloodType,
		profile.MedicalHistory,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// GetByID retrieves a profile by ID
func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	profile, err := scanProfile(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return profile, nil
}

// Update writes the mutable profile fields
func (r *ProfileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	query := `
		UPDATE profiles
		SET full_name = $2, phone = $3, location = $4, age = $5,
		    blood_type = $6, medical_history = $7, updated_at = $8
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		profile.ID,
		profile.FullName,
		profile.Phone,
		profile.Location,
		profile.Age,
		profile.BloodType,
		profile.MedicalHistory,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListByRole retrieves profiles of a role, newest first, paginated
func (r *ProfileRepository) ListByRole(ctx context.Context, role domain.Role, limit, offset int) ([]*domain.Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE role = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, role, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*domain.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	return profiles, nil
}

// CountByRole returns the number of profiles with a role
func (r *ProfileRepository) CountByRole(ctx context.Context, role domain.Role) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM profiles WHERE role = $1`, role).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count profiles: %w", err)
	}
	return count, nil
}

// ListApprovedDonors retrieves donor profiles already approved by a doctor,
// newest first, paginated
func (r *ProfileRepository) ListApprovedDonors(ctx context.Context, limit, offset int) ([]*domain.Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE role = 'donor' AND approved_by_doctor = TRUE
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved donors: %w", err)
	}
	defer rows.Close()

	var profiles []*domain.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list approved donors: %w", err)
	}

	return profiles, nil
}

// ListPendingDonors retrieves donor profiles awaiting doctor approval
func (r *ProfileRepository) ListPendingDonors(ctx context.Context, limit, offset int) ([]*domain.Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE role = 'donor' AND approved_by_doctor = FALSE
		ORDER BY created_at ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending donors: %w", err)
	}
	defer rows.Close()

	var profiles []*domain.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list pending donors: %w", err)
	}

	return profiles, nil
}

// Approve marks a donor as approved by the given doctor. The role and
// approval guards keep non-donors and already approved rows untouched.
func (r *ProfileRepository) Approve(ctx context.Context, donorID, doctorID uuid.UUID, approvedAt time.Time) error {
	query := `
		UPDATE profiles
		SET approved_by_doctor = TRUE, approved_by = $2, approved_at = $3, updated_at = $3
		WHERE id = $1 AND role = 'donor' AND approved_by_doctor = FALSE
	`

	tag, err := r.pool.Exec(ctx, query, donorID, doctorID, approvedAt)
	if err != nil {
		return fmt.Errorf("failed to approve donor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoTransition
	}

	return nil
}
