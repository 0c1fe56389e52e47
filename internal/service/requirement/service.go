package requirement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lifelink-backend/internal/domain"
	"lifelink-backend/internal/repository/postgres"
	apperrors "lifelink-backend/pkg/errors"
	"lifelink-backend/pkg/logger"
	"lifelink-backend/pkg/pagination"
)

// RequirementRepository defines organ requirement persistence operations
type RequirementRepository interface {
	Create(ctx context.Context, req *domain.Requirement) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Requirement, error)
	ListActive(ctx context.Context, limit, offset int) ([]*domain.Requirement, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*domain.Requirement, error)
	CountActive(ctx context.Context) (int, error)
	UpdateStatus(ctx context.Context, id, patientID uuid.UUID, status string) error
}

// Service handles organ requirement business logic
type Service struct {
	reqRepo RequirementRepository
}

// NewService creates a new requirement service
func NewService(reqRepo RequirementRepository) *Service {
	return &Service{reqRepo: reqRepo}
}

// CreateInput contains organ requirement data
type CreateInput struct {
	PatientID         uuid.UUID
	PatientRole       domain.Role
	OrganType         domain.OrganType
	Urgency           domain.Urgency
	BloodTypeRequired domain.BloodType
	Description       string
}

// Create posts a new organ requirement listing. Patient only.
func (s *Service) Create(ctx context.Context, input *CreateInput) (*domain.Requirement, error) {
	if input.PatientRole != domain.RolePatient {
		return nil, apperrors.RoleRequiredError(string(domain.RolePatient))
	}
	if !input.OrganType.Valid() {
		return nil, apperrors.InvalidInputError("Unknown organ type")
	}
	if !input.Urgency.Valid() {
		return nil, apperrors.InvalidInputError("Unknown urgency level")
	}
	if !input.BloodTypeRequired.Valid() {
		return nil, apperrors.InvalidInputError("Unknown blood type")
	}

	now := time.Now().UTC()
	req := &domain.Requirement{
		ID:                uuid.New(),
		PatientID:         input.PatientID,
		OrganType:         input.OrganType,
		Urgency:           input.Urgency,
		BloodTypeRequired: input.BloodTypeRequired,
		Description:       input.Description,
		Status:            domain.RequirementStatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.reqRepo.Create(ctx, req); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	logger.Info("Organ requirement created",
		zap.String("requirement_id", req.ID.String()),
		zap.String("organ_type", string(req.OrganType)),
		zap.String("urgency", string(req.Urgency)))

	return req, nil
}

// Get retrieves a requirement by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Requirement, error) {
	req, err := s.reqRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.NotFoundError("Requirement")
		}
		return nil, apperrors.DatabaseError(err)
	}
	return req, nil
}

// ListActive returns active requirements, most urgent first, paginated
func (s *Service) ListActive(ctx context.Context, params pagination.Params) (*pagination.PagedResponse, error) {
	reqs, err := s.reqRepo.ListActive(ctx, params.Limit, params.Offset)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	total, err := s.reqRepo.CountActive(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	return pagination.NewPagedResponse(&params, int64(total), reqs), nil
}

// ListMine returns all requirements of the calling patient
func (s *Service) ListMine(ctx context.Context, patientID uuid.UUID) ([]*domain.Requirement, error) {
	reqs, err := s.reqRepo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return reqs, nil
}

// Close transitions a requirement to fulfilled or cancelled. Only the owning
// patient can close, and only while the listing is active.
func (s *Service) Close(ctx context.Context, id, patientID uuid.UUID, status string) error {
	if status != domain.RequirementStatusFulfilled && status != domain.RequirementStatusCancelled {
		return apperrors.InvalidInputError("Status must be fulfilled or cancelled")
	}

	if err := s.reqRepo.UpdateStatus(ctx, id, patientID, status); err != nil {
		if errors.Is(err, postgres.ErrNoTransition) {
			return apperrors.ConflictError("Requirement is not active or not yours")
		}
		return apperrors.DatabaseError(err)
	}

	logger.Info("Organ requirement closed",
		zap.String("requirement_id", id.String()),
		zap.String("status", status))

	return nil
}
