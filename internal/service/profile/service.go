package profile

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lifelink-backend/internal/domain"
	"lifelink-backend/internal/repository/postgres"
	apperrors "lifelink-backend/pkg/errors"
	"lifelink-backend/pkg/logger"
	"lifelink-backend/pkg/pagination"
)

// ProfileRepository defines profile persistence operations
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	Update(ctx context.Context, profile *domain.Profile) error
	ListByRole(ctx context.Context, role domain.Role, limit, offset int) ([]*domain.Profile, error)
	CountByRole(ctx context.Context, role domain.Role) (int, error)
	ListApprovedDonors(ctx context.Context, limit, offset int) ([]*domain.Profile, error)
	ListPendingDonors(ctx context.Context, limit, offset int) ([]*domain.Profile, error)
	Approve(ctx context.Context, donorID, doctorID uuid.UUID, approvedAt time.Time) error
}

// Service handles profile business logic
type Service struct {
	profileRepo ProfileRepository
}

// NewService creates a new profile service
func NewService(profileRepo ProfileRepository) *Service {
	return &Service{profileRepo: profileRepo}
}

// RegisterInput contains data for creating a profile after first sign-in
type RegisterInput struct {
	UserID         uuid.UUID
	Email          string
	FullName       string
	Role           domain.Role
	Phone          string
	Location       string
	Age            *int
	BloodType      *domain.BloodType
	MedicalHistory string
}

// UpdateInput contains the mutable profile fields. Nil pointers leave the
// existing value in place.
type UpdateInput struct {
	FullName       *string
	Phone          *string
	Location       *string
	Age            *int
	BloodType      *domain.BloodType
	MedicalHistory *string
}

// Register creates the platform profile for an authenticated user
func (s *Service) Register(ctx context.Context, input *RegisterInput) (*domain.Profile, error) {
	if strings.TrimSpace(input.FullName) == "" {
		return nil, apperrors.MissingFieldError("full_name")
	}
	if !input.Role.Valid() {
		return nil, apperrors.InvalidInputError("Unknown role")
	}
	if input.BloodType != nil && !input.BloodType.Valid() {
		return nil, apperrors.InvalidInputError("Unknown blood type")
	}

	if existing, err := s.profileRepo.GetByID(ctx, input.UserID); err == nil && existing != nil {
		return nil, apperrors.ConflictError("Profile already exists")
	} else if err != nil && !errors.Is(err, postgres.ErrNotFound) {
		return nil, apperrors.DatabaseError(err)
	}

	now := time.Now().UTC()
	profile := &domain.Profile{
		ID:             input.UserID,
		Email:          input.Email,
		FullName:       strings.TrimSpace(input.FullName),
		Role:           input.Role,
		Phone:          input.Phone,
		Location:       input.Location,
		Age:            input.Age,
		BloodType:      input.BloodType,
		MedicalHistory: input.MedicalHistory,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	logger.Info("Profile registered",
		zap.String("user_id", profile.ID.String()),
		zap.String("role", string(profile.Role)))

	return profile, nil
}

// Get retrieves a profile by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	profile, err := s.profileRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.ProfileNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}
	return profile, nil
}

// Update applies the provided profile changes for the owning user
func (s *Service) Update(ctx context.Context, userID uuid.UUID, input *UpdateInput) (*domain.Profile, error) {
	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.FullName != nil {
		name := strings.TrimSpace(*input.FullName)
		if name == "" {
			return nil, apperrors.MissingFieldError("full_name")
		}
		profile.FullName = name
	}
	if input.Phone != nil {
		profile.Phone = *input.Phone
	}
	if input.Location != nil {
		profile.Location = *input.Location
	}
	if input.Age != nil {
		profile.Age = input.Age
	}
	if input.BloodType != nil {
		if !input.BloodType.Valid() {
			return nil, apperrors.InvalidInputError("Unknown blood type")
		}
		profile.BloodType = input.BloodType
	}
	if input.MedicalHistory != nil {
		profile.MedicalHistory = *input.MedicalHistory
	}
	profile.UpdatedAt = time.Now().UTC()

	if err := s.profileRepo.Update(ctx, profile); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.ProfileNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}

	return profile, nil
}

// ListDonors returns donor profiles visible to the given viewer. Doctors see
// every donor; patients only see donors a doctor has approved.
func (s *Service) ListDonors(ctx context.Context, viewerRole domain.Role, params pagination.Params) ([]*domain.Profile, error) {
	var (
		donors []*domain.Profile
		err    error
	)
	if viewerRole == domain.RoleDoctor {
		donors, err = s.profileRepo.ListByRole(ctx, domain.RoleDonor, params.Limit, params.Offset)
	} else {
		donors, err = s.profileRepo.ListApprovedDonors(ctx, params.Limit, params.Offset)
	}
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return donors, nil
}

// ListDoctors returns doctor profiles, paginated
func (s *Service) ListDoctors(ctx context.Context, params pagination.Params) ([]*domain.Profile, error) {
	doctors, err := s.profileRepo.ListByRole(ctx, domain.RoleDoctor, params.Limit, params.Offset)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return doctors, nil
}

// ListPendingDonors returns donors awaiting approval. Doctor only.
func (s *Service) ListPendingDonors(ctx context.Context, viewerRole domain.Role, params pagination.Params) ([]*domain.Profile, error) {
	if viewerRole != domain.RoleDoctor {
		return nil, apperrors.RoleRequiredError(string(domain.RoleDoctor))
	}

	donors, err := s.profileRepo.ListPendingDonors(ctx, params.Limit, params.Offset)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return donors, nil
}

// ApproveDonor records a doctor's approval of a donor profile
func (s *Service) ApproveDonor(ctx context.Context, donorID, doctorID uuid.UUID, doctorRole domain.Role) (*domain.Profile, error) {
	if doctorRole != domain.RoleDoctor {
		return nil, apperrors.RoleRequiredError(string(domain.RoleDoctor))
	}

	donor, err := s.Get(ctx, donorID)
	if err != nil {
		return nil, err
	}
	if donor.Role != domain.RoleDonor {
		return nil, apperrors.InvalidInputError("Profile is not a donor")
	}
	if donor.ApprovedByDoctor {
		return nil, apperrors.NewWithStatus(apperrors.ErrCodeAlreadyApproved, "Donor is already approved", 409)
	}

	now := time.Now().UTC()
	if err := s.profileRepo.Approve(ctx, donorID, doctorID, now); err != nil {
		if errors.Is(err, postgres.ErrNoTransition) {
			return nil, apperrors.NewWithStatus(apperrors.ErrCodeAlreadyApproved, "Donor is already approved", 409)
		}
		return nil, apperrors.DatabaseError(err)
	}

	donor.ApprovedByDoctor = true
	donor.ApprovedBy = &doctorID
	donor.ApprovedAt = &now

	logger.Info("Donor approved",
		zap.String("donor_id", donorID.String()),
		zap.String("doctor_id", doctorID.String()))

	return donor, nil
}
