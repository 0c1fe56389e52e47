package requirement

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"lifelink-backend/internal/domain"
	"lifelink-backend/internal/repository/postgres"
	apperrors "lifelink-backend/pkg/errors"
	"lifelink-backend/pkg/pagination"
)

// MockRequirementRepository is a mock implementation of RequirementRepository
type MockRequirementRepository struct {
	mock.Mock
}

func (m *MockRequirementRepository) Create(ctx context.Context, req *domain.Requirement) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockRequirementRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Requirement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Requirement), args.Error(1)
}

func (m *MockRequirementRepository) ListActive(ctx context.Context, limit, offset int) ([]*domain.Requirement, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Requirement), args.Error(1)
}

func (m *MockRequirementRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*domain.Requirement, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Requirement), args.Error(1)
}

func (m *MockRequirementRepository) CountActive(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockRequirementRepository) UpdateStatus(ctx context.Context, id, patientID uuid.UUID, status string) error {
	args := m.Called(ctx, id, patientID, status)
	return args.Error(0)
}

func TestCreate(t *testing.T) {
	mockRepo := new(MockRequirementRepository)
	service := NewService(mockRepo)

	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Requirement")).Return(nil)

	req, err := service.Create(context.Background(), &CreateInput{
		PatientID:         uuid.New(),
		PatientRole:       domain.RolePatient,
		OrganType:         domain.OrganKidney,
		Urgency:           domain.UrgencyCritical,
		BloodTypeRequired: domain.BloodOPos,
		Description:       "Dialysis three times a week",
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.RequirementStatusActive, req.Status)
	assert.Equal(t, domain.OrganKidney, req.OrganType)
	mockRepo.AssertExpectations(t)
}

func TestCreate_NotPatient(t *testing.T) {
	mockRepo := new(MockRequirementRepository)
	service := NewService(mockRepo)

	_, err := service.Create(context.Background(), &CreateInput{
		PatientID:         uuid.New(),
		PatientRole:       domain.RoleDonor,
		OrganType:         domain.OrganKidney,
		Urgency:           domain.UrgencyUrgent,
		BloodTypeRequired: domain.BloodAPos,
	})

	assert.Error(t, err)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, apperrors.ErrCodeRoleRequired, appErr.Code)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestCreate_InvalidOrganType(t *testing.T) {
	mockRepo := new(MockRequirementRepository)
	service := NewService(mockRepo)

	_, err := service.Create(context.Background(), &CreateInput{
		PatientID:         uuid.New(),
		PatientRole:       domain.RolePatient,
		OrganType:         domain.OrganType("spleen"),
		Urgency:           domain.UrgencyUrgent,
		BloodTypeRequired: domain.BloodAPos,
	})

	assert.Error(t, err)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, appErr.Code)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestCreate_InvalidUrgency(t *testing.T) {
	mockRepo := new(MockRequirementRepository)
	service := NewService(mockRepo)

	_, err := service.Create(context.Background(), &CreateInput{
		PatientID:         uuid.New(),
		PatientRole:       domain.RolePatient,
		OrganType:         domain.OrganHeart,
		Urgency:           domain.Urgency("whenever"),
		BloodTypeRequired: domain.BloodAPos,
	})

	assert.Error(t, err)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestGet(t *testing.T) {
	mockRepo := new(MockRequirementRepository)
	service := NewService(mockRepo)

	id := uuid.New()
	mockRepo.On("GetByID", mock.Anything, id).Return(&domain.Requirement{
		ID:        id,
		OrganType: domain.OrganLiver,
		Status:    domain.RequirementStatusActive,
	}, nil)

	req, err := service.Get(context.Background(), id)

	assert.NoError(t, err)
	assert.Equal(t, id, req.ID)
}

func TestGet_NotFound(t *testing.T) {
	mockRepo := new(MockRequirementRepository)
	service := NewService(mockRepo)

	id := uuid.New()
	mockRepo.On("GetByID", mock.Anything, id).Return(nil, postgres.ErrNotFound)

	_, err := service.Get(context.Background(), id)

	assert.Error(t, err)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, 404, appErr.StatusCode)
}

func TestListActive_Paged(t *testing.T) {
	mockRepo := new(MockRequirementRepository)
	service := NewService(mockRepo)

	reqs := []*domain.Requirement{
		{ID: uuid.New(), Urgency: domain.UrgencyCritical},
		{ID: uuid.New(), Urgency: domain.UrgencyModerate},
	}
	mockRepo.On("ListActive", mock.Anything, 20, 0).Return(reqs, nil)
	mockRepo.On("CountActive", mock.Anything).Return(42, nil)

	paged, err := service.ListActive(context.Background(), pagination.Params{Page: 1, Limit: 20})

	assert.NoError(t, err)
	assert.Equal(t, int64(42), paged.Total)
	assert.Equal(t, 3, paged.TotalPages)
	assert.Equal(t, reqs, paged.Data)
}

func TestListMine(t *testing.T) {
	mockRepo := new(MockRequirementRepository)
	service := NewService(mockRepo)

	patientID := uuid.New()
	mockRepo.On("ListByPatient", mock.Anything, patientID).Return([]*domain.Requirement{
		{ID: uuid.New(), PatientID: patientID},
	}, nil)

	reqs, err := service.ListMine(context.Background(), patientID)

	assert.NoError(t, err)
	assert.Len(t, reqs, 1)
}

func TestClose(t *testing.T) {
	mockRepo := new(MockRequirementRepository)
	service := NewService(mockRepo)

	id := uuid.New()
	patientID := uuid.New()
	mockRepo.On("UpdateStatus", mock.Anything, id, patientID, domain.RequirementStatusFulfilled).Return(nil)

	err := service.Close(context.Background(), id, patientID, domain.RequirementStatusFulfilled)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestClose_InvalidStatus(t *testing.T) {
	mockRepo := new(MockRequirementRepository)
	service := NewService(mockRepo)

	err := service.Close(context.Background(), uuid.New(), uuid.New(), "active")

	assert.Error(t, err)
	mockRepo.AssertNotCalled(t, "UpdateStatus")
}

func TestClose_NotActiveOrNotOwner(t *testing.T) {
	mockRepo := new(MockRequirementRepository)
	service := NewService(mockRepo)

	id := uuid.New()
	patientID := uuid.New()
	mockRepo.On("UpdateStatus", mock.Anything, id, patientID, domain.RequirementStatusCancelled).
		Return(postgres.ErrNoTransition)

	err := service.Close(context.Background(), id, patientID, domain.RequirementStatusCancelled)

	assert.Error(t, err)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, 409, appErr.StatusCode)
}

func TestClose_DatabaseError(t *testing.T) {
	mockRepo := new(MockRequirementRepository)
	service := NewService(mockRepo)

	id := uuid.New()
	patientID := uuid.New()
	mockRepo.On("UpdateStatus", mock.Anything, id, patientID, domain.RequirementStatusCancelled).
		Return(errors.New("connection reset"))

	err := service.Close(context.Background(), id, patientID, domain.RequirementStatusCancelled)

	assert.Error(t, err)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, apperrors.ErrCodeDatabase, appErr.Code)
}
