package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"lifelink-backend/internal/domain"
	"lifelink-backend/internal/repository/postgres"
	apperrors "lifelink-backend/pkg/errors"
)

// MockDocumentRepository is a mock implementation of DocumentRepository
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Document, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Document), args.Error(1)
}

func (m *MockDocumentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, at time.Time) error {
	args := m.Called(ctx, id, status, at)
	return args.Error(0)
}

// newTestService builds a service around a client that never talks to a
// server. Presigning is a local signature computation, so upload and
// download URL generation work without MinIO running; the region is pinned
// to skip the bucket location lookup.
func newTestService(t *testing.T, docRepo DocumentRepository) *Service {
	t.Helper()
	client, err := minio.New("localhost:9000", &minio.Options{
		Creds:  credentials.NewStaticV4("test-access", "test-secret", ""),
		Region: "us-east-1",
	})
	assert.NoError(t, err)

	return &Service{
		minioClient: client,
		bucketName:  "medical-documents",
		docRepo:     docRepo,
	}
}

func TestGenerateUploadURL(t *testing.T) {
	mockRepo := new(MockDocumentRepository)
	service := newTestService(t, mockRepo)

	userID := uuid.New()
	var created *domain.Document
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Document")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*domain.Document)
		}).
		Return(nil)

	output, err := service.GenerateUploadURL(context.Background(), userID, &UploadInput{
		FileName:    "bloodwork.pdf",
		FileSize:    1 << 20,
		ContentType: "application/pdf",
	})

	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, output.DocumentID)
	assert.Contains(t, output.UploadURL, "medical-documents")
	assert.Contains(t, output.UploadURL, userID.String()+"/"+output.DocumentID.String())
	assert.Equal(t, domain.DocumentStatusUploading, created.Status)
	assert.Equal(t, userID.String()+"/"+output.DocumentID.String(), created.ObjectKey)
}

func TestGenerateUploadURL_MissingFileName(t *testing.T) {
	mockRepo := new(MockDocumentRepository)
	service := newTestService(t, mockRepo)

	_, err := service.GenerateUploadURL(context.Background(), uuid.New(), &UploadInput{
		FileName:    "   ",
		FileSize:    100,
		ContentType: "application/pdf",
	})

	assert.Error(t, err)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, apperrors.ErrCodeMissingField, appErr.Code)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestGenerateUploadURL_FileTooLarge(t *testing.T) {
	mockRepo := new(MockDocumentRepository)
	service := newTestService(t, mockRepo)

	_, err := service.GenerateUploadURL(context.Background(), uuid.New(), &UploadInput{
		FileName:    "scan.pdf",
		FileSize:    26 << 20,
		ContentType: "application/pdf",
	})

	assert.Error(t, err)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestGenerateUploadURL_UnsupportedContentType(t *testing.T) {
	mockRepo := new(MockDocumentRepository)
	service := newTestService(t, mockRepo)

	_, err := service.GenerateUploadURL(context.Background(), uuid.New(), &UploadInput{
		FileName:    "report.exe",
		FileSize:    100,
		ContentType: "application/octet-stream",
	})

	assert.Error(t, err)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, appErr.Code)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestCompleteUpload(t *testing.T) {
	mockRepo := new(MockDocumentRepository)
	service := newTestService(t, mockRepo)

	userID := uuid.New()
	documentID := uuid.New()
	mockRepo.On("GetByID", mock.Anything, documentID).Return(&domain.Document{
		ID:     documentID,
		UserID: userID,
		Status: domain.DocumentStatusUploading,
	}, nil)
	mockRepo.On("UpdateStatus", mock.Anything, documentID, domain.DocumentStatusCompleted, mock.AnythingOfType("time.Time")).
		Return(nil)

	err := service.CompleteUpload(context.Background(), userID, documentID)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestCompleteUpload_AlreadyCompleted(t *testing.T) {
	mockRepo := new(MockDocumentRepository)
	service := newTestService(t, mockRepo)

	userID := uuid.New()
	documentID := uuid.New()
	mockRepo.On("GetByID", mock.Anything, documentID).Return(&domain.Document{
		ID:     documentID,
		UserID: userID,
		Status: domain.DocumentStatusCompleted,
	}, nil)

	err := service.CompleteUpload(context.Background(), userID, documentID)

	assert.Error(t, err)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, 409, appErr.StatusCode)
	mockRepo.AssertNotCalled(t, "UpdateStatus")
}

func TestGenerateDownloadURL(t *testing.T) {
	mockRepo := new(MockDocumentRepository)
	service := newTestService(t, mockRepo)

	userID := uuid.New()
	documentID := uuid.New()
	objectKey := userID.String() + "/" + documentID.String()
	mockRepo.On("GetByID", mock.Anything, documentID).Return(&domain.Document{
		ID:        documentID,
		UserID:    userID,
		ObjectKey: objectKey,
		Status:    domain.DocumentStatusCompleted,
	}, nil)

	url, err := service.GenerateDownloadURL(context.Background(), userID, documentID)

	assert.NoError(t, err)
	assert.Contains(t, url, objectKey)
}

func TestGenerateDownloadURL_NotCompleted(t *testing.T) {
	mockRepo := new(MockDocumentRepository)
	service := newTestService(t, mockRepo)

	userID := uuid.New()
	documentID := uuid.New()
	mockRepo.On("GetByID", mock.Anything, documentID).Return(&domain.Document{
		ID:     documentID,
		UserID: userID,
		Status: domain.DocumentStatusUploading,
	}, nil)

	_, err := service.GenerateDownloadURL(context.Background(), userID, documentID)

	assert.Error(t, err)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, 409, appErr.StatusCode)
}

func TestGetOwned_NotFound(t *testing.T) {
	mockRepo := new(MockDocumentRepository)
	service := newTestService(t, mockRepo)

	documentID := uuid.New()
	mockRepo.On("GetByID", mock.Anything, documentID).Return(nil, postgres.ErrNotFound)

	err := service.CompleteUpload(context.Background(), uuid.New(), documentID)

	assert.Error(t, err)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, 404, appErr.StatusCode)
}

func TestGetOwned_OtherUsersDocument(t *testing.T) {
	mockRepo := new(MockDocumentRepository)
	service := newTestService(t, mockRepo)

	documentID := uuid.New()
	mockRepo.On("GetByID", mock.Anything, documentID).Return(&domain.Document{
		ID:     documentID,
		UserID: uuid.New(),
		Status: domain.DocumentStatusCompleted,
	}, nil)

	err := service.Delete(context.Background(), uuid.New(), documentID)

	assert.Error(t, err)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, 403, appErr.StatusCode)
}

func TestListDocuments(t *testing.T) {
	mockRepo := new(MockDocumentRepository)
	service := newTestService(t, mockRepo)

	userID := uuid.New()
	mockRepo.On("ListByUser", mock.Anything, userID).Return([]*domain.Document{
		{ID: uuid.New(), UserID: userID, Status: domain.DocumentStatusCompleted},
	}, nil)

	docs, err := service.ListDocuments(context.Background(), userID)

	assert.NoError(t, err)
	assert.Len(t, docs, 1)
}
