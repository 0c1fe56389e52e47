package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"lifelink-backend/internal/domain"
	"lifelink-backend/internal/repository/postgres"
	apperrors "lifelink-backend/pkg/errors"
	"lifelink-backend/pkg/logger"
	"lifelink-backend/pkg/metrics"
)

const (
	uploadURLExpiry   = 15 * time.Minute
	downloadURLExpiry = time.Hour
	maxFileSize       = 25 << 20 // 25 MiB
)

// Content types accepted for medical documents
var allowedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
}

// DocumentRepository defines document metadata persistence operations
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Document, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, at time.Time) error
}

// Service handles medical document storage. Bytes go directly between the
// client and the object store via presigned URLs; this service only brokers
// access and tracks metadata.
type Service struct {
	minioClient *minio.Client
	bucketName  string
	docRepo     DocumentRepository
	metrics     *metrics.Metrics
}

// NewService creates a new storage service and ensures the bucket exists
func NewService(endpoint, accessKey, secretKey, bucketName string, useSSL bool, docRepo DocumentRepository, m *metrics.Metrics) (*Service, error) {
	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx := context.Background()
	exists, err := minioClient.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := minioClient.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &Service{
		minioClient: minioClient,
		bucketName:  bucketName,
		docRepo:     docRepo,
		metrics:     m,
	}, nil
}

// UploadInput contains document upload request data
type UploadInput struct {
	FileName    string
	FileSize    int64
	ContentType string
}

// UploadOutput contains the presigned upload URL
type UploadOutput struct {
	DocumentID uuid.UUID `json:"document_id"`
	UploadURL  string    `json:"upload_url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// GenerateUploadURL validates the request and returns a presigned PUT URL
func (s *Service) GenerateUploadURL(ctx context.Context, userID uuid.UUID, input *UploadInput) (*UploadOutput, error) {
	if strings.TrimSpace(input.FileName) == "" {
		return nil, apperrors.MissingFieldError("file_name")
	}
	if input.FileSize <= 0 || input.FileSize > maxFileSize {
		return nil, apperrors.ValidationError("File size must be between 1 byte and 25 MiB")
	}
	if !allowedContentTypes[input.ContentType] {
		return nil, apperrors.InvalidInputError("Unsupported content type")
	}

	documentID := uuid.New()
	objectKey := fmt.Sprintf("%s/%s", userID, documentID)

	presignedURL, err := s.minioClient.PresignedPutObject(ctx, s.bucketName, objectKey, uploadURLExpiry)
	if err != nil {
		s.recordOp("upload", "error")
		return nil, apperrors.StorageError(err)
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:          documentID,
		UserID:      userID,
		FileName:    input.FileName,
		FileSize:    input.FileSize,
		ContentType: input.ContentType,
		ObjectKey:   objectKey,
		Status:      domain.DocumentStatusUploading,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	s.recordOp("upload", "success")

	logger.Info("Upload URL generated",
		zap.String("document_id", documentID.String()),
		zap.String("user_id", userID.String()))

	return &UploadOutput{
		DocumentID: documentID,
		UploadURL:  presignedURL.String(),
		ExpiresAt:  now.Add(uploadURLExpiry),
	}, nil
}

// CompleteUpload marks a document as uploaded after the client finishes the
// presigned PUT
func (s *Service) CompleteUpload(ctx context.Context, userID, documentID uuid.UUID) error {
	doc, err := s.getOwned(ctx, userID, documentID)
	if err != nil {
		return err
	}
	if doc.Status != domain.DocumentStatusUploading {
		return apperrors.ConflictError("Document upload already completed")
	}

	if err := s.docRepo.UpdateStatus(ctx, documentID, domain.DocumentStatusCompleted, time.Now().UTC()); err != nil {
		return apperrors.DatabaseError(err)
	}

	return nil
}

// GenerateDownloadURL returns a presigned GET URL for an owned document
func (s *Service) GenerateDownloadURL(ctx context.Context, userID, documentID uuid.UUID) (string, error) {
	doc, err := s.getOwned(ctx, userID, documentID)
	if err != nil {
		return "", err
	}
	if doc.Status != domain.DocumentStatusCompleted {
		return "", apperrors.ConflictError("Document is not available")
	}

	presignedURL, err := s.minioClient.PresignedGetObject(ctx, s.bucketName, doc.ObjectKey, downloadURLExpiry, nil)
	if err != nil {
		s.recordOp("download", "error")
		return "", apperrors.StorageError(err)
	}

	s.recordOp("download", "success")

	return presignedURL.String(), nil
}

// ListDocuments returns the user's completed documents, newest first
func (s *Service) ListDocuments(ctx context.Context, userID uuid.UUID) ([]*domain.Document, error) {
	docs, err := s.docRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return docs, nil
}

// Delete removes a document's object and marks its metadata deleted
func (s *Service) Delete(ctx context.Context, userID, documentID uuid.UUID) error {
	doc, err := s.getOwned(ctx, userID, documentID)
	if err != nil {
		return err
	}

	if err := s.minioClient.RemoveObject(ctx, s.bucketName, doc.ObjectKey, minio.RemoveObjectOptions{}); err != nil {
		s.recordOp("delete", "error")
		return apperrors.StorageError(err)
	}

	if err := s.docRepo.UpdateStatus(ctx, documentID, domain.DocumentStatusDeleted, time.Now().UTC()); err != nil {
		return apperrors.DatabaseError(err)
	}

	s.recordOp("delete", "success")

	logger.Info("Document deleted",
		zap.String("document_id", documentID.String()),
		zap.String("user_id", userID.String()))

	return nil
}

func (s *Service) getOwned(ctx context.Context, userID, documentID uuid.UUID) (*domain.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.DocumentNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}
	if doc.UserID != userID {
		return nil, apperrors.ForbiddenError("Document belongs to another user")
	}
	return doc, nil
}

func (s *Service) recordOp(operation, status string) {
	if s.metrics != nil {
		s.metrics.RecordDocumentOp(operation, status)
	}
}
