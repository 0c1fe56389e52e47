package storage

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lifelink-backend/internal/middleware"
	"lifelink-backend/internal/service/storage"
	"lifelink-backend/pkg/response"
)

// Handler handles medical document HTTP requests
type Handler struct {
	storageService *storage.Service
}

// NewHandler creates a new storage handler
func NewHandler(storageService *storage.Service) *Handler {
	return &Handler{
		storageService: storageService,
	}
}

// UploadURLRequest represents upload URL request
type UploadURLRequest struct {
	FileName    string `json:"file_name" binding:"required,min=1,max=255"`
	FileSize    int64  `json:"file_size" binding:"required,min=1"`
	ContentType string `json:"content_type" binding:"required"`
}

// GenerateUploadURL handles issuing a presigned upload URL for a new document
// POST /v1/documents/upload-url
func (h *Handler) GenerateUploadURL(c *gin.Context) {
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	output, err := h.storageService.GenerateUploadURL(c.Request.Context(), userID, &storage.UploadInput{
		FileName:    req.FileName,
		FileSize:    req.FileSize,
		ContentType: req.ContentType,
	})
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, output)
}

// CompleteUpload handles confirming that the client finished uploading
// POST /v1/documents/:id/complete
func (h *Handler) CompleteUpload(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid document ID")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.storageService.CompleteUpload(c.Request.Context(), userID, documentID); err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Upload completed",
	})
}

// GenerateDownloadURL handles issuing a presigned, time-limited share URL
// GET /v1/documents/:id/download-url
func (h *Handler) GenerateDownloadURL(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid document ID")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	url, err := h.storageService.GenerateDownloadURL(c.Request.Context(), userID, documentID)
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"download_url": url,
	})
}

// List handles listing the caller's documents
// GET /v1/documents
func (h *Handler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	documents, err := h.storageService.ListDocuments(c.Request.Context(), userID)
	if err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, documents)
}

// Delete handles deleting a document and its stored object
// DELETE /v1/documents/:id
func (h *Handler) Delete(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid document ID")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.storageService.Delete(c.Request.Context(), userID, documentID); err != nil {
		response.FromAppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Document deleted",
	})
}
