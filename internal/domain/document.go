package domain

import (
	"time"

	"github.com/google/uuid"
)

// Document statuses
const (
	DocumentStatusUploading = "uploading"
	DocumentStatusCompleted = "completed"
	DocumentStatusDeleted   = "deleted"
)

// Document is metadata for a medical document stored in the object store.
// Objects are keyed under a per-user folder: <user_id>/<document_id>.
type Document struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	FileName    string    `json:"file_name"`
	FileSize    int64     `json:"file_size"`
	ContentType string    `json:"content_type"`
	ObjectKey   string    `json:"object_key"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
