package domain

import (
	"time"

	"github.com/google/uuid"
)

// Contact request statuses
const (
	ContactStatusPending  = "pending"
	ContactStatusAccepted = "accepted"
	ContactStatusDeclined = "declined"
)

// ContactRequest represents a request from one user to get in touch with
// another, typically a donor reaching out to a patient or vice versa
type ContactRequest struct {
	ID          uuid.UUID `json:"id"`
	SenderID    uuid.UUID `json:"sender_id"`
	RecipientID uuid.UUID `json:"recipient_id"`
	Message     string    `json:"message"`
	Response    *string   `json:"response,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Display names populated on joined reads
	SenderName    string `json:"sender_name,omitempty"`
	RecipientName string `json:"recipient_name,omitempty"`
}
