package domain

import (
	"time"

	"github.com/google/uuid"
)

// Call request lifecycle statuses
const (
	CallStatusPending = "pending"
	CallStatusActive  = "active"
	CallStatusEnded   = "ended"
)

// Participant statuses. The legal sequence over time is
// invited -> (accepted | declined), and accepted -> joined.
const (
	ParticipantInvited  = "invited"
	ParticipantAccepted = "accepted"
	ParticipantDeclined = "declined"
	ParticipantJoined   = "joined"
)

// CallRequest is a proposed multi-party video conference with one initiator.
// The room name is generated once at creation and never changes; all
// participants reference it when embedding the external call widget.
type CallRequest struct {
	ID          uuid.UUID  `json:"id"`
	InitiatorID uuid.UUID  `json:"initiator_id"`
	RoomName    string     `json:"room_name"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`

	// Populated on joined reads
	InitiatorName string             `json:"initiator_name,omitempty"`
	Participants  []*CallParticipant `json:"participants,omitempty"`
}

// CallParticipant is one invited user's relationship to a CallRequest,
// carrying acceptance state. One row per (call request, user) pair.
type CallParticipant struct {
	ID            uuid.UUID  `json:"id"`
	CallRequestID uuid.UUID  `json:"call_request_id"`
	UserID        uuid.UUID  `json:"user_id"`
	Status        string     `json:"status"`
	RespondedAt   *time.Time `json:"responded_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`

	// Populated on joined reads
	UserName    string       `json:"user_name,omitempty"`
	CallRequest *CallRequest `json:"call_request,omitempty"`
}

// CanRespond reports whether the participant may still accept or decline
func (p *CallParticipant) CanRespond() bool {
	return p.Status == ParticipantInvited
}
