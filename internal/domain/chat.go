package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a two-party direct message thread
type Conversation struct {
	ID             uuid.UUID `json:"id"`
	ParticipantOne uuid.UUID `json:"participant_one"`
	ParticipantTwo uuid.UUID `json:"participant_two"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Populated on joined reads
	OtherName   string   `json:"other_name,omitempty"`
	LastMessage *Message `json:"last_message,omitempty"`
	UnreadCount int      `json:"unread_count"`
}

// OtherParticipant returns the conversation partner of the given user
func (c *Conversation) OtherParticipant(userID uuid.UUID) uuid.UUID {
	if c.ParticipantOne == userID {
		return c.ParticipantTwo
	}
	return c.ParticipantOne
}

// HasParticipant reports whether the user is one of the two parties
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.ParticipantOne == userID || c.ParticipantTwo == userID
}

// Message is a single chat message. Messages are stored in Cassandra,
// bucketed by month for bounded partitions.
type Message struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Bucket         int       `json:"bucket"`
	MessageID      uuid.UUID `json:"message_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	Content        string    `json:"content"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}

// CalculateBucket returns the month bucket for a message timestamp,
// e.g. 202608 for August 2026
func CalculateBucket(t time.Time) int {
	return t.Year()*100 + int(t.Month())
}
