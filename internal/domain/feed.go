package domain

import (
	"time"

	"github.com/google/uuid"
)

// Feed event actions
const (
	FeedActionInsert = "insert"
	FeedActionUpdate = "update"
	FeedActionDelete = "delete"
)

// Feed tables
const (
	FeedTableCallRequests     = "call_requests"
	FeedTableCallParticipants = "call_participants"
	FeedTableContactRequests  = "contact_requests"
	FeedTableChatMessages     = "chat_messages"
)

// FeedEvent is a row-change notification. Consumers do not receive row data;
// they re-fetch their lists on any event for a table they care about
// (refetch-on-signal).
type FeedEvent struct {
	Table     string    `json:"table"`
	Action    string    `json:"action"`
	RowID     uuid.UUID `json:"row_id"`
	UserID    uuid.UUID `json:"user_id,omitempty"` // scoping key, uuid.Nil = broadcast to all
	Timestamp time.Time `json:"timestamp"`
}

// Scoped reports whether the event targets a single user rather than
// every connected client
func (e *FeedEvent) Scoped() bool {
	return e.UserID != uuid.Nil
}
