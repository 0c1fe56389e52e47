package cassandra

import (
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"lifelink-backend/internal/domain"
)

// MessageRepository handles message storage in Cassandra.
// Partitions are bucketed by month so no conversation partition grows
// without bound.
type MessageRepository struct {
	session *gocql.Session
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(session *gocql.Session) *MessageRepository {
	return &MessageRepository{session: session}
}

// Save inserts a new message
func (r *MessageRepository) Save(message *domain.Message) error {
	if message.Bucket == 0 {
		message.Bucket = domain.CalculateBucket(message.CreatedAt)
	}
	if message.MessageID == uuid.Nil {
		message.MessageID = uuid.New()
	}

	query := `
		INSERT INTO messages (
			conversation_id, bucket, message_id, sender_id, content, read, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	err := r.session.Query(query,
		message.ConversationID,
		message.Bucket,
		message.MessageID,
		message.SenderID,
		message.Content,
		message.Read,
		message.CreatedAt,
	).Exec()
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}

	return nil
}

// GetByConversation retrieves messages for a conversation within one month
// bucket, newest first, with cursor-based pagination
func (r *MessageRepository) GetByConversation(
	conversationID uuid.UUID,
	bucket int,
	limit int,
	pageState []byte,
) ([]*domain.Message, []byte, error) {
	query := `
		SELECT conversation_id, bucket, message_id, sender_id, content, read, created_at
		FROM messages
		WHERE conversation_id = ? AND bucket = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	iter := r.session.Query(query, conversationID, bucket, limit).PageState(pageState).Iter()

	var messages []*domain.Message
	for {
		message := &domain.Message{}
		if !iter.Scan(
			&message.ConversationID,
			&message.Bucket,
			&message.MessageID,
			&message.SenderID,
			&message.Content,
			&message.Read,
			&message.CreatedAt,
		) {
			break
		}
		messages = append(messages, message)
	}

	nextPageState := iter.PageState()
	if err := iter.Close(); err != nil {
		return nil, nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	return messages, nextPageState, nil
}

// GetRecent retrieves the latest messages for a conversation, walking back
// through earlier month buckets until the limit is satisfied
func (r *MessageRepository) GetRecent(conversationID uuid.UUID, limit, maxMonths int) ([]*domain.Message, error) {
	var all []*domain.Message

	cursor := time.Now().UTC()
	for i := 0; i < maxMonths && len(all) < limit; i++ {
		bucket := domain.CalculateBucket(cursor)
		messages, _, err := r.GetByConversation(conversationID, bucket, limit-len(all), nil)
		if err != nil {
			return nil, err
		}
		all = append(all, messages...)
		cursor = cursor.AddDate(0, -1, 0)
	}

	return all, nil
}

// GetByID retrieves a specific message
func (r *MessageRepository) GetByID(conversationID uuid.UUID, bucket int, messageID uuid.UUID) (*domain.Message, error) {
	query := `
		SELECT conversation_id, bucket, message_id, sender_id, content, read, created_at
		FROM messages
		WHERE conversation_id = ? AND bucket = ? AND message_id = ?
		LIMIT 1
	`

	message := &domain.Message{}
	err := r.session.Query(query, conversationID, bucket, messageID).Scan(
		&message.ConversationID,
		&message.Bucket,
		&message.MessageID,
		&message.SenderID,
		&message.Content,
		&message.Read,
		&message.CreatedAt,
	)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, fmt.Errorf("message not found")
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return message, nil
}

// MarkRead flags a single message as read
func (r *MessageRepository) MarkRead(conversationID uuid.UUID, bucket int, messageID uuid.UUID) error {
	query := `
		UPDATE messages SET read = true
		WHERE conversation_id = ? AND bucket = ? AND message_id = ?
	`

	if err := r.session.Query(query, conversationID, bucket, messageID).Exec(); err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}

	return nil
}

// MarkConversationRead flags all of the partner's unread messages in the
// current bucket as read and returns how many were updated
func (r *MessageRepository) MarkConversationRead(conversationID uuid.UUID, readerID uuid.UUID) (int, error) {
	bucket := domain.CalculateBucket(time.Now().UTC())

	messages, _, err := r.GetByConversation(conversationID, bucket, 500, nil)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, m := range messages {
		if m.Read || m.SenderID == readerID {
			continue
		}
		if err := r.MarkRead(conversationID, m.Bucket, m.MessageID); err != nil {
			return updated, err
		}
		updated++
	}

	return updated, nil
}

// CountUnread counts the partner's unread messages in the current bucket
func (r *MessageRepository) CountUnread(conversationID uuid.UUID, readerID uuid.UUID) (int, error) {
	bucket := domain.CalculateBucket(time.Now().UTC())

	messages, _, err := r.GetByConversation(conversationID, bucket, 500, nil)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, m := range messages {
		if !m.Read && m.SenderID != readerID {
			count++
		}
	}

	return count, nil
}

// Delete removes a message
func (r *MessageRepository) Delete(conversationID uuid.UUID, bucket int, messageID uuid.UUID) error {
	query := `DELETE FROM messages WHERE conversation_id = ? AND bucket = ? AND message_id = ?`

	if err := r.session.Query(query, conversationID, bucket, messageID).Exec(); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	return nil
}
