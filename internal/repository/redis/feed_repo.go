package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"lifelink-backend/internal/domain"
)

// Feed channels. Table events fan out on a per-table channel; consumers
// subscribe only to the tables they display.
const feedChannelPrefix = "feed:"

// FeedChannel returns the pub/sub channel for a table
func FeedChannel(table string) string {
	return feedChannelPrefix + table
}

// FeedRepository publishes and subscribes to row-change events over Redis
// Pub/Sub. Events carry no row data; clients re-fetch on receipt.
type FeedRepository struct {
	client *redis.Client
}

// NewFeedRepository creates a new feed repository
func NewFeedRepository(client *redis.Client) *FeedRepository {
	return &FeedRepository{client: client}
}

// Publish emits a row-change event for a table
func (r *FeedRepository) Publish(ctx context.Context, event *domain.FeedEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal feed event: %w", err)
	}

	if err := r.client.Publish(ctx, FeedChannel(event.Table), data).Err(); err != nil {
		return fmt.Errorf("failed to publish feed event: %w", err)
	}

	return nil
}

// PublishInsert is shorthand for an insert event
func (r *FeedRepository) PublishInsert(ctx context.Context, table string, rowID, userID uuid.UUID) error {
	return r.Publish(ctx, &domain.FeedEvent{
		Table:  table,
		Action: domain.FeedActionInsert,
		RowID:  rowID,
		UserID: userID,
	})
}

// PublishUpdate is shorthand for an update event
func (r *FeedRepository) PublishUpdate(ctx context.Context, table string, rowID, userID uuid.UUID) error {
	return r.Publish(ctx, &domain.FeedEvent{
		Table:  table,
		Action: domain.FeedActionUpdate,
		RowID:  rowID,
		UserID: userID,
	})
}

// Subscribe opens a pub/sub subscription for the given tables. The returned
// channel closes when ctx is cancelled; callers own the teardown.
func (r *FeedRepository) Subscribe(ctx context.Context, tables ...string) (<-chan *domain.FeedEvent, error) {
	channels := make([]string, len(tables))
	for i, t := range tables {
		channels[i] = FeedChannel(t)
	}

	sub := r.client.Subscribe(ctx, channels...)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to subscribe to feed: %w", err)
	}

	events := make(chan *domain.FeedEvent, 64)
	go func() {
		defer close(events)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				event := &domain.FeedEvent{}
				if err := json.Unmarshal([]byte(msg.Payload), event); err != nil {
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}
