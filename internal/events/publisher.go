// Package events streams reminder completions through Redis and folds them
// into per-owner daily stats.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carenote/carenote/internal/metrics"
	"github.com/carenote/carenote/internal/model"
)

const (
	// StreamKey is the Redis stream for completion events.
	StreamKey = "stream:reminder_completions"

	// DeadLetterStreamKey is the Redis stream for poison messages.
	DeadLetterStreamKey = "stream:reminder_completions:dlq"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 250 * time.Millisecond
)

// CompletionPayload is the compact wire form of a completion event.
type CompletionPayload struct {
	ReminderID   string `json:"rid"`
	OwnerID      string `json:"oid"`
	Repeat       string `json:"rp"`
	Outcome      string `json:"o"`
	ScheduledFor int64  `json:"s"` // Unix milliseconds
	CompletedAt  int64  `json:"t"` // Unix milliseconds
}

// PayloadFromEvent encodes e for the stream.
func PayloadFromEvent(e *model.CompletionEvent) CompletionPayload {
	return CompletionPayload{
		ReminderID:   e.ReminderID,
		OwnerID:      e.OwnerID,
		Repeat:       string(e.Repeat),
		Outcome:      string(e.Outcome),
		ScheduledFor: e.ScheduledFor.UnixMilli(),
		CompletedAt:  e.CompletedAt.UnixMilli(),
	}
}

// Event decodes the payload. eventID is the stream entry ID.
func (p CompletionPayload) Event(eventID string) *model.CompletionEvent {
	return &model.CompletionEvent{
		EventID:      eventID,
		ReminderID:   p.ReminderID,
		OwnerID:      p.OwnerID,
		Repeat:       model.Repeat(p.Repeat),
		Outcome:      model.CompletionOutcome(p.Outcome),
		ScheduledFor: time.UnixMilli(p.ScheduledFor).UTC(),
		CompletedAt:  time.UnixMilli(p.CompletedAt).UTC(),
	}
}

// Publisher appends completion events to the Redis stream.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a new completion event publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "events.publisher"),
		metrics: recorder,
	}
}

// Publish adds an event to the stream synchronously.
func (p *Publisher) Publish(ctx context.Context, event *model.CompletionEvent) (string, error) {
	data, err := json.Marshal(PayloadFromEvent(event))
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	id, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return id, nil
}

// PublishCompletion publishes without blocking the caller. Failures are
// logged and counted; the completion itself is already durable.
func (p *Publisher) PublishCompletion(event *model.CompletionEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		streamID, err := p.Publish(ctx, event)
		if err != nil {
			p.logger.Warn("failed to publish completion event",
				"reminder_id", event.ReminderID,
				"error", err,
			)
			p.metrics.IncCompletionEventPublished("dropped")
			return
		}

		p.logger.Debug("completion event published",
			"reminder_id", event.ReminderID,
			"stream_id", streamID,
		)
		p.metrics.IncCompletionEventPublished("success")
	}()
}
