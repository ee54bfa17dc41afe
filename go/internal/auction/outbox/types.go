package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OutboxEvent is an auction event staged for delivery. Events are written in
// the same transaction as the state change they describe and relayed to the
// broker by the worker.
type OutboxEvent struct {
	ID        uuid.UUID  `json:"id"`
	EventType string     `json:"event_type"`
	Payload   []byte     `json:"payload"`
	CreatedAt time.Time  `json:"created_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
}

// EventPublisher delivers a staged event to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, event OutboxEvent) error
}
