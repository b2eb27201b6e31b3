package port

import (
	"context"
)

// EventPublisher defines the interface for publishing gallery events to a message broker
type EventPublisher interface {
	// PublishEvent publishes an event to the specified subject
	PublishEvent(ctx context.Context, subject string, event interface{}) error

	// Close drains pending acks and closes the connection
	Close() error
}
