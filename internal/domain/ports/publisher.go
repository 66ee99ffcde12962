package ports

import "context"

// EventPublisher emits terminal checkout events to the event stream.
// Publishing is best-effort from the orchestrator's perspective; a publish
// failure never changes the checkout outcome.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event interface{}) error
}
