package messaging

import "context"

// Broker publishes domain events to interested consumers. Publishing is
// best-effort from the caller's perspective; a failed publish must never
// fail the operation that produced the event.
type Broker interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
	Subscribe(ctx context.Context, topic string, handler func(payload []byte)) error
	Close() error
}

// Topics for queue and booking events.
const (
	TopicQueueEvents       = "queue.events"
	TopicAppointmentEvents = "appointment.events"
)
