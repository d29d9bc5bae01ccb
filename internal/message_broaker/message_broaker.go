package message_broaker

import "context"

// Delivery is one message taken from a queue. The consumer settles it with
// exactly one call to Ack or Nack.
type Delivery interface {
	Body() []byte
	Ack() error
	// Nack rejects the message. With requeue false the broker dead-letters or drops it.
	Nack(requeue bool) error
}

type MessageBroker interface {
	Publish(ctx context.Context, queue string, message []byte) error
	Consume(ctx context.Context, queue string) (<-chan Delivery, error)
	Close() error
}
