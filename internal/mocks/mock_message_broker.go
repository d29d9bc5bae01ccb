package mocks

import (
	"context"
	"sync"

	"github.com/RezaEskandarii/scribeflow/internal/message_broaker"
)

// MockMessageBroker is a mock implementation of message_broaker.MessageBroker for testing.
type MockMessageBroker struct {
	PublishFunc func(ctx context.Context, queue string, message []byte) error
	ConsumeFunc func(ctx context.Context, queue string) (<-chan message_broaker.Delivery, error)
	CloseFunc   func() error
}

func (m *MockMessageBroker) Publish(ctx context.Context, queue string, message []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, queue, message)
	}
	return nil
}

func (m *MockMessageBroker) Consume(ctx context.Context, queue string) (<-chan message_broaker.Delivery, error) {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, queue)
	}
	ch := make(chan message_broaker.Delivery)
	close(ch)
	return ch, nil
}

func (m *MockMessageBroker) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// MockDelivery records how it was settled.
type MockDelivery struct {
	Payload []byte

	mu       sync.Mutex
	acked    bool
	nacked   bool
	requeued bool
}

func NewMockDelivery(body []byte) *MockDelivery {
	return &MockDelivery{Payload: body}
}

func (d *MockDelivery) Body() []byte { return d.Payload }

func (d *MockDelivery) Ack() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.acked = true
	return nil
}

func (d *MockDelivery) Nack(requeue bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nacked, d.requeued = true, requeue
	return nil
}

// Settlement reports (acked, nacked, requeued).
func (d *MockDelivery) Settlement() (bool, bool, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.acked, d.nacked, d.requeued
}
