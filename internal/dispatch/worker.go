package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/RezaEskandarii/scribeflow/custom_errors"
	"github.com/RezaEskandarii/scribeflow/internal/event"
	"github.com/RezaEskandarii/scribeflow/internal/message_broaker"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// BatchFunc handles the events of one notification message.
type BatchFunc func(ctx context.Context, events []event.ObjectCreated) error

// Outcome is how a delivery was settled.
type Outcome int

const (
	Acked Outcome = iota + 1
	Requeued
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Acked:
		return "acked"
	case Requeued:
		return "requeued"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

// OutcomeOf maps the result of a batch to its settlement: success is acked,
// a retryable failure is requeued and anything else is rejected.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return Acked
	case custom_errors.IsBatchRetryable(err):
		return Requeued
	}
	return Rejected
}

// Worker consumes notification messages from the broker and runs at most
// workerCount batches at a time.
type Worker struct {
	broker      message_broaker.MessageBroker
	parser      *event.Parser
	routes      map[string]BatchFunc
	workerCount int
	logger      *zap.Logger
}

func NewWorker(broker message_broaker.MessageBroker, parser *event.Parser, workerCount int, logger *zap.Logger) *Worker {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Worker{
		broker:      broker,
		parser:      parser,
		routes:      make(map[string]BatchFunc),
		workerCount: workerCount,
		logger:      logger,
	}
}

// Route registers the handler for queue.
func (w *Worker) Route(queue string, fn BatchFunc) {
	w.routes[queue] = fn
}

type queued struct {
	queue    string
	delivery message_broaker.Delivery
}

// Run consumes every routed queue until ctx is canceled, then waits for the
// batches in flight. Cancellation is a clean shutdown and returns nil.
func (w *Worker) Run(ctx context.Context) error {
	if len(w.routes) == 0 {
		return errors.New("dispatch: no queue routed")
	}

	in := make(chan queued)
	var consumers sync.WaitGroup
	for queue := range w.routes {
		deliveries, err := w.broker.Consume(ctx, queue)
		if err != nil {
			return fmt.Errorf("consume %s: %w", queue, err)
		}
		consumers.Add(1)
		go func(queue string) {
			defer consumers.Done()
			for d := range deliveries {
				select {
				case in <- queued{queue: queue, delivery: d}:
				case <-ctx.Done():
					_ = d.Nack(true)
					return
				}
			}
		}(queue)
	}
	go func() {
		consumers.Wait()
		close(in)
	}()

	w.logger.Info("worker started", zap.Int("worker_count", w.workerCount), zap.Int("queues", len(w.routes)))

	sem := semaphore.NewWeighted(int64(w.workerCount))
	var wg sync.WaitGroup
	defer wg.Wait()

	for q := range in {
		if err := sem.Acquire(ctx, 1); err != nil {
			_ = q.delivery.Nack(true)
			continue
		}
		wg.Add(1)
		go func(q queued) {
			defer func() {
				if r := recover(); r != nil {
					w.logger.Error("panic while handling batch", zap.String("queue", q.queue), zap.Any("panic", r))
					_ = q.delivery.Nack(false)
				}
				sem.Release(1)
				wg.Done()
			}()
			w.process(ctx, q.queue, q.delivery)
		}(q)
	}
	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	w.logger.Info("worker stopped")
	return nil
}

// process handles one delivery and settles it.
func (w *Worker) process(ctx context.Context, queue string, d message_broaker.Delivery) Outcome {
	err := w.handle(ctx, queue, d.Body())
	outcome := OutcomeOf(err)

	var settleErr error
	switch outcome {
	case Acked:
		settleErr = d.Ack()
	case Requeued:
		w.logger.Warn("batch failed, requeueing", zap.String("queue", queue), zap.Error(err))
		settleErr = d.Nack(true)
	default:
		w.logger.Error("batch failed, rejecting", zap.String("queue", queue), zap.Error(err))
		settleErr = d.Nack(false)
	}
	if settleErr != nil {
		w.logger.Error("failed to settle delivery", zap.String("queue", queue), zap.Stringer("outcome", outcome), zap.Error(settleErr))
	}
	return outcome
}

func (w *Worker) handle(ctx context.Context, queue string, body []byte) error {
	fn, ok := w.routes[queue]
	if !ok {
		return fmt.Errorf("no handler for queue %s: %w", queue, custom_errors.ErrConfiguration)
	}
	events, err := w.parser.Parse(body)
	if err != nil {
		return err
	}
	return fn(ctx, events)
}
