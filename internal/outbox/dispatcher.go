package outbox

import (
	"context"
	"fmt"
	"log/slog"
)

// Handler consumes one message payload.
type Handler func(ctx context.Context, payload []byte) error

// StorePort abstracts the batch claim used by the dispatcher.
type StorePort interface {
	DispatchBatch(ctx context.Context, limit int, handle func(Message) error) (int, error)
}

// MetricsPort counts per-topic dispatch outcomes.
type MetricsPort interface {
	ObserveOutboxDispatch(topic string, err error)
}

// Dispatcher routes pending outbox rows to registered topic handlers.
type Dispatcher struct {
	store     StorePort
	handlers  map[string]Handler
	metrics   MetricsPort
	batchSize int
	logger    *slog.Logger
}

// NewDispatcher constructs Dispatcher.
func NewDispatcher(store StorePort, metrics MetricsPort, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		store:     store,
		handlers:  map[string]Handler{},
		metrics:   metrics,
		batchSize: 50,
		logger:    logger,
	}
}

// Register binds a handler to a topic. Last registration wins.
func (d *Dispatcher) Register(topic string, h Handler) {
	d.handlers[topic] = h
}

func (d *Dispatcher) observe(topic string, err error) {
	if d.metrics != nil {
		d.metrics.ObserveOutboxDispatch(topic, err)
	}
}

// DispatchPending drains pending rows in batches until none remain. Handler
// failures leave their rows pending for the next sweep and do not abort the
// run.
func (d *Dispatcher) DispatchPending(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := d.store.DispatchBatch(ctx, d.batchSize, func(m Message) error {
			handler, ok := d.handlers[m.Topic]
			if !ok {
				err := fmt.Errorf("outbox: no handler for topic %q", m.Topic)
				d.observe(m.Topic, err)
				return err
			}
			if err := handler(ctx, m.Payload); err != nil {
				d.logger.Warn("outbox handler failed",
					slog.String("topic", m.Topic),
					slog.Int64("message_id", m.ID),
					slog.Int("attempts", m.Attempts+1),
					slog.Any("error", err))
				d.observe(m.Topic, err)
				return err
			}
			d.observe(m.Topic, nil)
			return nil
		})
		if err != nil {
			return err
		}
		if n < d.batchSize {
			return nil
		}
	}
}
