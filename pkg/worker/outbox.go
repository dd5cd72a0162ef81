package worker

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-console/pkg/logger"
	"github.com/jwalitptl/clinic-console/pkg/messaging"
	"github.com/jwalitptl/clinic-console/pkg/metrics"
)

type OutboxConfig struct {
	BufferSize    int
	BatchSize     int
	PollInterval  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

func DefaultOutboxConfig() OutboxConfig {
	return OutboxConfig{
		BufferSize:    1024,
		BatchSize:     100,
		PollInterval:  500 * time.Millisecond,
		RetryAttempts: 3,
		RetryDelay:    200 * time.Millisecond,
	}
}

// Outbox is an asynchronous messaging.Publisher. Events are buffered in
// memory and handed to the broker by Start, so a slow broker never delays
// the operation that raised the event. When the buffer is full new events
// are dropped and counted.
type Outbox struct {
	events  chan messaging.Message
	broker  messaging.Broker
	channel string
	config  OutboxConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewOutbox(
	broker messaging.Broker,
	channel string,
	config OutboxConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Outbox {
	// Config validation instead of defaults
	if config.BufferSize <= 0 {
		panic("BufferSize must be greater than 0")
	}
	if config.BatchSize <= 0 {
		panic("BatchSize must be greater than 0")
	}
	if config.PollInterval <= 0 {
		panic("PollInterval must be greater than 0")
	}
	if config.RetryAttempts <= 0 {
		panic("RetryAttempts must be greater than 0")
	}

	return &Outbox{
		events:  make(chan messaging.Message, config.BufferSize),
		broker:  broker,
		channel: channel,
		config:  config,
		logger:  logger.Component("outbox"),
		metrics: metrics,
		now:     time.Now,
	}
}

func (o *Outbox) Publish(_ context.Context, eventType string, payload interface{}) {
	msg := messaging.Message{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: o.now(),
		Payload:    payload,
	}
	select {
	case o.events <- msg:
	default:
		o.count(eventType, "dropped")
		o.logger.Warn("outbox full, dropping event", "event_type", eventType, "event_id", msg.ID.String())
	}
}

// Pending reports how many events wait to be sent.
func (o *Outbox) Pending() int {
	return len(o.events)
}

// Start sends buffered events until ctx is done, then flushes what is left
// with a short grace period.
func (o *Outbox) Start(ctx context.Context) {
	ticker := time.NewTicker(o.config.PollInterval)
	defer ticker.Stop()

	o.logger.Info("Starting outbox processor")

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			o.Flush(flushCtx)
			cancel()
			o.logger.Info("Shutting down outbox processor")
			return
		case <-ticker.C:
			o.processBatch(ctx)
		}
	}
}

// Flush sends every buffered event or stops when ctx is done.
func (o *Outbox) Flush(ctx context.Context) {
	for len(o.events) > 0 && ctx.Err() == nil {
		o.processBatch(ctx)
	}
}

func (o *Outbox) processBatch(ctx context.Context) {
	for i := 0; i < o.config.BatchSize; i++ {
		select {
		case msg := <-o.events:
			o.processEvent(ctx, msg)
		default:
			return
		}
	}
}

func (o *Outbox) processEvent(ctx context.Context, msg messaging.Message) {
	err := retry(ctx, o.config.RetryAttempts, o.config.RetryDelay, func() error {
		return o.broker.Publish(ctx, o.channel, msg)
	})
	if err != nil {
		o.count(msg.Type, "error")
		o.logger.Error(err, "Failed to publish event",
			"event_id", msg.ID.String(),
			"event_type", msg.Type)
		return
	}
	o.count(msg.Type, "success")
}

func (o *Outbox) count(eventType, status string) {
	if o.metrics != nil {
		o.metrics.EventsPublished.WithLabelValues(eventType, status).Inc()
	}
}

// Helper retry function
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return err
			case <-time.After(delay):
			}
		}
	}
	return err
}
