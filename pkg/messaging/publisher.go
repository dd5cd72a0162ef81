package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-console/pkg/logger"
	"github.com/jwalitptl/clinic-console/pkg/metrics"
)

// EventPublisher wraps a Broker into a fire-and-forget Publisher. Broker
// failures are logged and counted; they never reach the caller.
type EventPublisher struct {
	broker  Broker
	channel string
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewEventPublisher(broker Broker, channel string, log *logger.Logger, m *metrics.Metrics) *EventPublisher {
	return &EventPublisher{
		broker:  broker,
		channel: channel,
		logger:  log.Component("events"),
		metrics: m,
		now:     time.Now,
	}
}

func (p *EventPublisher) Publish(ctx context.Context, eventType string, payload interface{}) {
	msg := Message{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: p.now(),
		Payload:    payload,
	}

	status := "success"
	if err := p.broker.Publish(ctx, p.channel, msg); err != nil {
		status = "error"
		p.logger.Error(err, "failed to publish event", "event_type", eventType, "event_id", msg.ID.String())
	}

	if p.metrics != nil {
		p.metrics.EventsPublished.WithLabelValues(eventType, status).Inc()
	}
}
