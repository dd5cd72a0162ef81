package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Close() error
}

// Publisher defines the interface for publishing domain events
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload interface{})
}

// Event types emitted by the clinic services.
const (
	EventAppointmentScheduled = "appointment.scheduled"
	EventAppointmentCompleted = "appointment.completed"
	EventDiagnosisRecorded    = "diagnosis.recorded"
	EventPatientRegistered    = "patient.registered"
	EventPatientUpdated       = "patient.updated"
	EventPatientRemoved       = "patient.removed"
)

// Message is the envelope written to the broker.
type Message struct {
	ID         uuid.UUID   `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) {}
