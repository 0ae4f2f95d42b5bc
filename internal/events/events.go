package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TypeAppointmentBooked        = "APPOINTMENT_BOOKED"
	TypeAppointmentStatusChanged = "APPOINTMENT_STATUS_CHANGED"
	TypeAppointmentRescheduled   = "APPOINTMENT_RESCHEDULED"
	TypeAppointmentCancelled     = "APPOINTMENT_CANCELLED"
)

// Event is a logical domain event. The notification collaborator subscribes
// to these; the engine itself only emits them.
type Event struct {
	Type          string         `json:"type"`
	AppointmentID uuid.UUID      `json:"appointment_id"`
	Payload       map[string]any `json:"payload,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Recorder persists and publishes domain events. Recording is best effort:
// implementations log failures but never fail the calling operation.
type Recorder interface {
	Record(ctx context.Context, eventType string, appointmentID uuid.UUID, payload map[string]any)
}
