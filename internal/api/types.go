package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/medisched/clinic-queue/internal/appointment"
	"github.com/medisched/clinic-queue/internal/queue"
)

type BookAppointmentRequest struct {
	PatientID       string  `json:"patient_id"`
	DoctorID        string  `json:"doctor_id"`
	Date            string  `json:"date"` // YYYY-MM-DD
	AppointmentType string  `json:"appointment_type"`
	ReasonForVisit  string  `json:"reason_for_visit"`
	Symptoms        *string `json:"symptoms,omitempty"`
	Priority        *string `json:"priority,omitempty"`
	IsEmergency     bool    `json:"is_emergency"`
	IdempotencyKey  string  `json:"idempotency_key,omitempty"`
}

type UpdateStatusRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes,omitempty"`
}

type RescheduleRequest struct {
	NewDate string  `json:"new_date"` // YYYY-MM-DD
	NewTime *string `json:"new_time,omitempty"`
}

type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

type SetWorkingHoursRequest map[string]json.RawMessage

type SetAvailabilityRequest struct {
	Status string `json:"status"`
}

type AppointmentResponse struct {
	ID             uuid.UUID `json:"id"`
	PatientID      uuid.UUID `json:"patient_id"`
	DoctorID       uuid.UUID `json:"doctor_id"`
	Date           string    `json:"date"`
	Type           string    `json:"appointment_type"`
	ReasonForVisit string    `json:"reason_for_visit"`
	Symptoms       *string   `json:"symptoms,omitempty"`
	Priority       *string   `json:"priority,omitempty"`
	IsEmergency    bool      `json:"is_emergency"`
	Status         string    `json:"status"`
	QueueNumber    string    `json:"queue_number"`
	CancelReason   *string   `json:"cancel_reason,omitempty"`
	Notes          *string   `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:             a.ID,
		PatientID:      a.PatientID,
		DoctorID:       a.DoctorID,
		Date:           a.Date.Format("2006-01-02"),
		Type:           string(a.Type),
		ReasonForVisit: a.Reason,
		Symptoms:       a.Symptoms,
		Priority:       a.Priority,
		IsEmergency:    a.IsEmergency,
		Status:         string(a.Status),
		QueueNumber:    a.QueueNumber,
		CancelReason:   a.CancelReason,
		Notes:          a.Notes,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// DayOpenResponse answers "is this day open and how long is the queue",
// which is what "available slots" means in a date-scoped queue model.
type DayOpenResponse struct {
	DoctorID         uuid.UUID `json:"doctor_id"`
	Date             string    `json:"date"`
	IsOpen           bool      `json:"is_open"`
	Reason           string    `json:"reason,omitempty"`
	WorkingWindow    string    `json:"working_window,omitempty"`
	RegularWaiting   int       `json:"regular_waiting"`
	EmergencyWaiting int       `json:"emergency_waiting"`
	NowServing       *string   `json:"now_serving,omitempty"`
}

type QueueEntryResponse struct {
	QueueNumber   string    `json:"queue_number"`
	Lane          string    `json:"lane"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	Cancelled     bool      `json:"cancelled"`
	Served        bool      `json:"served"`
}

func toQueueEntryResponse(e queue.Entry) QueueEntryResponse {
	return QueueEntryResponse{
		QueueNumber:   e.Number().String(),
		Lane:          string(e.Lane),
		AppointmentID: e.AppointmentID,
		Cancelled:     e.Cancelled,
		Served:        e.Served,
	}
}

type DayQueueResponse struct {
	DoctorID   uuid.UUID            `json:"doctor_id"`
	Date       string               `json:"date"`
	NowServing *string              `json:"now_serving,omitempty"`
	Entries    []QueueEntryResponse `json:"entries"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
