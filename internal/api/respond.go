package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/medisched/clinic-queue/internal/appointment"
	"github.com/medisched/clinic-queue/internal/availability"
	"github.com/medisched/clinic-queue/internal/booking"
	"github.com/medisched/clinic-queue/internal/queue"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// writeServiceError maps domain errors onto HTTP codes. Every rejection
// carries a distinct error code so the client can render the precise reason.
func writeServiceError(w http.ResponseWriter, err error) {
	var ite *appointment.IllegalTransitionError

	switch {
	case errors.Is(err, booking.ErrReasonRequired):
		writeError(w, http.StatusBadRequest, "reason_required", err.Error())
	case errors.Is(err, booking.ErrInvalidType):
		writeError(w, http.StatusBadRequest, "invalid_appointment_type", err.Error())
	case errors.Is(err, booking.ErrNoChange):
		writeError(w, http.StatusBadRequest, "no_change", err.Error())
	case errors.Is(err, booking.ErrNotFuture):
		writeError(w, http.StatusBadRequest, "date_not_future", err.Error())
	case errors.Is(err, availability.ErrPastDate):
		writeError(w, http.StatusUnprocessableEntity, "past_date", err.Error())
	case errors.Is(err, availability.ErrTooFarAhead):
		writeError(w, http.StatusUnprocessableEntity, "too_far_ahead", err.Error())
	case errors.Is(err, availability.ErrNoWorkingHours):
		writeError(w, http.StatusUnprocessableEntity, "no_working_hours", err.Error())
	case errors.Is(err, availability.ErrDoctorUnavailable):
		writeError(w, http.StatusConflict, "doctor_unavailable", err.Error())
	case errors.Is(err, booking.ErrNotReschedulable):
		writeError(w, http.StatusConflict, "not_reschedulable", err.Error())
	case errors.Is(err, booking.ErrDuplicateInFlight):
		writeError(w, http.StatusConflict, "duplicate_in_flight", err.Error())
	case errors.Is(err, queue.ErrPartitionBusy):
		writeError(w, http.StatusConflict, "queue_busy", "queue is busy, please retry shortly")
	case errors.As(err, &ite):
		writeError(w, http.StatusConflict, "illegal_transition", err.Error())
	case errors.Is(err, appointment.ErrStatusConflict):
		writeError(w, http.StatusConflict, "status_conflict", err.Error())
	case errors.Is(err, appointment.ErrNotAllowed):
		writeError(w, http.StatusForbidden, "not_allowed", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, availability.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, queue.ErrEntryNotFound):
		writeError(w, http.StatusNotFound, "queue_entry_not_found", err.Error())
	default:
		// Persistence and infrastructure failures stay opaque to callers.
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected error")
	}
}
