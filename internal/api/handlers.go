package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medisched/clinic-queue/internal/appointment"
	"github.com/medisched/clinic-queue/internal/availability"
	"github.com/medisched/clinic-queue/internal/booking"
	"github.com/medisched/clinic-queue/internal/queue"
)

func bookAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}
		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}
		date, err := availability.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
			return
		}

		appt, err := svc.Book(r.Context(), GetActor(r.Context()), booking.BookRequest{
			PatientID:   patientID,
			DoctorID:    doctorID,
			Date:        date,
			Type:        appointment.Type(req.AppointmentType),
			Reason:      req.ReasonForVisit,
			Symptoms:    req.Symptoms,
			Priority:    req.Priority,
			IsEmergency: req.IsEmergency,
			Nonce:       req.IdempotencyKey,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.Get(r.Context(), GetActor(r.Context()), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func listAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := GetActor(r.Context())

		patientID := actor.UserID
		if v := r.URL.Query().Get("patient_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
				return
			}
			patientID = id
		}

		limit := queryInt(r, "limit", 20)
		offset := queryInt(r, "offset", 0)

		appts, err := svc.ListByPatient(r.Context(), actor, patientID, limit, offset)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		resp := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			resp = append(resp, toAppointmentResponse(&appts[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func updateStatusHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.Transition(r.Context(), GetActor(r.Context()), id, appointment.Status(req.Status), req.Notes, nil)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func rescheduleHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req RescheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		newDate, err := availability.ParseDate(req.NewDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
			return
		}

		appt, err := svc.Reschedule(r.Context(), GetActor(r.Context()), id, newDate)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req CancelRequest
		if r.Body != nil {
			// Body is optional for cancel.
			_ = json.NewDecoder(r.Body).Decode(&req)
		}

		appt, err := svc.Cancel(r.Context(), GetActor(r.Context()), id, req.Reason)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

// daySlotsHandler answers the "available slots" contract: day open or not,
// the working window, and current queue lengths.
func daySlotsHandler(profiles availability.ProfileStore, calc availability.Calculator, queues *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, date, ok := doctorDayParams(w, r)
		if !ok {
			return
		}

		profile, err := profiles.GetProfile(r.Context(), doctorID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		resp := DayOpenResponse{
			DoctorID: doctorID,
			Date:     date.Format("2006-01-02"),
		}

		if err := calc.Check(date, profile, timeNow()); err != nil {
			resp.IsOpen = false
			resp.Reason = err.Error()
			writeJSON(w, http.StatusOK, resp)
			return
		}

		resp.IsOpen = true
		if window, ok := calc.Window(date, profile); ok {
			resp.WorkingWindow = window.String()
		}

		snapshot, err := queues.SnapshotDay(r.Context(), doctorID, date)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp.RegularWaiting = snapshot.RegularLength
		resp.EmergencyWaiting = snapshot.EmergencyLength
		if snapshot.NextEntry != nil {
			n := snapshot.NextEntry.Number().String()
			resp.NowServing = &n
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func dayQueueHandler(queues *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, date, ok := doctorDayParams(w, r)
		if !ok {
			return
		}

		actor := GetActor(r.Context())
		if actor.Role == appointment.RolePatient {
			writeServiceError(w, appointment.ErrNotAllowed)
			return
		}
		if actor.Role == appointment.RoleDoctor && actor.UserID != doctorID {
			writeServiceError(w, appointment.ErrNotAllowed)
			return
		}

		entries, err := queues.ListDay(r.Context(), doctorID, date)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		next, err := queues.PeekNext(r.Context(), doctorID, date)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		resp := DayQueueResponse{
			DoctorID: doctorID,
			Date:     date.Format("2006-01-02"),
			Entries:  make([]QueueEntryResponse, 0, len(entries)),
		}
		for _, e := range entries {
			resp.Entries = append(resp.Entries, toQueueEntryResponse(e))
		}
		if next != nil {
			n := next.Number().String()
			resp.NowServing = &n
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func setWorkingHoursHandler(profiles availability.ProfileStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		if !canManageDoctor(GetActor(r.Context()), doctorID) {
			writeServiceError(w, appointment.ErrNotAllowed)
			return
		}

		var req SetWorkingHoursRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		hours, err := availability.ParseWeekHours(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_working_hours", err.Error())
			return
		}

		if err := profiles.SetWorkingHours(r.Context(), doctorID, hours); err != nil {
			writeServiceError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func setAvailabilityHandler(profiles availability.ProfileStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		if !canManageDoctor(GetActor(r.Context()), doctorID) {
			writeServiceError(w, appointment.ErrNotAllowed)
			return
		}

		var req SetAvailabilityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		status := availability.Status(req.Status)
		switch status {
		case availability.StatusAvailable, availability.StatusBusy, availability.StatusOffline:
		default:
			writeError(w, http.StatusBadRequest, "invalid_status", "status must be available, busy or offline")
			return
		}

		if err := profiles.SetStatus(r.Context(), doctorID, status); err != nil {
			writeServiceError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func canManageDoctor(actor appointment.Actor, doctorID uuid.UUID) bool {
	if actor.Role == appointment.RoleAdmin {
		return true
	}
	return actor.Role == appointment.RoleDoctor && actor.UserID == doctorID
}

func doctorDayParams(w http.ResponseWriter, r *http.Request) (uuid.UUID, time.Time, bool) {
	doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
		return uuid.Nil, time.Time{}, false
	}

	date, err := availability.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
		return uuid.Nil, time.Time{}, false
	}

	return doctorID, date, true
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// timeNow is swapped in handler tests.
var timeNow = time.Now
