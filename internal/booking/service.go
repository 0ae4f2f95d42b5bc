package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medisched/clinic-queue/internal/appointment"
	"github.com/medisched/clinic-queue/internal/availability"
	"github.com/medisched/clinic-queue/internal/events"
	"github.com/medisched/clinic-queue/internal/queue"
)

var (
	ErrReasonRequired    = errors.New("reason for visit is required")
	ErrInvalidType       = errors.New("appointment type must be consultation or follow-up")
	ErrNoChange          = errors.New("new date equals the current one")
	ErrNotFuture         = errors.New("new date must be in the future")
	ErrNotReschedulable  = errors.New("appointment can no longer be rescheduled")
	ErrDuplicateInFlight = errors.New("an identical booking request is already in flight")
)

// IdempotencyStore deduplicates retried booking requests.
type IdempotencyStore interface {
	Claim(ctx context.Context, key string) (existing string, pending bool, err error)
	Fulfil(ctx context.Context, key, appointmentID string) error
	Release(ctx context.Context, key string) error
}

// Service is the booking entry point: it validates the request against the
// availability calculator, acquires a queue position, and creates the
// appointment in scheduled status. It also owns reschedule and cancel.
type Service struct {
	appts    appointment.Repository
	life     *appointment.Service
	queues   *queue.Service
	profiles availability.ProfileStore
	calc     availability.Calculator
	idem     IdempotencyStore
	events   events.Recorder
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(
	appts appointment.Repository,
	life *appointment.Service,
	queues *queue.Service,
	profiles availability.ProfileStore,
	calc availability.Calculator,
	idem IdempotencyStore,
	recorder events.Recorder,
	log zerolog.Logger,
) *Service {
	return &Service{
		appts:    appts,
		life:     life,
		queues:   queues,
		profiles: profiles,
		calc:     calc,
		idem:     idem,
		events:   recorder,
		log:      log,
		now:      time.Now,
	}
}

type BookRequest struct {
	PatientID   uuid.UUID
	DoctorID    uuid.UUID
	Date        time.Time
	Type        appointment.Type
	Reason      string
	Symptoms    *string
	Priority    *string
	IsEmergency bool
	Nonce       string // client-supplied, enables idempotent retry
}

// Book validates, allocates a queue number, and creates the appointment.
// A retried request carrying the same nonce within the dedup window gets the
// original appointment back instead of a second booking.
func (s *Service) Book(ctx context.Context, actor appointment.Actor, req BookRequest) (*appointment.Appointment, error) {
	if strings.TrimSpace(req.Reason) == "" {
		return nil, ErrReasonRequired
	}
	if !appointment.ValidType(req.Type) {
		return nil, ErrInvalidType
	}
	if actor.Role == appointment.RolePatient && req.PatientID != actor.UserID {
		return nil, appointment.ErrNotAllowed
	}

	profile, err := s.profiles.GetProfile(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}

	date := availability.DateOnly(req.Date)
	if err := s.calc.Check(date, profile, s.now()); err != nil {
		return nil, err
	}

	idemKey := ""
	if req.Nonce != "" {
		idemKey = fmt.Sprintf("%s:%s:%s:%s", req.PatientID, req.DoctorID, date.Format("2006-01-02"), req.Nonce)

		existing, pending, err := s.idem.Claim(ctx, idemKey)
		if err != nil {
			return nil, err
		}
		if pending {
			return nil, ErrDuplicateInFlight
		}
		if existing != "" {
			id, parseErr := uuid.Parse(existing)
			if parseErr != nil {
				return nil, fmt.Errorf("corrupt idempotency record: %w", parseErr)
			}
			s.log.Info().Str("appointment_id", existing).Msg("replayed booking request")
			return s.appts.GetByID(ctx, id)
		}
	}

	appt, err := s.createBooking(ctx, req, date)
	if err != nil {
		if idemKey != "" {
			if relErr := s.idem.Release(ctx, idemKey); relErr != nil {
				s.log.Warn().Err(relErr).Msg("release idempotency key")
			}
		}
		return nil, err
	}

	if idemKey != "" {
		if err := s.idem.Fulfil(ctx, idemKey, appt.ID.String()); err != nil {
			s.log.Warn().Err(err).Msg("fulfil idempotency key")
		}
	}

	return appt, nil
}

func (s *Service) createBooking(ctx context.Context, req BookRequest, date time.Time) (*appointment.Appointment, error) {
	apptID := uuid.New()

	entry, err := s.allocateWithRetry(ctx, req.DoctorID, date, req.IsEmergency, apptID)
	if err != nil {
		return nil, err
	}

	appt := &appointment.Appointment{
		ID:           apptID,
		PatientID:    req.PatientID,
		DoctorID:     req.DoctorID,
		Date:         date,
		Type:         req.Type,
		Reason:       req.Reason,
		Symptoms:     req.Symptoms,
		Priority:     req.Priority,
		IsEmergency:  req.IsEmergency,
		Status:       appointment.StatusScheduled,
		QueueEntryID: entry.ID,
		QueueNumber:  entry.Number().String(),
	}
	if err := s.appts.Create(ctx, appt); err != nil {
		// The allocated number stays burned; numbers are never reused.
		if cancelErr := s.queues.CancelEntry(ctx, entry.ID); cancelErr != nil {
			s.log.Error().Err(cancelErr).Msg("cancel orphaned queue entry")
		}
		return nil, err
	}

	s.events.Record(ctx, events.TypeAppointmentBooked, appt.ID, map[string]any{
		"doctor_id":    req.DoctorID.String(),
		"patient_id":   req.PatientID.String(),
		"date":         date.Format("2006-01-02"),
		"queue_number": appt.QueueNumber,
		"emergency":    req.IsEmergency,
	})

	return appt, nil
}

// allocateWithRetry retries once, transparently, when the partition lock
// times out; a second timeout surfaces as the retryable ErrPartitionBusy.
func (s *Service) allocateWithRetry(ctx context.Context, doctorID uuid.UUID, date time.Time, isEmergency bool, apptID uuid.UUID) (*queue.Entry, error) {
	entry, err := s.queues.Allocate(ctx, doctorID, date, isEmergency, apptID)
	if errors.Is(err, queue.ErrPartitionBusy) {
		s.log.Warn().
			Str("doctor_id", doctorID.String()).
			Msg("partition busy, retrying allocation once")
		entry, err = s.queues.Allocate(ctx, doctorID, date, isEmergency, apptID)
	}
	return entry, err
}

// Reschedule moves an appointment to a new date: the old queue entry is
// flagged cancelled (never renumbered), a fresh entry is allocated on the
// new date, and a confirmed appointment drops back to scheduled.
func (s *Service) Reschedule(ctx context.Context, actor appointment.Actor, id uuid.UUID, newDate time.Time) (*appointment.Appointment, error) {
	appt, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeOwn(actor, appt); err != nil {
		return nil, err
	}

	if appt.Status != appointment.StatusScheduled && appt.Status != appointment.StatusConfirmed {
		return nil, ErrNotReschedulable
	}

	date := availability.DateOnly(newDate)
	if date.Equal(availability.DateOnly(appt.Date)) {
		return nil, ErrNoChange
	}
	if !date.After(availability.DateOnly(s.now())) {
		return nil, ErrNotFuture
	}

	profile, err := s.profiles.GetProfile(ctx, appt.DoctorID)
	if err != nil {
		return nil, err
	}
	if err := s.calc.Check(date, profile, s.now()); err != nil {
		return nil, err
	}

	entry, err := s.allocateWithRetry(ctx, appt.DoctorID, date, appt.IsEmergency, appt.ID)
	if err != nil {
		return nil, err
	}

	newStatus := appt.Status
	if newStatus == appointment.StatusConfirmed {
		newStatus = appointment.StatusScheduled
	}

	// Move retires the old entry in the same transaction and fails with a
	// status conflict when a concurrent transition won the race.
	updated, err := s.appts.Move(ctx, appt.ID, date, entry.ID, entry.Number().String(), appt.Status, newStatus)
	if err != nil {
		if cancelErr := s.queues.CancelEntry(ctx, entry.ID); cancelErr != nil {
			s.log.Error().Err(cancelErr).Msg("cancel orphaned queue entry")
		}
		return nil, err
	}

	s.events.Record(ctx, events.TypeAppointmentRescheduled, appt.ID, map[string]any{
		"old_date":         appt.Date.Format("2006-01-02"),
		"new_date":         date.Format("2006-01-02"),
		"old_queue_number": appt.QueueNumber,
		"new_queue_number": updated.QueueNumber,
	})

	return updated, nil
}

// Cancel delegates to the lifecycle's cancelled transition and records the
// reason for audit.
func (s *Service) Cancel(ctx context.Context, actor appointment.Actor, id uuid.UUID, reason string) (*appointment.Appointment, error) {
	var reasonPtr *string
	if strings.TrimSpace(reason) != "" {
		reasonPtr = &reason
	}
	return s.life.Transition(ctx, actor, id, appointment.StatusCancelled, nil, reasonPtr)
}

func (s *Service) authorizeOwn(actor appointment.Actor, appt *appointment.Appointment) error {
	switch actor.Role {
	case appointment.RoleAdmin, appointment.RoleSystem:
		return nil
	case appointment.RoleDoctor:
		if appt.DoctorID != actor.UserID {
			return appointment.ErrNotAllowed
		}
		return nil
	case appointment.RolePatient:
		if appt.PatientID != actor.UserID {
			return appointment.ErrNotAllowed
		}
		return nil
	default:
		return appointment.ErrNotAllowed
	}
}
