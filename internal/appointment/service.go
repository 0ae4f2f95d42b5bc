package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medisched/clinic-queue/internal/availability"
	"github.com/medisched/clinic-queue/internal/events"
	"github.com/medisched/clinic-queue/internal/queue"
)

var (
	ErrNotAllowed = errors.New("actor is not allowed to act on this appointment")
)

// Service owns the appointment lifecycle. Every status mutation goes through
// Transition, which consults the legal-transition table and applies the
// change with a compare-and-swap, so concurrent conflicting requests cannot
// both succeed.
type Service struct {
	repo   Repository
	queues *queue.Service
	events events.Recorder
	log    zerolog.Logger
}

func NewService(repo Repository, queues *queue.Service, recorder events.Recorder, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		queues: queues,
		events: recorder,
		log:    log,
	}
}

// Get loads a single appointment, enforcing that patients only see their own.
func (s *Service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == RolePatient && appt.PatientID != actor.UserID {
		return nil, ErrNotAllowed
	}
	return appt, nil
}

// Transition moves an appointment to a new status. Doctors may only
// transition appointments assigned to them; patients may only cancel their
// own. On entering a terminal state the queue entry is marked served so the
// serving pointer advances to the next eligible entry.
func (s *Service) Transition(ctx context.Context, actor Actor, id uuid.UUID, to Status, notes, cancelReason *string) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if err := s.authorizeTransition(actor, appt, to); err != nil {
		return nil, err
	}

	if !CanTransition(appt.Status, to) {
		return nil, &IllegalTransitionError{From: appt.Status, To: to}
	}

	updated, err := s.repo.UpdateStatus(ctx, id, appt.Status, to, notes, cancelReason)
	if err != nil {
		if errors.Is(err, ErrStatusConflict) {
			// Lost the race; report against the status that actually won.
			current, getErr := s.repo.GetByID(ctx, id)
			if getErr != nil {
				return nil, getErr
			}
			return nil, &IllegalTransitionError{From: current.Status, To: to}
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	if Terminal(to) {
		// Cancelled entries keep their number but are flagged; either way
		// the serving pointer skips them from now on.
		advance := s.queues.MarkServed
		if to == StatusCancelled {
			advance = s.queues.CancelEntry
		}
		if err := advance(ctx, updated.QueueEntryID); err != nil && !errors.Is(err, queue.ErrEntryNotFound) {
			s.log.Error().Err(err).
				Str("appointment_id", id.String()).
				Msg("advance serving pointer")
		}
	}

	eventType := events.TypeAppointmentStatusChanged
	payload := map[string]any{
		"from": string(appt.Status),
		"to":   string(to),
	}
	if to == StatusCancelled {
		eventType = events.TypeAppointmentCancelled
		if cancelReason != nil {
			payload["reason"] = *cancelReason
		}
	}
	s.events.Record(ctx, eventType, updated.ID, payload)

	return updated, nil
}

func (s *Service) authorizeTransition(actor Actor, appt *Appointment, to Status) error {
	switch actor.Role {
	case RoleAdmin, RoleSystem:
		return nil
	case RoleDoctor:
		if appt.DoctorID != actor.UserID {
			return ErrNotAllowed
		}
		return nil
	case RolePatient:
		// Patients can only cancel, and only their own appointment.
		if to != StatusCancelled || appt.PatientID != actor.UserID {
			return ErrNotAllowed
		}
		return nil
	default:
		return ErrNotAllowed
	}
}

// ListByPatient returns a patient's appointment history.
func (s *Service) ListByPatient(ctx context.Context, actor Actor, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	if actor.Role == RolePatient && patientID != actor.UserID {
		return nil, ErrNotAllowed
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// ListDoctorDay returns a doctor's appointments for one date.
func (s *Service) ListDoctorDay(ctx context.Context, actor Actor, doctorID uuid.UUID, date time.Time) ([]Appointment, error) {
	if actor.Role == RoleDoctor && doctorID != actor.UserID {
		return nil, ErrNotAllowed
	}
	if actor.Role == RolePatient {
		return nil, ErrNotAllowed
	}
	return s.repo.ListByDoctorDate(ctx, doctorID, date)
}

// SweepNoShows marks scheduled and confirmed appointments from past days as
// no-shows. Intended to be called periodically by the sweeper binary.
func (s *Service) SweepNoShows(ctx context.Context, now time.Time) error {
	today := availability.DateOnly(now)

	overdue, err := s.repo.FindOverdue(ctx, today)
	if err != nil {
		return fmt.Errorf("find overdue appointments: %w", err)
	}

	actor := Actor{Role: RoleSystem}
	for _, appt := range overdue {
		_, err := s.Transition(ctx, actor, appt.ID, StatusNoShow, nil, nil)
		if err != nil {
			var ite *IllegalTransitionError
			if errors.As(err, &ite) {
				// Someone transitioned it while we swept; fine.
				continue
			}
			s.log.Error().Err(err).
				Str("appointment_id", appt.ID.String()).
				Msg("mark no-show")
		}
	}

	return nil
}
