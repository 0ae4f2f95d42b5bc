package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrStatusConflict means the compare-and-swap status update lost to a
	// concurrent transition on the same appointment.
	ErrStatusConflict = errors.New("appointment status changed concurrently")
)

// Repository contains all DB interactions needed by the lifecycle and
// booking services.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// UpdateStatus is a compare-and-swap: it only applies when the stored
	// status still equals from, which serializes transitions per appointment.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, notes, cancelReason *string) (*Appointment, error)

	// Move repoints the appointment at a fresh queue entry on a new date,
	// retiring the old entry in the same transaction. Like UpdateStatus it
	// compares against from and returns ErrStatusConflict when a concurrent
	// transition won, so a terminal appointment can never be moved.
	Move(ctx context.Context, id uuid.UUID, date time.Time, queueEntryID uuid.UUID, queueNumber string, from, to Status) (*Appointment, error)

	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error)
	ListByDoctorDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Appointment, error)

	// FindOverdue returns appointments still in scheduled or confirmed
	// status whose date is before the given day, for the no-show sweeper.
	FindOverdue(ctx context.Context, before time.Time) ([]Appointment, error)
}
