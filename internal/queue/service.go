package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	redisclient "github.com/medisched/clinic-queue/internal/redis"
)

var (
	// ErrPartitionBusy is returned when the partition lock cannot be
	// acquired within the bounded wait. Callers may retry.
	ErrPartitionBusy = errors.New("queue partition is busy, please retry")
)

// Service is the queue ledger: the authoritative ordered list of entries for
// each (doctor, date) partition. All allocations for one partition are
// serialized through the locker, so two concurrent bookings can never be
// handed the same number.
type Service struct {
	repo   Repository
	locker redisclient.Locker
	log    zerolog.Logger
}

func NewService(repo Repository, locker redisclient.Locker, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		log:    log,
	}
}

// Allocate assigns the next number in the requested lane and records the
// entry, all under the partition lock. Allocation never partially succeeds:
// a failed entry insert surfaces before any caller sees the number.
func (s *Service) Allocate(ctx context.Context, doctorID uuid.UUID, date time.Time, isEmergency bool, appointmentID uuid.UUID) (*Entry, error) {
	lane := LaneRegular
	if isEmergency {
		lane = LaneEmergency
	}

	var entry *Entry

	err := s.locker.WithPartitionLock(ctx, doctorID, date, func(lockCtx context.Context) error {
		ordinal, sequence, err := s.repo.NextOrdinal(lockCtx, doctorID, date, lane)
		if err != nil {
			return fmt.Errorf("next ordinal: %w", err)
		}

		e := &Entry{
			ID:            uuid.New(),
			DoctorID:      doctorID,
			Date:          date,
			Lane:          lane,
			Ordinal:       ordinal,
			Sequence:      sequence,
			AppointmentID: appointmentID,
		}
		if err := s.repo.InsertEntry(lockCtx, e); err != nil {
			return err
		}

		entry = e
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			s.log.Warn().
				Str("doctor_id", doctorID.String()).
				Str("date", date.Format("2006-01-02")).
				Msg("partition lock contention on allocate")
			return nil, ErrPartitionBusy
		}
		return nil, err
	}

	return entry, nil
}

// PeekNext returns the entry the serving pointer currently designates, or
// nil when the partition has no one waiting. Emergency entries always come
// first regardless of arrival time; within a lane the lowest ordinal wins.
func (s *Service) PeekNext(ctx context.Context, doctorID uuid.UUID, date time.Time) (*Entry, error) {
	entry, err := s.repo.NextUnserved(ctx, doctorID, date)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("peek next entry: %w", err)
	}
	return entry, nil
}

// MarkServed flags an entry as served, advancing the serving pointer past
// it. Numbers are never reused or shifted.
func (s *Service) MarkServed(ctx context.Context, entryID uuid.UUID) error {
	return s.repo.MarkServed(ctx, entryID)
}

// CancelEntry flags an entry as cancelled. The number stays historically
// associated with the entry; later entries keep their positions.
func (s *Service) CancelEntry(ctx context.Context, entryID uuid.UUID) error {
	return s.repo.MarkCancelled(ctx, entryID)
}

// GetEntry loads a single entry.
func (s *Service) GetEntry(ctx context.Context, entryID uuid.UUID) (*Entry, error) {
	return s.repo.GetEntry(ctx, entryID)
}

// ListDay returns the full partition in serving order, cancelled and served
// entries included, for the doctor-side day view.
func (s *Service) ListDay(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Entry, error) {
	return s.repo.ListEntries(ctx, doctorID, date)
}

// SnapshotDay reports current lane lengths and the next entry up.
func (s *Service) SnapshotDay(ctx context.Context, doctorID uuid.UUID, date time.Time) (*Snapshot, error) {
	regular, emergency, err := s.repo.CountLive(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	next, err := s.PeekNext(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		DoctorID:        doctorID,
		Date:            date,
		RegularLength:   regular,
		EmergencyLength: emergency,
		NextEntry:       next,
	}, nil
}
