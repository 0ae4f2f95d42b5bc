package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrEntryNotFound = errors.New("queue entry not found")

// Repository contains all DB interactions needed by the ledger.
type Repository interface {
	// NextOrdinal atomically advances the lane counter for the partition and
	// returns the new ordinal plus the partition-wide sequence value.
	NextOrdinal(ctx context.Context, doctorID uuid.UUID, date time.Time, lane Lane) (ordinal int, sequence int64, err error)

	InsertEntry(ctx context.Context, e *Entry) error
	GetEntry(ctx context.Context, id uuid.UUID) (*Entry, error)
	ListEntries(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Entry, error)

	// NextUnserved returns the entry the serving pointer designates: the
	// lowest unserved, uncancelled emergency entry, else the lowest regular.
	NextUnserved(ctx context.Context, doctorID uuid.UUID, date time.Time) (*Entry, error)

	MarkServed(ctx context.Context, id uuid.UUID) error
	MarkCancelled(ctx context.Context, id uuid.UUID) error

	// CountLive counts uncancelled, unserved entries per lane.
	CountLive(ctx context.Context, doctorID uuid.UUID, date time.Time) (regular, emergency int, err error)
}
