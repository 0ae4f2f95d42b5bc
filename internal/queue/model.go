package queue

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Lane string

const (
	LaneRegular   Lane = "regular"
	LaneEmergency Lane = "emergency"
)

// Number is a stable, lane-scoped queue position. Regular entries render as
// "1", "2", …; emergency entries as "E1", "E2", …. A number is assigned once
// at allocation and never reassigned, even when the entry is cancelled.
type Number struct {
	Lane    Lane
	Ordinal int
}

func (n Number) String() string {
	if n.Lane == LaneEmergency {
		return fmt.Sprintf("E%d", n.Ordinal)
	}
	return fmt.Sprintf("%d", n.Ordinal)
}

// Entry is one position in a (doctor, date) queue partition.
type Entry struct {
	ID            uuid.UUID
	DoctorID      uuid.UUID
	Date          time.Time
	Lane          Lane
	Ordinal       int
	Sequence      int64 // partition-wide creation order, across both lanes
	AppointmentID uuid.UUID
	Cancelled     bool
	Served        bool
	CreatedAt     time.Time
}

func (e *Entry) Number() Number {
	return Number{Lane: e.Lane, Ordinal: e.Ordinal}
}

// Snapshot is the public view of a partition: whether anything is waiting
// and how long each lane currently is, counting only live entries.
type Snapshot struct {
	DoctorID        uuid.UUID
	Date            time.Time
	RegularLength   int
	EmergencyLength int
	NextEntry       *Entry
}
