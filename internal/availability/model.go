package availability

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusAvailable Status = "available"
	StatusBusy      Status = "busy"
	StatusOffline   Status = "offline"
)

// DayWindow is the canonical working window for one weekday, in minutes
// since midnight, clinic-local time.
type DayWindow struct {
	Start int
	End   int
}

func (w DayWindow) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", w.Start/60, w.Start%60, w.End/60, w.End%60)
}

// WeekHours maps weekday to working window. Absence of an entry means the
// doctor does not see patients that day.
type WeekHours map[time.Weekday]DayWindow

// Profile is what the calculator needs to know about a doctor.
type Profile struct {
	DoctorID  uuid.UUID
	Name      string
	Specialty *string
	Status    Status
	Hours     WeekHours
	CreatedAt time.Time
	UpdatedAt time.Time
}

var ErrDoctorNotFound = errors.New("doctor not found")

// ParseDate parses a calendar day in YYYY-MM-DD form. The engine is
// date-scoped throughout, so all dates are normalized to midnight UTC.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return d, nil
}

// DateOnly truncates t to its calendar day.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
