package availability

import (
	"errors"
	"time"
)

var (
	ErrPastDate          = errors.New("date is in the past")
	ErrTooFarAhead       = errors.New("date is beyond the booking horizon")
	ErrDoctorUnavailable = errors.New("doctor is not accepting appointments")
	ErrNoWorkingHours    = errors.New("doctor has no working hours on that weekday")
)

// Calculator decides whether a doctor accepts bookings on a calendar day.
// It is a pure read: callers supply the profile and the reference clock.
type Calculator struct {
	HorizonDays int
}

func NewCalculator(horizonDays int) Calculator {
	return Calculator{HorizonDays: horizonDays}
}

// Check returns nil when date is bookable for the given profile, otherwise
// one of the sentinel errors naming the precise reason. The horizon is
// inclusive: today + HorizonDays is the last bookable day.
func (c Calculator) Check(date time.Time, profile *Profile, now time.Time) error {
	day := DateOnly(date)
	today := DateOnly(now)

	if day.Before(today) {
		return ErrPastDate
	}
	if day.After(today.AddDate(0, 0, c.HorizonDays)) {
		return ErrTooFarAhead
	}
	if profile.Status != StatusAvailable {
		return ErrDoctorUnavailable
	}
	if _, ok := profile.Hours[day.Weekday()]; !ok {
		return ErrNoWorkingHours
	}
	return nil
}

// Window returns the working window for date's weekday, if any.
func (c Calculator) Window(date time.Time, profile *Profile) (DayWindow, bool) {
	w, ok := profile.Hours[DateOnly(date).Weekday()]
	return w, ok
}
