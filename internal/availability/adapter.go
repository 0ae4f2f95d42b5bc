package availability

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Upstream profile sources send working hours in three shapes per weekday:
//
//	{"start": "09:00", "end": "17:00"}
//	{"startTime": "09:00", "endTime": "17:00"}
//	"09:00-17:00"
//
// All three collapse here into the canonical DayWindow; the rest of the
// engine never sees the wire formats.

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

type dayObject struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// ParseWeekHours decodes a weekday-keyed map of working-hours entries in any
// of the supported wire formats. Entries that are JSON null are skipped,
// matching "no entry means unavailable that day".
func ParseWeekHours(raw map[string]json.RawMessage) (WeekHours, error) {
	hours := make(WeekHours, len(raw))

	for name, msg := range raw {
		day, ok := weekdayNames[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", name)
		}
		if string(msg) == "null" {
			continue
		}

		window, err := parseDayInput(msg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		hours[day] = window
	}

	return hours, nil
}

func parseDayInput(msg json.RawMessage) (DayWindow, error) {
	// Plain string form first: "09:00-17:00".
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		parts := strings.SplitN(s, "-", 2)
		if len(parts) != 2 {
			return DayWindow{}, fmt.Errorf("invalid window %q, want HH:MM-HH:MM", s)
		}
		return newWindow(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
	}

	var obj dayObject
	if err := json.Unmarshal(msg, &obj); err != nil {
		return DayWindow{}, fmt.Errorf("invalid working-hours entry: %w", err)
	}

	start, end := obj.Start, obj.End
	if start == "" && end == "" {
		start, end = obj.StartTime, obj.EndTime
	}
	if start == "" || end == "" {
		return DayWindow{}, fmt.Errorf("working-hours entry needs both start and end")
	}

	return newWindow(start, end)
}

func newWindow(start, end string) (DayWindow, error) {
	s, err := parseClock(start)
	if err != nil {
		return DayWindow{}, err
	}
	e, err := parseClock(end)
	if err != nil {
		return DayWindow{}, err
	}
	if s >= e {
		return DayWindow{}, fmt.Errorf("start %s must be before end %s", start, end)
	}
	return DayWindow{Start: s, End: e}, nil
}

func parseClock(v string) (int, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", v)
	}
	return t.Hour()*60 + t.Minute(), nil
}
