package booking

import (
	"fmt"
	"time"

	"clinic-scheduling-api/internal/model"
)

const SlotLength = model.AppointmentLength

// Slot is a time of day at which an appointment may start.
type Slot struct {
	Hour   int
	Minute int
}

func SlotOf(t time.Time) Slot {
	return Slot{Hour: t.Hour(), Minute: t.Minute()}
}

// On places the slot on date's calendar day in loc.
func (s Slot) On(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.In(loc).Date()
	return time.Date(y, m, d, s.Hour, s.Minute, 0, 0, loc)
}

func (s Slot) String() string {
	return fmt.Sprintf("%02d:%02d", s.Hour, s.Minute)
}

func (s Slot) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Template is the ordered list of slots offered every day.
type Template []Slot

// DefaultTemplate has a lunch gap at 12:00.
var DefaultTemplate = Template{
	{8, 0}, {9, 0}, {10, 0}, {11, 0},
	{13, 0}, {14, 0}, {15, 0}, {16, 0},
}

// Offers reports whether t starts exactly on one of the template's slots.
func (tp Template) Offers(t time.Time) bool {
	if t.Second() != 0 || t.Nanosecond() != 0 {
		return false
	}
	s := SlotOf(t)
	for _, x := range tp {
		if x == s {
			return true
		}
	}
	return false
}

// HasPeriod reports whether any slot falls in the morning (AM) or afternoon (PM).
// Unknown periods match.
func (tp Template) HasPeriod(p model.Period) bool {
	for _, s := range tp {
		switch p {
		case model.PeriodAM:
			if s.Hour < 12 {
				return true
			}
		case model.PeriodPM:
			if s.Hour >= 12 {
				return true
			}
		default:
			return true
		}
	}
	return false
}

// DayBounds returns the first and last instant of date's calendar day in loc.
func DayBounds(date time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := date.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1).Add(-time.Nanosecond)
}
