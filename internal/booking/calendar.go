package booking

import (
	"context"
	"time"

	"clinic-scheduling-api/internal/apperr"
	"clinic-scheduling-api/internal/model"
)

type AppointmentFinder interface {
	FindAppointments(ctx context.Context, f model.AppointmentFilter) ([]model.Appointment, error)
}

// Calendar computes free slots from committed bookings. Nothing is cached.
type Calendar struct {
	appts    AppointmentFinder
	template Template
	loc      *time.Location
}

func NewCalendar(appts AppointmentFinder, template Template, loc *time.Location) *Calendar {
	if len(template) == 0 {
		template = DefaultTemplate
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{appts: appts, template: template, loc: loc}
}

func (c *Calendar) Template() Template { return c.template }

func (c *Calendar) Location() *time.Location { return c.loc }

// AvailableSlots returns the template slots on date that no appointment of
// doctorID starts at, in template order. An unknown doctor gets the full template.
func (c *Calendar) AvailableSlots(ctx context.Context, doctorID int64, date time.Time) ([]Slot, error) {
	from, to := DayBounds(date, c.loc)
	booked, err := c.appts.FindAppointments(ctx, model.AppointmentFilter{
		DoctorID: doctorID,
		From:     from,
		To:       to,
	})
	if err != nil {
		return nil, apperr.Storage("find appointments for day", doctorID, err)
	}

	taken := make(map[Slot]bool, len(booked))
	for _, a := range booked {
		taken[SlotOf(a.AppointmentTime.In(c.loc))] = true
	}

	free := make([]Slot, 0, len(c.template))
	for _, s := range c.template {
		if !taken[s] {
			free = append(free, s)
		}
	}
	return free, nil
}
