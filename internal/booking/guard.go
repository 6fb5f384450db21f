package booking

import (
	"context"
	"time"

	"clinic-scheduling-api/internal/apperr"
	"clinic-scheduling-api/internal/model"
)

type Directory interface {
	DoctorExists(ctx context.Context, id int64) (bool, error)
	PatientExists(ctx context.Context, id int64) (bool, error)
}

// Guard checks a prospective booking against the doctor's existing appointments.
// It narrows the race window only; the store's overlap constraint has the final say.
type Guard struct {
	dir   Directory
	appts AppointmentFinder
}

func NewGuard(dir Directory, appts AppointmentFinder) *Guard {
	return &Guard{dir: dir, appts: appts}
}

// OverlapWindow is the inclusive range of start times that collide with a
// booking at t. Starts a full slot apart do not collide.
func OverlapWindow(t time.Time) (time.Time, time.Time) {
	return t.Add(-SlotLength + time.Second), t.Add(SlotLength - time.Second)
}

// CanBook returns nil when doctorID may see patientID at t. excludeID names the
// appointment being moved, which never conflicts with itself; pass 0 on create.
func (g *Guard) CanBook(ctx context.Context, doctorID, patientID int64, t time.Time, excludeID int64) error {
	ok, err := g.dir.DoctorExists(ctx, doctorID)
	if err != nil {
		return apperr.Storage("check doctor", doctorID, err)
	}
	if !ok {
		return apperr.ErrDoctorNotFound
	}

	ok, err = g.dir.PatientExists(ctx, patientID)
	if err != nil {
		return apperr.Storage("check patient", patientID, err)
	}
	if !ok {
		return apperr.ErrPatientNotFound
	}

	from, to := OverlapWindow(t)
	existing, err := g.appts.FindAppointments(ctx, model.AppointmentFilter{
		DoctorID: doctorID,
		From:     from,
		To:       to,
	})
	if err != nil {
		return apperr.Storage("find overlapping appointments", doctorID, err)
	}
	for _, a := range existing {
		if a.ID != excludeID {
			return apperr.ErrSlotTaken
		}
	}
	return nil
}
