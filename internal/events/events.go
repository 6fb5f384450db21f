// Package events publishes appointment lifecycle notifications after they commit.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	AppointmentBooked    Type = "appointment.booked"
	AppointmentUpdated   Type = "appointment.updated"
	AppointmentCancelled Type = "appointment.cancelled"
	DoctorDeleted        Type = "doctor.deleted"
)

type Event struct {
	ID              string    `json:"id"`
	Type            Type      `json:"type"`
	AppointmentID   int64     `json:"appointmentId,omitempty"`
	DoctorID        int64     `json:"doctorId"`
	PatientID       int64     `json:"patientId,omitempty"`
	AppointmentTime time.Time `json:"appointmentTime,omitempty"`
	OccurredAt      time.Time `json:"occurredAt"`
}

func New(t Type, doctorID int64) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		DoctorID:   doctorID,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop drops every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
