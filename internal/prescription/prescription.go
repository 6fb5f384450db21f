// Package prescription records what a doctor prescribed at an appointment.
// Records are not tied to the appointment row and outlive it.
package prescription

import (
	"context"
	"strings"

	"clinic-scheduling-api/internal/apperr"
	"clinic-scheduling-api/internal/auth"
	"clinic-scheduling-api/internal/model"
)

type Store interface {
	InsertPrescription(ctx context.Context, p *model.Prescription) error
	PrescriptionsByAppointment(ctx context.Context, appointmentID int64) ([]model.Prescription, error)
}

type Verifier interface {
	Verify(ctx context.Context, token string, required auth.Role) (auth.Identity, error)
}

type Input struct {
	AppointmentID int64  `json:"appointmentId"`
	PatientName   string `json:"patientName"`
	Medication    string `json:"medication"`
	Dosage        string `json:"dosage"`
	Notes         string `json:"notes"`
}

type Service struct {
	st     Store
	tokens Verifier
}

func NewService(st Store, tokens Verifier) *Service {
	return &Service{st: st, tokens: tokens}
}

func (s *Service) Create(ctx context.Context, token string, in Input) (*model.Prescription, error) {
	id, err := s.tokens.Verify(ctx, token, auth.RoleDoctor)
	if err != nil {
		return nil, err
	}
	if in.AppointmentID <= 0 {
		return nil, apperr.Invalid("appointmentId is required")
	}
	if strings.TrimSpace(in.Medication) == "" || strings.TrimSpace(in.Dosage) == "" {
		return nil, apperr.Invalid("medication and dosage are required")
	}

	p := &model.Prescription{
		AppointmentID: in.AppointmentID,
		DoctorID:      id.UserID,
		PatientName:   strings.TrimSpace(in.PatientName),
		Medication:    strings.TrimSpace(in.Medication),
		Dosage:        strings.TrimSpace(in.Dosage),
		Notes:         strings.TrimSpace(in.Notes),
	}
	if err := s.st.InsertPrescription(ctx, p); err != nil {
		return nil, apperr.Storage("insert prescription", in.AppointmentID, err)
	}
	return p, nil
}

func (s *Service) ForAppointment(ctx context.Context, token string, appointmentID int64) ([]model.Prescription, error) {
	if _, err := s.tokens.Verify(ctx, token, auth.RoleDoctor); err != nil {
		return nil, err
	}
	out, err := s.st.PrescriptionsByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, apperr.Storage("find prescriptions", appointmentID, err)
	}
	return out, nil
}
