package prescription_test

import (
	"context"
	"errors"
	"testing"

	"clinic-scheduling-api/internal/apperr"
	"clinic-scheduling-api/internal/auth"
	"clinic-scheduling-api/internal/model"
	"clinic-scheduling-api/internal/prescription"
	"clinic-scheduling-api/internal/store/memstore"
)

type failingStore struct{}

func (failingStore) InsertPrescription(context.Context, *model.Prescription) error {
	return errors.New("breaker open")
}

func (failingStore) PrescriptionsByAppointment(context.Context, int64) ([]model.Prescription, error) {
	return nil, errors.New("breaker open")
}

func TestCreateAndList(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	d := model.Doctor{Name: "Dr. Ada", Email: "ada@clinic.test", Specialty: "GP"}
	if err := st.CreateDoctor(ctx, &d); err != nil {
		t.Fatal(err)
	}
	p := model.Patient{Name: "Tunde", Email: "tunde@mail.test", Phone: "0801"}
	if err := st.CreatePatient(ctx, &p); err != nil {
		t.Fatal(err)
	}
	tokens := auth.NewAuthority("0123456789abcdef0123456789abcdef", auth.Subjects{
		auth.RoleDoctor:  st.DoctorExists,
		auth.RolePatient: st.PatientExists,
	})
	doctorTok, _ := tokens.Issue(d.ID, auth.RoleDoctor)
	patientTok, _ := tokens.Issue(p.ID, auth.RolePatient)

	svc := prescription.NewService(st, tokens)

	// no check that appointment 42 exists
	got, err := svc.Create(ctx, doctorTok, prescription.Input{AppointmentID: 42, PatientName: "Tunde", Medication: "Amoxicillin", Dosage: "500mg"})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID == "" || got.DoctorID != d.ID {
		t.Fatalf("created = %+v", got)
	}

	if _, err := svc.Create(ctx, doctorTok, prescription.Input{AppointmentID: 42}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("missing medication: err = %v", err)
	}
	if _, err := svc.Create(ctx, patientTok, prescription.Input{AppointmentID: 42, Medication: "x", Dosage: "y"}); !errors.Is(err, apperr.ErrRoleMismatch) {
		t.Fatalf("patient token: err = %v", err)
	}

	list, err := svc.ForAppointment(ctx, doctorTok, 42)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Medication != "Amoxicillin" {
		t.Fatalf("list = %+v", list)
	}
	if list, _ := svc.ForAppointment(ctx, doctorTok, 43); len(list) != 0 {
		t.Fatalf("other appointment = %+v", list)
	}
}

func TestStoreFailureIsInternal(t *testing.T) {
	ctx := context.Background()
	tokens := auth.NewAuthority("0123456789abcdef0123456789abcdef", auth.Subjects{
		auth.RoleDoctor: func(context.Context, int64) (bool, error) { return true, nil },
	})
	tok, _ := tokens.Issue(5, auth.RoleDoctor)
	svc := prescription.NewService(failingStore{}, tokens)

	_, err := svc.Create(ctx, tok, prescription.Input{AppointmentID: 1, Medication: "x", Dosage: "y"})
	if apperr.From(err).Kind != apperr.KindInternal {
		t.Fatalf("err = %v, want internal", err)
	}
	if _, err := svc.ForAppointment(ctx, tok, 1); !errors.Is(err, apperr.ErrStorage) {
		t.Fatalf("err = %v, want storage failure", err)
	}
}
