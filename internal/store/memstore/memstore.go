// Package memstore keeps clinic records in process memory. It honours the same
// uniqueness and overlap rules as the PostgreSQL schema, so it can stand in for
// the database in development and tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"clinic-scheduling-api/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store struct {
	mu            sync.RWMutex
	seq           int64
	admins        map[int64]model.Admin
	doctors       map[int64]model.Doctor
	patients      map[int64]model.Patient
	appointments  map[int64]model.Appointment
	prescriptions []model.Prescription
	now           func() time.Time
}

func New() *Store {
	return &Store{
		admins:       make(map[int64]model.Admin),
		doctors:      make(map[int64]model.Doctor),
		patients:     make(map[int64]model.Patient),
		appointments: make(map[int64]model.Appointment),
		now:          time.Now,
	}
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

func (s *Store) Ping(context.Context) error { return nil }

// admins

func (s *Store) AdminExists(_ context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.admins[id]
	return ok, nil
}

func (s *Store) AdminByUsername(_ context.Context, username string) (*model.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.admins {
		if a.Username == username {
			return &a, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *Store) UpsertAdmin(_ context.Context, a *model.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cur := range s.admins {
		if cur.Username == a.Username {
			cur.PasswordHash = a.PasswordHash
			s.admins[id] = cur
			*a = cur
			return nil
		}
	}
	a.ID = s.nextID()
	a.CreatedAt = s.now()
	s.admins[a.ID] = *a
	return nil
}

// doctors

func (s *Store) DoctorExists(_ context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.doctors[id]
	return ok, nil
}

func (s *Store) GetDoctor(_ context.Context, id int64) (*model.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.doctors[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &d, nil
}

func (s *Store) DoctorByEmail(_ context.Context, email string) (*model.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.doctors {
		if strings.EqualFold(d.Email, email) {
			return &d, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *Store) CreateDoctor(_ context.Context, d *model.Doctor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doctorEmailTaken(d.Email, 0) {
		return model.ErrDuplicateEmail
	}
	d.ID = s.nextID()
	d.CreatedAt = s.now()
	d.UpdatedAt = d.CreatedAt
	s.doctors[d.ID] = *d
	return nil
}

func (s *Store) UpdateDoctor(_ context.Context, d *model.Doctor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.doctors[d.ID]
	if !ok {
		return model.ErrNotFound
	}
	if s.doctorEmailTaken(d.Email, d.ID) {
		return model.ErrDuplicateEmail
	}
	d.CreatedAt = cur.CreatedAt
	d.UpdatedAt = s.now()
	s.doctors[d.ID] = *d
	return nil
}

// DeleteDoctor removes the doctor and every appointment they hold.
func (s *Store) DeleteDoctor(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.doctors[id]; !ok {
		return model.ErrNotFound
	}
	for aid, a := range s.appointments {
		if a.DoctorID == id {
			delete(s.appointments, aid)
		}
	}
	delete(s.doctors, id)
	return nil
}

func (s *Store) ListDoctors(_ context.Context, f model.DoctorFilter) ([]model.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Doctor{}
	for _, d := range s.doctors {
		if f.Name != "" && !containsFold(d.Name, f.Name) {
			continue
		}
		if f.Specialty != "" && !strings.EqualFold(d.Specialty, f.Specialty) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) doctorEmailTaken(email string, self int64) bool {
	for id, d := range s.doctors {
		if id != self && strings.EqualFold(d.Email, email) {
			return true
		}
	}
	return false
}

// patients

func (s *Store) PatientExists(_ context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.patients[id]
	return ok, nil
}

func (s *Store) GetPatient(_ context.Context, id int64) (*model.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.patients[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &p, nil
}

func (s *Store) PatientByEmail(_ context.Context, email string) (*model.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.patients {
		if strings.EqualFold(p.Email, email) {
			return &p, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *Store) CreatePatient(_ context.Context, p *model.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.patientUnique(p, 0); err != nil {
		return err
	}
	p.ID = s.nextID()
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	s.patients[p.ID] = *p
	return nil
}

func (s *Store) UpdatePatient(_ context.Context, p *model.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.patients[p.ID]
	if !ok {
		return model.ErrNotFound
	}
	if err := s.patientUnique(p, p.ID); err != nil {
		return err
	}
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = s.now()
	s.patients[p.ID] = *p
	return nil
}

func (s *Store) patientUnique(p *model.Patient, self int64) error {
	for id, cur := range s.patients {
		if id == self {
			continue
		}
		if strings.EqualFold(cur.Email, p.Email) {
			return model.ErrDuplicateEmail
		}
		if cur.Phone == p.Phone {
			return model.ErrDuplicatePhone
		}
	}
	return nil
}

// appointments

func (s *Store) FindAppointments(_ context.Context, f model.AppointmentFilter) ([]model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Appointment{}
	for _, a := range s.appointments {
		if s.matches(a, f) {
			out = append(out, a)
		}
	}
	sortByTime(out)
	return out, nil
}

func (s *Store) AppointmentViews(_ context.Context, f model.AppointmentFilter) ([]model.AppointmentView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var list []model.Appointment
	for _, a := range s.appointments {
		if s.matches(a, f) {
			list = append(list, a)
		}
	}
	sortByTime(list)

	out := make([]model.AppointmentView, 0, len(list))
	for _, a := range list {
		d := s.doctors[a.DoctorID]
		p := s.patients[a.PatientID]
		out = append(out, model.AppointmentView{
			ID:              a.ID,
			DoctorID:        a.DoctorID,
			DoctorName:      d.Name,
			PatientID:       a.PatientID,
			PatientName:     p.Name,
			PatientEmail:    p.Email,
			PatientPhone:    p.Phone,
			PatientAddress:  p.Address,
			AppointmentTime: a.AppointmentTime,
			EndTime:         a.AppointmentTime.Add(model.AppointmentLength),
			Status:          a.Status,
		})
	}
	return out, nil
}

func (s *Store) GetAppointment(_ context.Context, id int64) (*model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &a, nil
}

// CreateAppointment checks for overlap and inserts under one lock, which is
// what the exclusion constraint gives the PostgreSQL store.
func (s *Store) CreateAppointment(_ context.Context, a *model.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.references(a); err != nil {
		return err
	}
	if s.overlaps(a.DoctorID, a.AppointmentTime, 0) {
		return model.ErrSlotConflict
	}
	a.ID = s.nextID()
	a.CreatedAt = s.now()
	a.UpdatedAt = a.CreatedAt
	s.appointments[a.ID] = *a
	return nil
}

func (s *Store) UpdateAppointment(_ context.Context, a *model.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.appointments[a.ID]
	if !ok {
		return model.ErrNotFound
	}
	if err := s.references(a); err != nil {
		return err
	}
	if s.overlaps(a.DoctorID, a.AppointmentTime, a.ID) {
		return model.ErrSlotConflict
	}
	a.CreatedAt = cur.CreatedAt
	a.UpdatedAt = s.now()
	s.appointments[a.ID] = *a
	return nil
}

func (s *Store) DeleteAppointment(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appointments[id]; !ok {
		return model.ErrNotFound
	}
	delete(s.appointments, id)
	return nil
}

func (s *Store) references(a *model.Appointment) error {
	if _, ok := s.doctors[a.DoctorID]; !ok {
		return model.ErrNotFound
	}
	if _, ok := s.patients[a.PatientID]; !ok {
		return model.ErrNotFound
	}
	return nil
}

// overlaps reports whether [at, at+length) intersects another booking of the doctor.
func (s *Store) overlaps(doctorID int64, at time.Time, self int64) bool {
	end := at.Add(model.AppointmentLength)
	for id, a := range s.appointments {
		if id == self || a.DoctorID != doctorID {
			continue
		}
		if a.AppointmentTime.Before(end) && at.Before(a.AppointmentTime.Add(model.AppointmentLength)) {
			return true
		}
	}
	return false
}

func (s *Store) matches(a model.Appointment, f model.AppointmentFilter) bool {
	if f.DoctorID != 0 && a.DoctorID != f.DoctorID {
		return false
	}
	if f.PatientID != 0 && a.PatientID != f.PatientID {
		return false
	}
	if !f.From.IsZero() && a.AppointmentTime.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && a.AppointmentTime.After(f.To) {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.PatientName != "" && !containsFold(s.patients[a.PatientID].Name, f.PatientName) {
		return false
	}
	if f.DoctorName != "" && !containsFold(s.doctors[a.DoctorID].Name, f.DoctorName) {
		return false
	}
	return true
}

// prescriptions

func (s *Store) InsertPrescription(_ context.Context, p *model.Prescription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = primitive.NewObjectID().Hex()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	s.prescriptions = append(s.prescriptions, *p)
	return nil
}

func (s *Store) PrescriptionsByAppointment(_ context.Context, appointmentID int64) ([]model.Prescription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Prescription{}
	for _, p := range s.prescriptions {
		if p.AppointmentID == appointmentID {
			out = append(out, p)
		}
	}
	return out, nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func sortByTime(list []model.Appointment) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].AppointmentTime.Equal(list[j].AppointmentTime) {
			return list[i].ID < list[j].ID
		}
		return list[i].AppointmentTime.Before(list[j].AppointmentTime)
	})
}
