package store

import (
	"context"

	"clinic-scheduling-api/internal/model"

	"github.com/jackc/pgx/v5"
)

const apptCols = `a.id, a.doctor_id, a.patient_id, a.appointment_time, a.status, a.created_at, a.updated_at`

const apptFrom = `FROM appointments a
	JOIN doctors d ON d.id = a.doctor_id
	JOIN patients p ON p.id = a.patient_id`

func appointmentQuery(cols string, f model.AppointmentFilter) *query {
	q := newQuery(`SELECT ` + cols + ` ` + apptFrom)
	if f.DoctorID != 0 {
		q.and(`a.doctor_id = $%d`, f.DoctorID)
	}
	if f.PatientID != 0 {
		q.and(`a.patient_id = $%d`, f.PatientID)
	}
	if !f.From.IsZero() {
		q.and(`a.appointment_time >= $%d`, f.From)
	}
	if !f.To.IsZero() {
		q.and(`a.appointment_time <= $%d`, f.To)
	}
	if f.Status != "" {
		q.and(`a.status = $%d`, string(f.Status))
	}
	if f.PatientName != "" {
		q.and(`p.name ILIKE '%%' || $%d || '%%'`, f.PatientName)
	}
	if f.DoctorName != "" {
		q.and(`d.name ILIKE '%%' || $%d || '%%'`, f.DoctorName)
	}
	q.tail(`ORDER BY a.appointment_time, a.id`)
	return q
}

func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	var a model.Appointment
	var status string
	if err := row.Scan(&a.ID, &a.DoctorID, &a.PatientID, &a.AppointmentTime, &status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Status = model.Status(status)
	return &a, nil
}

func (s *Store) FindAppointments(ctx context.Context, f model.AppointmentFilter) ([]model.Appointment, error) {
	q := appointmentQuery(apptCols, f)
	rows, err := s.pool.Query(ctx, q.String(), q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *Store) AppointmentViews(ctx context.Context, f model.AppointmentFilter) ([]model.AppointmentView, error) {
	q := appointmentQuery(`a.id, a.doctor_id, d.name, a.patient_id, p.name, p.email, p.phone, p.address,
		a.appointment_time, a.ends_at, a.status`, f)
	rows, err := s.pool.Query(ctx, q.String(), q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.AppointmentView{}
	for rows.Next() {
		var v model.AppointmentView
		var status string
		if err := rows.Scan(
			&v.ID, &v.DoctorID, &v.DoctorName, &v.PatientID, &v.PatientName,
			&v.PatientEmail, &v.PatientPhone, &v.PatientAddress,
			&v.AppointmentTime, &v.EndTime, &status,
		); err != nil {
			return nil, err
		}
		v.Status = model.Status(status)
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) GetAppointment(ctx context.Context, id int64) (*model.Appointment, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments a WHERE a.id = $1`, id)
	a, err := scanAppointment(row)
	if err != nil {
		return nil, classify(err)
	}
	return a, nil
}

// CreateAppointment relies on appointments_no_overlap to reject a booking that
// raced past the guard.
func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO appointments (doctor_id, patient_id, appointment_time, ends_at, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		a.DoctorID, a.PatientID, a.AppointmentTime, a.AppointmentTime.Add(model.AppointmentLength), string(a.Status),
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return classify(err)
}

func (s *Store) UpdateAppointment(ctx context.Context, a *model.Appointment) error {
	err := s.pool.QueryRow(ctx,
		`UPDATE appointments
		 SET doctor_id = $2, appointment_time = $3, ends_at = $4, status = $5, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		a.ID, a.DoctorID, a.AppointmentTime, a.AppointmentTime.Add(model.AppointmentLength), string(a.Status),
	).Scan(&a.UpdatedAt)
	return classify(err)
}

func (s *Store) DeleteAppointment(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
