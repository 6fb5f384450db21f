package store

import (
	"context"

	"clinic-scheduling-api/internal/model"

	"github.com/jackc/pgx/v5"
)

const doctorCols = `id, name, email, phone, specialty, password_hash, created_at, updated_at`

func scanDoctor(row pgx.Row) (*model.Doctor, error) {
	d := &model.Doctor{}
	err := row.Scan(&d.ID, &d.Name, &d.Email, &d.Phone, &d.Specialty, &d.PasswordHash, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return d, nil
}

func (s *Store) DoctorExists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM doctors WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

func (s *Store) GetDoctor(ctx context.Context, id int64) (*model.Doctor, error) {
	return scanDoctor(s.pool.QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
}

func (s *Store) DoctorByEmail(ctx context.Context, email string) (*model.Doctor, error) {
	return scanDoctor(s.pool.QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE lower(email) = lower($1)`, email))
}

func (s *Store) CreateDoctor(ctx context.Context, d *model.Doctor) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO doctors (name, email, phone, specialty, password_hash)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		d.Name, d.Email, d.Phone, d.Specialty, d.PasswordHash,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	return classify(err)
}

func (s *Store) UpdateDoctor(ctx context.Context, d *model.Doctor) error {
	err := s.pool.QueryRow(ctx,
		`UPDATE doctors
		 SET name = $2, email = $3, phone = $4, specialty = $5, password_hash = $6, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		d.ID, d.Name, d.Email, d.Phone, d.Specialty, d.PasswordHash,
	).Scan(&d.UpdatedAt)
	return classify(err)
}

// DeleteDoctor removes the doctor's appointments and then the doctor in one transaction.
func (s *Store) DeleteDoctor(ctx context.Context, id int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM appointments WHERE doctor_id = $1`, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return tx.Commit(ctx)
}

func (s *Store) ListDoctors(ctx context.Context, f model.DoctorFilter) ([]model.Doctor, error) {
	q := newQuery(`SELECT ` + doctorCols + ` FROM doctors`)
	if f.Name != "" {
		q.and(`name ILIKE '%%' || $%d || '%%'`, f.Name)
	}
	if f.Specialty != "" {
		q.and(`lower(specialty) = lower($%d)`, f.Specialty)
	}
	q.tail(`ORDER BY id`)

	rows, err := s.pool.Query(ctx, q.String(), q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Doctor{}
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}
