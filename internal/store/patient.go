package store

import (
	"context"

	"clinic-scheduling-api/internal/model"

	"github.com/jackc/pgx/v5"
)

const patientCols = `id, name, email, phone, address, password_hash, created_at, updated_at`

func scanPatient(row pgx.Row) (*model.Patient, error) {
	p := &model.Patient{}
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.Address, &p.PasswordHash, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return p, nil
}

func (s *Store) PatientExists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM patients WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

func (s *Store) GetPatient(ctx context.Context, id int64) (*model.Patient, error) {
	return scanPatient(s.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (s *Store) PatientByEmail(ctx context.Context, email string) (*model.Patient, error) {
	return scanPatient(s.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE lower(email) = lower($1)`, email))
}

func (s *Store) CreatePatient(ctx context.Context, p *model.Patient) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO patients (name, email, phone, address, password_hash)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		p.Name, p.Email, p.Phone, p.Address, p.PasswordHash,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return classify(err)
}

func (s *Store) UpdatePatient(ctx context.Context, p *model.Patient) error {
	err := s.pool.QueryRow(ctx,
		`UPDATE patients
		 SET name = $2, email = $3, phone = $4, address = $5, password_hash = $6, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		p.ID, p.Name, p.Email, p.Phone, p.Address, p.PasswordHash,
	).Scan(&p.UpdatedAt)
	return classify(err)
}
