// Package store is the PostgreSQL persistence for accounts and appointments.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clinic-scheduling-api/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func NewPool(ctx context.Context, databaseURL string, maxConns, minConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if minConns > 0 {
		cfg.MinConns = minConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const (
	codeUniqueViolation    = "23505"
	codeForeignKeyMissing  = "23503"
	codeExclusionViolation = "23P01"
)

// classify turns driver errors into the model's storage errors.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeExclusionViolation:
		return model.ErrSlotConflict
	case codeForeignKeyMissing:
		return model.ErrNotFound
	case codeUniqueViolation:
		switch {
		case strings.Contains(pgErr.ConstraintName, "email"):
			return model.ErrDuplicateEmail
		case strings.Contains(pgErr.ConstraintName, "phone"):
			return model.ErrDuplicatePhone
		case strings.Contains(pgErr.ConstraintName, "username"):
			return model.ErrDuplicateUsername
		}
	}
	return err
}

// query builds a WHERE clause from optional criteria, numbering placeholders as it goes.
type query struct {
	sb   strings.Builder
	args []any
}

func newQuery(base string) *query {
	q := &query{}
	q.sb.WriteString(base)
	q.sb.WriteString(" WHERE 1=1")
	return q
}

// and appends " AND cond", where cond holds one %d for the placeholder number.
func (q *query) and(cond string, arg any) {
	q.args = append(q.args, arg)
	q.sb.WriteString(" AND ")
	q.sb.WriteString(fmt.Sprintf(cond, len(q.args)))
}

func (q *query) tail(s string) {
	q.sb.WriteString(" ")
	q.sb.WriteString(s)
}

func (q *query) String() string { return q.sb.String() }
