// Package account covers sign-in for every role, patient self-service and the
// admin's management of doctors.
package account

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"clinic-scheduling-api/internal/apperr"
	"clinic-scheduling-api/internal/auth"
	"clinic-scheduling-api/internal/booking"
	"clinic-scheduling-api/internal/events"
	"clinic-scheduling-api/internal/model"

	"go.uber.org/zap"
)

const minPasswordLen = 8

type Store interface {
	AdminByUsername(ctx context.Context, username string) (*model.Admin, error)
	UpsertAdmin(ctx context.Context, a *model.Admin) error

	GetDoctor(ctx context.Context, id int64) (*model.Doctor, error)
	DoctorByEmail(ctx context.Context, email string) (*model.Doctor, error)
	CreateDoctor(ctx context.Context, d *model.Doctor) error
	UpdateDoctor(ctx context.Context, d *model.Doctor) error
	// DeleteDoctor removes the doctor and all of their appointments atomically.
	DeleteDoctor(ctx context.Context, id int64) error
	ListDoctors(ctx context.Context, f model.DoctorFilter) ([]model.Doctor, error)

	GetPatient(ctx context.Context, id int64) (*model.Patient, error)
	PatientByEmail(ctx context.Context, email string) (*model.Patient, error)
	CreatePatient(ctx context.Context, p *model.Patient) error
	UpdatePatient(ctx context.Context, p *model.Patient) error
}

type Tokens interface {
	Issue(userID int64, role auth.Role) (string, error)
	Verify(ctx context.Context, token string, required auth.Role) (auth.Identity, error)
}

// Session is returned by every successful login.
type Session struct {
	Token  string    `json:"token"`
	Role   auth.Role `json:"role"`
	UserID int64     `json:"userId"`
}

type DoctorInput struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Specialty string `json:"specialty"`
	Password  string `json:"password"`
}

type PatientInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Password string `json:"password"`
}

type Service struct {
	st       Store
	tokens   Tokens
	template booking.Template
	events   events.Publisher
	logger   *zap.Logger
}

func NewService(st Store, tokens Tokens, template booking.Template, pub events.Publisher, logger *zap.Logger) *Service {
	if len(template) == 0 {
		template = booking.DefaultTemplate
	}
	if pub == nil {
		pub = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{st: st, tokens: tokens, template: template, events: pub, logger: logger}
}

// EnsureAdmin creates the admin account or resets its password.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (*model.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(password) < minPasswordLen {
		return nil, apperr.Invalid("admin username and a password of at least %d characters are required", minPasswordLen)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	a := &model.Admin{Username: username, PasswordHash: hash}
	if err := s.st.UpsertAdmin(ctx, a); err != nil {
		return nil, apperr.Storage("upsert admin", 0, err)
	}
	return a, nil
}

func (s *Service) AdminLogin(ctx context.Context, username, password string) (*Session, error) {
	a, err := s.st.AdminByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, loginErr("find admin", err)
	}
	return s.open(a.ID, auth.RoleAdmin, a.PasswordHash, password)
}

func (s *Service) DoctorLogin(ctx context.Context, email, password string) (*Session, error) {
	d, err := s.st.DoctorByEmail(ctx, normEmail(email))
	if err != nil {
		return nil, loginErr("find doctor", err)
	}
	return s.open(d.ID, auth.RoleDoctor, d.PasswordHash, password)
}

func (s *Service) PatientLogin(ctx context.Context, email, password string) (*Session, error) {
	p, err := s.st.PatientByEmail(ctx, normEmail(email))
	if err != nil {
		return nil, loginErr("find patient", err)
	}
	return s.open(p.ID, auth.RolePatient, p.PasswordHash, password)
}

func (s *Service) open(id int64, role auth.Role, hash, password string) (*Session, error) {
	if !auth.CheckPassword(hash, password) {
		return nil, apperr.ErrBadCredentials
	}
	tok, err := s.tokens.Issue(id, role)
	if err != nil {
		return nil, err
	}
	return &Session{Token: tok, Role: role, UserID: id}, nil
}

// CheckSession verifies token for role. A nil error means the token is valid.
func (s *Service) CheckSession(ctx context.Context, token string, role auth.Role) (auth.Identity, error) {
	return s.tokens.Verify(ctx, token, role)
}

func (s *Service) RegisterPatient(ctx context.Context, in PatientInput) (*model.Patient, error) {
	p := &model.Patient{}
	if err := applyPatient(p, in, true); err != nil {
		return nil, err
	}
	if err := s.st.CreatePatient(ctx, p); err != nil {
		return nil, uniqueErr("create patient", 0, err)
	}
	return p, nil
}

func (s *Service) Profile(ctx context.Context, token string) (*model.Patient, error) {
	id, err := s.tokens.Verify(ctx, token, auth.RolePatient)
	if err != nil {
		return nil, err
	}
	p, err := s.st.GetPatient(ctx, id.UserID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, apperr.ErrUnknownSubject
	}
	if err != nil {
		return nil, apperr.Storage("get patient", id.UserID, err)
	}
	return p, nil
}

// UpdateProfile lets a patient change their own record. An empty password keeps the current one.
func (s *Service) UpdateProfile(ctx context.Context, token string, in PatientInput) (*model.Patient, error) {
	p, err := s.Profile(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := applyPatient(p, in, false); err != nil {
		return nil, err
	}
	if err := s.st.UpdatePatient(ctx, p); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, apperr.ErrUnknownSubject
		}
		return nil, uniqueErr("update patient", p.ID, err)
	}
	return p, nil
}

func (s *Service) ListDoctors(ctx context.Context, f model.DoctorFilter) ([]model.Doctor, error) {
	if f.Period != "" && !s.template.HasPeriod(f.Period) {
		return []model.Doctor{}, nil
	}
	out, err := s.st.ListDoctors(ctx, f)
	if err != nil {
		return nil, apperr.Storage("list doctors", 0, err)
	}
	return out, nil
}

func (s *Service) AddDoctor(ctx context.Context, token string, in DoctorInput) (*model.Doctor, error) {
	if _, err := s.tokens.Verify(ctx, token, auth.RoleAdmin); err != nil {
		return nil, err
	}
	d := &model.Doctor{}
	if err := applyDoctor(d, in, true); err != nil {
		return nil, err
	}
	if err := s.st.CreateDoctor(ctx, d); err != nil {
		return nil, uniqueErr("create doctor", 0, err)
	}
	return d, nil
}

func (s *Service) UpdateDoctor(ctx context.Context, token string, id int64, in DoctorInput) (*model.Doctor, error) {
	if _, err := s.tokens.Verify(ctx, token, auth.RoleAdmin); err != nil {
		return nil, err
	}
	d, err := s.st.GetDoctor(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return nil, apperr.NotFound("doctor")
	}
	if err != nil {
		return nil, apperr.Storage("get doctor", id, err)
	}
	if err := applyDoctor(d, in, false); err != nil {
		return nil, err
	}
	if err := s.st.UpdateDoctor(ctx, d); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, apperr.NotFound("doctor")
		}
		return nil, uniqueErr("update doctor", id, err)
	}
	return d, nil
}

func (s *Service) DeleteDoctor(ctx context.Context, token string, id int64) error {
	if _, err := s.tokens.Verify(ctx, token, auth.RoleAdmin); err != nil {
		return err
	}
	if err := s.st.DeleteDoctor(ctx, id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return apperr.NotFound("doctor")
		}
		return apperr.Storage("delete doctor", id, err)
	}
	if err := s.events.Publish(ctx, events.New(events.DoctorDeleted, id)); err != nil {
		s.logger.Warn("event not published",
			zap.String("type", string(events.DoctorDeleted)),
			zap.Int64("doctor_id", id),
			zap.Error(err))
	}
	return nil
}

func applyDoctor(d *model.Doctor, in DoctorInput, create bool) error {
	if in.Name = strings.TrimSpace(in.Name); in.Name != "" {
		d.Name = in.Name
	}
	if in.Email != "" {
		if !validEmail(in.Email) {
			return apperr.Invalid("invalid email %q", in.Email)
		}
		d.Email = normEmail(in.Email)
	}
	if in.Phone = strings.TrimSpace(in.Phone); in.Phone != "" {
		d.Phone = in.Phone
	}
	if in.Specialty = strings.TrimSpace(in.Specialty); in.Specialty != "" {
		d.Specialty = in.Specialty
	}
	if create && (d.Name == "" || d.Email == "" || d.Specialty == "") {
		return apperr.Invalid("name, email and specialty are required")
	}
	return setPassword(&d.PasswordHash, in.Password, create)
}

func applyPatient(p *model.Patient, in PatientInput, create bool) error {
	if in.Name = strings.TrimSpace(in.Name); in.Name != "" {
		p.Name = in.Name
	}
	if in.Email != "" {
		if !validEmail(in.Email) {
			return apperr.Invalid("invalid email %q", in.Email)
		}
		p.Email = normEmail(in.Email)
	}
	if in.Phone = strings.TrimSpace(in.Phone); in.Phone != "" {
		p.Phone = in.Phone
	}
	if in.Address = strings.TrimSpace(in.Address); in.Address != "" {
		p.Address = in.Address
	}
	if create && (p.Name == "" || p.Email == "" || p.Phone == "") {
		return apperr.Invalid("name, email and phone are required")
	}
	return setPassword(&p.PasswordHash, in.Password, create)
}

func setPassword(dst *string, pw string, required bool) error {
	if pw == "" && !required {
		return nil
	}
	if len(pw) < minPasswordLen {
		return apperr.Invalid("password must be at least %d characters", minPasswordLen)
	}
	hash, err := auth.HashPassword(pw)
	if err != nil {
		return err
	}
	*dst = hash
	return nil
}

func loginErr(op string, err error) error {
	if errors.Is(err, model.ErrNotFound) {
		return apperr.ErrBadCredentials
	}
	return apperr.Storage(op, 0, err)
}

func uniqueErr(op string, id int64, err error) error {
	switch {
	case errors.Is(err, model.ErrDuplicateEmail):
		return apperr.Conflict("email already registered")
	case errors.Is(err, model.ErrDuplicatePhone):
		return apperr.Conflict("phone already registered")
	}
	return apperr.Storage(op, id, err)
}

func normEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validEmail(s string) bool {
	a, err := mail.ParseAddress(strings.TrimSpace(s))
	return err == nil && a.Address == strings.TrimSpace(s)
}
