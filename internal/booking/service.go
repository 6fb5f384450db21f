package booking

import (
	"context"
	"errors"
	"time"

	"clinic-scheduling-api/internal/apperr"
	"clinic-scheduling-api/internal/auth"
	"clinic-scheduling-api/internal/events"
	"clinic-scheduling-api/internal/model"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Verifier interface {
	Verify(ctx context.Context, token string, required auth.Role) (auth.Identity, error)
}

// Appointments is the persistence the lifecycle needs. Implementations report
// missing rows as model.ErrNotFound and overlapping inserts as model.ErrSlotConflict.
type Appointments interface {
	AppointmentFinder
	AppointmentViews(ctx context.Context, f model.AppointmentFilter) ([]model.AppointmentView, error)
	GetAppointment(ctx context.Context, id int64) (*model.Appointment, error)
	CreateAppointment(ctx context.Context, a *model.Appointment) error
	UpdateAppointment(ctx context.Context, a *model.Appointment) error
	DeleteAppointment(ctx context.Context, id int64) error
}

type Store interface {
	Directory
	Appointments
}

// Recorder counts lifecycle outcomes.
type Recorder interface {
	Booked()
	Rejected(reason string)
	Cancelled()
}

type nopRecorder struct{}

func (nopRecorder) Booked()         {}
func (nopRecorder) Rejected(string) {}
func (nopRecorder) Cancelled()      {}

type BookRequest struct {
	DoctorID int64
	// PatientID is optional; when set it must match the token's subject.
	PatientID       int64
	AppointmentTime time.Time
}

// UpdateRequest replaces the mutable fields of an appointment. Zero fields keep
// the current value.
type UpdateRequest struct {
	DoctorID        int64
	AppointmentTime time.Time
	Status          model.Status
}

// Service runs the appointment lifecycle: scheduled, then completed or cancelled.
// Cancelled appointments are deleted; completed ones are frozen.
type Service struct {
	tokens   Verifier
	appts    Appointments
	calendar *Calendar
	guard    *Guard
	events   events.Publisher
	metrics  Recorder
	logger   *zap.Logger
	tracer   trace.Tracer
}

type Option func(*Service)

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.events = p
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.metrics = r
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewService(st Store, tokens Verifier, calendar *Calendar, opts ...Option) *Service {
	s := &Service{
		tokens:   tokens,
		appts:    st,
		calendar: calendar,
		guard:    NewGuard(st, st),
		events:   events.Nop{},
		metrics:  nopRecorder{},
		logger:   zap.NewNop(),
		tracer:   otel.Tracer("clinic-booking"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Calendar() *Calendar { return s.calendar }

// AvailableSlots lets any signed-in role read a doctor's free slots for a day.
func (s *Service) AvailableSlots(ctx context.Context, token string, role auth.Role, doctorID int64, date time.Time) ([]Slot, error) {
	if _, err := s.tokens.Verify(ctx, token, role); err != nil {
		return nil, err
	}
	return s.calendar.AvailableSlots(ctx, doctorID, date)
}

func (s *Service) Book(ctx context.Context, token string, req BookRequest) (*model.Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "booking.book",
		trace.WithAttributes(attribute.Int64("doctor.id", req.DoctorID)))
	defer span.End()

	id, err := s.tokens.Verify(ctx, token, auth.RolePatient)
	if err != nil {
		return nil, s.fail(span, err)
	}
	if req.PatientID != 0 && req.PatientID != id.UserID {
		return nil, s.fail(span, apperr.ErrForbidden)
	}
	if req.DoctorID <= 0 {
		return nil, s.fail(span, apperr.Invalid("doctorId is required"))
	}
	if req.AppointmentTime.IsZero() {
		return nil, s.fail(span, apperr.Invalid("appointmentTime is required"))
	}

	at := req.AppointmentTime.In(s.calendar.Location())
	if err := s.admit(ctx, req.DoctorID, id.UserID, at, 0); err != nil {
		return nil, s.fail(span, err)
	}

	a := &model.Appointment{
		DoctorID:        req.DoctorID,
		PatientID:       id.UserID,
		AppointmentTime: at,
		Status:          model.StatusScheduled,
	}
	if err := s.appts.CreateAppointment(ctx, a); err != nil {
		return nil, s.fail(span, s.persistErr("create appointment", req.DoctorID, err))
	}

	s.metrics.Booked()
	s.publish(ctx, events.AppointmentBooked, a)
	return a, nil
}

func (s *Service) Update(ctx context.Context, token string, appointmentID int64, req UpdateRequest) (*model.Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "booking.update",
		trace.WithAttributes(attribute.Int64("appointment.id", appointmentID)))
	defer span.End()

	id, err := s.tokens.Verify(ctx, token, auth.RolePatient)
	if err != nil {
		return nil, s.fail(span, err)
	}
	a, err := s.owned(ctx, id, appointmentID)
	if err != nil {
		return nil, s.fail(span, err)
	}
	if a.Status == model.StatusCompleted {
		return nil, s.fail(span, apperr.ErrInvalidTransition)
	}

	next := *a
	if req.DoctorID != 0 {
		next.DoctorID = req.DoctorID
	}
	if !req.AppointmentTime.IsZero() {
		next.AppointmentTime = req.AppointmentTime.In(s.calendar.Location())
	}
	if req.Status != "" {
		if !req.Status.Valid() {
			return nil, s.fail(span, apperr.Invalid("unknown status %q", req.Status))
		}
		next.Status = req.Status
	}

	if err := s.admit(ctx, next.DoctorID, id.UserID, next.AppointmentTime, a.ID); err != nil {
		return nil, s.fail(span, err)
	}
	if err := s.appts.UpdateAppointment(ctx, &next); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			// cancelled between the read and the write
			return nil, s.fail(span, apperr.ErrAppointmentNotFound)
		}
		return nil, s.fail(span, s.persistErr("update appointment", a.ID, err))
	}

	s.publish(ctx, events.AppointmentUpdated, &next)
	return &next, nil
}

func (s *Service) Cancel(ctx context.Context, token string, appointmentID int64) error {
	id, err := s.tokens.Verify(ctx, token, auth.RolePatient)
	if err != nil {
		return err
	}
	a, err := s.owned(ctx, id, appointmentID)
	if err != nil {
		return err
	}
	if a.Status == model.StatusCompleted {
		return apperr.ErrInvalidTransition
	}
	if err := s.appts.DeleteAppointment(ctx, a.ID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return apperr.ErrAppointmentNotFound
		}
		return apperr.Storage("delete appointment", a.ID, err)
	}

	s.metrics.Cancelled()
	s.publish(ctx, events.AppointmentCancelled, a)
	return nil
}

// ListForDoctor returns the calling doctor's appointments on date, optionally
// narrowed to patients whose name contains patientName.
func (s *Service) ListForDoctor(ctx context.Context, token string, date time.Time, patientName string) ([]model.AppointmentView, error) {
	id, err := s.tokens.Verify(ctx, token, auth.RoleDoctor)
	if err != nil {
		return nil, err
	}
	from, to := DayBounds(date, s.calendar.Location())
	out, err := s.appts.AppointmentViews(ctx, model.AppointmentFilter{
		DoctorID:    id.UserID,
		From:        from,
		To:          to,
		PatientName: patientName,
	})
	if err != nil {
		return nil, apperr.Storage("list doctor appointments", id.UserID, err)
	}
	return out, nil
}

type Condition string

const (
	ConditionAny    Condition = ""
	ConditionPast   Condition = "past"
	ConditionFuture Condition = "future"
)

// ListForPatient returns the calling patient's appointments. past selects
// completed visits and future scheduled ones.
func (s *Service) ListForPatient(ctx context.Context, token string, cond Condition, doctorName string) ([]model.AppointmentView, error) {
	id, err := s.tokens.Verify(ctx, token, auth.RolePatient)
	if err != nil {
		return nil, err
	}
	f := model.AppointmentFilter{PatientID: id.UserID, DoctorName: doctorName}
	switch cond {
	case ConditionAny:
	case ConditionPast:
		f.Status = model.StatusCompleted
	case ConditionFuture:
		f.Status = model.StatusScheduled
	default:
		return nil, apperr.Invalid("unknown condition %q", cond)
	}
	out, err := s.appts.AppointmentViews(ctx, f)
	if err != nil {
		return nil, apperr.Storage("list patient appointments", id.UserID, err)
	}
	return out, nil
}

// admit runs the guard, then checks the time is one the clinic offers.
func (s *Service) admit(ctx context.Context, doctorID, patientID int64, at time.Time, excludeID int64) error {
	if err := s.guard.CanBook(ctx, doctorID, patientID, at, excludeID); err != nil {
		return err
	}
	if !s.calendar.Template().Offers(at.In(s.calendar.Location())) {
		return apperr.ErrSlotUnavailable
	}
	return nil
}

func (s *Service) owned(ctx context.Context, id auth.Identity, appointmentID int64) (*model.Appointment, error) {
	a, err := s.appts.GetAppointment(ctx, appointmentID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, apperr.ErrAppointmentNotFound
	}
	if err != nil {
		return nil, apperr.Storage("get appointment", appointmentID, err)
	}
	if a.PatientID != id.UserID {
		return nil, apperr.ErrForbidden
	}
	return a, nil
}

func (s *Service) persistErr(op string, id int64, err error) error {
	switch {
	case errors.Is(err, model.ErrSlotConflict):
		return apperr.ErrSlotTaken
	case errors.Is(err, model.ErrNotFound):
		// doctor or patient removed after the guard ran
		return apperr.ErrDoctorNotFound
	}
	return apperr.Storage(op, id, err)
}

func (s *Service) fail(span trace.Span, err error) error {
	e := apperr.From(err)
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, e.Code)
	if e.Kind.Category() == apperr.CategoryValidation {
		s.metrics.Rejected(e.Code)
	}
	return err
}

func (s *Service) publish(ctx context.Context, t events.Type, a *model.Appointment) {
	e := events.New(t, a.DoctorID)
	e.AppointmentID = a.ID
	e.PatientID = a.PatientID
	e.AppointmentTime = a.AppointmentTime
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.Warn("event not published",
			zap.String("type", string(t)),
			zap.Int64("appointment_id", a.ID),
			zap.Error(err))
	}
}
