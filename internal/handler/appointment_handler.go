package handler

import (
	"context"
	"time"

	"clinic-scheduling-api/internal/apperr"
	"clinic-scheduling-api/internal/auth"
	"clinic-scheduling-api/internal/booking"
	"clinic-scheduling-api/internal/middleware"
	"clinic-scheduling-api/internal/model"
	"clinic-scheduling-api/internal/rpc"
)

func (h *Handler) GetAvailability(ctx context.Context, req *rpc.GetAvailabilityRequest) (*rpc.GetAvailabilityResponse, error) {
	fail := func(err error) error { return h.toStatus(ctx, rpc.MethodGetAvailability, err) }

	if req.DoctorID <= 0 {
		return nil, fail(apperr.Invalid("doctorId required"))
	}
	role := auth.RolePatient
	if req.Role != "" {
		r, err := auth.ParseRole(req.Role)
		if err != nil {
			return nil, fail(apperr.Invalid("unknown role %q", req.Role))
		}
		role = r
	}
	date, err := booking.ParseDate(req.Date, h.loc())
	if err != nil {
		return nil, fail(err)
	}

	slots, err := h.booking.AvailableSlots(ctx, middleware.TokenFrom(ctx), role, req.DoctorID, date)
	if err != nil {
		return nil, fail(err)
	}
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.String()
	}
	return &rpc.GetAvailabilityResponse{DoctorID: req.DoctorID, Date: date.Format(time.DateOnly), Slots: out}, nil
}

func (h *Handler) BookAppointment(ctx context.Context, req *rpc.BookAppointmentRequest) (*rpc.AppointmentResponse, error) {
	fail := func(err error) error { return h.toStatus(ctx, rpc.MethodBookAppointment, err) }

	if req.AppointmentTime == "" {
		return nil, fail(apperr.Invalid("appointmentTime required"))
	}
	at, err := booking.ParseTime(req.AppointmentTime, h.loc())
	if err != nil {
		return nil, fail(err)
	}

	a, err := h.booking.Book(ctx, middleware.TokenFrom(ctx), booking.BookRequest{
		DoctorID:        req.DoctorID,
		PatientID:       req.PatientID,
		AppointmentTime: at,
	})
	if err != nil {
		return nil, fail(err)
	}
	return &rpc.AppointmentResponse{Appointment: toAppointment(a)}, nil
}

func (h *Handler) UpdateAppointment(ctx context.Context, req *rpc.UpdateAppointmentRequest) (*rpc.AppointmentResponse, error) {
	fail := func(err error) error { return h.toStatus(ctx, rpc.MethodUpdateAppointment, err) }

	if req.ID <= 0 {
		return nil, fail(apperr.Invalid("id required"))
	}
	upd := booking.UpdateRequest{DoctorID: req.DoctorID, Status: model.Status(req.Status)}
	if req.AppointmentTime != "" {
		at, err := booking.ParseTime(req.AppointmentTime, h.loc())
		if err != nil {
			return nil, fail(err)
		}
		upd.AppointmentTime = at
	}

	a, err := h.booking.Update(ctx, middleware.TokenFrom(ctx), req.ID, upd)
	if err != nil {
		return nil, fail(err)
	}
	return &rpc.AppointmentResponse{Appointment: toAppointment(a)}, nil
}

func (h *Handler) CancelAppointment(ctx context.Context, req *rpc.CancelAppointmentRequest) (*rpc.CancelAppointmentResponse, error) {
	if req.ID <= 0 {
		return nil, h.toStatus(ctx, rpc.MethodCancelAppointment, apperr.Invalid("id required"))
	}
	if err := h.booking.Cancel(ctx, middleware.TokenFrom(ctx), req.ID); err != nil {
		return nil, h.toStatus(ctx, rpc.MethodCancelAppointment, err)
	}
	return &rpc.CancelAppointmentResponse{}, nil
}

func (h *Handler) ListDoctorAppointments(ctx context.Context, req *rpc.ListDoctorAppointmentsRequest) (*rpc.ListDoctorAppointmentsResponse, error) {
	fail := func(err error) error { return h.toStatus(ctx, rpc.MethodListDoctorAppointments, err) }

	date, err := booking.ParseDate(req.Date, h.loc())
	if err != nil {
		return nil, fail(err)
	}
	views, err := h.booking.ListForDoctor(ctx, middleware.TokenFrom(ctx), date, req.PatientName)
	if err != nil {
		return nil, fail(err)
	}

	out := make([]*rpc.AppointmentView, len(views))
	for i := range views {
		out[i] = toView(&views[i])
	}
	return &rpc.ListDoctorAppointmentsResponse{Appointments: out}, nil
}
