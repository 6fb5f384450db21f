package handler

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"clinic-scheduling-api/internal/account"
	"clinic-scheduling-api/internal/apperr"
	"clinic-scheduling-api/internal/booking"
	"clinic-scheduling-api/internal/model"
	"clinic-scheduling-api/internal/rpc"
)

// ErrorCodeKey is the trailer carrying the clinic error code on failed calls.
const ErrorCodeKey = "x-error-code"

type Handler struct {
	rpc.UnimplementedScheduleServiceServer
	accounts *account.Service
	booking  *booking.Service
	logger   *zap.Logger
}

func New(accounts *account.Service, bookings *booking.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{accounts: accounts, booking: bookings, logger: logger}
}

func (h *Handler) loc() *time.Location { return h.booking.Calendar().Location() }

var kindCodes = map[apperr.Kind]codes.Code{
	apperr.KindUnauthenticated: codes.Unauthenticated,
	apperr.KindForbidden:       codes.PermissionDenied,
	apperr.KindInvalid:         codes.InvalidArgument,
	apperr.KindNotFound:        codes.NotFound,
	apperr.KindConflict:        codes.AlreadyExists,
	apperr.KindPrecondition:    codes.FailedPrecondition,
	apperr.KindInternal:        codes.Internal,
}

// toStatus converts a service error to a gRPC status. Internal failures are
// logged here and reach the client as a generic message.
func (h *Handler) toStatus(ctx context.Context, method string, err error) error {
	e := apperr.From(err)
	if e.Kind == apperr.KindInternal {
		h.logger.Error("rpc failed",
			zap.String("method", method),
			zap.String("op", e.Op),
			zap.Int64("entity_id", e.EntityID),
			zap.Error(e.Err))
	}
	_ = grpc.SetTrailer(ctx, metadata.Pairs(ErrorCodeKey, e.Code))
	c, ok := kindCodes[e.Kind]
	if !ok {
		c = codes.Unknown
	}
	return status.Error(c, e.Message)
}

func toAppointment(a *model.Appointment) *rpc.Appointment {
	return &rpc.Appointment{
		ID:              a.ID,
		DoctorID:        a.DoctorID,
		PatientID:       a.PatientID,
		AppointmentTime: a.AppointmentTime.Format(time.RFC3339),
		EndTime:         a.AppointmentTime.Add(model.AppointmentLength).Format(time.RFC3339),
		Status:          string(a.Status),
	}
}

func toView(v *model.AppointmentView) *rpc.AppointmentView {
	return &rpc.AppointmentView{
		ID:              v.ID,
		DoctorID:        v.DoctorID,
		DoctorName:      v.DoctorName,
		PatientID:       v.PatientID,
		PatientName:     v.PatientName,
		PatientEmail:    v.PatientEmail,
		PatientPhone:    v.PatientPhone,
		PatientAddress:  v.PatientAddress,
		AppointmentTime: v.AppointmentTime.Format(time.RFC3339),
		EndTime:         v.EndTime.Format(time.RFC3339),
		Status:          string(v.Status),
	}
}
