package rest

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"clinic-scheduling-api/internal/apperr"
	"clinic-scheduling-api/internal/booking"
	"clinic-scheduling-api/internal/model"
	"clinic-scheduling-api/internal/prescription"
)

type bookRequest struct {
	DoctorID        int64  `json:"doctorId"`
	PatientID       int64  `json:"patientId"`
	AppointmentTime string `json:"appointmentTime"`
}

type updateRequest struct {
	DoctorID        int64        `json:"doctorId"`
	AppointmentTime string       `json:"appointmentTime"`
	Status          model.Status `json:"status"`
}

type appointmentResponse struct {
	*model.Appointment
	EndTime time.Time `json:"endTime"`
}

func newAppointmentResponse(a *model.Appointment) appointmentResponse {
	return appointmentResponse{Appointment: a, EndTime: a.AppointmentTime.Add(model.AppointmentLength)}
}

func (s *Server) appointmentRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", s.book)
	r.Get("/", s.doctorAppointments)
	r.Put("/{id}", s.updateAppointment)
	r.Delete("/{id}", s.cancelAppointment)
	return r
}

func (s *Server) book(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := decode(w, r, &req); err != nil {
		s.jsonError(w, r, err)
		return
	}
	if req.AppointmentTime == "" {
		s.jsonError(w, r, apperr.Invalid("appointmentTime is required"))
		return
	}
	at, err := booking.ParseTime(req.AppointmentTime, s.booking.Calendar().Location())
	if err != nil {
		s.jsonError(w, r, err)
		return
	}

	a, err := s.booking.Book(r.Context(), token(r), booking.BookRequest{
		DoctorID:        req.DoctorID,
		PatientID:       req.PatientID,
		AppointmentTime: at,
	})
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newAppointmentResponse(a))
}

func (s *Server) updateAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	var req updateRequest
	if err := decode(w, r, &req); err != nil {
		s.jsonError(w, r, err)
		return
	}
	upd := booking.UpdateRequest{DoctorID: req.DoctorID, Status: req.Status}
	if req.AppointmentTime != "" {
		if upd.AppointmentTime, err = booking.ParseTime(req.AppointmentTime, s.booking.Calendar().Location()); err != nil {
			s.jsonError(w, r, err)
			return
		}
	}

	a, err := s.booking.Update(r.Context(), token(r), id, upd)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAppointmentResponse(a))
}

func (s *Server) cancelAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	if err := s.booking.Cancel(r.Context(), token(r), id); err != nil {
		s.jsonError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/appointments?date=YYYY-MM-DD&patient=
func (s *Server) doctorAppointments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, err := booking.ParseDate(q.Get("date"), s.booking.Calendar().Location())
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	views, err := s.booking.ListForDoctor(r.Context(), token(r), date, strings.TrimSpace(q.Get("patient")))
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) prescriptionRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", s.prescribe)
	r.Get("/{appointmentId}", s.listPrescriptions)
	return r
}

func (s *Server) prescribe(w http.ResponseWriter, r *http.Request) {
	var in prescription.Input
	if err := decode(w, r, &in); err != nil {
		s.jsonError(w, r, err)
		return
	}
	p, err := s.prescriptions.Create(r.Context(), token(r), in)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) listPrescriptions(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "appointmentId")
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	list, err := s.prescriptions.ForAppointment(r.Context(), token(r), id)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
