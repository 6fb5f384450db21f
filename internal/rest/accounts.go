package rest

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"clinic-scheduling-api/internal/account"
	"clinic-scheduling-api/internal/apperr"
	"clinic-scheduling-api/internal/auth"
	"clinic-scheduling-api/internal/booking"
	"clinic-scheduling-api/internal/model"
)

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Valid  bool      `json:"valid"`
	Role   auth.Role `json:"role"`
	UserID int64     `json:"userId"`
}

type availabilityResponse struct {
	DoctorID int64          `json:"doctorId"`
	Date     string         `json:"date"`
	Slots    []booking.Slot `json:"slots"`
}

// POST /api/v1/admin/login
func (s *Server) adminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		s.jsonError(w, r, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		s.jsonError(w, r, apperr.Invalid("username and password required"))
		return
	}
	sess, err := s.accounts.AdminLogin(r.Context(), req.Username, req.Password)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// GET /api/v1/session/{role}
func (s *Server) checkSession(w http.ResponseWriter, r *http.Request) {
	role, err := auth.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		s.jsonError(w, r, apperr.Invalid("unknown role %q", chi.URLParam(r, "role")))
		return
	}
	id, err := s.accounts.CheckSession(r.Context(), token(r), role)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Valid: true, Role: id.Role, UserID: id.UserID})
}

func (s *Server) doctorRoutes(limit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.With(limit).Post("/login", s.doctorLogin)
	r.Get("/", s.listDoctors)
	r.Post("/", s.addDoctor)
	r.Put("/{id}", s.updateDoctor)
	r.Delete("/{id}", s.deleteDoctor)
	r.Get("/{id}/availability", s.availability)
	return r
}

func (s *Server) doctorLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		s.jsonError(w, r, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		s.jsonError(w, r, apperr.Invalid("email and password required"))
		return
	}
	sess, err := s.accounts.DoctorLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// GET /api/v1/doctors?name=&specialty=&period=AM|PM
func (s *Server) listDoctors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.DoctorFilter{
		Name:      strings.TrimSpace(q.Get("name")),
		Specialty: strings.TrimSpace(q.Get("specialty")),
	}
	switch p := model.Period(strings.ToUpper(q.Get("period"))); p {
	case "", model.PeriodAM, model.PeriodPM:
		f.Period = p
	default:
		s.jsonError(w, r, apperr.Invalid("period must be AM or PM"))
		return
	}

	doctors, err := s.accounts.ListDoctors(r.Context(), f)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doctors)
}

func (s *Server) addDoctor(w http.ResponseWriter, r *http.Request) {
	var in account.DoctorInput
	if err := decode(w, r, &in); err != nil {
		s.jsonError(w, r, err)
		return
	}
	d, err := s.accounts.AddDoctor(r.Context(), token(r), in)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) updateDoctor(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	var in account.DoctorInput
	if err := decode(w, r, &in); err != nil {
		s.jsonError(w, r, err)
		return
	}
	d, err := s.accounts.UpdateDoctor(r.Context(), token(r), id, in)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) deleteDoctor(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	if err := s.accounts.DeleteDoctor(r.Context(), token(r), id); err != nil {
		s.jsonError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/doctors/{id}/availability?date=YYYY-MM-DD&role=patient
func (s *Server) availability(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	role := auth.RolePatient
	if v := r.URL.Query().Get("role"); v != "" {
		if role, err = auth.ParseRole(v); err != nil {
			s.jsonError(w, r, apperr.Invalid("unknown role %q", v))
			return
		}
	}
	loc := s.booking.Calendar().Location()
	date, err := booking.ParseDate(r.URL.Query().Get("date"), loc)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}

	slots, err := s.booking.AvailableSlots(r.Context(), token(r), role, id, date)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityResponse{DoctorID: id, Date: date.Format(time.DateOnly), Slots: slots})
}

func (s *Server) patientRoutes(limit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.With(limit).Post("/", s.registerPatient)
	r.With(limit).Post("/login", s.patientLogin)
	r.Get("/me", s.profile)
	r.Put("/me", s.updateProfile)
	r.Get("/me/appointments", s.patientAppointments)
	return r
}

func (s *Server) registerPatient(w http.ResponseWriter, r *http.Request) {
	var in account.PatientInput
	if err := decode(w, r, &in); err != nil {
		s.jsonError(w, r, err)
		return
	}
	p, err := s.accounts.RegisterPatient(r.Context(), in)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) patientLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		s.jsonError(w, r, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		s.jsonError(w, r, apperr.Invalid("email and password required"))
		return
	}
	sess, err := s.accounts.PatientLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	p, err := s.accounts.Profile(r.Context(), token(r))
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var in account.PatientInput
	if err := decode(w, r, &in); err != nil {
		s.jsonError(w, r, err)
		return
	}
	p, err := s.accounts.UpdateProfile(r.Context(), token(r), in)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GET /api/v1/patients/me/appointments?condition=past|future&doctor=
func (s *Server) patientAppointments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cond := booking.Condition(strings.ToLower(q.Get("condition")))
	views, err := s.booking.ListForPatient(r.Context(), token(r), cond, strings.TrimSpace(q.Get("doctor")))
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}
