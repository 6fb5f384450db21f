package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"clinic-scheduling-api/internal/account"
	"clinic-scheduling-api/internal/auth"
	"clinic-scheduling-api/internal/booking"
	"clinic-scheduling-api/internal/middleware"
	"clinic-scheduling-api/internal/prescription"
	"clinic-scheduling-api/internal/rest"
	"clinic-scheduling-api/internal/store/memstore"
)

const secret = "0123456789abcdef0123456789abcdef"

type env struct {
	h      http.Handler
	st     *memstore.Store
	mu     sync.Mutex
	routes []string
}

func setup(t *testing.T, opts rest.Options) *env {
	t.Helper()
	st := memstore.New()
	tokens := auth.NewAuthority(secret, auth.Subjects{
		auth.RoleAdmin:   st.AdminExists,
		auth.RoleDoctor:  st.DoctorExists,
		auth.RolePatient: st.PatientExists,
	})
	cal := booking.NewCalendar(st, booking.DefaultTemplate, time.UTC)
	accounts := account.NewService(st, tokens, booking.DefaultTemplate, nil, nil)
	if _, err := accounts.EnsureAdmin(context.Background(), "root", "adminpass1"); err != nil {
		t.Fatal(err)
	}
	srv := rest.New(accounts, booking.NewService(st, tokens, cal), prescription.NewService(st, tokens), nil)

	e := &env{st: st}
	opts.Observe = func(method, route, status string, _ time.Duration) {
		e.mu.Lock()
		e.routes = append(e.routes, method+" "+route+" "+status)
		e.mu.Unlock()
	}
	e.h = srv.Handler(opts)
	return e
}

func (e *env) do(t *testing.T, method, path, tok string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, status, rec.Body.String())
	}
	if got := decodeBody[rest.ErrorResponse](t, rec); got.Code != code || got.Error == "" {
		t.Fatalf("body = %+v, want code %s", got, code)
	}
}

type session struct {
	Token  string `json:"token"`
	Role   string `json:"role"`
	UserID int64  `json:"userId"`
}

func (e *env) login(t *testing.T, path string, body map[string]string) session {
	t.Helper()
	rec := e.do(t, http.MethodPost, path, "", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: %d %s", path, rec.Code, rec.Body.String())
	}
	return decodeBody[session](t, rec)
}

// seed creates one doctor through the admin API and registers one patient.
func (e *env) seed(t *testing.T) (admin, doctor, patient session) {
	t.Helper()
	admin = e.login(t, "/api/v1/admin/login", map[string]string{"username": "root", "password": "adminpass1"})

	rec := e.do(t, http.MethodPost, "/api/v1/doctors", admin.Token, map[string]string{
		"name": "Dr. Ada Obi", "email": "ada@clinic.test", "specialty": "Cardiology", "password": "doctorpass1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add doctor: %d %s", rec.Code, rec.Body.String())
	}
	rec = e.do(t, http.MethodPost, "/api/v1/patients", "", map[string]string{
		"name": "Tunde Bello", "email": "tunde@mail.test", "phone": "0801", "address": "12 Marina", "password": "patientpass1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body.String())
	}

	doctor = e.login(t, "/api/v1/doctors/login", map[string]string{"email": "ada@clinic.test", "password": "doctorpass1"})
	patient = e.login(t, "/api/v1/patients/login", map[string]string{"email": "tunde@mail.test", "password": "patientpass1"})
	return admin, doctor, patient
}

func TestHealth(t *testing.T) {
	e := setup(t, rest.Options{
		Ready: func(context.Context) error { return errors.New("db down") },
	})
	if rec := e.do(t, http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("health = %d", rec.Code)
	}
	if rec := e.do(t, http.MethodGet, "/ready", "", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready = %d", rec.Code)
	}
}

func TestDoctorManagement(t *testing.T) {
	e := setup(t, rest.Options{})
	admin, doctor, patient := e.seed(t)

	rec := e.do(t, http.MethodPost, "/api/v1/doctors", admin.Token, map[string]string{
		"name": "Dr. Other", "email": "ADA@clinic.test", "specialty": "Dermatology", "password": "doctorpass2",
	})
	expectError(t, rec, http.StatusConflict, "ALREADY_EXISTS")

	rec = e.do(t, http.MethodPost, "/api/v1/doctors", doctor.Token, map[string]string{
		"name": "Dr. Sneaky", "email": "sneaky@clinic.test", "specialty": "Surgery", "password": "doctorpass2",
	})
	expectError(t, rec, http.StatusUnauthorized, "ROLE_MISMATCH")

	rec = e.do(t, http.MethodPut, "/api/v1/doctors/"+itoa(doctor.UserID), admin.Token, map[string]string{"specialty": "Neurology"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodGet, "/api/v1/doctors?specialty=neurology&period=am", "", nil)
	if got := decodeBody[[]map[string]any](t, rec); len(got) != 1 || got[0]["passwordHash"] != nil {
		t.Fatalf("doctors = %v", got)
	}
	rec = e.do(t, http.MethodGet, "/api/v1/doctors?period=evening", "", nil)
	expectError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")

	rec = e.do(t, http.MethodPut, "/api/v1/doctors/999", admin.Token, map[string]string{"name": "Nobody"})
	expectError(t, rec, http.StatusNotFound, "RESOURCE_NOT_FOUND")

	// delete cascades to appointments and kills the doctor's sessions
	if rec := e.do(t, http.MethodPost, "/api/v1/appointments", patient.Token, map[string]any{
		"doctorId": doctor.UserID, "appointmentTime": "2024-06-10T09:00:00Z",
	}); rec.Code != http.StatusCreated {
		t.Fatalf("book: %d %s", rec.Code, rec.Body.String())
	}
	if rec := e.do(t, http.MethodDelete, "/api/v1/doctors/"+itoa(doctor.UserID), admin.Token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d %s", rec.Code, rec.Body.String())
	}
	rec = e.do(t, http.MethodGet, "/api/v1/patients/me/appointments", patient.Token, nil)
	if got := decodeBody[[]map[string]any](t, rec); len(got) != 0 {
		t.Fatalf("appointments survived: %v", got)
	}
	rec = e.do(t, http.MethodGet, "/api/v1/session/doctor", doctor.Token, nil)
	expectError(t, rec, http.StatusUnauthorized, "USER_NOT_FOUND")
}

func TestPatientFlow(t *testing.T) {
	e := setup(t, rest.Options{})
	_, doctor, patient := e.seed(t)

	rec := e.do(t, http.MethodPost, "/api/v1/patients", "", map[string]string{
		"name": "Copy", "email": "copy@mail.test", "phone": "0801", "password": "patientpass9",
	})
	expectError(t, rec, http.StatusConflict, "ALREADY_EXISTS")

	rec = e.do(t, http.MethodPost, "/api/v1/patients/login", "", map[string]string{"email": "tunde@mail.test", "password": "wrongpass"})
	expectError(t, rec, http.StatusUnauthorized, "INVALID_CREDENTIALS")

	rec = e.do(t, http.MethodPut, "/api/v1/patients/me", patient.Token, map[string]string{"address": "3 Allen Ave"})
	if got := decodeBody[map[string]any](t, rec); rec.Code != http.StatusOK || got["address"] != "3 Allen Ave" {
		t.Fatalf("update profile: %d %v", rec.Code, got)
	}
	rec = e.do(t, http.MethodGet, "/api/v1/patients/me", doctor.Token, nil)
	expectError(t, rec, http.StatusUnauthorized, "ROLE_MISMATCH")
	rec = e.do(t, http.MethodGet, "/api/v1/patients/me", "", nil)
	expectError(t, rec, http.StatusUnauthorized, "MISSING_TOKEN")

	rec = e.do(t, http.MethodGet, "/api/v1/session/patient", patient.Token, nil)
	if got := decodeBody[map[string]any](t, rec); rec.Code != http.StatusOK || got["valid"] != true {
		t.Fatalf("session: %d %v", rec.Code, got)
	}
}

func TestAppointmentLifecycle(t *testing.T) {
	e := setup(t, rest.Options{})
	_, doctor, patient := e.seed(t)
	docID := itoa(doctor.UserID)

	rec := e.do(t, http.MethodPost, "/api/v1/appointments", patient.Token, map[string]any{
		"doctorId": doctor.UserID, "appointmentTime": "2024-06-10T10:00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("book: %d %s", rec.Code, rec.Body.String())
	}
	appt := decodeBody[map[string]any](t, rec)
	if appt["endTime"] != "2024-06-10T11:00:00Z" || appt["status"] != "scheduled" {
		t.Fatalf("appointment = %v", appt)
	}
	id := itoa(int64(appt["id"].(float64)))

	rec = e.do(t, http.MethodPost, "/api/v1/appointments", patient.Token, map[string]any{
		"doctorId": doctor.UserID, "appointmentTime": "2024-06-10T10:00:00Z",
	})
	expectError(t, rec, http.StatusConflict, "SLOT_TAKEN")

	rec = e.do(t, http.MethodGet, "/api/v1/doctors/"+docID+"/availability?date=2024-06-10", patient.Token, nil)
	av := decodeBody[struct {
		Slots []string `json:"slots"`
	}](t, rec)
	if len(av.Slots) != 7 || av.Slots[2] != "11:00" {
		t.Fatalf("slots = %v", av.Slots)
	}
	rec = e.do(t, http.MethodGet, "/api/v1/doctors/"+docID+"/availability?date=2024-06-10&role=doctor", patient.Token, nil)
	expectError(t, rec, http.StatusUnauthorized, "ROLE_MISMATCH")
	rec = e.do(t, http.MethodGet, "/api/v1/doctors/"+docID+"/availability?date=June", patient.Token, nil)
	expectError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")

	rec = e.do(t, http.MethodGet, "/api/v1/appointments?date=2024-06-10&patient=tun", doctor.Token, nil)
	if got := decodeBody[[]map[string]any](t, rec); len(got) != 1 || got[0]["patientAddress"] != "12 Marina" {
		t.Fatalf("doctor list = %v", got)
	}

	rec = e.do(t, http.MethodPut, "/api/v1/appointments/"+id, patient.Token, map[string]string{"status": "completed"})
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: %d %s", rec.Code, rec.Body.String())
	}
	rec = e.do(t, http.MethodGet, "/api/v1/patients/me/appointments?condition=past&doctor=ada", patient.Token, nil)
	if got := decodeBody[[]map[string]any](t, rec); len(got) != 1 {
		t.Fatalf("past = %v", got)
	}
	rec = e.do(t, http.MethodGet, "/api/v1/patients/me/appointments?condition=someday", patient.Token, nil)
	expectError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")

	rec = e.do(t, http.MethodDelete, "/api/v1/appointments/"+id, patient.Token, nil)
	expectError(t, rec, http.StatusConflict, "INVALID_TRANSITION")
	rec = e.do(t, http.MethodDelete, "/api/v1/appointments/abc", patient.Token, nil)
	expectError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
	rec = e.do(t, http.MethodDelete, "/api/v1/appointments/4242", patient.Token, nil)
	expectError(t, rec, http.StatusNotFound, "APPOINTMENT_NOT_FOUND")
}

func TestPrescriptions(t *testing.T) {
	e := setup(t, rest.Options{})
	_, doctor, patient := e.seed(t)

	rec := e.do(t, http.MethodPost, "/api/v1/prescriptions", doctor.Token, map[string]any{
		"appointmentId": 7, "patientName": "Tunde Bello", "medication": "Amoxicillin", "dosage": "500mg",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("prescribe: %d %s", rec.Code, rec.Body.String())
	}
	rec = e.do(t, http.MethodPost, "/api/v1/prescriptions", doctor.Token, map[string]any{"appointmentId": 7})
	expectError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
	rec = e.do(t, http.MethodGet, "/api/v1/prescriptions/7", patient.Token, nil)
	expectError(t, rec, http.StatusUnauthorized, "ROLE_MISMATCH")

	rec = e.do(t, http.MethodGet, "/api/v1/prescriptions/7", doctor.Token, nil)
	if got := decodeBody[[]map[string]any](t, rec); len(got) != 1 || got[0]["medication"] != "Amoxicillin" || got[0]["id"] == "" {
		t.Fatalf("prescriptions = %v", got)
	}
}

func TestBadBody(t *testing.T) {
	e := setup(t, rest.Options{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients/login", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	expectError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestLoginRateLimit(t *testing.T) {
	rl := middleware.NewRateLimiter(0.001, 3)
	t.Cleanup(rl.Stop)
	e := setup(t, rest.Options{Limiter: rl})

	body := map[string]string{"email": "x@mail.test", "password": "whatever1"}
	for i := 0; i < 3; i++ {
		if rec := e.do(t, http.MethodPost, "/api/v1/patients/login", "", body); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: %d", i, rec.Code)
		}
	}
	if rec := e.do(t, http.MethodPost, "/api/v1/patients/login", "", body); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	// unlimited routes are unaffected
	if rec := e.do(t, http.MethodGet, "/api/v1/doctors", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("doctors = %d", rec.Code)
	}
}

func TestMetricsUseRoutePattern(t *testing.T) {
	e := setup(t, rest.Options{})
	e.do(t, http.MethodGet, "/api/v1/doctors/42/availability?date=2024-06-10", "", nil)

	e.mu.Lock()
	defer e.mu.Unlock()
	want := "GET /api/v1/doctors/{id}/availability 401"
	if len(e.routes) != 1 || e.routes[0] != want {
		t.Fatalf("observed %v, want %q", e.routes, want)
	}
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func TestSessionCheck(t *testing.T) {
	e := setup(t, rest.Options{})
	_, _, patient := e.seed(t)

	rec := e.do(t, http.MethodGet, "/api/v1/session/PATIENT", patient.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("session: %d %s", rec.Code, rec.Body.String())
	}
	got := decodeBody[map[string]any](t, rec)
	if got["valid"] != true || got["role"] != "patient" || got["userId"] != float64(patient.UserID) {
		t.Fatalf("session = %v", got)
	}

	tests := []struct {
		name   string
		path   string
		tok    string
		status int
		code   string
	}{
		{"wrong role", "/api/v1/session/admin", patient.Token, http.StatusUnauthorized, "ROLE_MISMATCH"},
		{"no token", "/api/v1/session/patient", "", http.StatusUnauthorized, "MISSING_TOKEN"},
		{"garbage token", "/api/v1/session/patient", "not.a.jwt", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"unknown role", "/api/v1/session/nurse", patient.Token, http.StatusBadRequest, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, e.do(t, http.MethodGet, tt.path, tt.tok, nil), tt.status, tt.code)
		})
	}
}
