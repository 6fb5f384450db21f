// Package rest serves the clinic API over HTTP/JSON.
package rest

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"clinic-scheduling-api/internal/account"
	"clinic-scheduling-api/internal/booking"
	"clinic-scheduling-api/internal/middleware"
	"clinic-scheduling-api/internal/prescription"
)

// Options configures the router. Zero values disable the matching middleware.
type Options struct {
	ServiceName string
	CORSOrigins []string
	// Limiter throttles login and registration.
	Limiter *middleware.RateLimiter
	Observe middleware.ObserveFunc
	Metrics http.Handler
	// Ready checks dependencies for /ready.
	Ready func(ctx context.Context) error
}

type Server struct {
	accounts      *account.Service
	booking       *booking.Service
	prescriptions *prescription.Service
	logger        *zap.Logger
}

func New(accounts *account.Service, bookings *booking.Service, prescriptions *prescription.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{accounts: accounts, booking: bookings, prescriptions: prescriptions, logger: logger}
}

func (s *Server) Handler(opts Options) http.Handler {
	if opts.ServiceName == "" {
		opts.ServiceName = "clinic-api"
	}
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	if len(opts.CORSOrigins) > 0 {
		r.Use(middleware.CORS(opts.CORSOrigins))
	}
	r.Use(middleware.Recover(s.logger))
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.Tracing(opts.ServiceName))
	if opts.Observe != nil {
		r.Use(middleware.Metrics(opts.Observe))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": opts.ServiceName})
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if opts.Ready != nil {
			if err := opts.Ready(r.Context()); err != nil {
				s.logger.Warn("not ready", zap.Error(err))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	limit := func(next http.Handler) http.Handler { return next }
	if opts.Limiter != nil {
		limit = middleware.RateLimitHTTP(opts.Limiter)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.With(limit).Post("/admin/login", s.adminLogin)
		r.Mount("/doctors", s.doctorRoutes(limit))
		r.Mount("/patients", s.patientRoutes(limit))
		r.Mount("/appointments", s.appointmentRoutes())
		r.Mount("/prescriptions", s.prescriptionRoutes())
		r.Get("/session/{role}", s.checkSession)
	})
	return r
}
