// Package metrics provides Prometheus metrics for the clinic API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
)

// Metrics holds all application metrics on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	AppointmentsBooked    prometheus.Counter
	AppointmentsCancelled prometheus.Counter
	BookingRejections     *prometheus.CounterVec
	RequestDuration       *prometheus.HistogramVec
	CircuitBreakerState   *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		AppointmentsBooked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clinic_appointments_booked_total",
			Help: "Appointments booked",
		}),
		AppointmentsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clinic_appointments_cancelled_total",
			Help: "Appointments cancelled",
		}),
		BookingRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_booking_rejections_total",
			Help: "Booking and update attempts rejected, by error code",
		}, []string{"reason"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clinic_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method", "route", "status"}),
		CircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "clinic_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		}, []string{"name"}),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.AppointmentsBooked,
		m.AppointmentsCancelled,
		m.BookingRejections,
		m.RequestDuration,
		m.CircuitBreakerState,
	)
	return m
}

func (m *Metrics) Booked()                { m.AppointmentsBooked.Inc() }
func (m *Metrics) Cancelled()             { m.AppointmentsCancelled.Inc() }
func (m *Metrics) Rejected(reason string) { m.BookingRejections.WithLabelValues(reason).Inc() }

func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	m.RequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}

// BreakerChanged records a gobreaker state transition.
func (m *Metrics) BreakerChanged(name string, _, to gobreaker.State) {
	m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }
