package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)
)

var (
	IntakesSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "intake_forms_submitted_total",
			Help: "Total intake questionnaires submitted",
		},
	)

	ConsultationsBooked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "consultations_booked_total",
			Help: "Total consultations booked",
		},
	)

	BookingConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_conflicts_total",
			Help: "Bookings rejected because the slot was taken",
		},
	)

	EmailFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "email_send_failures_total",
			Help: "Transactional emails that failed to send",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(IntakesSubmitted)
	prometheus.MustRegister(ConsultationsBooked)
	prometheus.MustRegister(BookingConflicts)
	prometheus.MustRegister(EmailFailures)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
