package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Booking metrics
	bookingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consultation_bookings_total",
			Help: "Total number of consultation booking attempts",
		},
		[]string{"type", "outcome"},
	)

	// SOS metrics
	sosTriggersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sos_triggers_total",
			Help: "Total number of SOS triggers",
		},
		[]string{"emergency_type"},
	)

	emergencyCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emergency_calls_total",
			Help: "Total number of emergency notification attempts",
		},
		[]string{"service", "status"},
	)

	// Realtime metrics
	websocketConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Number of currently connected websocket clients",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		bookingsTotal,
		sosTriggersTotal,
		emergencyCallsTotal,
		websocketConnections,
	)
}

// RecordHTTPRequest records metrics for an HTTP request
func RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	httpRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordBooking records the outcome of a booking attempt
func RecordBooking(consultType, outcome string) {
	bookingsTotal.WithLabelValues(consultType, outcome).Inc()
}

// RecordSOSTrigger records an SOS trigger
func RecordSOSTrigger(emergencyType string) {
	sosTriggersTotal.WithLabelValues(emergencyType).Inc()
}

// RecordEmergencyCall records one attempt in the notification cascade
func RecordEmergencyCall(service, status string) {
	emergencyCallsTotal.WithLabelValues(service, status).Inc()
}

// SetWebsocketConnections sets the active websocket connection gauge
func SetWebsocketConnections(n int) {
	websocketConnections.Set(float64(n))
}

// MetricsHandler returns the Prometheus scrape handler
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
