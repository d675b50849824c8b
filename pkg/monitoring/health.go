package monitoring

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheck represents a single named health probe.
type HealthCheck struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// HealthReport represents the overall health report
type HealthReport struct {
	Status    HealthStatus  `json:"status"`
	Service   string        `json:"service"`
	Timestamp time.Time     `json:"timestamp"`
	Checks    []HealthCheck `json:"checks"`
}

// Probe is a function that checks one dependency.
type Probe func() error

// HealthHandler runs the given probes and reports aggregate health. Any
// failing probe makes the whole report unhealthy with HTTP 503.
func HealthHandler(service string, probes map[string]Probe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := HealthReport{
			Status:    HealthStatusHealthy,
			Service:   service,
			Timestamp: time.Now().UTC(),
		}

		for name, probe := range probes {
			check := HealthCheck{Name: name, Status: HealthStatusHealthy}
			if err := probe(); err != nil {
				check.Status = HealthStatusUnhealthy
				check.Message = err.Error()
				report.Status = HealthStatusUnhealthy
			}
			report.Checks = append(report.Checks, check)
		}

		w.Header().Set("Content-Type", "application/json")
		if report.Status != HealthStatusHealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(report)
	}
}
