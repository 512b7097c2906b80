// Package metrics provides observability for the donor coordination workflow.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus instruments handlers and services record into.
// A nil *Metrics is safe everywhere so tests can skip wiring it.
type Metrics struct {
	// HTTP request latency by route pattern and status class.
	RequestDuration *prometheus.HistogramVec

	// SMS notification attempts by outcome ("sent", "failed", "throttled").
	Notifications *prometheus.CounterVec

	// Emergency request workflow outcomes by event
	// ("created", "accepted", "declined", "fulfilled").
	EmergencyEvents *prometheus.CounterVec

	// Eligibility evaluations by result ("eligible", "ineligible").
	EligibilityEvaluations *prometheus.CounterVec
}

// New registers all workflow metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lifelink_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status class",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "status"}),

		Notifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lifelink_notifications_total",
			Help: "SMS notification attempts by outcome",
		}, []string{"outcome"}),

		EmergencyEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lifelink_emergency_events_total",
			Help: "Emergency request workflow events",
		}, []string{"event"}),

		EligibilityEvaluations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lifelink_eligibility_evaluations_total",
			Help: "Eligibility evaluations by result",
		}, []string{"result"}),
	}
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route, status string, d time.Duration) {
	if m != nil {
		m.RequestDuration.WithLabelValues(route, status).Observe(d.Seconds())
	}
}

// IncNotification records one SMS attempt outcome.
func (m *Metrics) IncNotification(outcome string) {
	if m != nil {
		m.Notifications.WithLabelValues(outcome).Inc()
	}
}

// IncEmergencyEvent records one workflow event.
func (m *Metrics) IncEmergencyEvent(event string) {
	if m != nil {
		m.EmergencyEvents.WithLabelValues(event).Inc()
	}
}

// IncEligibility records one evaluation result.
func (m *Metrics) IncEligibility(eligible bool) {
	if m == nil {
		return
	}
	result := "ineligible"
	if eligible {
		result = "eligible"
	}
	m.EligibilityEvaluations.WithLabelValues(result).Inc()
}
