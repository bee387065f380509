package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the verification gate.
type Metrics struct {
	SessionsOpened     prometheus.Counter
	SessionsCancelled  prometheus.Counter
	ActiveSessions     prometheus.Gauge
	EventsCommitted    *prometheus.CounterVec
	ConsentDenials     prometheus.Counter
	GeofenceViolations prometheus.Counter
	ProbeFailures      prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		SessionsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "punchgate_verification_sessions_opened_total",
			Help: "Total number of verification sessions opened",
		}),
		SessionsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "punchgate_verification_sessions_cancelled_total",
			Help: "Total number of verification sessions cancelled before confirm",
		}),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "punchgate_verification_sessions_active",
			Help: "Current number of active verification sessions",
		}),
		EventsCommitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "punchgate_clock_events_committed_total",
			Help: "Total number of committed clock events by action",
		}, []string{"action"}),
		ConsentDenials: promauto.NewCounter(prometheus.CounterOpts{
			Name: "punchgate_consent_denials_total",
			Help: "Total number of gated actions blocked on missing or partial consent",
		}),
		GeofenceViolations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "punchgate_geofence_violations_total",
			Help: "Total number of location fixes outside every allowed zone",
		}),
		ProbeFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "punchgate_location_probe_failures_total",
			Help: "Total number of failed location probes",
		}),
	}
}

func (m *Metrics) IncrementSessionsOpened() {
	if m == nil {
		return
	}
	m.SessionsOpened.Inc()
	m.ActiveSessions.Inc()
}

func (m *Metrics) IncrementSessionsCancelled() {
	if m == nil {
		return
	}
	m.SessionsCancelled.Inc()
	m.ActiveSessions.Dec()
}

func (m *Metrics) IncrementEventsCommitted(action string) {
	if m == nil {
		return
	}
	m.EventsCommitted.WithLabelValues(action).Inc()
	m.ActiveSessions.Dec()
}

func (m *Metrics) IncrementConsentDenials() {
	if m == nil {
		return
	}
	m.ConsentDenials.Inc()
}

func (m *Metrics) IncrementGeofenceViolations() {
	if m == nil {
		return
	}
	m.GeofenceViolations.Inc()
}

func (m *Metrics) IncrementProbeFailures() {
	if m == nil {
		return
	}
	m.ProbeFailures.Inc()
}
