package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Appointment queue metrics
	AppointmentsScheduled prometheus.Counter
	AppointmentsRejected  *prometheus.CounterVec
	AppointmentsProcessed prometheus.Counter
	QueueDepth            prometheus.Gauge

	// Patient index metrics
	PatientsIndexed prometheus.Gauge

	// Diagnosis metrics
	DiagnosesRecorded prometheus.Counter

	// Store metrics
	StoreWrites       *prometheus.CounterVec
	StoreWriteLatency *prometheus.HistogramVec

	// Event publishing metrics
	EventsPublished *prometheus.CounterVec
}

// New creates all application metrics and registers them with reg. A nil
// registerer leaves the collectors unregistered, which tests rely on.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AppointmentsScheduled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "appointments",
			Name:      "scheduled_total",
			Help:      "Total number of appointments admitted to the queue",
		}),
		AppointmentsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "appointments",
			Name:      "rejected_total",
			Help:      "Total number of scheduling requests rejected",
		}, []string{"reason"}),
		AppointmentsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "appointments",
			Name:      "processed_total",
			Help:      "Total number of appointments taken off the queue and completed",
		}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "appointments",
			Name:      "queue_depth",
			Help:      "Current number of pending appointments",
		}),

		PatientsIndexed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "patients",
			Name:      "indexed",
			Help:      "Current number of patients in the index",
		}),

		DiagnosesRecorded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "diagnoses",
			Name:      "recorded_total",
			Help:      "Total number of diagnosis history entries recorded",
		}),

		StoreWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "writes_total",
			Help:      "Total number of collection rewrites",
		}, []string{"collection", "status"}),
		StoreWriteLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "write_duration_seconds",
			Help:      "Duration of collection rewrites",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"collection"}),

		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of domain events handed to the broker",
		}, []string{"event_type", "status"}),
	}
}

// ObserveWrite records the outcome of one collection rewrite.
func (m *Metrics) ObserveWrite(collection string, seconds float64, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.StoreWrites.WithLabelValues(collection, status).Inc()
	m.StoreWriteLatency.WithLabelValues(collection).Observe(seconds)
}
