// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "travel_data_pipeline"

// Metrics holds all Prometheus metrics for the application. Every Record
// method is safe to call on a nil *Metrics.
type Metrics struct {
	// Ingestion metrics
	ObservationsRecorded *prometheus.CounterVec
	UnknownKeys          *prometheus.CounterVec
	PhaseOutcomes        *prometheus.CounterVec
	PhaseDuration        *prometheus.HistogramVec

	// Cycle metrics
	CycleRunsTotal      *prometheus.CounterVec
	CycleDuration       *prometheus.HistogramVec
	LastSuccessfulCycle *prometheus.GaugeVec

	// Publish metrics
	RecordsPublished *prometheus.CounterVec
	PublishErrors    *prometheus.CounterVec

	// Health metrics
	UptimeSeconds prometheus.Counter
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg uses the default registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Ingestion metrics
		ObservationsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "observations_recorded_total",
			Help:      "Total number of observations recorded by phase kind",
		}, []string{"kind"}),
		UnknownKeys: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "unknown_keys_total",
			Help:      "Total number of raw identifiers with no registry match",
		}, []string{"cycle_kind"}),
		PhaseOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "phases_total",
			Help:      "Total number of fetch phases by kind and status",
		}, []string{"kind", "status"}),
		PhaseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "phase_duration_seconds",
			Help:      "Fetch phase duration in seconds, retries included",
			Buckets:   []float64{0.5, 1, 5, 15, 60, 300, 900, 1200},
		}, []string{"kind"}),

		// Cycle metrics
		CycleRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cycle",
			Name:      "runs_total",
			Help:      "Total number of cycles by kind and status",
		}, []string{"cycle_kind", "status"}),
		CycleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cycle",
			Name:      "duration_seconds",
			Help:      "Cycle duration in seconds",
			Buckets:   []float64{1, 10, 60, 300, 600, 1800, 3600},
		}, []string{"cycle_kind"}),
		LastSuccessfulCycle: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_cycle_timestamp",
			Help:      "Unix timestamp of the last cycle that finished without errors",
		}, []string{"cycle_kind"}),

		// Publish metrics
		RecordsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "publish",
			Name:      "records_total",
			Help:      "Total number of records published by data type",
		}, []string{"data_type"}),
		PublishErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "publish",
			Name:      "errors_total",
			Help:      "Total number of failed publish calls by data type",
		}, []string{"data_type"}),

		// Health metrics
		UptimeSeconds: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor returns a /metrics handler serving one gatherer.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RecordObservations adds n recorded rows of a phase kind.
func (m *Metrics) RecordObservations(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ObservationsRecorded.WithLabelValues(kind).Add(float64(n))
}

// RecordUnknown adds n unmatched identifiers of a cycle kind.
func (m *Metrics) RecordUnknown(cycleKind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.UnknownKeys.WithLabelValues(cycleKind).Add(float64(n))
}

// RecordPhase records one fetch phase.
func (m *Metrics) RecordPhase(kind, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.PhaseOutcomes.WithLabelValues(kind, status).Inc()
	m.PhaseDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// RecordCycle records one finished cycle.
func (m *Metrics) RecordCycle(cycleKind string, succeeded bool, d time.Duration, finishedAt time.Time) {
	if m == nil {
		return
	}
	status := "ok"
	if !succeeded {
		status = "partial"
	}
	m.CycleRunsTotal.WithLabelValues(cycleKind, status).Inc()
	m.CycleDuration.WithLabelValues(cycleKind).Observe(d.Seconds())
	if succeeded {
		m.LastSuccessfulCycle.WithLabelValues(cycleKind).Set(float64(finishedAt.Unix()))
	}
}

// RecordPublished records one publish call.
func (m *Metrics) RecordPublished(dataType string, n int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.PublishErrors.WithLabelValues(dataType).Inc()
		return
	}
	m.RecordsPublished.WithLabelValues(dataType).Add(float64(n))
}
