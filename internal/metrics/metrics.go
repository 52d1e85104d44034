// Package metrics counts compile and mapping outcomes for a run.
// Counters live in a private registry so a run can be exported to a
// node_exporter textfile without touching the process default registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for EntitiesProcessed.
const (
	OutcomeMapped  = "mapped"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Result labels for SchemasCompiled and SinkWrites.
const (
	ResultWritten   = "written"
	ResultUnchanged = "unchanged"
	ResultFailed    = "failed"
)

// Metrics provides observability for compile and mapping runs.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	SchemasCompiled    *prometheus.CounterVec
	EntitiesProcessed  *prometheus.CounterVec
	UnmappedFields     *prometheus.HistogramVec
	ValidationFailures *prometheus.CounterVec
	SinkWrites         *prometheus.CounterVec
	MapLatency         prometheus.Histogram
}

// New creates a Metrics instance with every collector registered on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,

		SchemasCompiled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hfsrb_schemas_compiled_total",
			Help: "Dictionaries compiled by result",
		}, []string{"result"}),

		EntitiesProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hfsrb_entities_processed_total",
			Help: "Entity records processed by facility type and outcome",
		}, []string{"facility_type", "outcome"}),

		UnmappedFields: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hfsrb_unmapped_fields",
			Help:    "Input fields left unmapped per entity",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}, []string{"facility_type"}),

		ValidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hfsrb_validation_failures_total",
			Help: "Payloads with at least one schema violation by facility type",
		}, []string{"facility_type"}),

		SinkWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hfsrb_sink_writes_total",
			Help: "Payload writes by sink and result",
		}, []string{"sink", "result"}),

		MapLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hfsrb_map_duration_seconds",
			Help:    "Duration of mapping one entity including sink writes",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5},
		}),
	}
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) IncrementCompiled(result string) {
	if m != nil {
		m.SchemasCompiled.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) IncrementEntity(facilityType, outcome string) {
	if m != nil {
		m.EntitiesProcessed.WithLabelValues(facilityType, outcome).Inc()
	}
}

func (m *Metrics) ObserveUnmapped(facilityType string, n int) {
	if m != nil {
		m.UnmappedFields.WithLabelValues(facilityType).Observe(float64(n))
	}
}

func (m *Metrics) IncrementValidationFailure(facilityType string) {
	if m != nil {
		m.ValidationFailures.WithLabelValues(facilityType).Inc()
	}
}

func (m *Metrics) IncrementSinkWrite(sink, result string) {
	if m != nil {
		m.SinkWrites.WithLabelValues(sink, result).Inc()
	}
}

func (m *Metrics) ObserveMapLatency(d time.Duration) {
	if m != nil {
		m.MapLatency.Observe(d.Seconds())
	}
}

// WriteTextfile writes every collected metric to path in the text exposition
// format. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
