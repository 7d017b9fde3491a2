// Package metrics provides Prometheus metrics collection for schema
// loading and registration.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for the schema pipeline.
type Collector struct {
	// Load metrics
	SchemaLoads      *prometheus.CounterVec
	SchemaLoadErrors *prometheus.CounterVec
	LoadDuration     prometheus.Histogram

	// Hot reload metrics
	SchemaReloads      prometheus.Counter
	SchemaReloadErrors prometheus.Counter

	// Registry metrics
	SchemasRegistered prometheus.Gauge
}

// New creates a new metrics collector registered on the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		SchemaLoads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wireschema",
				Name:      "schema_loads_total",
				Help:      "Total number of schemas loaded",
			},
			[]string{"source"},
		),
		SchemaLoadErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wireschema",
				Name:      "schema_load_errors_total",
				Help:      "Total number of schema load failures",
			},
			[]string{"source"},
		),
		LoadDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "wireschema",
				Name:      "schema_load_duration_seconds",
				Help:      "Schema load and fix duration in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
			},
		),
		SchemaReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "wireschema",
				Name:      "schema_reloads_total",
				Help:      "Total number of successful hot reloads",
			},
		),
		SchemaReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "wireschema",
				Name:      "schema_reload_errors_total",
				Help:      "Total number of failed hot reloads",
			},
		),
		SchemasRegistered: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "wireschema",
				Name:      "schemas_registered",
				Help:      "Number of schemas currently registered",
			},
		),
	}
}
