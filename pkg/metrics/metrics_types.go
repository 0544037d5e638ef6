package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Registry holds all metrics for the analysis engine
type Registry struct {
	// Analysis Metrics
	AnalysisRunsTotal *prometheus.CounterVec
	AnalysisDuration  *prometheus.HistogramVec

	// Graph Metrics
	GraphNodesTotal prometheus.Gauge
	GraphEdgesTotal prometheus.Gauge
	GraphDensity    prometheus.Gauge

	// Community Metrics
	CommunitiesDetected prometheus.Gauge
	ModularityScore     prometheus.Gauge

	// Centrality Metrics
	CentralitySources     prometheus.Histogram
	CentralitySampledRuns prometheus.Counter

	// Vulnerability Metrics
	RemovalStepsTotal prometheus.Counter

	// Equity Metrics
	EquityGapsTotal *prometheus.GaugeVec

	// Export Metrics
	SnapshotExportsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}
	r.initAnalysisMetrics()
	r.initGraphMetrics()
	return r
}

// Gather collects all current metric families, mainly for tests and the
// optional metrics endpoint.
func (r *Registry) Gather() ([]*dto.MetricFamily, error) {
	return r.registry.Gather()
}
