package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initAnalysisMetrics() {
	r.AnalysisRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "transit_analysis_runs_total",
			Help: "Total number of analysis component runs",
		},
		[]string{"component", "status"},
	)

	r.AnalysisDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transit_analysis_duration_seconds",
			Help:    "Analysis component duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0, 60.0},
		},
		[]string{"component"},
	)

	r.CentralitySources = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "transit_centrality_sources",
			Help:    "Number of BFS sources used per betweenness run",
			Buckets: []float64{10, 100, 1000, 10000, 100000},
		},
	)

	r.CentralitySampledRuns = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "transit_centrality_sampled_runs_total",
			Help: "Betweenness runs that used source sampling",
		},
	)

	r.RemovalStepsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "transit_vulnerability_removal_steps_total",
			Help: "Total node removals simulated",
		},
	)

	r.EquityGapsTotal = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "transit_equity_gaps",
			Help: "Equity gaps found in the last run, by severity",
		},
		[]string{"severity"},
	)

	r.SnapshotExportsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "transit_snapshot_exports_total",
			Help: "Total snapshot export attempts",
		},
		[]string{"destination", "status"},
	)
}
