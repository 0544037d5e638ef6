// Package metrics exposes prometheus instrumentation for analysis runs.
package metrics

import (
	"time"
)

// RecordAnalysis records one component run with its duration
func (r *Registry) RecordAnalysis(component, status string, duration time.Duration) {
	r.AnalysisRunsTotal.WithLabelValues(component, status).Inc()
	r.AnalysisDuration.WithLabelValues(component).Observe(duration.Seconds())
}

// UpdateGraphMetrics updates graph size gauges after a build
func (r *Registry) UpdateGraphMetrics(nodes, edges int, density float64) {
	r.GraphNodesTotal.Set(float64(nodes))
	r.GraphEdgesTotal.Set(float64(edges))
	r.GraphDensity.Set(density)
}

// UpdateCommunityMetrics updates community detection gauges
func (r *Registry) UpdateCommunityMetrics(communities int, modularity float64) {
	r.CommunitiesDetected.Set(float64(communities))
	r.ModularityScore.Set(modularity)
}

// RecordCentralityRun records sampling behavior of a betweenness run
func (r *Registry) RecordCentralityRun(sources int, sampled bool) {
	r.CentralitySources.Observe(float64(sources))
	if sampled {
		r.CentralitySampledRuns.Inc()
	}
}

// RecordRemovalSteps adds simulated removal steps
func (r *Registry) RecordRemovalSteps(steps int) {
	r.RemovalStepsTotal.Add(float64(steps))
}

// UpdateEquityGaps sets per-severity gap counts from the last run
func (r *Registry) UpdateEquityGaps(counts map[string]int) {
	for severity, count := range counts {
		r.EquityGapsTotal.WithLabelValues(severity).Set(float64(count))
	}
}

// RecordExport records a snapshot export attempt
func (r *Registry) RecordExport(destination, status string) {
	r.SnapshotExportsTotal.WithLabelValues(destination, status).Inc()
}
