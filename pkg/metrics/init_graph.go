package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphMetrics() {
	r.GraphNodesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "transit_graph_nodes",
			Help: "Number of stops in the analyzed graph",
		},
	)

	r.GraphEdgesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "transit_graph_edges",
			Help: "Number of undirected edges in the analyzed graph",
		},
	)

	r.GraphDensity = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "transit_graph_density",
			Help: "Edge density of the analyzed graph",
		},
	)

	r.CommunitiesDetected = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "transit_communities_detected",
			Help: "Communities found in the last detection run",
		},
	)

	r.ModularityScore = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "transit_modularity_score",
			Help: "Modularity of the last detected partition",
		},
	)
}
