package graph

// Node is a stop in the transit network. Nodes are immutable once the
// graph is built for an analysis run.
type Node struct {
	ID   string
	Name string
	Lat  float64
	Lon  float64
	Mode string // bus/rail/tram, empty when unknown
}

// NodeRecord is the external input form of a node, supplied by a loader.
type NodeRecord struct {
	ID   string
	Name string
	Lat  float64
	Lon  float64
	Mode string
}

// EdgeObservation is one observed scheduled connection between two stops.
// Multiple observations between the same pair fold into a single edge whose
// weight accumulates and whose trip count increments.
type EdgeObservation struct {
	FromID string
	ToID   string
	Weight float64
}

// Half is one directed half of an undirected edge, stored in the adjacency
// list of its From endpoint. To is an arena index, not a node ID.
type Half struct {
	To     int
	Weight float64
	Trips  int
}

// Edge is the enumeration form of an undirected edge, reported once with
// From < To in arena order.
type Edge struct {
	From   string
	To     string
	Weight float64
	Trips  int
}

// Stats summarizes graph size and density.
type Stats struct {
	NodeCount int     `json:"node_count"`
	EdgeCount int     `json:"edge_count"`
	Density   float64 `json:"density"`
}
