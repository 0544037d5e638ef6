package community

import (
	"math"
	"sort"

	"github.com/dd0wney/cluso-transit/pkg/graph"
)

// Summary describes one detected community.
type Summary struct {
	ID        int     `json:"id"`
	Size      int     `json:"size"`
	Density   float64 `json:"density"`
	AvgDegree float64 `json:"avg_degree"`
	CenterLat float64 `json:"center_lat"`
	CenterLon float64 `json:"center_lon"`
	Radius    float64 `json:"radius"` // std dev of lat + std dev of lon
}

// Summarize computes per-community structural and geographic summaries,
// ordered by community ID.
func Summarize(g *graph.Graph, partition map[string]int) []Summary {
	members := make(map[int][]string)
	for id, c := range partition {
		members[c] = append(members[c], id)
	}

	ids := make([]int, 0, len(members))
	for c := range members {
		ids = append(ids, c)
	}
	sort.Ints(ids)

	summaries := make([]Summary, 0, len(ids))
	for _, c := range ids {
		nodes := members[c]
		sort.Strings(nodes)
		sub := g.Subgraph(nodes)
		stats := sub.Stats()

		avgDegree := 0.0
		if stats.NodeCount > 0 {
			avgDegree = 2.0 * float64(stats.EdgeCount) / float64(stats.NodeCount)
		}

		lat, lon, radius := centroid(g, nodes)

		summaries = append(summaries, Summary{
			ID:        c,
			Size:      len(nodes),
			Density:   stats.Density,
			AvgDegree: avgDegree,
			CenterLat: lat,
			CenterLon: lon,
			Radius:    radius,
		})
	}
	return summaries
}

// centroid returns the mean coordinate of member nodes and an approximate
// radius (std dev of latitudes plus std dev of longitudes).
func centroid(g *graph.Graph, nodes []string) (lat, lon, radius float64) {
	if len(nodes) == 0 {
		return 0, 0, 0
	}

	var sumLat, sumLon float64
	for _, id := range nodes {
		i, ok := g.IndexOf(id)
		if !ok {
			continue
		}
		n := g.NodeAt(i)
		sumLat += n.Lat
		sumLon += n.Lon
	}
	count := float64(len(nodes))
	lat = sumLat / count
	lon = sumLon / count

	var varLat, varLon float64
	for _, id := range nodes {
		i, ok := g.IndexOf(id)
		if !ok {
			continue
		}
		n := g.NodeAt(i)
		varLat += (n.Lat - lat) * (n.Lat - lat)
		varLon += (n.Lon - lon) * (n.Lon - lon)
	}
	radius = math.Sqrt(varLat/count) + math.Sqrt(varLon/count)
	return lat, lon, radius
}
