package centrality

import (
	"sort"

	"github.com/dd0wney/cluso-transit/pkg/graph"
)

// Degree computes degree centrality for all nodes, normalized by the
// maximum possible degree n-1.
func Degree(g *graph.Graph) map[string]float64 {
	n := g.Order()
	scores := make(map[string]float64, n)
	for i := 0; i < n; i++ {
		if n > 1 {
			scores[g.IDAt(i)] = float64(len(g.AdjAt(i))) / float64(n-1)
		} else {
			scores[g.IDAt(i)] = 0
		}
	}
	return scores
}

// Closeness computes closeness centrality for all nodes as reachable count
// over total hop distance, which stays meaningful on disconnected graphs.
func Closeness(g *graph.Graph) map[string]float64 {
	n := g.Order()
	scores := make(map[string]float64, n)

	for i := 0; i < n; i++ {
		dist := g.HopsFrom(i)
		totalDistance := 0
		reachable := 0
		for _, d := range dist {
			if d > 0 {
				totalDistance += d
				reachable++
			}
		}
		if totalDistance > 0 {
			scores[g.IDAt(i)] = float64(reachable) / float64(totalDistance)
		} else {
			scores[g.IDAt(i)] = 0
		}
	}
	return scores
}

// TopK returns the k highest-scoring nodes, ranked by score descending with
// ties broken by node ID ascending for deterministic listings.
func TopK(scores map[string]float64, k int) []RankedNode {
	ranked := make([]RankedNode, 0, len(scores))
	for id, score := range scores {
		ranked = append(ranked, RankedNode{ID: id, Score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ID < ranked[j].ID
	})
	if k > 0 && k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked
}
