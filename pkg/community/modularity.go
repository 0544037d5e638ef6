package community

import (
	"github.com/dd0wney/cluso-transit/pkg/graph"
)

// Modularity recomputes Q for a partition directly from the graph using
// Q = (1/2m) sum_ij [A_ij - k_i*k_j/2m] delta(c_i, c_j), folded per
// community. Intended for verification against Detector output.
func Modularity(g *graph.Graph, partition map[string]int) float64 {
	m := g.TotalWeight()
	if m == 0 {
		return 0
	}

	count := 0
	for _, c := range partition {
		if c+1 > count {
			count = c + 1
		}
	}

	in := make([]float64, count)
	tot := make([]float64, count)

	for i := 0; i < g.Order(); i++ {
		ci, ok := partition[g.IDAt(i)]
		if !ok {
			continue
		}
		tot[ci] += g.WeightedDegreeAt(i)
		for _, h := range g.AdjAt(i) {
			if cj, ok := partition[g.IDAt(h.To)]; ok && cj == ci {
				in[ci] += h.Weight
			}
		}
	}

	q := 0.0
	twoM := 2.0 * m
	for c := 0; c < count; c++ {
		frac := tot[c] / twoM
		q += in[c]/twoM - frac*frac
	}
	return q
}
