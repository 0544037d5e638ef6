package community

import (
	"sort"

	"github.com/dd0wney/cluso-transit/pkg/graph"
)

// halfEdge is one directed half of an undirected super-edge inside a level
// arena.
type halfEdge struct {
	to int
	w  float64
}

// level is one Louvain aggregation level: a fresh arena of super-nodes.
// Intra-community weight collapsed into a super-node is tracked in self, a
// separate counter, never as a self-loop edge.
type level struct {
	adj  [][]halfEdge
	self []float64
	m    float64 // total edge weight including self weights
}

func (lv *level) order() int {
	return len(lv.adj)
}

// weightedDegree is the Louvain degree of a super-node: incident edge
// weights plus twice the internal self weight.
func (lv *level) weightedDegree(i int) float64 {
	total := 2.0 * lv.self[i]
	for _, h := range lv.adj[i] {
		total += h.w
	}
	return total
}

// levelFromGraph builds the level-0 arena from the original graph.
func levelFromGraph(g *graph.Graph) *level {
	n := g.Order()
	lv := &level{
		adj:  make([][]halfEdge, n),
		self: make([]float64, n),
		m:    g.TotalWeight(),
	}
	for i := 0; i < n; i++ {
		halves := g.AdjAt(i)
		lv.adj[i] = make([]halfEdge, len(halves))
		for k, h := range halves {
			lv.adj[i][k] = halfEdge{to: h.To, w: h.Weight}
		}
	}
	return lv
}

// aggregate collapses each community into a single super-node on a new
// arena. Inter-community edge weights sum; intra-community weight (including
// carried self weights) accumulates into the super-node's self counter.
// The assignment must already be renumbered to 0..count-1.
func (lv *level) aggregate(assignment []int, count int) *level {
	next := &level{
		adj:  make([][]halfEdge, count),
		self: make([]float64, count),
		m:    lv.m,
	}

	cross := make([]map[int]float64, count)

	for i := range lv.adj {
		ci := assignment[i]
		next.self[ci] += lv.self[i]
		for _, h := range lv.adj[i] {
			if h.to < i {
				continue // count each undirected edge once
			}
			cj := assignment[h.to]
			if ci == cj {
				next.self[ci] += h.w
				continue
			}
			lo, hi := ci, cj
			if hi < lo {
				lo, hi = hi, lo
			}
			if cross[lo] == nil {
				cross[lo] = make(map[int]float64)
			}
			cross[lo][hi] += h.w
		}
	}

	for lo, row := range cross {
		if row == nil {
			continue
		}
		his := make([]int, 0, len(row))
		for hi := range row {
			his = append(his, hi)
		}
		sort.Ints(his)
		for _, hi := range his {
			w := row[hi]
			next.adj[lo] = append(next.adj[lo], halfEdge{to: hi, w: w})
			next.adj[hi] = append(next.adj[hi], halfEdge{to: lo, w: w})
		}
	}

	for i := range next.adj {
		sort.Slice(next.adj[i], func(a, b int) bool { return next.adj[i][a].to < next.adj[i][b].to })
	}

	return next
}

// modularity computes Q for a community assignment over this level using
// Q = sum_c ( in_c/(2m) - (tot_c/(2m))^2 ).
func (lv *level) modularity(assignment []int) float64 {
	count := 0
	for _, c := range assignment {
		if c+1 > count {
			count = c + 1
		}
	}

	in := make([]float64, count)  // twice the internal weight per community
	tot := make([]float64, count) // sum of weighted degrees per community

	for i := range lv.adj {
		ci := assignment[i]
		tot[ci] += lv.weightedDegree(i)
		in[ci] += 2.0 * lv.self[i]
		for _, h := range lv.adj[i] {
			if assignment[h.to] == ci {
				in[ci] += h.w // each internal edge seen from both halves
			}
		}
	}

	q := 0.0
	twoM := 2.0 * lv.m
	for c := 0; c < count; c++ {
		frac := tot[c] / twoM
		q += in[c]/twoM - frac*frac
	}
	return q
}
