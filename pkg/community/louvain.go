// Package community partitions a transit graph into service communities by
// modularity optimization (two-phase Louvain iterated to convergence).
package community

import (
	"github.com/dd0wney/cluso-transit/pkg/graph"
	"github.com/dd0wney/cluso-transit/pkg/logging"
)

const (
	// DefaultEpsilon is the modularity-improvement threshold below which
	// the level loop stops.
	DefaultEpsilon = 1e-6

	// DefaultMaxPasses bounds the local-moving passes within one level.
	DefaultMaxPasses = 100
)

// Result is the outcome of a detection run.
type Result struct {
	// Partition maps original node IDs to 0-indexed contiguous community
	// IDs. Every node is assigned exactly one community.
	Partition map[string]int

	// Modularity is the final Q score of the partition.
	Modularity float64

	// Communities is the number of distinct communities.
	Communities int

	// Levels is the number of aggregation levels performed.
	Levels int
}

// Detector runs Louvain community detection with configurable convergence.
type Detector struct {
	epsilon   float64
	maxPasses int
	logger    logging.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithEpsilon sets the modularity-improvement stop threshold.
func WithEpsilon(eps float64) Option {
	return func(d *Detector) { d.epsilon = eps }
}

// WithMaxPasses sets the maximum local-moving passes per level.
func WithMaxPasses(n int) Option {
	return func(d *Detector) { d.maxPasses = n }
}

// WithLogger sets the logger used for per-level progress.
func WithLogger(l logging.Logger) Option {
	return func(d *Detector) { d.logger = l }
}

// NewDetector creates a detector with the given options.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		epsilon:   DefaultEpsilon,
		maxPasses: DefaultMaxPasses,
		logger:    logging.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect partitions the graph. Node visitation follows ascending arena
// index (stable sort by node ID) and ties break toward the lowest community
// ID, so repeated runs on the same graph produce identical output.
//
// Empty or edgeless graphs yield a single community holding every node and
// modularity 0, never an error.
func (d *Detector) Detect(g *graph.Graph) *Result {
	n := g.Order()

	if n == 0 || g.EdgeCount() == 0 {
		partition := make(map[string]int, n)
		for _, id := range g.NodeIDs() {
			partition[id] = 0
		}
		communities := 0
		if n > 0 {
			communities = 1
		}
		return &Result{Partition: partition, Modularity: 0, Communities: communities, Levels: 0}
	}

	lv := levelFromGraph(g)

	// origCom[v] tracks the current community of original node v across
	// aggregation levels.
	origCom := make([]int, n)
	for i := range origCom {
		origCom[i] = i
	}

	levels := 0
	best := lv.modularity(identityAssignment(lv.order()))

	for {
		assignment, moved := d.oneLevel(lv)
		if !moved {
			break
		}

		assignment, count := renumber(assignment)
		for v := range origCom {
			origCom[v] = assignment[origCom[v]]
		}

		lv = lv.aggregate(assignment, count)
		levels++

		q := lv.modularity(identityAssignment(lv.order()))
		d.logger.Debug("louvain level complete",
			logging.Int("level", levels),
			logging.Int("communities", count),
			logging.Float64("modularity", q),
		)
		if q-best < d.epsilon {
			best = max(best, q)
			break
		}
		best = q
	}

	partition := make(map[string]int, n)
	for v := 0; v < n; v++ {
		partition[g.IDAt(v)] = origCom[v]
	}
	// Final renumber keeps community IDs contiguous even when no level ran.
	partition, count := renumberPartition(g, partition)

	return &Result{
		Partition:   partition,
		Modularity:  best,
		Communities: count,
		Levels:      levels,
	}
}

// oneLevel runs the local moving phase on a level graph. Returns the
// community assignment per super-node and whether any node moved.
func (d *Detector) oneLevel(lv *level) ([]int, bool) {
	n := lv.order()
	com := identityAssignment(n)

	// sumTot[c] is the sum of weighted degrees of members of c.
	sumTot := make([]float64, n)
	k := make([]float64, n)
	for i := 0; i < n; i++ {
		k[i] = lv.weightedDegree(i)
		sumTot[i] = k[i]
	}

	inv2m := 1.0 / (2.0 * lv.m)
	anyMoved := false

	for pass := 0; pass < d.maxPasses; pass++ {
		movedThisPass := false

		for i := 0; i < n; i++ {
			current := com[i]

			// Weight from i to each neighboring community.
			w2c := make(map[int]float64)
			for _, h := range lv.adj[i] {
				w2c[com[h.to]] += h.w
			}

			sumTot[current] -= k[i]

			bestCom := current
			bestGain := w2c[current] - sumTot[current]*k[i]*inv2m

			for c, w := range w2c {
				if c == current {
					continue
				}
				gain := w - sumTot[c]*k[i]*inv2m
				if gain > bestGain || (gain == bestGain && c < bestCom) {
					bestGain = gain
					bestCom = c
				}
			}

			sumTot[bestCom] += k[i]
			if bestCom != current {
				com[i] = bestCom
				movedThisPass = true
				anyMoved = true
			}
		}

		if !movedThisPass {
			break
		}
	}

	return com, anyMoved
}

func identityAssignment(n int) []int {
	a := make([]int, n)
	for i := range a {
		a[i] = i
	}
	return a
}

// renumber maps arbitrary community labels to contiguous 0-indexed IDs
// ordered by lowest member index, which keeps output deterministic.
func renumber(assignment []int) ([]int, int) {
	next := 0
	seen := make(map[int]int, len(assignment))
	out := make([]int, len(assignment))
	for i, c := range assignment {
		id, ok := seen[c]
		if !ok {
			id = next
			seen[c] = id
			next++
		}
		out[i] = id
	}
	return out, next
}

// renumberPartition renumbers a node-ID partition contiguously in ascending
// node-ID order.
func renumberPartition(g *graph.Graph, partition map[string]int) (map[string]int, int) {
	next := 0
	seen := make(map[int]int)
	out := make(map[string]int, len(partition))
	for _, id := range g.NodeIDs() {
		c := partition[id]
		nc, ok := seen[c]
		if !ok {
			nc = next
			seen[c] = nc
			next++
		}
		out[id] = nc
	}
	return out, next
}
