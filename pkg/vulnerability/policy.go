package vulnerability

import (
	"math/rand"
	"sort"

	"github.com/dd0wney/cluso-transit/pkg/centrality"
	"github.com/dd0wney/cluso-transit/pkg/graph"
)

// RemovalPolicy chooses the order in which nodes are removed. Policies are
// selected at configuration time and rank candidates against the original
// graph, before any removal.
type RemovalPolicy interface {
	// Name identifies the policy in reports and configuration.
	Name() string

	// Order returns every node ID in removal order.
	Order(g *graph.Graph) []string
}

// CentralityPolicy removes nodes by descending centrality score, ties broken
// by node ID ascending. Nodes absent from the score map rank as zero.
type CentralityPolicy struct {
	scores map[string]float64
}

// NewCentralityPolicy creates a policy over a centrality score map.
func NewCentralityPolicy(scores map[string]float64) *CentralityPolicy {
	return &CentralityPolicy{scores: scores}
}

func (p *CentralityPolicy) Name() string { return "centrality" }

func (p *CentralityPolicy) Order(g *graph.Graph) []string {
	return rankDescending(g.NodeIDs(), p.scores)
}

// DegreePolicy removes nodes by descending degree centrality, ties broken by
// node ID ascending.
type DegreePolicy struct{}

func (DegreePolicy) Name() string { return "degree" }

func (DegreePolicy) Order(g *graph.Graph) []string {
	return rankDescending(g.NodeIDs(), centrality.Degree(g))
}

// ClosenessPolicy removes nodes by descending closeness centrality, ties
// broken by node ID ascending. Targets nodes that can reach the rest of the
// network in the fewest hops.
type ClosenessPolicy struct{}

func (ClosenessPolicy) Name() string { return "closeness" }

func (ClosenessPolicy) Order(g *graph.Graph) []string {
	return rankDescending(g.NodeIDs(), centrality.Closeness(g))
}

// rankDescending orders ids by score descending, ties by ID ascending.
// IDs absent from the score map rank as zero.
func rankDescending(ids []string, scores map[string]float64) []string {
	sort.SliceStable(ids, func(i, j int) bool {
		si, sj := scores[ids[i]], scores[ids[j]]
		if si != sj {
			return si > sj
		}
		return ids[i] < ids[j]
	})
	return ids
}

// RandomPolicy removes nodes in a seeded random order, reproducible for a
// given seed.
type RandomPolicy struct {
	seed int64
}

// NewRandomPolicy creates a seeded random removal policy.
func NewRandomPolicy(seed int64) *RandomPolicy {
	return &RandomPolicy{seed: seed}
}

func (p *RandomPolicy) Name() string { return "random" }

func (p *RandomPolicy) Order(g *graph.Graph) []string {
	ids := g.NodeIDs()
	rng := rand.New(rand.NewSource(p.seed))
	rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
	return ids
}
