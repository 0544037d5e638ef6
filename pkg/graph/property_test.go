package graph

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// randomGraph builds a random graph with n nodes and roughly n*avgDeg/2
// observations, all derived from the seed for reproducibility.
func randomGraph(seed int64, n int) *Graph {
	rng := rand.New(rand.NewSource(seed))

	nodes := make([]NodeRecord, n)
	for i := range nodes {
		nodes[i] = NodeRecord{ID: fmt.Sprintf("stop-%03d", i)}
	}

	var obs []EdgeObservation
	for i := 0; i < n*2; i++ {
		a := rng.Intn(n)
		b := rng.Intn(n)
		if a == b {
			continue
		}
		obs = append(obs, EdgeObservation{
			FromID: nodes[a].ID,
			ToID:   nodes[b].ID,
			Weight: 1.0 + rng.Float64(),
		})
	}

	g, err := Build(nodes, obs)
	if err != nil {
		panic(err)
	}
	return g
}

// TestGraphInvariants verifies structural invariants that must hold for any
// built graph and any derived graph.
func TestGraphInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	// Property 1: Without never mutates the source graph.
	properties.Property("Without preserves the source graph", prop.ForAll(
		func(seed int64, n int, removals int) bool {
			g := randomGraph(seed, n)
			beforeNodes := g.Order()
			beforeEdges := g.EdgeCount()

			rng := rand.New(rand.NewSource(seed + 1))
			ids := g.NodeIDs()
			var toRemove []string
			for i := 0; i < removals && i < len(ids); i++ {
				toRemove = append(toRemove, ids[rng.Intn(len(ids))])
			}

			derived := g.Without(toRemove)
			if g.Order() != beforeNodes || g.EdgeCount() != beforeEdges {
				return false
			}
			for _, id := range toRemove {
				if _, ok := derived.IndexOf(id); ok {
					return false
				}
			}
			return true
		},
		gen.Int64(),
		gen.IntRange(2, 40),
		gen.IntRange(0, 10),
	))

	// Property 2: every edge endpoint resolves to a node in the arena and
	// adjacency is symmetric with matching weights.
	properties.Property("adjacency is symmetric over present nodes", prop.ForAll(
		func(seed int64, n int) bool {
			g := randomGraph(seed, n)
			for i := 0; i < g.Order(); i++ {
				for _, h := range g.AdjAt(i) {
					if h.To < 0 || h.To >= g.Order() || h.To == i {
						return false
					}
					found := false
					for _, back := range g.AdjAt(h.To) {
						if back.To == i && back.Weight == h.Weight {
							found = true
							break
						}
					}
					if !found {
						return false
					}
				}
			}
			return true
		},
		gen.Int64(),
		gen.IntRange(2, 40),
	))

	// Property 3: subgraph of the full node set equals the original.
	properties.Property("full subgraph preserves counts", prop.ForAll(
		func(seed int64, n int) bool {
			g := randomGraph(seed, n)
			sub := g.Subgraph(g.NodeIDs())
			return sub.Order() == g.Order() &&
				sub.EdgeCount() == g.EdgeCount() &&
				sub.TotalWeight() == g.TotalWeight()
		},
		gen.Int64(),
		gen.IntRange(2, 40),
	))

	properties.TestingRun(t)
}
