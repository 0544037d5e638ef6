package graph

import (
	"sort"
)

// Build constructs an immutable weighted undirected graph from node records
// and edge observations. Node order in the arena is a stable sort by node ID
// so that every downstream computation sees a deterministic visitation order.
//
// Multiple observations between the same stop pair collapse into one edge:
// weight accumulates, trip multiplicity increments. An observation that
// references an unknown node, a duplicated node ID, or a self-loop fails the
// whole build with an InputError; no partial graph is returned.
func Build(nodes []NodeRecord, observations []EdgeObservation) (*Graph, error) {
	records := make([]NodeRecord, len(nodes))
	copy(records, nodes)
	sort.SliceStable(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	g := &Graph{
		nodes: make([]Node, 0, len(records)),
		index: make(map[string]int, len(records)),
	}

	for _, rec := range records {
		if _, exists := g.index[rec.ID]; exists {
			return nil, duplicateNodeError(rec.ID)
		}
		g.index[rec.ID] = len(g.nodes)
		g.nodes = append(g.nodes, Node{
			ID:   rec.ID,
			Name: rec.Name,
			Lat:  rec.Lat,
			Lon:  rec.Lon,
			Mode: rec.Mode,
		})
	}

	// Fold observations into per-pair accumulators keyed by (low, high)
	// arena index so that duplicate pairs in either direction merge.
	type acc struct {
		weight float64
		trips  int
	}
	pairs := make(map[[2]int]*acc)

	for _, obs := range observations {
		from, ok := g.index[obs.FromID]
		if !ok {
			return nil, unknownNodeError(obs.FromID, obs.ToID, obs.FromID)
		}
		to, ok := g.index[obs.ToID]
		if !ok {
			return nil, unknownNodeError(obs.FromID, obs.ToID, obs.ToID)
		}
		if from == to {
			return nil, selfLoopError(obs.FromID)
		}

		key := [2]int{from, to}
		if to < from {
			key = [2]int{to, from}
		}
		a, exists := pairs[key]
		if !exists {
			a = &acc{}
			pairs[key] = a
		}
		a.weight += obs.Weight
		a.trips++
	}

	g.adj = make([][]Half, len(g.nodes))
	for key, a := range pairs {
		lo, hi := key[0], key[1]
		g.adj[lo] = append(g.adj[lo], Half{To: hi, Weight: a.weight, Trips: a.trips})
		g.adj[hi] = append(g.adj[hi], Half{To: lo, Weight: a.weight, Trips: a.trips})
		g.edgeCount++
		g.totalWeight += a.weight
	}

	for i := range g.adj {
		sort.Slice(g.adj[i], func(a, b int) bool { return g.adj[i][a].To < g.adj[i][b].To })
	}

	return g, nil
}
