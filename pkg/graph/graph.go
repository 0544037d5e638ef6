package graph

import (
	"sort"
)

// Graph is an immutable weighted undirected graph over transit stops.
// Nodes live in an arena indexed by dense ints assigned in ascending ID
// order; adjacency lists hold arena indices. Once built, a Graph is never
// mutated and is safe to share across concurrent readers. Derived graphs
// (Subgraph, Without) are fresh arenas; the source remains valid.
type Graph struct {
	nodes       []Node
	index       map[string]int
	adj         [][]Half
	edgeCount   int
	totalWeight float64
}

// Order returns the number of nodes.
func (g *Graph) Order() int {
	return len(g.nodes)
}

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	return g.edgeCount
}

// TotalWeight returns the sum of all edge weights, each edge counted once.
func (g *Graph) TotalWeight() float64 {
	return g.totalWeight
}

// Stats returns node count, edge count and density.
func (g *Graph) Stats() Stats {
	n := len(g.nodes)
	density := 0.0
	if n > 1 {
		density = 2.0 * float64(g.edgeCount) / float64(n*(n-1))
	}
	return Stats{NodeCount: n, EdgeCount: g.edgeCount, Density: density}
}

// NodeAt returns the node at the given arena index.
func (g *Graph) NodeAt(i int) Node {
	return g.nodes[i]
}

// IDAt returns the node ID at the given arena index.
func (g *Graph) IDAt(i int) string {
	return g.nodes[i].ID
}

// IndexOf returns the arena index for a node ID.
func (g *Graph) IndexOf(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// NodeIDs returns all node IDs in ascending order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		ids[i] = n.ID
	}
	return ids
}

// AdjAt returns the adjacency list of the node at the given arena index.
// The returned slice is shared and must not be modified.
func (g *Graph) AdjAt(i int) []Half {
	return g.adj[i]
}

// Neighbors returns the IDs of nodes adjacent to the given node, in
// ascending order.
func (g *Graph) Neighbors(id string) ([]string, error) {
	i, ok := g.index[id]
	if !ok {
		return nil, nodeNotFoundError("neighbors", id)
	}
	out := make([]string, len(g.adj[i]))
	for k, h := range g.adj[i] {
		out[k] = g.nodes[h.To].ID
	}
	return out, nil
}

// Degree returns the number of edges incident to the given node.
func (g *Graph) Degree(id string) (int, error) {
	i, ok := g.index[id]
	if !ok {
		return 0, nodeNotFoundError("degree", id)
	}
	return len(g.adj[i]), nil
}

// WeightedDegreeAt returns the sum of incident edge weights for the node at
// the given arena index.
func (g *Graph) WeightedDegreeAt(i int) float64 {
	total := 0.0
	for _, h := range g.adj[i] {
		total += h.Weight
	}
	return total
}

// Edges enumerates all undirected edges once, ordered by (from, to) arena
// index.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.edgeCount)
	for i, halves := range g.adj {
		for _, h := range halves {
			if h.To > i {
				out = append(out, Edge{
					From:   g.nodes[i].ID,
					To:     g.nodes[h.To].ID,
					Weight: h.Weight,
					Trips:  h.Trips,
				})
			}
		}
	}
	return out
}

// Subgraph returns a new graph restricted to the given node IDs and the
// edges among them. Unknown IDs are ignored. The source graph is not
// modified.
func (g *Graph) Subgraph(ids []string) *Graph {
	keep := make(map[int]bool, len(ids))
	for _, id := range ids {
		if i, ok := g.index[id]; ok {
			keep[i] = true
		}
	}
	return g.restrict(keep)
}

// Without returns a new graph excluding the given node IDs and every edge
// touching them. Unknown IDs are ignored. The source graph remains valid
// for concurrent readers.
func (g *Graph) Without(ids []string) *Graph {
	drop := make(map[int]bool, len(ids))
	for _, id := range ids {
		if i, ok := g.index[id]; ok {
			drop[i] = true
		}
	}
	keep := make(map[int]bool, len(g.nodes)-len(drop))
	for i := range g.nodes {
		if !drop[i] {
			keep[i] = true
		}
	}
	return g.restrict(keep)
}

// restrict builds a fresh arena containing only the kept indices. Relative
// node order is preserved, so the derived arena stays sorted by ID.
func (g *Graph) restrict(keep map[int]bool) *Graph {
	sub := &Graph{
		nodes: make([]Node, 0, len(keep)),
		index: make(map[string]int, len(keep)),
	}
	remap := make(map[int]int, len(keep))

	for i, n := range g.nodes {
		if !keep[i] {
			continue
		}
		remap[i] = len(sub.nodes)
		sub.index[n.ID] = len(sub.nodes)
		sub.nodes = append(sub.nodes, n)
	}

	sub.adj = make([][]Half, len(sub.nodes))
	for i, halves := range g.adj {
		ni, ok := remap[i]
		if !ok {
			continue
		}
		for _, h := range halves {
			nj, ok := remap[h.To]
			if !ok {
				continue
			}
			sub.adj[ni] = append(sub.adj[ni], Half{To: nj, Weight: h.Weight, Trips: h.Trips})
			if nj > ni {
				sub.edgeCount++
				sub.totalWeight += h.Weight
			}
		}
	}
	return sub
}

// HopsFrom runs an unweighted BFS from the node at the given arena index
// and returns hop distances, -1 for unreachable nodes.
func (g *Graph) HopsFrom(source int) []int {
	dist := make([]int, len(g.nodes))
	for i := range dist {
		dist[i] = -1
	}
	dist[source] = 0

	queue := make([]int, 0, len(g.nodes))
	queue = append(queue, source)
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, h := range g.adj[v] {
			if dist[h.To] < 0 {
				dist[h.To] = dist[v] + 1
				queue = append(queue, h.To)
			}
		}
	}
	return dist
}

// Components returns the connected components of the graph as slices of
// arena indices. Components are ordered by their lowest member index and
// each component's members are ascending.
func (g *Graph) Components() [][]int {
	visited := make([]bool, len(g.nodes))
	var components [][]int

	for start := range g.nodes {
		if visited[start] {
			continue
		}
		component := []int{}
		queue := []int{start}
		visited[start] = true
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			component = append(component, v)
			for _, h := range g.adj[v] {
				if !visited[h.To] {
					visited[h.To] = true
					queue = append(queue, h.To)
				}
			}
		}
		sort.Ints(component)
		components = append(components, component)
	}
	return components
}

// LargestComponent returns the largest connected component by node count.
// Ties break toward the component containing the lowest minimum node ID,
// which is the lowest minimum arena index since the arena is ID-sorted.
// Returns nil for an empty graph.
func (g *Graph) LargestComponent() []int {
	var largest []int
	for _, c := range g.Components() {
		if len(c) > len(largest) {
			largest = c
		}
	}
	return largest
}
