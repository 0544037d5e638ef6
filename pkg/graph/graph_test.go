package graph

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

// buildTestGraph builds a graph from shorthand: node IDs and from->to pairs
// with unit weight per observation.
func buildTestGraph(t *testing.T, ids []string, pairs [][2]string) *Graph {
	t.Helper()

	nodes := make([]NodeRecord, len(ids))
	for i, id := range ids {
		nodes[i] = NodeRecord{ID: id}
	}
	obs := make([]EdgeObservation, len(pairs))
	for i, p := range pairs {
		obs[i] = EdgeObservation{FromID: p[0], ToID: p[1], Weight: 1.0}
	}

	g, err := Build(nodes, obs)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return g
}

func TestBuild_DuplicateNodeID(t *testing.T) {
	_, err := Build([]NodeRecord{{ID: "a"}, {ID: "a"}}, nil)
	if !errors.Is(err, ErrDuplicateNode) {
		t.Fatalf("expected ErrDuplicateNode, got %v", err)
	}
}

func TestBuild_UnknownNodeReference(t *testing.T) {
	_, err := Build(
		[]NodeRecord{{ID: "a"}},
		[]EdgeObservation{{FromID: "a", ToID: "ghost", Weight: 1}},
	)
	if !errors.Is(err, ErrUnknownNode) {
		t.Fatalf("expected ErrUnknownNode, got %v", err)
	}
}

func TestBuild_SelfLoopRejected(t *testing.T) {
	_, err := Build(
		[]NodeRecord{{ID: "a"}},
		[]EdgeObservation{{FromID: "a", ToID: "a", Weight: 1}},
	)
	if !errors.Is(err, ErrSelfLoop) {
		t.Fatalf("expected ErrSelfLoop, got %v", err)
	}
}

func TestBuild_FoldsParallelObservations(t *testing.T) {
	g, err := Build(
		[]NodeRecord{{ID: "a"}, {ID: "b"}},
		[]EdgeObservation{
			{FromID: "a", ToID: "b", Weight: 1.5},
			{FromID: "b", ToID: "a", Weight: 2.5},
		},
	)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if g.EdgeCount() != 1 {
		t.Errorf("expected 1 folded edge, got %d", g.EdgeCount())
	}

	edges := g.Edges()
	if len(edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(edges))
	}
	if edges[0].Weight != 4.0 {
		t.Errorf("expected accumulated weight 4.0, got %f", edges[0].Weight)
	}
	if edges[0].Trips != 2 {
		t.Errorf("expected multiplicity 2, got %d", edges[0].Trips)
	}
}

func TestNeighbors_SortedAndComplete(t *testing.T) {
	g := buildTestGraph(t,
		[]string{"c", "a", "b", "d"},
		[][2]string{{"c", "a"}, {"c", "d"}, {"c", "b"}},
	)

	got, err := g.Neighbors("c")
	if err != nil {
		t.Fatalf("Neighbors failed: %v", err)
	}
	want := []string{"a", "b", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	if _, err := g.Neighbors("ghost"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("expected ErrNodeNotFound, got %v", err)
	}
}

func TestDegree(t *testing.T) {
	g := buildTestGraph(t,
		[]string{"a", "b", "c"},
		[][2]string{{"a", "b"}, {"b", "c"}},
	)

	deg, err := g.Degree("b")
	if err != nil {
		t.Fatalf("Degree failed: %v", err)
	}
	if deg != 2 {
		t.Errorf("expected degree 2, got %d", deg)
	}
}

func TestStats_Density(t *testing.T) {
	// Triangle: density = 1.0
	g := buildTestGraph(t,
		[]string{"a", "b", "c"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}},
	)

	stats := g.Stats()
	if stats.NodeCount != 3 || stats.EdgeCount != 3 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	if math.Abs(stats.Density-1.0) > 1e-12 {
		t.Errorf("expected density 1.0, got %f", stats.Density)
	}
}

func TestSubgraph_RestrictsEdges(t *testing.T) {
	g := buildTestGraph(t,
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}},
	)

	sub := g.Subgraph([]string{"a", "b", "d"})
	if sub.Order() != 3 {
		t.Errorf("expected 3 nodes, got %d", sub.Order())
	}
	if sub.EdgeCount() != 1 {
		t.Errorf("expected only a-b to survive, got %d edges", sub.EdgeCount())
	}
}

func TestWithout_DoesNotMutateSource(t *testing.T) {
	g := buildTestGraph(t,
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}, {"d", "a"}},
	)

	beforeNodes, beforeEdges := g.Order(), g.EdgeCount()

	reduced := g.Without([]string{"b"})

	if g.Order() != beforeNodes || g.EdgeCount() != beforeEdges {
		t.Fatalf("source graph mutated: %d/%d -> %d/%d",
			beforeNodes, beforeEdges, g.Order(), g.EdgeCount())
	}
	if reduced.Order() != 3 {
		t.Errorf("expected 3 nodes after removal, got %d", reduced.Order())
	}
	if reduced.EdgeCount() != 2 {
		t.Errorf("expected 2 surviving edges, got %d", reduced.EdgeCount())
	}
	if _, ok := reduced.IndexOf("b"); ok {
		t.Error("removed node still present in derived graph")
	}
}

func TestComponents_TieBreaksByLowestMinID(t *testing.T) {
	// Two 2-node components; "a"-"b" must be reported as the largest.
	g := buildTestGraph(t,
		[]string{"a", "b", "y", "z"},
		[][2]string{{"y", "z"}, {"a", "b"}},
	)

	largest := g.LargestComponent()
	if len(largest) != 2 {
		t.Fatalf("expected component of size 2, got %d", len(largest))
	}
	if g.IDAt(largest[0]) != "a" {
		t.Errorf("tie should break toward lowest min node id, got %q", g.IDAt(largest[0]))
	}
}

func TestHopsFrom(t *testing.T) {
	g := buildTestGraph(t,
		[]string{"a", "b", "c", "x"},
		[][2]string{{"a", "b"}, {"b", "c"}},
	)

	src, _ := g.IndexOf("a")
	dist := g.HopsFrom(src)

	iB, _ := g.IndexOf("b")
	iC, _ := g.IndexOf("c")
	iX, _ := g.IndexOf("x")

	if dist[iB] != 1 || dist[iC] != 2 {
		t.Errorf("unexpected hop distances: b=%d c=%d", dist[iB], dist[iC])
	}
	if dist[iX] != -1 {
		t.Errorf("expected -1 for unreachable node, got %d", dist[iX])
	}
}
