package community

import (
	"fmt"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dd0wney/cluso-transit/pkg/graph"
	"github.com/dd0wney/cluso-transit/pkg/logging"
)

func buildGraph(t *testing.T, ids []string, pairs [][2]string) *graph.Graph {
	t.Helper()
	nodes := make([]graph.NodeRecord, len(ids))
	for i, id := range ids {
		nodes[i] = graph.NodeRecord{ID: id}
	}
	obs := make([]graph.EdgeObservation, len(pairs))
	for i, p := range pairs {
		obs[i] = graph.EdgeObservation{FromID: p[0], ToID: p[1], Weight: 1.0}
	}
	g, err := graph.Build(nodes, obs)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return g
}

func bowtieGraph(t *testing.T) *graph.Graph {
	t.Helper()
	return buildGraph(t,
		[]string{"a", "b", "m", "x", "y"},
		[][2]string{
			{"a", "b"}, {"a", "m"}, {"b", "m"},
			{"x", "y"}, {"x", "m"}, {"y", "m"},
		},
	)
}

func newTestDetector(opts ...Option) *Detector {
	return NewDetector(append([]Option{WithLogger(logging.NewNopLogger())}, opts...)...)
}

func TestDetect_EmptyGraph(t *testing.T) {
	g := buildGraph(t, nil, nil)

	result := newTestDetector().Detect(g)

	if result.Modularity != 0 {
		t.Errorf("expected modularity 0, got %f", result.Modularity)
	}
	if len(result.Partition) != 0 {
		t.Errorf("expected empty partition, got %v", result.Partition)
	}
	if result.Communities != 0 {
		t.Errorf("expected 0 communities, got %d", result.Communities)
	}
}

func TestDetect_EdgelessGraph(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c"}, nil)

	result := newTestDetector().Detect(g)

	if result.Communities != 1 {
		t.Fatalf("expected a single community, got %d", result.Communities)
	}
	for id, c := range result.Partition {
		if c != 0 {
			t.Errorf("node %s assigned community %d, expected 0", id, c)
		}
	}
	if result.Modularity != 0 {
		t.Errorf("expected modularity 0, got %f", result.Modularity)
	}
}

func TestDetect_Cycle4_ModularityZero(t *testing.T) {
	g := buildGraph(t,
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}, {"d", "a"}},
	)

	result := newTestDetector().Detect(g)

	if math.Abs(result.Modularity) > 1e-9 {
		t.Errorf("symmetric cycle should have modularity 0, got %f", result.Modularity)
	}
	if len(result.Partition) != 4 {
		t.Errorf("partition must cover all 4 nodes, got %d", len(result.Partition))
	}

	recomputed := Modularity(g, result.Partition)
	if math.Abs(recomputed-result.Modularity) > 1e-9 {
		t.Errorf("reported %f differs from recomputed %f", result.Modularity, recomputed)
	}
}

func TestDetect_Bowtie_TwoCommunities(t *testing.T) {
	g := bowtieGraph(t)

	result := newTestDetector().Detect(g)

	if result.Communities != 2 {
		t.Fatalf("expected exactly 2 communities, got %d", result.Communities)
	}

	// One triangle plus the bridge node on one side, the opposite pair on
	// the other.
	if result.Partition["a"] != result.Partition["b"] {
		t.Error("a and b should share a community")
	}
	if result.Partition["x"] != result.Partition["y"] {
		t.Error("x and y should share a community")
	}
	if result.Partition["a"] == result.Partition["x"] {
		t.Error("the two triangles should separate")
	}

	if math.Abs(result.Modularity-1.0/9.0) > 1e-9 {
		t.Errorf("expected modularity 1/9, got %f", result.Modularity)
	}
}

func TestDetect_TwoCliquesWithBridgeEdge(t *testing.T) {
	// Two 4-cliques joined by a single edge.
	var ids []string
	var pairs [][2]string
	for _, prefix := range []string{"l", "r"} {
		group := make([]string, 4)
		for i := range group {
			group[i] = fmt.Sprintf("%s%d", prefix, i)
			ids = append(ids, group[i])
		}
		for i := 0; i < 4; i++ {
			for j := i + 1; j < 4; j++ {
				pairs = append(pairs, [2]string{group[i], group[j]})
			}
		}
	}
	pairs = append(pairs, [2]string{"l0", "r0"})
	g := buildGraph(t, ids, pairs)

	result := newTestDetector().Detect(g)

	if result.Communities != 2 {
		t.Fatalf("expected 2 communities, got %d", result.Communities)
	}
	for i := 1; i < 4; i++ {
		if result.Partition[fmt.Sprintf("l%d", i)] != result.Partition["l0"] {
			t.Errorf("left clique split: %v", result.Partition)
		}
		if result.Partition[fmt.Sprintf("r%d", i)] != result.Partition["r0"] {
			t.Errorf("right clique split: %v", result.Partition)
		}
	}
	if result.Modularity <= 0.3 {
		t.Errorf("two cliques should score well above 0.3, got %f", result.Modularity)
	}
}

func TestDetect_Idempotent(t *testing.T) {
	g := bowtieGraph(t)
	d := newTestDetector()

	first := d.Detect(g)
	second := d.Detect(g)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated detection differs:\n%+v\n%+v", first, second)
	}
}

func TestDetect_CommunityIDsContiguous(t *testing.T) {
	g := bowtieGraph(t)

	result := newTestDetector().Detect(g)

	seen := make(map[int]bool)
	for _, c := range result.Partition {
		seen[c] = true
	}
	for c := 0; c < result.Communities; c++ {
		if !seen[c] {
			t.Errorf("community id %d unused; ids must be 0-indexed contiguous", c)
		}
	}
	if len(seen) != result.Communities {
		t.Errorf("found %d distinct ids, result says %d", len(seen), result.Communities)
	}
}

// TestDetect_Properties verifies partition invariants over random graphs.
func TestDetect_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30

	properties := gopter.NewProperties(parameters)

	makeGraph := func(seed int64, n int) *graph.Graph {
		rng := rand.New(rand.NewSource(seed))
		nodes := make([]graph.NodeRecord, n)
		for i := range nodes {
			nodes[i] = graph.NodeRecord{ID: fmt.Sprintf("stop-%03d", i)}
		}
		var obs []graph.EdgeObservation
		for i := 0; i < n*2; i++ {
			a := rng.Intn(n)
			b := rng.Intn(n)
			if a == b {
				continue
			}
			obs = append(obs, graph.EdgeObservation{
				FromID: nodes[a].ID, ToID: nodes[b].ID, Weight: 1.0 + rng.Float64(),
			})
		}
		g, err := graph.Build(nodes, obs)
		if err != nil {
			panic(err)
		}
		return g
	}

	properties.Property("partition covers every node exactly once", prop.ForAll(
		func(seed int64, n int) bool {
			g := makeGraph(seed, n)
			result := newTestDetector().Detect(g)
			if len(result.Partition) != g.Order() {
				return false
			}
			for _, id := range g.NodeIDs() {
				if _, ok := result.Partition[id]; !ok {
					return false
				}
			}
			return true
		},
		gen.Int64(),
		gen.IntRange(1, 50),
	))

	properties.Property("reported modularity equals direct recomputation", prop.ForAll(
		func(seed int64, n int) bool {
			g := makeGraph(seed, n)
			result := newTestDetector().Detect(g)
			return math.Abs(result.Modularity-Modularity(g, result.Partition)) < 1e-9
		},
		gen.Int64(),
		gen.IntRange(2, 50),
	))

	properties.TestingRun(t)
}

func TestModularity_KnownPartition(t *testing.T) {
	g := bowtieGraph(t)

	partition := map[string]int{"a": 0, "b": 0, "m": 0, "x": 1, "y": 1}
	q := Modularity(g, partition)
	if math.Abs(q-1.0/9.0) > 1e-12 {
		t.Errorf("expected 1/9, got %f", q)
	}

	// Single community scores 0 by construction.
	all := map[string]int{"a": 0, "b": 0, "m": 0, "x": 0, "y": 0}
	if q := Modularity(g, all); math.Abs(q) > 1e-12 {
		t.Errorf("single community should score 0, got %f", q)
	}
}

func TestSummarize(t *testing.T) {
	nodes := []graph.NodeRecord{
		{ID: "a", Lat: 53.48, Lon: -2.24},
		{ID: "b", Lat: 53.50, Lon: -2.24},
		{ID: "c", Lat: 53.49, Lon: -2.26},
		{ID: "z", Lat: 53.40, Lon: -2.00},
	}
	obs := []graph.EdgeObservation{
		{FromID: "a", ToID: "b", Weight: 1},
		{FromID: "b", ToID: "c", Weight: 1},
		{FromID: "c", ToID: "a", Weight: 1},
	}
	g, err := graph.Build(nodes, obs)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	partition := map[string]int{"a": 0, "b": 0, "c": 0, "z": 1}
	summaries := Summarize(g, partition)

	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	tri := summaries[0]
	if tri.Size != 3 || math.Abs(tri.Density-1.0) > 1e-12 {
		t.Errorf("triangle summary wrong: %+v", tri)
	}
	if math.Abs(tri.AvgDegree-2.0) > 1e-12 {
		t.Errorf("expected avg degree 2, got %f", tri.AvgDegree)
	}
	if math.Abs(tri.CenterLat-53.49) > 1e-9 {
		t.Errorf("unexpected centroid lat %f", tri.CenterLat)
	}
	if summaries[1].Size != 1 {
		t.Errorf("singleton summary wrong: %+v", summaries[1])
	}
}
