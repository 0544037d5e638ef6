// Package vulnerability quantifies network resilience by simulating node
// failures and measuring connectivity degradation after each removal.
package vulnerability

import (
	"context"
	"math/rand"
	"sort"

	"github.com/dd0wney/cluso-transit/pkg/graph"
	"github.com/dd0wney/cluso-transit/pkg/logging"
)

const (
	// PathUndefined is the avg_path_length sentinel recorded when the
	// largest component has fewer than 2 nodes.
	PathUndefined = -1.0

	// DefaultPathSampleThreshold is the component size above which average
	// path length is estimated from sampled BFS sources instead of all of
	// them.
	DefaultPathSampleThreshold = 1000

	pathSampleSources = 256
)

// Step records the network state after one removal.
type Step struct {
	Step                 int     `json:"step"`
	RemovedNode          string  `json:"removed_node"`
	LargestComponentSize int     `json:"largest_component_size"`
	AvgPathLength        float64 `json:"avg_path_length"`
	PathLengthDefined    bool    `json:"path_length_defined"`

	// DisconnectedCommunities counts neighbor communities cut off from the
	// removed node's own community. Zero when no partition was supplied.
	DisconnectedCommunities int `json:"disconnected_communities"`
}

// Report is the ordered outcome of one simulation run.
type Report struct {
	Policy string `json:"policy"`
	Budget int    `json:"budget"`
	Steps  []Step `json:"steps"`
}

// Simulator removes nodes one at a time from a private working copy and
// measures degradation. The source graph is never mutated; concurrent runs
// are independent.
type Simulator struct {
	budget              int
	policy              RemovalPolicy
	partition           map[string]int
	pathSampleThreshold int
	seed                int64
	logger              logging.Logger
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithPartition supplies a community partition so each step also records
// community-level impact.
func WithPartition(partition map[string]int) Option {
	return func(s *Simulator) { s.partition = partition }
}

// WithPathSampleThreshold sets the component size above which average path
// length is sampled.
func WithPathSampleThreshold(n int) Option {
	return func(s *Simulator) { s.pathSampleThreshold = n }
}

// WithSeed sets the seed used for path-length source sampling.
func WithSeed(seed int64) Option {
	return func(s *Simulator) { s.seed = seed }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

// NewSimulator creates a simulator with the given removal budget and policy.
func NewSimulator(budget int, policy RemovalPolicy, opts ...Option) *Simulator {
	s := &Simulator{
		budget:              budget,
		policy:              policy,
		pathSampleThreshold: DefaultPathSampleThreshold,
		logger:              logging.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run simulates budget removals against a private working copy of g. Each
// step records the removed node, the size of the largest remaining connected
// component (ties toward the component with the lowest minimum node ID), and
// the average shortest-path length within that component. A cancelled
// context discards the run entirely.
func (s *Simulator) Run(ctx context.Context, g *graph.Graph) (*Report, error) {
	if s.budget < 0 {
		return nil, negativeBudgetError(s.budget)
	}
	if s.budget > g.Order() {
		return nil, budgetError(s.budget, g.Order())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	order := s.policy.Order(g)
	report := &Report{
		Policy: s.policy.Name(),
		Budget: s.budget,
		Steps:  make([]Step, 0, s.budget),
	}

	working := g
	for i := 0; i < s.budget; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		removed := order[i]
		before := working
		working = working.Without([]string{removed})

		largest := working.LargestComponent()
		avg, defined := s.avgPathLength(working, largest)

		step := Step{
			Step:                 i + 1,
			RemovedNode:          removed,
			LargestComponentSize: len(largest),
			AvgPathLength:        avg,
			PathLengthDefined:    defined,
		}
		if s.partition != nil {
			step.DisconnectedCommunities = communityImpact(before, working, removed, s.partition)
		}
		report.Steps = append(report.Steps, step)

		s.logger.Debug("removal step",
			logging.Component("vulnerability"),
			logging.Int("step", step.Step),
			logging.StopID(removed),
			logging.Int("largest_component", step.LargestComponentSize),
		)
	}

	return report, nil
}

// avgPathLength computes the mean shortest-path length over ordered pairs
// inside the given component. Components above the sample threshold are
// estimated from a seeded subset of BFS sources.
func (s *Simulator) avgPathLength(g *graph.Graph, component []int) (float64, bool) {
	if len(component) < 2 {
		return PathUndefined, false
	}

	ids := make([]string, len(component))
	for k, i := range component {
		ids[k] = g.IDAt(i)
	}
	sub := g.Subgraph(ids)
	n := sub.Order()

	sources := make([]int, n)
	for i := range sources {
		sources[i] = i
	}
	if n > s.pathSampleThreshold {
		rng := rand.New(rand.NewSource(s.seed))
		perm := rng.Perm(n)
		sources = sources[:0]
		sources = append(sources, perm[:pathSampleSources]...)
		sort.Ints(sources)
	}

	totalDist := 0
	pairs := 0
	for _, src := range sources {
		for _, d := range sub.HopsFrom(src) {
			if d > 0 {
				totalDist += d
				pairs++
			}
		}
	}
	if pairs == 0 {
		return PathUndefined, false
	}
	return float64(totalDist) / float64(pairs), true
}

// communityImpact counts the distinct communities among the removed node's
// former neighbors that end up with no member in any component still holding
// members of the removed node's own community.
func communityImpact(before, after *graph.Graph, removed string, partition map[string]int) int {
	own, ok := partition[removed]
	if !ok {
		return 0
	}

	ri, ok := before.IndexOf(removed)
	if !ok {
		return 0
	}
	neighborComs := make(map[int]bool)
	for _, h := range before.AdjAt(ri) {
		if c, ok := partition[before.IDAt(h.To)]; ok && c != own {
			neighborComs[c] = true
		}
	}
	if len(neighborComs) == 0 {
		return 0
	}

	// Component index per surviving node.
	compOf := make([]int, after.Order())
	for ci, comp := range after.Components() {
		for _, v := range comp {
			compOf[v] = ci
		}
	}

	ownComps := make(map[int]bool)
	comComps := make(map[int]map[int]bool, len(neighborComs))
	for id, c := range partition {
		i, ok := after.IndexOf(id)
		if !ok {
			continue
		}
		if c == own {
			ownComps[compOf[i]] = true
		} else if neighborComs[c] {
			if comComps[c] == nil {
				comComps[c] = make(map[int]bool)
			}
			comComps[c][compOf[i]] = true
		}
	}

	disconnected := 0
	for c := range neighborComs {
		reachable := false
		for comp := range comComps[c] {
			if ownComps[comp] {
				reachable = true
				break
			}
		}
		if !reachable {
			disconnected++
		}
	}
	return disconnected
}
