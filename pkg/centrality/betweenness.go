// Package centrality ranks stops by structural importance. Betweenness is
// the primary measure; degree and closeness back the alternative removal
// policies.
package centrality

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"github.com/dd0wney/cluso-transit/pkg/graph"
	"github.com/dd0wney/cluso-transit/pkg/logging"
	"github.com/dd0wney/cluso-transit/pkg/parallel"
)

const (
	// DefaultExactThreshold is the node count above which betweenness
	// switches from the exact Brandes pass to sampled sources.
	DefaultExactThreshold = 2000

	// DefaultSampleFraction is the fraction of nodes used as BFS sources
	// in approximate mode.
	DefaultSampleFraction = 0.25

	// sourceBlockSize fixes the reduction granularity. Partial sums merge
	// in block order, so results are bit-identical for any worker count.
	sourceBlockSize = 64
)

// Result holds one betweenness computation. Scores are max-normalized so
// the run maximum is 1.0; Raw keeps the unnormalized Brandes sums (each
// unordered pair counted once). Scores are only comparable within one run.
type Result struct {
	Scores map[string]float64
	Raw    map[string]float64

	// Sampling metadata, recorded for reproducibility.
	Sampled        bool
	SampleFraction float64
	Seed           int64
	Sources        int
}

// RankedNode pairs a node with its score for top-K listings.
type RankedNode struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Analyzer computes centrality measures against an immutable graph view.
type Analyzer struct {
	exactThreshold int
	sampleFraction float64
	seed           int64
	workers        int
	logger         logging.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithExactThreshold sets the node count above which sampling is used.
func WithExactThreshold(n int) Option {
	return func(a *Analyzer) { a.exactThreshold = n }
}

// WithSampleFraction sets the source sampling fraction for large graphs.
func WithSampleFraction(f float64) Option {
	return func(a *Analyzer) { a.sampleFraction = f }
}

// WithSeed sets the sampling seed.
func WithSeed(seed int64) Option {
	return func(a *Analyzer) { a.seed = seed }
}

// WithWorkers bounds the BFS fan-out; 0 means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(a *Analyzer) { a.workers = n }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// NewAnalyzer creates an analyzer with the given options.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		exactThreshold: DefaultExactThreshold,
		sampleFraction: DefaultSampleFraction,
		logger:         logging.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Betweenness computes betweenness centrality for every node. Shortest
// paths are hop counts (unweighted), matching the measure's use for
// structural criticality. The computation is cancelled cooperatively via
// ctx; a cancelled run returns no partial result.
func (a *Analyzer) Betweenness(ctx context.Context, g *graph.Graph) (*Result, error) {
	n := g.Order()
	result := &Result{
		Scores:         make(map[string]float64, n),
		Raw:            make(map[string]float64, n),
		SampleFraction: 1.0,
		Seed:           a.seed,
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n == 0 {
		return result, nil
	}

	sources := a.pickSources(n, result)

	blocks, err := parallel.MapBlocks(ctx, len(sources), sourceBlockSize, a.workers,
		func(ctx context.Context, b parallel.Block) ([]float64, error) {
			partial := make([]float64, n)
			for k := b.Start; k < b.End; k++ {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				brandesFromSource(g, sources[k], partial)
			}
			return partial, nil
		})
	if err != nil {
		return nil, err
	}

	// In-order reduction over fixed blocks keeps float rounding identical
	// across worker counts.
	raw := make([]float64, n)
	for _, partial := range blocks {
		for i, v := range partial {
			raw[i] += v
		}
	}

	// Each unordered pair is discovered from both endpoints when all
	// sources run; halve to count pairs once. Sampled runs rescale to the
	// full source population first.
	scale := 0.5
	if result.Sampled {
		scale *= float64(n) / float64(len(sources))
	}

	maxRaw := 0.0
	for i := range raw {
		raw[i] *= scale
		if raw[i] > maxRaw {
			maxRaw = raw[i]
		}
	}

	for i := 0; i < n; i++ {
		id := g.IDAt(i)
		result.Raw[id] = raw[i]
		if maxRaw > 0 {
			result.Scores[id] = raw[i] / maxRaw
		} else {
			result.Scores[id] = 0
		}
	}

	a.logger.Debug("betweenness computed",
		logging.Component("centrality"),
		logging.Int("nodes", n),
		logging.Int("sources", result.Sources),
		logging.Bool("sampled", result.Sampled),
	)
	return result, nil
}

// pickSources chooses BFS sources: every node in exact mode, a seeded
// sample in approximate mode. Sampled indices are sorted ascending so block
// boundaries stay deterministic.
func (a *Analyzer) pickSources(n int, result *Result) []int {
	if n <= a.exactThreshold {
		sources := make([]int, n)
		for i := range sources {
			sources[i] = i
		}
		result.Sources = n
		return sources
	}

	k := int(math.Ceil(a.sampleFraction * float64(n)))
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}

	rng := rand.New(rand.NewSource(a.seed))
	perm := rng.Perm(n)
	sources := make([]int, k)
	copy(sources, perm[:k])
	sort.Ints(sources)

	result.Sampled = true
	result.SampleFraction = a.sampleFraction
	result.Sources = k
	return sources
}

// brandesFromSource runs one Brandes source iteration: a BFS recording path
// counts, then back-propagation of pair dependencies, accumulated into acc.
func brandesFromSource(g *graph.Graph, source int, acc []float64) {
	n := g.Order()

	stack := make([]int, 0, n)
	preds := make([][]int, n)
	sigma := make([]float64, n)
	dist := make([]int, n)
	for i := range dist {
		dist[i] = -1
	}

	sigma[source] = 1
	dist[source] = 0

	queue := make([]int, 0, n)
	queue = append(queue, source)
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		stack = append(stack, v)

		for _, h := range g.AdjAt(v) {
			w := h.To
			if dist[w] < 0 {
				dist[w] = dist[v] + 1
				queue = append(queue, w)
			}
			if dist[w] == dist[v]+1 {
				sigma[w] += sigma[v]
				preds[w] = append(preds[w], v)
			}
		}
	}

	delta := make([]float64, n)
	for i := len(stack) - 1; i >= 0; i-- {
		w := stack[i]
		for _, v := range preds[w] {
			delta[v] += (sigma[v] / sigma[w]) * (1 + delta[w])
		}
		if w != source {
			acc[w] += delta[w]
		}
	}
}
