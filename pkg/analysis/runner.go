package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-transit/pkg/centrality"
	"github.com/dd0wney/cluso-transit/pkg/community"
	"github.com/dd0wney/cluso-transit/pkg/config"
	"github.com/dd0wney/cluso-transit/pkg/equity"
	"github.com/dd0wney/cluso-transit/pkg/graph"
	"github.com/dd0wney/cluso-transit/pkg/logging"
	"github.com/dd0wney/cluso-transit/pkg/metrics"
	"github.com/dd0wney/cluso-transit/pkg/vulnerability"
)

// Runner executes the full analysis pipeline against one immutable graph.
// Community detection and centrality run concurrently; vulnerability
// consumes the centrality ranking; equity consumes partition, centrality
// and external attributes. A failed component is dropped from the snapshot
// while completed siblings are kept, and the joined error reports what
// failed.
type Runner struct {
	cfg        *config.Config
	attributes map[string]map[string]float64
	logger     logging.Logger
	registry   *metrics.Registry
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithAttributes supplies external per-node service attributes for equity
// analysis.
func WithAttributes(attrs map[string]map[string]float64) RunnerOption {
	return func(r *Runner) { r.attributes = attrs }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metrics.Registry) RunnerOption {
	return func(r *Runner) { r.registry = m }
}

// NewRunner creates a runner. The configuration must already be validated.
func NewRunner(cfg *config.Config, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:      cfg,
		logger:   logging.DefaultLogger(),
		registry: metrics.DefaultRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every component and assembles the snapshot. The returned
// error, if any, is the join of per-component failures; the snapshot still
// carries every result that completed. A cancelled context aborts the whole
// run with no snapshot.
func (r *Runner) Run(ctx context.Context, g *graph.Graph) (*Snapshot, error) {
	snapshot := &Snapshot{
		RunID:        uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		GraphSummary: g.Stats(),
	}
	stats := snapshot.GraphSummary
	r.registry.UpdateGraphMetrics(stats.NodeCount, stats.EdgeCount, stats.Density)

	log := r.logger.With(logging.RunID(snapshot.RunID))
	log.Info("analysis run started",
		logging.Int("nodes", stats.NodeCount),
		logging.Int("edges", stats.EdgeCount),
	)

	var (
		wg         sync.WaitGroup
		comResult  *community.Result
		centResult *centrality.Result
		centErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		timer := logging.StartTimer(log, "community detection complete", logging.Metric("community"))
		detector := community.NewDetector(
			community.WithEpsilon(r.cfg.Community.Epsilon),
			community.WithMaxPasses(r.cfg.Community.MaxPasses),
			community.WithLogger(log),
		)
		comResult = detector.Detect(g)
		r.registry.RecordAnalysis("community", "success", timer.Elapsed())
		timer.End(logging.Count(comResult.Communities))
	}()
	go func() {
		defer wg.Done()
		timer := logging.StartTimer(log, "centrality analysis complete", logging.Metric("centrality"))
		analyzer := centrality.NewAnalyzer(
			centrality.WithExactThreshold(r.cfg.Centrality.ExactThreshold),
			centrality.WithSampleFraction(r.cfg.Centrality.SampleFraction),
			centrality.WithSeed(r.cfg.Centrality.Seed),
			centrality.WithWorkers(r.cfg.Workers),
			centrality.WithLogger(log),
		)
		centResult, centErr = analyzer.Betweenness(ctx, g)
		status := "success"
		if centErr != nil {
			status = "error"
			r.registry.RecordAnalysis("centrality", status, timer.Elapsed())
			timer.EndError(centErr)
			return
		}
		r.registry.RecordAnalysis("centrality", status, timer.Elapsed())
		timer.End(logging.Bool("sampled", centResult.Sampled))
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var errs []error

	snapshot.Partition = comResult.Partition
	snapshot.Modularity = comResult.Modularity
	snapshot.Communities = community.Summarize(g, comResult.Partition)
	r.registry.UpdateCommunityMetrics(comResult.Communities, comResult.Modularity)

	if centErr != nil {
		errs = append(errs, fmt.Errorf("centrality: %w", centErr))
	} else {
		snapshot.Centrality = centResult.Scores
		snapshot.Sampling = &Sampling{
			Sampled:        centResult.Sampled,
			SampleFraction: centResult.SampleFraction,
			Seed:           centResult.Seed,
			Sources:        centResult.Sources,
		}
		snapshot.TopCritical = centrality.TopK(centResult.Scores, 10)
		r.registry.RecordCentralityRun(centResult.Sources, centResult.Sampled)
	}

	if report, err := r.runVulnerability(ctx, g, comResult, centResult); err != nil {
		errs = append(errs, fmt.Errorf("vulnerability: %w", err))
	} else if report != nil {
		snapshot.VulnerabilityReport = report
		r.registry.RecordRemovalSteps(len(report.Steps))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var scores map[string]float64
	if centResult != nil {
		scores = centResult.Scores
	}
	eqTimer := logging.StartTimer(log, "equity analysis complete", logging.Metric("equity"))
	equityAnalyzer := equity.NewAnalyzer(
		equity.WithThresholds(equity.Thresholds{
			HighStdDev:   r.cfg.Equity.SeverityThresholds.HighStdDev,
			MediumStdDev: r.cfg.Equity.SeverityThresholds.MediumStdDev,
			Floors:       r.cfg.Equity.SeverityThresholds.Floors,
		}),
		equity.WithLogger(log),
	)
	snapshot.EquityGaps = equityAnalyzer.Analyze(g, comResult.Partition, scores, r.attributes)
	r.registry.RecordAnalysis("equity", "success", eqTimer.Elapsed())
	eqTimer.End(logging.Count(len(snapshot.EquityGaps)))
	r.registry.UpdateEquityGaps(severityCounts(snapshot.EquityGaps))

	log.Info("analysis run finished",
		logging.Int("communities", comResult.Communities),
		logging.Count(len(snapshot.EquityGaps)),
		logging.Int("failed_components", len(errs)),
	)
	return snapshot, errors.Join(errs...)
}

// runVulnerability builds the configured removal policy and runs the
// simulation. Errors when the centrality policy is configured but its
// ranking input failed upstream.
func (r *Runner) runVulnerability(
	ctx context.Context,
	g *graph.Graph,
	com *community.Result,
	cent *centrality.Result,
) (*vulnerability.Report, error) {
	var policy vulnerability.RemovalPolicy
	switch r.cfg.Vulnerability.Policy {
	case "degree":
		policy = vulnerability.DegreePolicy{}
	case "closeness":
		policy = vulnerability.ClosenessPolicy{}
	case "random":
		policy = vulnerability.NewRandomPolicy(r.cfg.Centrality.Seed)
	default:
		if cent == nil {
			return nil, errors.New("centrality ranking unavailable for removal ordering")
		}
		policy = vulnerability.NewCentralityPolicy(cent.Scores)
	}

	timer := logging.StartTimer(r.logger, "vulnerability simulation complete", logging.Metric("vulnerability"))
	sim := vulnerability.NewSimulator(r.cfg.Vulnerability.RemovalBudget, policy,
		vulnerability.WithPartition(com.Partition),
		vulnerability.WithSeed(r.cfg.Centrality.Seed),
		vulnerability.WithLogger(r.logger),
	)
	report, err := sim.Run(ctx, g)
	if err != nil {
		r.registry.RecordAnalysis("vulnerability", "error", timer.Elapsed())
		timer.EndError(err)
		return nil, err
	}
	r.registry.RecordAnalysis("vulnerability", "success", timer.Elapsed())
	timer.End(logging.Int("steps", len(report.Steps)))
	return report, nil
}

func severityCounts(gaps []equity.Gap) map[string]int {
	counts := map[string]int{"high": 0, "medium": 0}
	for _, g := range gaps {
		counts[g.Severity.String()]++
	}
	return counts
}
