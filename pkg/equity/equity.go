// Package equity flags communities underserved relative to network peers by
// combining community assignments, centrality, and externally supplied
// per-node service attributes into ranked equity gaps.
package equity

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/dd0wney/cluso-transit/pkg/graph"
	"github.com/dd0wney/cluso-transit/pkg/logging"
)

// MetricAccessibility is the built-in accessibility index metric: mean
// intra-community hop distance over mean inter-community hop distance.
// Values near 1 mean reaching other communities costs about the same as
// moving within the community; low values mark remote communities.
const MetricAccessibility = "accessibility_index"

// MetricCentrality is the built-in per-community mean centrality metric.
const MetricCentrality = "centrality"

// DefaultAccessibilityFloor flags any community below this index as high
// severity regardless of the network distribution.
const DefaultAccessibilityFloor = 0.4

// Severity orders gap levels: low < medium < high.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
)

// String returns the string representation of a severity level.
func (s Severity) String() string {
	switch s {
	case SeverityHigh:
		return "high"
	case SeverityMedium:
		return "medium"
	default:
		return "low"
	}
}

// MarshalJSON serializes severity as its string form.
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(s.String())), nil
}

// Gap is one detected disparity. Deviation measures how far past the
// triggering threshold the value fell and orders gaps of equal severity.
type Gap struct {
	Scope       string   `json:"scope"` // "community" or "network"
	ScopeID     string   `json:"scope_id"`
	Severity    Severity `json:"severity"`
	Metric      string   `json:"metric_name"`
	Value       float64  `json:"metric_value"`
	Deviation   float64  `json:"deviation"`
	Description string   `json:"description"`
}

// Thresholds configures severity classification. A metric is high severity
// below mean − HighStdDev·σ or below its absolute floor, medium severity
// below mean − MediumStdDev·σ.
type Thresholds struct {
	HighStdDev   float64
	MediumStdDev float64
	Floors       map[string]float64
}

// DefaultThresholds returns the standard classification thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HighStdDev:   2.0,
		MediumStdDev: 1.0,
		Floors:       map[string]float64{MetricAccessibility: DefaultAccessibilityFloor},
	}
}

// Analyzer detects equity gaps against a network-wide baseline.
type Analyzer struct {
	thresholds Thresholds
	logger     logging.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithThresholds overrides the severity thresholds.
func WithThresholds(t Thresholds) Option {
	return func(a *Analyzer) { a.thresholds = t }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// NewAnalyzer creates an analyzer with the given options.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		thresholds: DefaultThresholds(),
		logger:     logging.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze computes per-community metrics, classifies them against the
// network baseline, adds network-level distribution gaps, and returns gaps
// ordered by severity descending, deviation descending, then scope ID.
//
// attributes maps node ID to attribute name to value; a node missing an
// attribute is excluded from that aggregation, never an error.
func (a *Analyzer) Analyze(
	g *graph.Graph,
	partition map[string]int,
	centrality map[string]float64,
	attributes map[string]map[string]float64,
) []Gap {
	metrics := communityMetrics(g, partition, centrality, attributes)

	var gaps []Gap
	gaps = append(gaps, a.classifyCommunities(metrics)...)
	gaps = append(gaps, a.distributionGaps(g, partition, centrality)...)

	sort.SliceStable(gaps, func(i, j int) bool {
		if gaps[i].Severity != gaps[j].Severity {
			return gaps[i].Severity > gaps[j].Severity
		}
		if gaps[i].Deviation != gaps[j].Deviation {
			return gaps[i].Deviation > gaps[j].Deviation
		}
		if gaps[i].ScopeID != gaps[j].ScopeID {
			return gaps[i].ScopeID < gaps[j].ScopeID
		}
		return gaps[i].Metric < gaps[j].Metric
	})

	a.logger.Info("equity analysis complete",
		logging.Component("equity"),
		logging.Int("communities", len(metrics)),
		logging.Count(len(gaps)),
	)
	return gaps
}

// communityMetrics aggregates each community's metric table: the mean of
// each external attribute over members that carry it, mean centrality, and
// the built-in accessibility index.
func communityMetrics(
	g *graph.Graph,
	partition map[string]int,
	centrality map[string]float64,
	attributes map[string]map[string]float64,
) map[int]map[string]float64 {
	members := make(map[int][]string)
	for id, c := range partition {
		members[c] = append(members[c], id)
	}

	metrics := make(map[int]map[string]float64, len(members))
	for c, nodes := range members {
		table := make(map[string]float64)

		sums := make(map[string]float64)
		counts := make(map[string]int)
		centSum := 0.0
		for _, id := range nodes {
			for name, v := range attributes[id] {
				sums[name] += v
				counts[name]++
			}
			centSum += centrality[id]
		}
		for name, sum := range sums {
			table[name] = sum / float64(counts[name])
		}
		if len(nodes) > 0 && centrality != nil {
			table[MetricCentrality] = centSum / float64(len(nodes))
		}
		metrics[c] = table
	}

	for c, index := range accessibilityIndex(g, partition) {
		metrics[c][MetricAccessibility] = index
	}
	return metrics
}

// accessibilityIndex computes, per community, mean intra-community hop
// distance divided by mean inter-community hop distance. Communities with no
// reachable intra or inter pairs get no index rather than a fabricated one.
func accessibilityIndex(g *graph.Graph, partition map[string]int) map[int]float64 {
	type acc struct {
		intraSum, interSum     int
		intraPairs, interPairs int
	}
	byCom := make(map[int]*acc)

	for i := 0; i < g.Order(); i++ {
		ci, ok := partition[g.IDAt(i)]
		if !ok {
			continue
		}
		if byCom[ci] == nil {
			byCom[ci] = &acc{}
		}
		for j, d := range g.HopsFrom(i) {
			if d <= 0 {
				continue
			}
			cj, ok := partition[g.IDAt(j)]
			if !ok {
				continue
			}
			if cj == ci {
				byCom[ci].intraSum += d
				byCom[ci].intraPairs++
			} else {
				byCom[ci].interSum += d
				byCom[ci].interPairs++
			}
		}
	}

	index := make(map[int]float64, len(byCom))
	for c, v := range byCom {
		if v.intraPairs == 0 || v.interPairs == 0 {
			continue
		}
		intra := float64(v.intraSum) / float64(v.intraPairs)
		inter := float64(v.interSum) / float64(v.interPairs)
		if inter > 0 {
			index[c] = intra / inter
		}
	}
	return index
}

// classifyCommunities compares each community metric against the network
// mean and standard deviation across communities.
func (a *Analyzer) classifyCommunities(metrics map[int]map[string]float64) []Gap {
	names := make(map[string]bool)
	for _, table := range metrics {
		for name := range table {
			names[name] = true
		}
	}

	var gaps []Gap
	for name := range names {
		var values []float64
		var coms []int
		for c, table := range metrics {
			if v, ok := table[name]; ok {
				values = append(values, v)
				coms = append(coms, c)
			}
		}
		mean, std := meanStd(values)
		floor, hasFloor := a.thresholds.Floors[name]

		for k, c := range coms {
			v := values[k]
			severity, deviation, flagged := a.thresholds.classifyBelow(v, mean, std, floor, hasFloor)
			if !flagged {
				continue
			}
			gaps = append(gaps, Gap{
				Scope:     "community",
				ScopeID:   strconv.Itoa(c),
				Severity:  severity,
				Metric:    name,
				Value:     v,
				Deviation: deviation,
				Description: fmt.Sprintf(
					"community %d %s %.3f falls below the network mean %.3f",
					c, name, v, mean),
			})
		}
	}
	return gaps
}

// classifyBelow classifies a metric where lower is worse. Returns the
// severity, the deviation used for ordering, and whether a gap is reported
// at all.
func (t Thresholds) classifyBelow(value, mean, std, floor float64, hasFloor bool) (Severity, float64, bool) {
	if hasFloor && value < floor {
		dev := floor - value
		if std > 0 {
			dev = (mean - value) / std
		}
		return SeverityHigh, dev, true
	}
	if std <= 0 {
		return SeverityLow, 0, false
	}
	dev := (mean - value) / std
	if dev > t.HighStdDev {
		return SeverityHigh, dev, true
	}
	if dev > t.MediumStdDev {
		return SeverityMedium, dev, true
	}
	return SeverityLow, 0, false
}

func meanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	for _, v := range values {
		std += (v - mean) * (v - mean)
	}
	std = math.Sqrt(std / float64(len(values)))
	return mean, std
}
