package equity

import (
	"fmt"
	"sort"

	"github.com/dd0wney/cluso-transit/pkg/graph"
)

// Distribution summarizes how service (connectivity) spreads across the
// network and its communities.
type Distribution struct {
	MeanDegree   float64 `json:"mean_degree"`
	MedianDegree float64 `json:"median_degree"`
	StdDegree    float64 `json:"std_degree"`
	MinDegree    int     `json:"min_degree"`
	MaxDegree    int     `json:"max_degree"`

	Gini             float64 `json:"gini_coefficient"`
	CV               float64 `json:"coefficient_of_variation"`
	UnderservedCount int     `json:"underserved_count"`
	UnderservedRatio float64 `json:"underserved_ratio"`

	// Community-level figures, present when a partition was supplied.
	BetweenCommunityGini float64 `json:"between_community_gini"`
	ServiceBalanceRatio  float64 `json:"service_balance_ratio"`
}

// AnalyzeDistribution computes degree-based service distribution statistics.
// Underserved nodes are those whose degree falls below mean − σ.
func AnalyzeDistribution(g *graph.Graph, partition map[string]int) Distribution {
	n := g.Order()
	if n == 0 {
		return Distribution{ServiceBalanceRatio: 1}
	}

	degrees := make([]float64, n)
	minDeg, maxDeg := len(g.AdjAt(0)), len(g.AdjAt(0))
	for i := 0; i < n; i++ {
		d := len(g.AdjAt(i))
		degrees[i] = float64(d)
		if d < minDeg {
			minDeg = d
		}
		if d > maxDeg {
			maxDeg = d
		}
	}

	mean, std := meanStd(degrees)
	dist := Distribution{
		MeanDegree:          mean,
		MedianDegree:        median(degrees),
		StdDegree:           std,
		MinDegree:           minDeg,
		MaxDegree:           maxDeg,
		Gini:                Gini(degrees),
		ServiceBalanceRatio: 1,
	}
	if mean > 0 {
		dist.CV = std / mean
	}

	threshold := mean - std
	for _, d := range degrees {
		if d < threshold {
			dist.UnderservedCount++
		}
	}
	dist.UnderservedRatio = float64(dist.UnderservedCount) / float64(n)

	if len(partition) > 0 {
		comMeans := communityMeanDegrees(g, partition)
		dist.BetweenCommunityGini = Gini(comMeans)
		if len(comMeans) > 0 {
			minM, maxM := comMeans[0], comMeans[0]
			for _, m := range comMeans {
				if m < minM {
					minM = m
				}
				if m > maxM {
					maxM = m
				}
			}
			if maxM > 0 {
				dist.ServiceBalanceRatio = minM / maxM
			} else {
				dist.ServiceBalanceRatio = 0
			}
		}
	}
	return dist
}

func communityMeanDegrees(g *graph.Graph, partition map[string]int) []float64 {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for i := 0; i < g.Order(); i++ {
		c, ok := partition[g.IDAt(i)]
		if !ok {
			continue
		}
		sums[c] += float64(len(g.AdjAt(i)))
		counts[c]++
	}

	coms := make([]int, 0, len(sums))
	for c := range sums {
		coms = append(coms, c)
	}
	sort.Ints(coms)

	means := make([]float64, 0, len(coms))
	for _, c := range coms {
		means = append(means, sums[c]/float64(counts[c]))
	}
	return means
}

// Gini computes the Gini coefficient of a value distribution: 0 is perfect
// equality, 1 is perfect inequality.
func Gini(values []float64) float64 {
	n := len(values)
	if n <= 1 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var total, weighted float64
	cum := 0.0
	for _, v := range sorted {
		cum += v
		weighted += cum
	}
	total = cum
	if total == 0 {
		return 0
	}
	return (float64(n) + 1 - 2*weighted/total) / float64(n)
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// Rule thresholds for network-level distribution gaps, following the
// transport-equity literature conventions for Gini interpretation.
const (
	giniGapThreshold        = 0.3
	giniHighThreshold       = 0.5
	underservedThreshold    = 0.2
	underservedHigh         = 0.3
	communityGiniThreshold  = 0.2
	communityGiniHigh       = 0.4
	balanceRatioThreshold   = 0.5
	balanceRatioHigh        = 0.3
	accessGiniGapThreshold  = 0.3
	accessGiniHighThreshold = 0.5
)

// distributionGaps derives network-scoped gaps from the service distribution
// and the centrality score spread.
func (a *Analyzer) distributionGaps(g *graph.Graph, partition map[string]int, centrality map[string]float64) []Gap {
	dist := AnalyzeDistribution(g, partition)
	var gaps []Gap

	if dist.Gini > giniGapThreshold {
		severity := SeverityMedium
		if dist.Gini > giniHighThreshold {
			severity = SeverityHigh
		}
		gaps = append(gaps, Gap{
			Scope:     "network",
			ScopeID:   "network",
			Severity:  severity,
			Metric:    "gini_coefficient",
			Value:     dist.Gini,
			Deviation: dist.Gini - giniGapThreshold,
			Description: fmt.Sprintf(
				"high inequality in service distribution (Gini = %.2f)", dist.Gini),
		})
	}

	if dist.UnderservedRatio > underservedThreshold {
		severity := SeverityMedium
		if dist.UnderservedRatio > underservedHigh {
			severity = SeverityHigh
		}
		gaps = append(gaps, Gap{
			Scope:     "network",
			ScopeID:   "network",
			Severity:  severity,
			Metric:    "underserved_ratio",
			Value:     dist.UnderservedRatio,
			Deviation: dist.UnderservedRatio - underservedThreshold,
			Description: fmt.Sprintf(
				"%.1f%% of stops have below-average connectivity", dist.UnderservedRatio*100),
		})
	}

	if len(partition) > 0 {
		if dist.BetweenCommunityGini > communityGiniThreshold {
			severity := SeverityMedium
			if dist.BetweenCommunityGini > communityGiniHigh {
				severity = SeverityHigh
			}
			gaps = append(gaps, Gap{
				Scope:     "network",
				ScopeID:   "network",
				Severity:  severity,
				Metric:    "between_community_gini",
				Value:     dist.BetweenCommunityGini,
				Deviation: dist.BetweenCommunityGini - communityGiniThreshold,
				Description: fmt.Sprintf(
					"uneven service distribution between communities (Gini = %.2f)",
					dist.BetweenCommunityGini),
			})
		}
		if dist.ServiceBalanceRatio < balanceRatioThreshold {
			severity := SeverityMedium
			if dist.ServiceBalanceRatio < balanceRatioHigh {
				severity = SeverityHigh
			}
			gaps = append(gaps, Gap{
				Scope:     "network",
				ScopeID:   "network",
				Severity:  severity,
				Metric:    "service_balance_ratio",
				Value:     dist.ServiceBalanceRatio,
				Deviation: balanceRatioThreshold - dist.ServiceBalanceRatio,
				Description: fmt.Sprintf(
					"large disparity in service levels between communities (ratio = %.2f)",
					dist.ServiceBalanceRatio),
			})
		}
	}

	if len(centrality) > 0 {
		values := make([]float64, 0, len(centrality))
		for _, v := range centrality {
			values = append(values, v)
		}
		accessGini := Gini(values)
		if accessGini > accessGiniGapThreshold {
			severity := SeverityMedium
			if accessGini > accessGiniHighThreshold {
				severity = SeverityHigh
			}
			gaps = append(gaps, Gap{
				Scope:     "network",
				ScopeID:   "network",
				Severity:  severity,
				Metric:    "accessibility_gini",
				Value:     accessGini,
				Deviation: accessGini - accessGiniGapThreshold,
				Description: fmt.Sprintf(
					"high inequality in network accessibility (Gini = %.2f)", accessGini),
			})
		}
	}

	return gaps
}
