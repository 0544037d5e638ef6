// Package analysis orchestrates the full engine run and assembles its
// single output artifact, the snapshot.
package analysis

import (
	"encoding/json"
	"time"

	"github.com/dd0wney/cluso-transit/pkg/centrality"
	"github.com/dd0wney/cluso-transit/pkg/community"
	"github.com/dd0wney/cluso-transit/pkg/equity"
	"github.com/dd0wney/cluso-transit/pkg/graph"
	"github.com/dd0wney/cluso-transit/pkg/vulnerability"
)

// Sampling records how betweenness sources were chosen, kept for
// reproducibility.
type Sampling struct {
	Sampled        bool    `json:"sampled"`
	SampleFraction float64 `json:"sample_fraction"`
	Seed           int64   `json:"seed"`
	Sources        int     `json:"sources"`
}

// Snapshot is the immutable aggregate of one analysis run. Components that
// failed are simply absent; everything present is final and safe to share
// across concurrent readers.
type Snapshot struct {
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`

	GraphSummary graph.Stats `json:"graph_summary"`

	Partition   map[string]int      `json:"partition,omitempty"`
	Modularity  float64             `json:"modularity"`
	Communities []community.Summary `json:"communities,omitempty"`

	Centrality map[string]float64 `json:"centrality,omitempty"`
	Sampling   *Sampling          `json:"sampling,omitempty"`

	TopCritical []centrality.RankedNode `json:"top_critical,omitempty"`

	VulnerabilityReport *vulnerability.Report `json:"vulnerability_report,omitempty"`

	EquityGaps []equity.Gap `json:"equity_gaps,omitempty"`
}

// Encode renders the snapshot as indented JSON for export.
func (s *Snapshot) Encode() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
