package v1alpha1

import (
	"math"
	"time"

	"k8s.io/utils/ptr"
)

const (
	// APIVersion is written into every Report.
	APIVersion = "godea/v1alpha1"
	// KindReport is the Kind of a Report document.
	KindReport = "DEAReport"
)

// Report is the serializable outcome of one analysis: one RunReport per
// concrete model configuration.
type Report struct {
	APIVersion string `json:"apiVersion" yaml:"apiVersion"`
	Kind       string `json:"kind" yaml:"kind"`

	// Source names the data the analysis was run on (e.g., the CSV path).
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// GeneratedAt is when the report was assembled.
	// +optional
	GeneratedAt *time.Time `json:"generatedAt,omitempty" yaml:"generatedAt,omitempty"`

	// Runs holds one entry per (orientation, returns to scale) combination,
	// in expansion order.
	Runs []RunReport `json:"runs" yaml:"runs"`
}

// NewReport returns an empty Report with its type fields set.
func NewReport(source string) *Report {
	return &Report{APIVersion: APIVersion, Kind: KindReport, Source: source}
}

// RunReport describes one model run.
type RunReport struct {
	// Name identifies the configuration, for example "input-CRS-env".
	Name string `json:"name" yaml:"name"`

	// Description is the textual description of the configuration used.
	Description string `json:"description" yaml:"description"`

	// SolutionID is the id of the primary Solution.
	SolutionID string `json:"solutionID" yaml:"solutionID"`

	// Ranking is set when peel-the-onion ranking was requested.
	// +optional
	Ranking *RankingStatus `json:"ranking,omitempty" yaml:"ranking,omitempty"`

	// DMUs lists every evaluated DMU in data order.
	DMUs []DMUResult `json:"dmus" yaml:"dmus"`
}

// RankingStatus reports whether peel-the-onion ranked every DMU.
type RankingStatus struct {
	// Complete is false when a round hit a non-optimal LP; ranks of DMUs
	// not reached are RankUnranked.
	Complete bool `json:"complete" yaml:"complete"`
	// Rounds is the number of tiers assigned.
	Rounds int `json:"rounds" yaml:"rounds"`
}

// RankUnranked is the Rank of a DMU peel-the-onion could not place.
const RankUnranked = -1

// DMUResult holds the results of one DMU.
type DMUResult struct {
	Name string `json:"name" yaml:"name"`

	// Status is the LP status: optimal, infeasible, unbounded or other.
	Status string `json:"status" yaml:"status"`

	// Score is the efficiency score. It is nil when the LP was not optimal
	// or the score is infinite.
	// +optional
	Score *float64 `json:"score,omitempty" yaml:"score,omitempty"`

	// Infinite marks a score of +Inf, which JSON cannot carry.
	// +optional
	Infinite bool `json:"infinite,omitempty" yaml:"infinite,omitempty"`

	Efficient bool `json:"efficient" yaml:"efficient"`

	// Rank is the peel-the-onion tier, starting at 1.
	// +optional
	Rank *int `json:"rank,omitempty" yaml:"rank,omitempty"`

	// Level is the categorical level of the DMU.
	// +optional
	Level *int `json:"level,omitempty" yaml:"level,omitempty"`

	// Peers maps peer DMU names to their non-zero weights.
	// +optional
	Peers map[string]float64 `json:"peers,omitempty" yaml:"peers,omitempty"`

	// InputDuals and OutputDuals map category names to their duals.
	// +optional
	InputDuals map[string]float64 `json:"inputDuals,omitempty" yaml:"inputDuals,omitempty"`
	// +optional
	OutputDuals map[string]float64 `json:"outputDuals,omitempty" yaml:"outputDuals,omitempty"`

	// ReturnsToScale is the dual of the convexity row under VRS.
	// +optional
	ReturnsToScale *float64 `json:"returnsToScale,omitempty" yaml:"returnsToScale,omitempty"`

	// Slacks are the phase-two slacks by category under two-phase slack
	// maximization.
	// +optional
	Slacks map[string]float64 `json:"slacks,omitempty" yaml:"slacks,omitempty"`
}

// SetScore records score, mapping +Inf to Infinite.
func (r *DMUResult) SetScore(score float64) {
	if math.IsInf(score, 1) {
		r.Score = nil
		r.Infinite = true
		return
	}
	r.Score = ptr.To(score)
	r.Infinite = false
}

// ScoreValue returns the score, +Inf when Infinite and NaN when unset.
func (r DMUResult) ScoreValue() float64 {
	switch {
	case r.Infinite:
		return math.Inf(1)
	case r.Score == nil:
		return math.NaN()
	default:
		return *r.Score
	}
}

// DMU returns the result for name, if present.
func (r *RunReport) DMU(name string) (DMUResult, bool) {
	for _, d := range r.DMUs {
		if d.Name == name {
			return d, true
		}
	}
	return DMUResult{}, false
}

// Run returns the run named name, if present.
func (r *Report) Run(name string) (*RunReport, bool) {
	for i := range r.Runs {
		if r.Runs[i].Name == name {
			return &r.Runs[i], true
		}
	}
	return nil, false
}
