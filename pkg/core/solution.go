package core

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/araith/godea/pkg/solver"
)

// Solution collects the per-DMU results of one model run. It is filled one
// DMU at a time while the run progresses and is read-only afterwards.
//
// Optional results are attached as extensions (RTS, super-efficiency,
// slacks) and are discovered with the matching capability accessor.
type Solution struct {
	id    string
	data  *DataSet
	peers PeerWeightStore

	statuses    map[string]solver.Status
	scores      map[string]float64
	selfWeights map[string]float64
	inputDuals  map[string]map[string]float64
	outputDuals map[string]map[string]float64

	// scoresSupplied marks a solution whose scores come from an earlier
	// phase; fill operations leave scores untouched.
	scoresSupplied bool

	rts    *RTSDuals
	super  *SuperEfficiency
	slacks *Slacks
}

func newSolution(id string, data *DataSet, store PeerWeightStore) *Solution {
	return &Solution{
		id:          id,
		data:        data,
		peers:       store,
		statuses:    make(map[string]solver.Status),
		scores:      make(map[string]float64),
		selfWeights: make(map[string]float64),
		inputDuals:  make(map[string]map[string]float64),
		outputDuals: make(map[string]map[string]float64),
	}
}

func (s *Solution) ID() string { return s.id }

func (s *Solution) Data() *DataSet { return s.data }

func (s *Solution) SetStatus(code string, status solver.Status) {
	s.statuses[code] = status
}

// Status returns the LP status recorded for code.
func (s *Solution) Status(code string) (solver.Status, bool) {
	st, ok := s.statuses[code]
	return st, ok
}

// Solved returns the codes that have a recorded status, in data order.
func (s *Solution) Solved() []string {
	return s.data.Order(slices.Collect(maps.Keys(s.statuses)))
}

// SupplyScores marks the solution as carrying scores from an earlier phase.
func (s *Solution) SupplyScores() { s.scoresSupplied = true }

func (s *Solution) ScoresSupplied() bool { return s.scoresSupplied }

// SetScore records the efficiency score of code after checking it against
// the solution's domain: [0, 1] normally, [0, +Inf] with super-efficiency.
// Scores within ScoreClampTolerance of the domain are clamped onto it.
func (s *Solution) SetScore(code string, score float64) error {
	if !s.inDomain(score) {
		return fmt.Errorf("%w: DMU %q score %v (super-efficiency %t)", ErrScoreOutOfDomain, s.data.Name(code), score, s.super != nil)
	}
	switch {
	case score < 0:
		score = 0
	case score > 1 && s.super == nil:
		score = 1
	}
	s.scores[code] = score
	return nil
}

func (s *Solution) inDomain(score float64) bool {
	if math.IsNaN(score) || score < -ScoreClampTolerance {
		return false
	}
	if s.super != nil {
		return true
	}
	return score <= 1+ScoreClampTolerance
}

// Score returns the efficiency of code, or +Inf when none was computed.
func (s *Solution) Score(code string) float64 {
	if v, ok := s.scores[code]; ok {
		return v
	}
	return math.Inf(1)
}

// SetPeerWeights stores the peer weights of code, dropping entries whose
// magnitude is below ZeroTolerance.
func (s *Solution) SetPeerWeights(code string, weights map[string]float64) error {
	kept := make(map[string]float64, len(weights))
	for peer, w := range weights {
		if math.Abs(w) > ZeroTolerance {
			kept[peer] = w
		}
	}
	if w, ok := kept[code]; ok {
		s.selfWeights[code] = w
	}
	if err := s.peers.Put(code, kept); err != nil {
		return fmt.Errorf("storing peer weights for DMU %q: %w", s.data.Name(code), err)
	}
	return nil
}

// PeerWeights returns the non-zero peer weights of code.
func (s *Solution) PeerWeights(code string) (map[string]float64, error) {
	weights, err := s.peers.Get(code)
	if err != nil {
		return nil, fmt.Errorf("loading peer weights for DMU %q: %w", s.data.Name(code), err)
	}
	if weights == nil {
		weights = map[string]float64{}
	}
	return weights, nil
}

func (s *Solution) SetInputDual(code, category string, v float64) {
	setNested(s.inputDuals, code, category, v)
}

func (s *Solution) SetOutputDual(code, category string, v float64) {
	setNested(s.outputDuals, code, category, v)
}

// SetDual records the dual of category under its declared role.
func (s *Solution) SetDual(code, category string, v float64) {
	if role, _ := s.data.Role(category); role == RoleOutput {
		s.SetOutputDual(code, category, v)
		return
	}
	s.SetInputDual(code, category, v)
}

func (s *Solution) InputDual(code, category string) float64 { return s.inputDuals[code][category] }

func (s *Solution) OutputDual(code, category string) float64 { return s.outputDuals[code][category] }

// Dual returns the dual of category under its declared role.
func (s *Solution) Dual(code, category string) float64 {
	if role, _ := s.data.Role(category); role == RoleOutput {
		return s.OutputDual(code, category)
	}
	return s.InputDual(code, category)
}

// IsEfficient reports whether code lies on the frontier: a score of 1 (or
// above 1 under super-efficiency), or a non-zero weight on itself.
func (s *Solution) IsEfficient(code string) bool {
	score := s.Score(code)
	if math.Abs(score-1) <= ZeroTolerance {
		return true
	}
	if s.super != nil && score > 1 && !math.IsInf(score, 1) {
		return true
	}
	if s.super == nil && math.Abs(s.selfWeights[code]) > ZeroTolerance {
		return true
	}
	return false
}

// CopyDMU copies every result recorded for code in from into s.
func (s *Solution) CopyDMU(from *Solution, code string) error {
	if st, ok := from.statuses[code]; ok {
		s.statuses[code] = st
	}
	if v, ok := from.scores[code]; ok {
		s.scores[code] = v
	}
	weights, err := from.PeerWeights(code)
	if err != nil {
		return err
	}
	if err := s.SetPeerWeights(code, weights); err != nil {
		return err
	}
	if d := from.inputDuals[code]; d != nil {
		s.inputDuals[code] = maps.Clone(d)
	}
	if d := from.outputDuals[code]; d != nil {
		s.outputDuals[code] = maps.Clone(d)
	}
	if s.rts != nil && from.rts != nil {
		if v, ok := from.rts.values[code]; ok {
			s.rts.Set(code, v)
		}
	}
	if s.slacks != nil && from.slacks != nil {
		for category, v := range from.slacks.values[code] {
			s.slacks.Set(code, category, v)
		}
	}
	return nil
}

// Release frees the peer-weight store. The solution must not be used
// afterwards.
func (s *Solution) Release() error {
	return s.peers.Release()
}

func setNested(m map[string]map[string]float64, outer, inner string, v float64) {
	row, ok := m[outer]
	if !ok {
		row = make(map[string]float64)
		m[outer] = row
	}
	row[inner] = v
}
