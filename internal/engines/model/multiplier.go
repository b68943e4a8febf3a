package model

import (
	"fmt"
	"math"

	"github.com/araith/godea/pkg/core"
	"github.com/araith/godea/pkg/solver"
)

// MultiplierModel is the dual DEA model: one weight per category, one
// comparison row per DMU (weighted outputs - weighted inputs <= 0) and a
// normalization row fixing the evaluated DMU's weighted inputs (input
// orientation) or outputs (output orientation) to 1.
type MultiplierModel struct {
	*base
	tolerance float64
}

// NewMultiplierModel returns an unbuilt multiplier model whose weights are
// bounded below by tolerance.
func NewMultiplierModel(data *core.DataSet, o Orientation, tolerance float64, opts ...Option) (*MultiplierModel, error) {
	if tolerance < 0 || math.IsNaN(tolerance) {
		return nil, fmt.Errorf("%w: multiplier tolerance %v must be non-negative", ErrUnsupported, tolerance)
	}
	b, err := newBase(data, o, opts)
	if err != nil {
		return nil, err
	}
	return &MultiplierModel{base: b, tolerance: tolerance}, nil
}

func (m *MultiplierModel) Form() Form { return Multiplier }

// Tolerance is the lower bound of every strongly-disposable weight.
func (m *MultiplierModel) Tolerance() float64 { return m.tolerance }

func (m *MultiplierModel) Build() error {
	p := solver.NewProblem("multiplier-"+m.orientation.Name(), m.orientation.MultiplierSense())
	layout := &Layout{
		Weights:  make(map[string]solver.VarID),
		PeerRows: make(map[string]solver.ConstraintID, len(m.comparison)),
	}
	for _, category := range m.categories() {
		lower := m.tolerance
		if m.builder.Kind(category) == solver.Equal {
			lower = math.Inf(-1)
		}
		layout.Weights[category] = p.AddVariable("weight_"+category, lower, math.Inf(1))
	}
	for _, code := range m.comparison {
		coeffs := make(map[solver.VarID]float64, len(layout.Weights))
		for category, w := range layout.Weights {
			coeffs[w] = m.sign(category) * m.data.Coefficient(code, category)
		}
		layout.PeerRows[code] = p.AddConstraint("peer_"+code, solver.LessEqual, 0, coeffs)
	}
	layout.Normalization = p.AddConstraint("normalization", solver.Equal, 1, nil)
	m.problem, m.layout = p, layout
	m.apply(m.initialDMU())
	return nil
}

func (m *MultiplierModel) Update(code string) error {
	if err := m.checkDMU(code); err != nil {
		return err
	}
	m.apply(code)
	return nil
}

// apply places every category either in the objective or in the
// normalization row. Non-discretionary categories of the normalized role
// move to the objective with a negative sign.
func (m *MultiplierModel) apply(code string) {
	normalized := m.orientation.Role()
	for category, w := range m.layout.Weights {
		own := m.data.Coefficient(code, category)
		role, _ := m.data.Role(category)
		switch {
		case role != normalized:
			m.problem.SetCost(w, own)
			m.problem.SetCoefficient(m.layout.Normalization, w, 0)
		case m.builder.Discretionary(category):
			m.problem.SetCost(w, 0)
			m.problem.SetCoefficient(m.layout.Normalization, w, own)
		default:
			m.problem.SetCost(w, -own)
			m.problem.SetCoefficient(m.layout.Normalization, w, 0)
		}
	}
}

func (m *MultiplierModel) FillSolution(code string, res *solver.Result, sol *core.Solution) error {
	sol.SetStatus(code, res.Status)
	if !res.IsOptimal() {
		return nil
	}
	if !sol.ScoresSupplied() {
		score := m.orientation.ProcessScore(res.Objective)
		if own, ok := m.layout.PeerRows[code]; ok && math.Abs(res.Dual(own)) > core.ZeroTolerance {
			score = 1
		}
		if err := sol.SetScore(code, score); err != nil {
			return err
		}
	}
	weights := make(map[string]float64, len(m.layout.PeerRows))
	for peer, row := range m.layout.PeerRows {
		weights[peer] = m.orientation.ProcessDual(res.Dual(row))
	}
	if err := sol.SetPeerWeights(code, weights); err != nil {
		return err
	}
	for category, w := range m.layout.Weights {
		sol.SetDual(code, category, res.Value(w))
	}
	return nil
}

var _ Model = (*MultiplierModel)(nil)
