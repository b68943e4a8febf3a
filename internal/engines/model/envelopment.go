package model

import (
	"math"

	"github.com/araith/godea/pkg/core"
	"github.com/araith/godea/pkg/solver"
)

// EnvelopmentModel is the primal DEA model. The template holds one
// efficiency variable, one peer weight per comparison DMU and one row per
// category:
//
//	outputs: sum_j lambda_j y_rj - M y_ro >= 0
//	inputs:  M x_io - sum_j lambda_j x_ij >= 0
//
// where M is the efficiency variable on the orientation's side and the
// constant 1 otherwise. Constant terms are moved to the right-hand side.
type EnvelopmentModel struct {
	*base
	bounds Bounds
}

// NewEnvelopmentModel returns an unbuilt envelopment model.
func NewEnvelopmentModel(data *core.DataSet, o Orientation, bounds Bounds, opts ...Option) (*EnvelopmentModel, error) {
	b, err := newBase(data, o, opts)
	if err != nil {
		return nil, err
	}
	return &EnvelopmentModel{base: b, bounds: bounds}, nil
}

func (m *EnvelopmentModel) Form() Form { return Envelopment }

func (m *EnvelopmentModel) Build() error {
	p := solver.NewProblem("envelopment-"+m.orientation.Name(), m.orientation.EnvelopmentSense())
	layout := &Layout{
		Peers:        make(map[string]solver.VarID, len(m.comparison)),
		CategoryRows: make(map[string]solver.ConstraintID),
	}
	layout.Efficiency = p.AddVariable("efficiency", m.bounds.Lower, m.bounds.Upper)
	p.SetCost(layout.Efficiency, 1)
	for _, code := range m.comparison {
		layout.Peers[code] = p.AddVariable("lambda_"+code, 0, math.Inf(1))
	}
	for _, category := range m.categories() {
		sign := m.sign(category)
		coeffs := make(map[solver.VarID]float64, len(m.comparison))
		for _, code := range m.comparison {
			coeffs[layout.Peers[code]] = sign * m.data.Coefficient(code, category)
		}
		layout.CategoryRows[category] = p.AddConstraint(category, m.builder.Kind(category), 0, coeffs)
	}
	m.problem, m.layout = p, layout
	m.apply(m.initialDMU())
	return nil
}

func (m *EnvelopmentModel) Update(code string) error {
	if err := m.checkDMU(code); err != nil {
		return err
	}
	m.apply(code)
	return nil
}

func (m *EnvelopmentModel) apply(code string) {
	for category, row := range m.layout.CategoryRows {
		own := m.sign(category) * m.data.Coefficient(code, category)
		if m.carries(category) {
			m.problem.SetCoefficient(row, m.layout.Efficiency, -own)
			m.problem.SetRHS(row, 0)
			continue
		}
		m.problem.SetCoefficient(row, m.layout.Efficiency, 0)
		m.problem.SetRHS(row, own)
	}
}

// carries reports whether the efficiency variable multiplies the
// evaluated DMU's coefficient in the category's row.
func (m *EnvelopmentModel) carries(category string) bool {
	role, _ := m.data.Role(category)
	return role == m.orientation.Role() && m.builder.Discretionary(category)
}

func (m *EnvelopmentModel) FillSolution(code string, res *solver.Result, sol *core.Solution) error {
	sol.SetStatus(code, res.Status)
	if !res.IsOptimal() {
		return nil
	}
	if !sol.ScoresSupplied() {
		if err := sol.SetScore(code, m.orientation.ProcessScore(res.Objective)); err != nil {
			return err
		}
	}
	weights := make(map[string]float64, len(m.layout.Peers))
	for peer, v := range m.layout.Peers {
		weights[peer] = res.Value(v)
	}
	if err := sol.SetPeerWeights(code, weights); err != nil {
		return err
	}
	for category, row := range m.layout.CategoryRows {
		sol.SetDual(code, category, m.orientation.ProcessDual(res.Dual(row)))
	}
	return nil
}

var _ Model = (*EnvelopmentModel)(nil)
