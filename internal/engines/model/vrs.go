package model

import (
	"github.com/araith/godea/pkg/core"
	"github.com/araith/godea/pkg/solver"
)

// VRSDecorator imposes variable returns to scale. In the envelopment form
// it adds sum(lambda) = 1; in the multiplier form it adds a free variable
// to the objective and every comparison row. The resulting dual is
// recorded through the Solution's RTS extension.
type VRSDecorator struct {
	Model
	convexity solver.ConstraintID
	free      solver.VarID
}

func NewVRSDecorator(m Model) *VRSDecorator {
	return &VRSDecorator{Model: m}
}

func (d *VRSDecorator) Build() error {
	if err := d.Model.Build(); err != nil {
		return err
	}
	p, layout := d.Problem(), d.Layout()
	switch d.Form() {
	case Envelopment:
		coeffs := make(map[solver.VarID]float64, len(layout.Peers))
		for _, v := range layout.Peers {
			coeffs[v] = 1
		}
		d.convexity = p.AddConstraint("convexity", solver.Equal, 1, coeffs)
	case Multiplier:
		d.free = p.AddFreeVariable("vrs")
		p.SetCost(d.free, 1)
		sign := d.Orientation().VRSSign()
		for _, row := range layout.PeerRows {
			p.SetCoefficient(row, d.free, sign)
		}
	}
	return nil
}

func (d *VRSDecorator) NewSolution() (*core.Solution, error) {
	sol, err := d.Model.NewSolution()
	if err != nil {
		return nil, err
	}
	sol.AttachRTS()
	return sol, nil
}

func (d *VRSDecorator) FillSolution(code string, res *solver.Result, sol *core.Solution) error {
	if err := d.Model.FillSolution(code, res, sol); err != nil {
		return err
	}
	if !res.IsOptimal() {
		return nil
	}
	var raw float64
	if d.Form() == Envelopment {
		raw = res.Dual(d.convexity)
	} else {
		raw = res.Value(d.free)
	}
	sol.AttachRTS().Set(code, d.Orientation().ProcessDual(raw))
	return nil
}
