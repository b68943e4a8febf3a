package model

import (
	"context"
	"slices"

	"github.com/araith/godea/pkg/core"
	"github.com/araith/godea/pkg/solver"
)

// SuperEfficiencyDecorator evaluates every DMU against a reference set that
// excludes the DMU itself, so efficient units may score above 1.
//
// In the envelopment form the template is rebuilt for each DMU over the
// full comparison set minus that DMU. In the multiplier form the DMU's own
// comparison row is disabled instead. The wrapped envelopment model must
// have been created with BoundsFor(o, true).
type SuperEfficiencyDecorator struct {
	Model
	full     []string
	disabled string
}

func NewSuperEfficiencyDecorator(m Model) *SuperEfficiencyDecorator {
	return &SuperEfficiencyDecorator{Model: m}
}

// RunFor evaluates dmus. A comparison set of one DMU has nothing to
// compare against: that DMU is reported optimal with score 1 without
// calling the solver.
func (d *SuperEfficiencyDecorator) RunFor(ctx context.Context, env Env, dmus []string) (*Result, error) {
	full := d.Model.Comparison()
	d.full = full
	defer func() {
		d.Model.SetComparison(full)
		d.full = nil
	}()
	if len(full) == 1 {
		return d.trivial(ctx, env, dmus)
	}
	return runEach(ctx, d, env, dmus)
}

func (d *SuperEfficiencyDecorator) trivial(ctx context.Context, env Env, dmus []string) (*Result, error) {
	sol, err := d.NewSolution()
	if err != nil {
		return nil, err
	}
	rts, hasRTS := sol.RTS()
	for _, code := range dmus {
		if err := ctx.Err(); err != nil {
			_ = sol.Release()
			return nil, err
		}
		sol.SetStatus(code, solver.StatusOptimal)
		if err := sol.SetScore(code, 1); err != nil {
			_ = sol.Release()
			return nil, err
		}
		if err := sol.SetPeerWeights(code, nil); err != nil {
			_ = sol.Release()
			return nil, err
		}
		for _, category := range slices.Concat(d.Data().InputCategories(), d.Data().OutputCategories()) {
			sol.SetDual(code, category, 0)
		}
		if hasRTS {
			rts.Set(code, 0)
		}
		env.progress(code)
	}
	return &Result{Primary: sol}, nil
}

func (d *SuperEfficiencyDecorator) Build() error {
	d.disabled = ""
	return d.Model.Build()
}

func (d *SuperEfficiencyDecorator) Update(code string) error {
	if d.Form() == Multiplier {
		return d.updateMultiplier(code)
	}
	full := d.full
	if full == nil {
		full = d.Model.Comparison()
		d.full = full
	}
	d.Model.SetComparison(slices.DeleteFunc(slices.Clone(full), func(c string) bool { return c == code }))
	if err := d.Model.Build(); err != nil {
		return err
	}
	return d.Model.Update(code)
}

func (d *SuperEfficiencyDecorator) updateMultiplier(code string) error {
	p, rows := d.Problem(), d.Layout().PeerRows
	if d.disabled != "" {
		p.SetEnabled(rows[d.disabled], true)
		d.disabled = ""
	}
	if row, ok := rows[code]; ok {
		p.SetEnabled(row, false)
		d.disabled = code
	}
	return d.Model.Update(code)
}

// Comparison reports the full reference set while a run is in progress.
func (d *SuperEfficiencyDecorator) Comparison() []string {
	if d.full != nil {
		return slices.Clone(d.full)
	}
	return d.Model.Comparison()
}

func (d *SuperEfficiencyDecorator) SetComparison(codes []string) {
	d.full = nil
	d.Model.SetComparison(codes)
}

func (d *SuperEfficiencyDecorator) NewSolution() (*core.Solution, error) {
	sol, err := d.Model.NewSolution()
	if err != nil {
		return nil, err
	}
	sol.AttachSuperEfficiency()
	return sol, nil
}
