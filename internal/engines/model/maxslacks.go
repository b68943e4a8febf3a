package model

import (
	"context"
	"fmt"
	"math"

	"github.com/araith/godea/internal/logging"
	"github.com/araith/godea/pkg/core"
	"github.com/araith/godea/pkg/solver"
)

// phaseOneSlack is the relative tolerance on the fixed phase-one objective.
const phaseOneSlack = 1e-7

// MaxSlacksDecorator runs two-phase slack maximization. Phase one is the
// wrapped model's ordinary run. Phase two fixes each optimal DMU's
// phase-one objective and maximizes the sum of category slacks, producing
// the secondary Solution of the Result. Secondary solutions carry no
// scores of their own.
type MaxSlacksDecorator struct {
	Model
}

// NewMaxSlacksDecorator wraps an envelopment model.
func NewMaxSlacksDecorator(m Model) (*MaxSlacksDecorator, error) {
	if m.Form() != Envelopment {
		return nil, ErrTwoPhaseMultiplier
	}
	return &MaxSlacksDecorator{Model: m}, nil
}

func (d *MaxSlacksDecorator) RunFor(ctx context.Context, env Env, dmus []string) (*Result, error) {
	primary, err := RunFor(ctx, d.Model, env, dmus)
	if err != nil {
		return nil, err
	}
	secondary, err := d.phaseTwo(ctx, env, dmus, primary.Primary)
	if err != nil {
		_ = primary.Release()
		return nil, err
	}
	return &Result{Primary: primary.Primary, Secondary: secondary}, nil
}

func (d *MaxSlacksDecorator) phaseTwo(ctx context.Context, env Env, dmus []string, primary *core.Solution) (*core.Solution, error) {
	sol, err := d.Model.NewSolution()
	if err != nil {
		return nil, err
	}
	sol.SupplyScores()
	slacks := sol.AttachSlacks()

	restore := d.Model.Comparison()
	defer d.Model.SetComparison(restore)
	if err := d.Model.Build(); err != nil {
		_ = sol.Release()
		return nil, fmt.Errorf("building %s model: %w", d.Form(), err)
	}

	// A lone super-efficient DMU has no reference set to move towards.
	lone := sol.SuperEfficiency() && len(restore) == 1

	logger := logging.FromContext(ctx)
	lp := env.solver()
	for _, code := range dmus {
		if err := ctx.Err(); err != nil {
			_ = sol.Release()
			return nil, err
		}
		if st, ok := primary.Status(code); !ok || st != solver.StatusOptimal {
			if ok {
				sol.SetStatus(code, st)
			}
			continue
		}
		if lone {
			sol.SetStatus(code, solver.StatusOptimal)
			for category := range d.Layout().CategoryRows {
				slacks.Set(code, category, 0)
			}
			continue
		}
		if err := d.Model.Update(code); err != nil {
			_ = sol.Release()
			return nil, err
		}
		p, vars := d.slackProblem(d.Orientation().RawScore(primary.Score(code)))
		res, err := lp.Solve(ctx, p)
		if err != nil {
			_ = sol.Release()
			return nil, fmt.Errorf("maximizing slacks of DMU %q: %w", d.Data().Name(code), err)
		}
		if err := d.Model.FillSolution(code, res, sol); err != nil {
			_ = sol.Release()
			return nil, err
		}
		if res.IsOptimal() {
			for category, v := range vars {
				slacks.Set(code, category, res.Value(v))
			}
		}
		logger.V(logging.DEBUG).Info("Maximized slacks", "dmu", d.Data().Name(code), "status", res.Status.String())
	}
	return sol, nil
}

// slackProblem derives the phase-two LP from the current template: the
// phase-one objective is held at raw and every inequality category row
// gets a slack column whose sum is maximized.
func (d *MaxSlacksDecorator) slackProblem(raw float64) (*solver.Problem, map[string]solver.VarID) {
	p := d.Problem().Clone()
	objective := make(map[solver.VarID]float64)
	for v := solver.VarID(0); int(v) < p.NumVariables(); v++ {
		if c := p.Cost(v); c != 0 {
			objective[v] = c
		}
	}
	tol := phaseOneSlack * math.Max(1, math.Abs(raw))
	if p.Sense() == solver.Minimize {
		p.AddConstraint("phase_one", solver.LessEqual, raw+tol, objective)
	} else {
		p.AddConstraint("phase_one", solver.GreaterEqual, raw-tol, objective)
	}
	p.ClearObjective()
	p.SetSense(solver.Maximize)

	vars := make(map[string]solver.VarID)
	for category, row := range d.Layout().CategoryRows {
		if p.Kind(row) != solver.GreaterEqual {
			continue
		}
		s := p.AddVariable("slack_"+category, 0, math.Inf(1))
		p.SetCoefficient(row, s, -1)
		p.SetKind(row, solver.Equal)
		p.SetCost(s, 1)
		vars[category] = s
	}
	return p, vars
}
