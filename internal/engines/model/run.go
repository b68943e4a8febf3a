package model

import (
	"context"
	"fmt"

	"github.com/araith/godea/internal/logging"
	"github.com/araith/godea/pkg/core"
	"github.com/araith/godea/pkg/solver"
)

// ProgressFunc is called after each DMU has been solved.
type ProgressFunc func(dmuCode string)

// Env carries what a run needs besides the model.
type Env struct {
	// Solver defaults to solver.NewSimplex().
	Solver   solver.Solver
	Progress ProgressFunc
}

func (e Env) solver() solver.Solver {
	if e.Solver == nil {
		return solver.NewSimplex()
	}
	return e.Solver
}

func (e Env) progress(code string) {
	if e.Progress != nil {
		e.Progress(code)
	}
}

// Result pairs the primary Solution of a run with the secondary Solution
// produced by two-phase slack maximization, when enabled.
type Result struct {
	Primary   *core.Solution
	Secondary *core.Solution
}

// Release frees the peer-weight stores of both solutions.
func (r *Result) Release() error {
	if r == nil {
		return nil
	}
	var err error
	if r.Primary != nil {
		err = r.Primary.Release()
	}
	if r.Secondary != nil {
		if serr := r.Secondary.Release(); err == nil {
			err = serr
		}
	}
	return err
}

// Runner is implemented by decorators that change which DMUs take part in
// a run or how many LPs each DMU needs.
type Runner interface {
	RunFor(ctx context.Context, env Env, dmus []string) (*Result, error)
}

// Run evaluates every DMU of m's comparison set.
func Run(ctx context.Context, m Model, env Env) (*Result, error) {
	return RunFor(ctx, m, env, m.Comparison())
}

// RunFor evaluates the listed DMUs in data order. Evaluation stops at the
// first error or when ctx is cancelled.
func RunFor(ctx context.Context, m Model, env Env, dmus []string) (*Result, error) {
	dmus = m.Data().Order(dmus)
	if r, ok := m.(Runner); ok {
		return r.RunFor(ctx, env, dmus)
	}
	return runEach(ctx, m, env, dmus)
}

func runEach(ctx context.Context, m Model, env Env, dmus []string) (*Result, error) {
	if err := m.Build(); err != nil {
		return nil, fmt.Errorf("building %s model: %w", m.Form(), err)
	}
	sol, err := m.NewSolution()
	if err != nil {
		return nil, err
	}
	res := &Result{Primary: sol}
	if err := solveEach(ctx, m, env, dmus, sol); err != nil {
		_ = res.Release()
		return nil, err
	}
	return res, nil
}

// solveEach updates, solves and records one LP per DMU on a built model.
func solveEach(ctx context.Context, m Model, env Env, dmus []string, sol *core.Solution) error {
	logger := logging.FromContext(ctx)
	lp := env.solver()
	for _, code := range dmus {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.Update(code); err != nil {
			return err
		}
		out, err := lp.Solve(ctx, m.Problem())
		if err != nil {
			return fmt.Errorf("solving DMU %q: %w", m.Data().Name(code), err)
		}
		if err := m.FillSolution(code, out, sol); err != nil {
			return err
		}
		logger.V(logging.DEBUG).Info("Solved DMU",
			"dmu", m.Data().Name(code),
			"status", out.Status.String(),
			"score", sol.Score(code))
		env.progress(code)
	}
	return nil
}
