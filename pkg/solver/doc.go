// Package solver provides the linear-programming layer used by the DEA engine.
//
// A Problem is a general LP: bounded variables, a linear objective to minimize
// or maximize, and rows of kind <=, >= or =. Variables and rows are addressed
// through stable identifiers (VarID, ConstraintID) handed out when they are
// added, so model builders can rewrite individual coefficients, right-hand
// sides and bounds between solves without rebuilding the problem.
//
// Key Components:
//
//   - Problem: the mutable LP template
//   - Solver: black-box solving capability returning a Result
//   - Simplex: Solver backed by gonum's optimize/convex/lp
//
// Dual Convention:
//
// Result.Dual reports d(objective)/d(rhs) for every row. For a minimization a
// binding >= row therefore has a non-negative dual, and for a maximization a
// binding >= row has a non-positive one. Rows that were dropped as linearly
// dependent, and disabled rows, report 0.
//
// Example usage:
//
//	p := solver.NewProblem("example", solver.Minimize)
//	x := p.AddVariable("x", 0, math.Inf(1))
//	p.SetCost(x, 1)
//	row := p.AddConstraint("floor", solver.GreaterEqual, 2, map[solver.VarID]float64{x: 1})
//
//	res, err := solver.NewSimplex().Solve(ctx, p)
//	if err != nil {
//	    return err
//	}
//	if res.IsOptimal() {
//	    fmt.Println(res.Value(x), res.Dual(row)) // 2 1
//	}
package solver
