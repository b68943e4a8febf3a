package solver

import (
	"context"
	"errors"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	// DefaultTolerance is the reduced-cost tolerance handed to gonum.
	DefaultTolerance = 1e-10

	// dependentRowTol is the relative residual below which a row is treated
	// as a linear combination of the rows before it.
	dependentRowTol = 1e-9
	// inconsistentRowTol is the residual above which a dependent row's
	// right-hand side contradicts the rows it depends on.
	inconsistentRowTol = 1e-7
)

// Simplex is a Solver backed by gonum's dense simplex implementation.
//
// Problems are converted to the standard form gonum expects (equality rows,
// non-negative columns, full row rank, no zero rows or columns). gonum does
// not report the final basis, so duals are recovered afterwards from the
// columns the optimal solution uses (see dualValues). An optimal primal is
// always reported as optimal. Simplex keeps no state between calls and is safe
// for concurrent use.
type Simplex struct {
	Tolerance float64
}

// NewSimplex returns a Simplex solver with DefaultTolerance.
func NewSimplex() *Simplex {
	return &Simplex{Tolerance: DefaultTolerance}
}

// Solve implements Solver.
func (s *Simplex) Solve(ctx context.Context, p *Problem) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tol := s.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}

	sf, status := newStandardForm(p)
	if status != StatusOptimal {
		return &Result{Status: status}, nil
	}
	if status = sf.reduce(); status != StatusOptimal {
		return &Result{Status: status}, nil
	}
	r := sf.reduced()
	z, x, status := sf.solvePrimal(r, tol)
	if status != StatusOptimal {
		return &Result{Status: status}, nil
	}
	duals := sf.duals(p.NumConstraints(), r, x, tol)
	values := sf.values(z)
	return &Result{
		Status:    StatusOptimal,
		Objective: p.Evaluate(values),
		Values:    values,
		Duals:     duals,
	}, nil
}

// columnMap expresses an original variable as shift + sum(signs[k] * z[cols[k]]).
type columnMap struct {
	shift float64
	cols  []int
	signs []float64
}

// standardForm is min c'z s.t. a z = b, z >= 0.
type standardForm struct {
	sign   float64
	vars   []columnMap
	a      [][]float64
	b      []float64
	c      []float64
	origin []int // original row per standard row, -1 for bound rows

	rows []int // rows kept after dropping zero and dependent rows
	cols []int // columns kept after dropping zero columns
	ray  bool  // a dropped zero column improves the objective without limit
}

type pendingRow struct {
	coeffs []float64
	rhs    float64
	slack  float64
	origin int
}

func newStandardForm(p *Problem) (*standardForm, Status) {
	sf := &standardForm{sign: 1, vars: make([]columnMap, len(p.vars))}
	if p.sense == Maximize {
		sf.sign = -1
	}

	var costs []float64
	type upperBound struct {
		col   int
		width float64
	}
	var uppers []upperBound
	for j, v := range p.vars {
		switch {
		case v.Lower > v.Upper:
			return nil, StatusInfeasible
		case v.Lower == v.Upper && !math.IsInf(v.Lower, 0):
			sf.vars[j] = columnMap{shift: v.Lower}
		case !math.IsInf(v.Lower, -1):
			sf.vars[j] = columnMap{shift: v.Lower, cols: []int{len(costs)}, signs: []float64{1}}
			if !math.IsInf(v.Upper, 1) {
				uppers = append(uppers, upperBound{col: len(costs), width: v.Upper - v.Lower})
			}
			costs = append(costs, sf.sign*v.Cost)
		case !math.IsInf(v.Upper, 1):
			sf.vars[j] = columnMap{shift: v.Upper, cols: []int{len(costs)}, signs: []float64{-1}}
			costs = append(costs, -sf.sign*v.Cost)
		default:
			sf.vars[j] = columnMap{cols: []int{len(costs), len(costs) + 1}, signs: []float64{1, -1}}
			costs = append(costs, sf.sign*v.Cost, -sf.sign*v.Cost)
		}
	}
	structural := len(costs)

	var pending []pendingRow
	for i, row := range p.rows {
		if row.Disabled {
			continue
		}
		r := pendingRow{coeffs: make([]float64, structural), rhs: row.RHS, origin: i}
		for v, coef := range row.Coeffs {
			m := sf.vars[v]
			r.rhs -= coef * m.shift
			for k, col := range m.cols {
				r.coeffs[col] += coef * m.signs[k]
			}
		}
		switch row.Kind {
		case LessEqual:
			r.slack = 1
		case GreaterEqual:
			r.slack = -1
		}
		pending = append(pending, r)
	}
	for _, ub := range uppers {
		r := pendingRow{coeffs: make([]float64, structural), rhs: ub.width, slack: 1, origin: -1}
		r.coeffs[ub.col] = 1
		pending = append(pending, r)
	}

	n := structural
	for _, r := range pending {
		if r.slack != 0 {
			n++
		}
	}
	sf.c = make([]float64, n)
	copy(sf.c, costs)
	sf.a = make([][]float64, len(pending))
	sf.b = make([]float64, len(pending))
	sf.origin = make([]int, len(pending))
	next := structural
	for i, r := range pending {
		full := make([]float64, n)
		copy(full, r.coeffs)
		if r.slack != 0 {
			full[next] = r.slack
			next++
		}
		sf.a[i] = full
		sf.b[i] = r.rhs
		sf.origin[i] = r.origin
	}
	return sf, StatusOptimal
}

// reduce drops zero and linearly dependent rows, then zero columns.
func (sf *standardForm) reduce() Status {
	keep, ok := independentRows(sf.a, sf.b)
	if !ok {
		return StatusInfeasible
	}
	sf.rows = keep
	for j := range sf.c {
		zero := true
		for _, i := range keep {
			if sf.a[i][j] != 0 {
				zero = false
				break
			}
		}
		if !zero {
			sf.cols = append(sf.cols, j)
			continue
		}
		if sf.c[j] < 0 {
			sf.ray = true
		}
	}
	return StatusOptimal
}

// independentRows runs modified Gram-Schmidt over the rows of a, carrying the
// right-hand side along. It returns the indices of a maximal independent set
// of rows, or false when a dependent row contradicts the rows it depends on.
func independentRows(a [][]float64, b []float64) ([]int, bool) {
	var (
		keep  []int
		basis [][]float64
		beta  []float64
	)
	for i, row := range a {
		norm := floats.Norm(row, 2)
		if norm == 0 {
			if math.Abs(b[i]) > inconsistentRowTol {
				return nil, false
			}
			continue
		}
		r := make([]float64, len(row))
		copy(r, row)
		rb := b[i]
		for k, q := range basis {
			d := floats.Dot(r, q)
			floats.AddScaled(r, -d, q)
			rb -= d * beta[k]
		}
		rn := floats.Norm(r, 2)
		if rn <= dependentRowTol*norm {
			if math.Abs(rb) > inconsistentRowTol*math.Max(1, math.Abs(b[i])) {
				return nil, false
			}
			continue
		}
		floats.Scale(1/rn, r)
		basis = append(basis, r)
		beta = append(beta, rb/rn)
		keep = append(keep, i)
	}
	return keep, true
}

// reduced returns the kept rows and columns as the dense system gonum solves.
// It is empty when no row survives reduce.
func (sf *standardForm) reduced() *reducedForm {
	m, n := len(sf.rows), len(sf.cols)
	if m == 0 {
		return &reducedForm{}
	}
	r := &reducedForm{
		a: mat.NewDense(m, n, nil),
		b: make([]float64, m),
		c: make([]float64, n),
	}
	for ii, i := range sf.rows {
		r.b[ii] = sf.b[i]
		for jj, j := range sf.cols {
			r.a.Set(ii, jj, sf.a[i][j])
		}
	}
	for jj, j := range sf.cols {
		r.c[jj] = sf.c[j]
	}
	return r
}

// solvePrimal returns the standard-form solution z together with the solution
// x of the reduced system it was read from.
func (sf *standardForm) solvePrimal(r *reducedForm, tol float64) ([]float64, []float64, Status) {
	z := make([]float64, len(sf.c))
	if len(sf.rows) == 0 {
		if sf.ray {
			return nil, nil, StatusUnbounded
		}
		return z, nil, StatusOptimal
	}

	_, x, err := lp.Simplex(slices.Clone(r.c), mat.DenseCopyOf(r.a), slices.Clone(r.b), tol, nil)
	if status := statusOf(err); status != StatusOptimal {
		return nil, nil, status
	}
	if sf.ray {
		return nil, nil, StatusUnbounded
	}
	for jj, j := range sf.cols {
		z[j] = x[jj]
	}
	return z, x, StatusOptimal
}

// duals maps the reduced dual values back onto the original rows.
func (sf *standardForm) duals(numRows int, r *reducedForm, x []float64, tol float64) []float64 {
	duals := make([]float64, numRows)
	if len(sf.rows) == 0 {
		return duals
	}
	y := r.dualValues(x, tol)
	for ii, i := range sf.rows {
		if o := sf.origin[i]; o >= 0 {
			duals[o] = sf.sign * y[ii]
		}
	}
	return duals
}

func (sf *standardForm) values(z []float64) []float64 {
	values := make([]float64, len(sf.vars))
	for j, m := range sf.vars {
		v := m.shift
		for k, col := range m.cols {
			v += m.signs[k] * z[col]
		}
		values[j] = v
	}
	return values
}

func statusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOptimal
	case errors.Is(err, lp.ErrInfeasible):
		return StatusInfeasible
	case errors.Is(err, lp.ErrUnbounded):
		return StatusUnbounded
	default:
		return StatusOther
	}
}
