package solver

import (
	"errors"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	// dualFeasibilityTol bounds the scaled violation of a'y <= c and of the
	// duality gap for a recovered dual vector to be accepted.
	dualFeasibilityTol = 1e-7
	// maxBasisCondition is the largest basis condition number accepted when
	// solving B'y = c_B.
	maxBasisCondition = 1e12
	// perturbationScale sizes the right-hand side shift used to break
	// degeneracy before reading an optimal basis.
	perturbationScale = 1e-8
)

// reducedForm is the full-row-rank system min c'x s.t. a x = b, x >= 0.
type reducedForm struct {
	a *mat.Dense
	b []float64
	c []float64
}

// dualValues returns duals y for the optimal solution x. Candidates are tried
// in order: an optimal basis read from x, the dual LP, and the optimal basis of
// a slightly perturbed problem. The first candidate that is dual feasible and
// closes the duality gap is returned. Otherwise the candidate with the smallest
// violation is used, falling back to zero.
func (r *reducedForm) dualValues(x []float64, tol float64) []float64 {
	m, _ := r.a.Dims()
	objective := floats.Dot(r.c, x)

	var best []float64
	bestViolation := math.Inf(1)
	candidates := []func() []float64{
		func() []float64 { return r.basisDuals(x) },
		func() []float64 { return r.lpDuals(tol) },
		func() []float64 { return r.perturbedDuals(tol) },
	}
	for _, candidate := range candidates {
		y := candidate()
		if y == nil {
			continue
		}
		v := r.violation(y, objective)
		if v < bestViolation {
			best, bestViolation = y, v
		}
		if v <= dualFeasibilityTol {
			return y
		}
	}
	if best == nil {
		return make([]float64, m)
	}
	return best
}

// violation is the largest scaled amount by which y breaks a'y <= c or misses
// b'y = objective.
func (r *reducedForm) violation(y []float64, objective float64) float64 {
	_, n := r.a.Dims()
	col := make([]float64, len(y))
	worst := math.Abs(floats.Dot(r.b, y)-objective) / math.Max(1, math.Abs(objective))
	for j := 0; j < n; j++ {
		mat.Col(col, j, r.a)
		excess := (floats.Dot(col, y) - r.c[j]) / math.Max(1, math.Abs(r.c[j]))
		worst = math.Max(worst, excess)
	}
	return worst
}

// basisDuals solves B'y = c_B for a basis holding every column x uses. A
// degenerate x uses fewer than m columns; the basis is then completed with
// unused columns, taken once in index order and once in reverse, and the
// first completion that is dual feasible wins.
func (r *reducedForm) basisDuals(x []float64) []float64 {
	m, n := r.a.Dims()
	used := make([]int, 0, m)
	var unused []int
	for j := 0; j < n; j++ {
		if x[j] > 0 {
			used = append(used, j)
		} else {
			unused = append(unused, j)
		}
	}
	sort.SliceStable(used, func(p, q int) bool { return x[used[p]] > x[used[q]] })

	var fallback []float64
	for _, tail := range [][]int{unused, reversed(unused)} {
		basis := r.independentColumns(append(slices.Clone(used), tail...), m)
		if len(basis) < m {
			continue
		}
		y := r.solveBasis(basis)
		if y == nil {
			continue
		}
		if r.reducedCostsNonNegative(y) {
			return y
		}
		if fallback == nil {
			fallback = y
		}
	}
	return fallback
}

// perturbedDuals shifts b so that the optimal vertex is non-degenerate, then
// reads duals from the basis of that vertex. Dual feasibility does not depend
// on b, so the result is feasible for the unperturbed problem as well.
func (r *reducedForm) perturbedDuals(tol float64) []float64 {
	m, _ := r.a.Dims()
	b := make([]float64, m)
	for i := range b {
		b[i] = r.b[i] + perturbationScale*math.Max(1, math.Abs(r.b[i]))*float64(i+1)/float64(m)
	}
	_, x, err := lp.Simplex(slices.Clone(r.c), mat.DenseCopyOf(r.a), b, tol, nil)
	if err != nil {
		return nil
	}
	return r.basisDuals(x)
}

// lpDuals solves max b'y s.t. a'y <= c, written for gonum as
// min -b'(y+ - y-) s.t. a'y+ - a'y- + t = c.
func (r *reducedForm) lpDuals(tol float64) []float64 {
	m, n := r.a.Dims()
	D := mat.NewDense(n, 2*m+n, nil)
	cost := make([]float64, 2*m+n)
	for j := 0; j < n; j++ {
		for i := 0; i < m; i++ {
			if v := r.a.At(i, j); v != 0 {
				D.Set(j, i, v)
				D.Set(j, m+i, -v)
			}
		}
		D.Set(j, 2*m+j, 1)
	}
	for i := 0; i < m; i++ {
		cost[i] = -r.b[i]
		cost[m+i] = r.b[i]
	}

	_, v, err := lp.Simplex(cost, D, slices.Clone(r.c), tol, nil)
	if err != nil {
		return nil
	}
	y := make([]float64, m)
	for i := range y {
		y[i] = v[i] - v[m+i]
	}
	return y
}

// independentColumns picks up to limit linearly independent columns of a,
// scanning candidates in order.
func (r *reducedForm) independentColumns(candidates []int, limit int) []int {
	m, _ := r.a.Dims()
	var (
		keep  []int
		basis [][]float64
	)
	for _, j := range candidates {
		if len(keep) == limit {
			break
		}
		col := mat.Col(make([]float64, m), j, r.a)
		norm := floats.Norm(col, 2)
		if norm == 0 {
			continue
		}
		for _, q := range basis {
			floats.AddScaled(col, -floats.Dot(col, q), q)
		}
		rn := floats.Norm(col, 2)
		if rn <= dependentRowTol*norm {
			continue
		}
		floats.Scale(1/rn, col)
		basis = append(basis, col)
		keep = append(keep, j)
	}
	return keep
}

// solveBasis returns y with B'y = c_B, or nil when B is singular or too badly
// conditioned.
func (r *reducedForm) solveBasis(basis []int) []float64 {
	m := len(basis)
	B := mat.NewDense(m, m, nil)
	cB := mat.NewVecDense(m, nil)
	for k, j := range basis {
		for i := 0; i < m; i++ {
			B.Set(i, k, r.a.At(i, j))
		}
		cB.SetVec(k, r.c[j])
	}
	var y mat.VecDense
	if err := y.SolveVec(B.T(), cB); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || float64(cond) > maxBasisCondition {
			return nil
		}
	}
	out := make([]float64, m)
	for i := range out {
		out[i] = y.AtVec(i)
	}
	return out
}

func (r *reducedForm) reducedCostsNonNegative(y []float64) bool {
	_, n := r.a.Dims()
	col := make([]float64, len(y))
	for j := 0; j < n; j++ {
		mat.Col(col, j, r.a)
		if floats.Dot(col, y)-r.c[j] > dualFeasibilityTol*math.Max(1, math.Abs(r.c[j])) {
			return false
		}
	}
	return true
}

func reversed(s []int) []int {
	out := slices.Clone(s)
	slices.Reverse(out)
	return out
}
