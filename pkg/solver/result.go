package solver

import (
	"context"
	"fmt"
)

// Status is the outcome of one LP solve.
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusUnbounded
	// StatusOther covers numerical failures and anything else the solver
	// could not classify.
	StatusOther
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	case StatusOther:
		return "other"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result holds the outcome of a solve. Values and Duals are indexed by VarID
// and ConstraintID and are only populated when Status is StatusOptimal.
type Result struct {
	Status    Status
	Objective float64
	Values    []float64
	Duals     []float64
}

func (r *Result) IsOptimal() bool { return r.Status == StatusOptimal }

func (r *Result) IsInfeasible() bool { return r.Status == StatusInfeasible }

func (r *Result) IsUnbounded() bool { return r.Status == StatusUnbounded }

// Value returns the value of variable id, or 0 when no solution is available.
func (r *Result) Value(id VarID) float64 {
	if int(id) >= len(r.Values) {
		return 0
	}
	return r.Values[id]
}

// Dual returns the shadow price of row id, or 0 when none is available.
func (r *Result) Dual(id ConstraintID) float64 {
	if int(id) >= len(r.Duals) {
		return 0
	}
	return r.Duals[id]
}

// Solver solves linear programs. A non-optimal status is reported through
// Result.Status; an error means the solve could not be attempted, for
// example because ctx was cancelled.
type Solver interface {
	Solve(ctx context.Context, p *Problem) (*Result, error)
}
