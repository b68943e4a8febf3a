package solver

import (
	"fmt"
	"maps"
	"math"
)

// Sense is the optimization direction of a Problem.
type Sense int

const (
	Minimize Sense = iota
	Maximize
)

func (s Sense) String() string {
	if s == Maximize {
		return "maximize"
	}
	return "minimize"
}

// Kind is the comparison operator of a constraint row.
type Kind int

const (
	LessEqual Kind = iota
	GreaterEqual
	Equal
)

func (k Kind) String() string {
	switch k {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	case Equal:
		return "="
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// VarID identifies a variable within the Problem that created it.
type VarID int

// ConstraintID identifies a constraint row within the Problem that created it.
type ConstraintID int

// Variable is a decision variable with its bounds and objective cost.
// Infinite bounds are expressed with math.Inf.
type Variable struct {
	Name  string
	Lower float64
	Upper float64
	Cost  float64
}

// Constraint is one row: sum(Coeffs[v] * x[v]) Kind RHS.
type Constraint struct {
	Name     string
	Kind     Kind
	RHS      float64
	Coeffs   map[VarID]float64
	Disabled bool
}

// Problem is a mutable linear program. It is not safe for concurrent use.
type Problem struct {
	name  string
	sense Sense
	vars  []Variable
	rows  []Constraint
}

// NewProblem creates an empty problem.
func NewProblem(name string, sense Sense) *Problem {
	return &Problem{name: name, sense: sense}
}

func (p *Problem) Name() string { return p.name }

func (p *Problem) Sense() Sense { return p.sense }

func (p *Problem) SetSense(s Sense) { p.sense = s }

// AddVariable appends a variable with the given bounds and a zero cost.
func (p *Problem) AddVariable(name string, lower, upper float64) VarID {
	p.vars = append(p.vars, Variable{Name: name, Lower: lower, Upper: upper})
	return VarID(len(p.vars) - 1)
}

// AddFreeVariable appends a variable without bounds.
func (p *Problem) AddFreeVariable(name string) VarID {
	return p.AddVariable(name, math.Inf(-1), math.Inf(1))
}

func (p *Problem) Variable(id VarID) Variable { return p.vars[id] }

func (p *Problem) NumVariables() int { return len(p.vars) }

func (p *Problem) SetBounds(id VarID, lower, upper float64) {
	p.vars[id].Lower = lower
	p.vars[id].Upper = upper
}

func (p *Problem) Bounds(id VarID) (lower, upper float64) {
	return p.vars[id].Lower, p.vars[id].Upper
}

func (p *Problem) SetCost(id VarID, cost float64) { p.vars[id].Cost = cost }

func (p *Problem) Cost(id VarID) float64 { return p.vars[id].Cost }

// ClearObjective resets every objective cost to zero.
func (p *Problem) ClearObjective() {
	for i := range p.vars {
		p.vars[i].Cost = 0
	}
}

// AddConstraint appends a row. The coefficient map is copied; zero entries
// are dropped.
func (p *Problem) AddConstraint(name string, kind Kind, rhs float64, coeffs map[VarID]float64) ConstraintID {
	row := Constraint{Name: name, Kind: kind, RHS: rhs, Coeffs: make(map[VarID]float64, len(coeffs))}
	for v, c := range coeffs {
		p.checkVar(v)
		if c != 0 {
			row.Coeffs[v] = c
		}
	}
	p.rows = append(p.rows, row)
	return ConstraintID(len(p.rows) - 1)
}

func (p *Problem) Constraint(id ConstraintID) Constraint {
	row := p.rows[id]
	row.Coeffs = maps.Clone(row.Coeffs)
	return row
}

func (p *Problem) NumConstraints() int { return len(p.rows) }

// SetCoefficient sets the coefficient of variable v in row id.
func (p *Problem) SetCoefficient(id ConstraintID, v VarID, c float64) {
	p.checkVar(v)
	if c == 0 {
		delete(p.rows[id].Coeffs, v)
		return
	}
	p.rows[id].Coeffs[v] = c
}

func (p *Problem) Coefficient(id ConstraintID, v VarID) float64 { return p.rows[id].Coeffs[v] }

func (p *Problem) SetRHS(id ConstraintID, rhs float64) { p.rows[id].RHS = rhs }

func (p *Problem) RHS(id ConstraintID) float64 { return p.rows[id].RHS }

func (p *Problem) SetKind(id ConstraintID, kind Kind) { p.rows[id].Kind = kind }

func (p *Problem) Kind(id ConstraintID) Kind { return p.rows[id].Kind }

// SetEnabled toggles a row. Disabled rows are ignored by solvers and report a
// zero dual.
func (p *Problem) SetEnabled(id ConstraintID, enabled bool) { p.rows[id].Disabled = !enabled }

func (p *Problem) Enabled(id ConstraintID) bool { return !p.rows[id].Disabled }

// Evaluate returns the objective value of the given variable assignment.
func (p *Problem) Evaluate(values []float64) float64 {
	var obj float64
	for i, v := range p.vars {
		if v.Cost != 0 {
			obj += v.Cost * values[i]
		}
	}
	return obj
}

// Clone returns a deep copy. Identifiers issued by p stay valid in the copy.
func (p *Problem) Clone() *Problem {
	c := &Problem{
		name:  p.name,
		sense: p.sense,
		vars:  make([]Variable, len(p.vars)),
		rows:  make([]Constraint, len(p.rows)),
	}
	copy(c.vars, p.vars)
	for i, row := range p.rows {
		row.Coeffs = maps.Clone(row.Coeffs)
		c.rows[i] = row
	}
	return c
}

func (p *Problem) checkVar(v VarID) {
	if v < 0 || int(v) >= len(p.vars) {
		panic(fmt.Sprintf("solver: variable %d out of range [0,%d)", v, len(p.vars)))
	}
}
