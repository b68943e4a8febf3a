package model

import (
	"fmt"

	"github.com/araith/godea/pkg/core"
	"github.com/araith/godea/pkg/solver"
)

// Option configures a base model.
type Option func(*base)

// WithSession sets the Session that issues Solutions. Models share a
// default session otherwise.
func WithSession(s *core.Session) Option {
	return func(b *base) { b.session = s }
}

// WithComparison restricts the initial comparison set.
func WithComparison(codes []string) Option {
	return func(b *base) { b.comparison = b.data.Order(codes) }
}

// base holds the state shared by both LP builders.
type base struct {
	data        *core.DataSet
	orientation Orientation
	session     *core.Session
	builder     ConstraintBuilder
	comparison  []string

	problem *solver.Problem
	layout  *Layout
}

func newBase(data *core.DataSet, o Orientation, opts []Option) (*base, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	if o == nil {
		return nil, fmt.Errorf("%w: nil orientation", ErrUnsupported)
	}
	b := &base{
		data:        data,
		orientation: o,
		builder:     DefaultConstraintBuilder{},
		comparison:  data.DMUCodes(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.session == nil {
		b.session = core.NewSession()
	}
	return b, nil
}

func (b *base) Data() *core.DataSet { return b.data }

func (b *base) Orientation() Orientation { return b.orientation }

func (b *base) Session() *core.Session { return b.session }

func (b *base) Comparison() []string { return append([]string(nil), b.comparison...) }

func (b *base) SetComparison(codes []string) { b.comparison = b.data.Order(codes) }

func (b *base) ConstraintBuilder() ConstraintBuilder { return b.builder }

func (b *base) SetConstraintBuilder(cb ConstraintBuilder) { b.builder = cb }

func (b *base) Problem() *solver.Problem { return b.problem }

func (b *base) Layout() *Layout { return b.layout }

func (b *base) NewSolution() (*core.Solution, error) {
	return b.session.NewSolution(b.data)
}

// categories returns the LP-relevant categories, outputs first.
func (b *base) categories() []string {
	return append(b.data.OutputCategories(), b.data.InputCategories()...)
}

// sign is +1 for outputs and -1 for inputs.
func (b *base) sign(category string) float64 {
	if role, _ := b.data.Role(category); role == core.RoleOutput {
		return 1
	}
	return -1
}

// initialDMU is the DMU the template is first built for.
func (b *base) initialDMU() string {
	if len(b.comparison) > 0 {
		return b.comparison[0]
	}
	return b.data.DMUCodes()[0]
}

func (b *base) checkDMU(code string) error {
	if b.problem == nil {
		return ErrNotBuilt
	}
	if !b.data.HasDMU(code) {
		return fmt.Errorf("%w: %q", core.ErrUnknownDMU, code)
	}
	return nil
}
