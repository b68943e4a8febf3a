package model

import (
	"errors"
	"fmt"

	"github.com/araith/godea/pkg/core"
	"github.com/araith/godea/pkg/solver"
)

var (
	// ErrUnsupported is returned for unknown orientations, forms or restriction kinds.
	ErrUnsupported = errors.New("unsupported model option")
	// ErrCategoryRole is returned when a special category does not have the role it needs.
	ErrCategoryRole = errors.New("category does not have the required role")
	// ErrInvalidRestriction is returned for weight-restriction expressions that do not parse.
	ErrInvalidRestriction = errors.New("invalid weight restriction")
	// ErrTwoPhaseMultiplier is returned when slack maximization wraps a multiplier model.
	ErrTwoPhaseMultiplier = errors.New("two-phase slack maximization requires the envelopment form")
	// ErrNotBuilt is returned when a model is updated before Build.
	ErrNotBuilt = errors.New("model has not been built")
)

// Form is the LP form of a model.
type Form string

const (
	Envelopment Form = "env"
	Multiplier  Form = "multi"
)

// ParseForm resolves a form label.
func ParseForm(s string) (Form, error) {
	switch Form(s) {
	case Envelopment, Multiplier:
		return Form(s), nil
	default:
		return "", fmt.Errorf("%w: form %q", ErrUnsupported, s)
	}
}

// Model is implemented by both base LP builders and by every decorator.
// Decorators embed the Model they wrap, so any operation they do not
// override is forwarded to it unchanged.
//
// A Model instance supports one run at a time.
type Model interface {
	Data() *core.DataSet
	Orientation() Orientation
	Form() Form
	Session() *core.Session

	// Comparison returns the DMUs that form the reference set, in data order.
	Comparison() []string
	// SetComparison replaces the reference set. It takes effect on the next Build.
	SetComparison(codes []string)

	ConstraintBuilder() ConstraintBuilder
	SetConstraintBuilder(b ConstraintBuilder)

	// Build creates the template LP over the comparison set.
	Build() error
	// Update rewrites the template for the DMU being evaluated.
	Update(dmuCode string) error
	// Problem returns the template LP.
	Problem() *solver.Problem
	// Layout returns the identifiers of the template's variables and rows.
	Layout() *Layout

	// NewSolution allocates the Solution a run fills.
	NewSolution() (*core.Solution, error)
	// FillSolution records the outcome of one DMU's solve.
	FillSolution(dmuCode string, res *solver.Result, sol *core.Solution) error
}

// Layout maps DMUs and categories to the stable identifiers of the template
// LP. Envelopment models fill Efficiency, Peers and CategoryRows; multiplier
// models fill Weights, PeerRows and Normalization.
type Layout struct {
	Efficiency   solver.VarID
	Peers        map[string]solver.VarID
	CategoryRows map[string]solver.ConstraintID

	Weights       map[string]solver.VarID
	PeerRows      map[string]solver.ConstraintID
	Normalization solver.ConstraintID
}

// ConstraintBuilder decides how each category enters the template LP.
type ConstraintBuilder interface {
	// Kind is the operator of the category's envelopment row. Equal makes
	// the matching multiplier weight free.
	Kind(category string) solver.Kind
	// Discretionary reports whether the efficiency multiplier applies to
	// the category.
	Discretionary(category string) bool
}

// DefaultConstraintBuilder treats every category as strongly disposable and
// discretionary.
type DefaultConstraintBuilder struct{}

func (DefaultConstraintBuilder) Kind(string) solver.Kind { return solver.GreaterEqual }

func (DefaultConstraintBuilder) Discretionary(string) bool { return true }
