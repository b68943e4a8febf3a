package model

import (
	"fmt"

	"github.com/araith/godea/pkg/core"
	"github.com/araith/godea/pkg/solver"
)

// weaklyDisposable turns the rows of the listed categories into equalities.
type weaklyDisposable struct {
	ConstraintBuilder
	categories map[string]bool
}

func (w weaklyDisposable) Kind(category string) solver.Kind {
	if w.categories[category] {
		return solver.Equal
	}
	return w.ConstraintBuilder.Kind(category)
}

// nonDiscretionary keeps the efficiency multiplier away from the listed
// categories.
type nonDiscretionary struct {
	ConstraintBuilder
	categories map[string]bool
}

func (n nonDiscretionary) Discretionary(category string) bool {
	if n.categories[category] {
		return false
	}
	return n.ConstraintBuilder.Discretionary(category)
}

// WeakDisposabilityDecorator marks categories as weakly disposable. It
// parameterizes the wrapped model's constraint builder when constructed and
// forwards every operation.
type WeakDisposabilityDecorator struct {
	Model
	categories []string
}

// NewWeakDisposabilityDecorator requires every category to be a declared
// input or output.
func NewWeakDisposabilityDecorator(m Model, categories []string) (*WeakDisposabilityDecorator, error) {
	set := make(map[string]bool, len(categories))
	for _, c := range categories {
		role, ok := m.Data().Role(c)
		if !ok {
			return nil, fmt.Errorf("weakly disposable %w: %q", core.ErrUnknownCategory, c)
		}
		if role == core.RoleNone {
			return nil, fmt.Errorf("%w: weakly disposable category %q is neither input nor output", ErrCategoryRole, c)
		}
		set[c] = true
	}
	m.SetConstraintBuilder(weaklyDisposable{ConstraintBuilder: m.ConstraintBuilder(), categories: set})
	return &WeakDisposabilityDecorator{Model: m, categories: categories}, nil
}

func (d *WeakDisposabilityDecorator) Categories() []string { return d.categories }

// NonDiscretionaryDecorator marks categories as non-discretionary. The
// categories must have the orientation's role, since only those carry the
// efficiency multiplier.
type NonDiscretionaryDecorator struct {
	Model
	categories []string
}

func NewNonDiscretionaryDecorator(m Model, categories []string) (*NonDiscretionaryDecorator, error) {
	want := m.Orientation().Role()
	set := make(map[string]bool, len(categories))
	for _, c := range categories {
		role, ok := m.Data().Role(c)
		if !ok {
			return nil, fmt.Errorf("non-discretionary %w: %q", core.ErrUnknownCategory, c)
		}
		if role != want {
			return nil, fmt.Errorf("%w: non-discretionary category %q must be an %s for %s orientation",
				ErrCategoryRole, c, want, m.Orientation().Name())
		}
		set[c] = true
	}
	m.SetConstraintBuilder(nonDiscretionary{ConstraintBuilder: m.ConstraintBuilder(), categories: set})
	return &NonDiscretionaryDecorator{Model: m, categories: categories}, nil
}

func (d *NonDiscretionaryDecorator) Categories() []string { return d.categories }
