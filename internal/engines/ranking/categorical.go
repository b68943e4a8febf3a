package ranking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/araith/godea/internal/engines/model"
	"github.com/araith/godea/internal/logging"
	"github.com/araith/godea/pkg/core"
)

// ErrCategoricalCategory is returned when the hierarchy category cannot
// drive stratification.
var ErrCategoricalCategory = errors.New("invalid categorical category")

// CategoricalDecorator compares each DMU only against the DMUs whose
// hierarchy level, the integer part of the categorical category's
// coefficient, is at most its own. Levels are evaluated in ascending order
// and the results merged into one Solution.
type CategoricalDecorator struct {
	model.Model
	category string
}

// NewCategoricalDecorator requires category to be present for every DMU and
// to be neither an input nor an output.
func NewCategoricalDecorator(m model.Model, category string) (*CategoricalDecorator, error) {
	data := m.Data()
	role, ok := data.Role(category)
	if !ok {
		return nil, fmt.Errorf("%w: %w: %q", ErrCategoricalCategory, core.ErrUnknownCategory, category)
	}
	if role != core.RoleNone {
		return nil, fmt.Errorf("%w: %q is an %s", ErrCategoricalCategory, category, role)
	}
	for _, code := range data.DMUCodes() {
		v, ok := data.LookupCoefficient(code, category)
		if !ok {
			return nil, fmt.Errorf("%w: %w: DMU %q", ErrCategoricalCategory, core.ErrMissingCoefficient, data.Name(code))
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: DMU %q has level %v", ErrCategoricalCategory, data.Name(code), v)
		}
	}
	return &CategoricalDecorator{Model: m, category: category}, nil
}

func (d *CategoricalDecorator) Category() string { return d.category }

// Level returns the hierarchy level of a DMU.
func (d *CategoricalDecorator) Level(code string) int {
	return int(math.Trunc(d.Data().Coefficient(code, d.category)))
}

func (d *CategoricalDecorator) RunFor(ctx context.Context, env model.Env, dmus []string) (*model.Result, error) {
	original := d.Model.Comparison()
	defer d.Model.SetComparison(original)

	var levels []int
	for _, code := range dmus {
		levels = append(levels, d.Level(code))
	}
	slices.Sort(levels)
	levels = slices.Compact(levels)

	merged := &model.Result{}
	fail := func(err error) (*model.Result, error) {
		_ = merged.Release()
		return nil, err
	}
	primary, err := d.Model.NewSolution()
	if err != nil {
		return nil, err
	}
	merged.Primary = primary

	logger := logging.FromContext(ctx)
	for _, level := range levels {
		comparison := slices.DeleteFunc(slices.Clone(original), func(code string) bool { return d.Level(code) > level })
		targets := slices.DeleteFunc(slices.Clone(dmus), func(code string) bool { return d.Level(code) != level })
		d.Model.SetComparison(comparison)

		res, err := model.RunFor(ctx, d.Model, env, targets)
		if err != nil {
			return fail(err)
		}
		if res.Secondary != nil && merged.Secondary == nil {
			if merged.Secondary, err = d.secondary(); err != nil {
				_ = res.Release()
				return fail(err)
			}
		}
		for _, code := range targets {
			if err := merged.Primary.CopyDMU(res.Primary, code); err != nil {
				_ = res.Release()
				return fail(err)
			}
			if res.Secondary != nil {
				if err := merged.Secondary.CopyDMU(res.Secondary, code); err != nil {
					_ = res.Release()
					return fail(err)
				}
			}
		}
		_ = res.Release()
		logger.V(logging.DEBUG).Info("Solved categorical level", "level", level, "dmus", len(targets), "comparison", len(comparison))
	}
	return merged, nil
}

func (d *CategoricalDecorator) secondary() (*core.Solution, error) {
	sol, err := d.Model.NewSolution()
	if err != nil {
		return nil, err
	}
	sol.SupplyScores()
	sol.AttachSlacks()
	return sol, nil
}
