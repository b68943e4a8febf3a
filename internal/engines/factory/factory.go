// Package factory assembles a decorated DEA model from a ModelSpec.
package factory

import (
	"fmt"

	"github.com/araith/godea/internal/engines/model"
	"github.com/araith/godea/internal/engines/ranking"
	"github.com/araith/godea/pkg/config"
	"github.com/araith/godea/pkg/core"
)

// NewModel validates data and spec and wraps the base model in decorators,
// innermost first: returns to scale, weak disposability, non-discretionary
// categories, absolute, virtual and price-ratio restrictions,
// super-efficiency, two-phase slack maximization and categorical
// stratification. Nothing is solved.
func NewModel(spec config.ModelSpec, data *core.DataSet, opts ...model.Option) (model.Model, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	o, err := model.ParseOrientation(spec.Orientation)
	if err != nil {
		return nil, err
	}
	form, err := model.ParseForm(spec.Form)
	if err != nil {
		return nil, err
	}
	if spec.MaximizeSlacks && form == model.Multiplier {
		return nil, model.ErrTwoPhaseMultiplier
	}

	var m model.Model
	switch form {
	case model.Envelopment:
		m, err = model.NewEnvelopmentModel(data, o, model.BoundsFor(o, spec.SuperEfficiency), opts...)
	default:
		m, err = model.NewMultiplierModel(data, o, spec.Tolerance, opts...)
	}
	if err != nil {
		return nil, err
	}

	switch spec.ReturnToScale {
	case config.ReturnsVariable:
		m = model.NewVRSDecorator(m)
	case config.ReturnsConstant:
	default:
		return nil, fmt.Errorf("%w: returns to scale %q", model.ErrUnsupported, spec.ReturnToScale)
	}

	if len(spec.WeaklyDisposal) > 0 {
		if m, err = model.NewWeakDisposabilityDecorator(m, spec.WeaklyDisposal); err != nil {
			return nil, err
		}
	}
	if len(spec.NonDiscretionary) > 0 {
		if m, err = model.NewNonDiscretionaryDecorator(m, spec.NonDiscretionary); err != nil {
			return nil, err
		}
	}

	restrictions := []struct {
		kind  model.RestrictionKind
		exprs []string
	}{
		{model.AbsoluteRestriction, spec.AbsRestrictions},
		{model.VirtualRestriction, spec.VirtualRestrictions},
		{model.PriceRatioRestriction, spec.PriceRatioRestrictions},
	}
	for _, r := range restrictions {
		if len(r.exprs) == 0 {
			continue
		}
		if m, err = model.NewRestrictionDecorator(m, r.kind, r.exprs); err != nil {
			return nil, err
		}
	}

	if spec.SuperEfficiency {
		m = model.NewSuperEfficiencyDecorator(m)
	}
	if spec.MaximizeSlacks {
		if m, err = model.NewMaxSlacksDecorator(m); err != nil {
			return nil, err
		}
	}
	if spec.Categorical != "" {
		if m, err = ranking.NewCategoricalDecorator(m, spec.Categorical); err != nil {
			return nil, err
		}
	}
	return m, nil
}
