package model

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/araith/godea/pkg/core"
	"github.com/araith/godea/pkg/solver"
)

// RestrictionKind selects a weight-restriction family.
type RestrictionKind string

const (
	// AbsoluteRestriction bounds a category weight directly.
	AbsoluteRestriction RestrictionKind = "absolute"
	// VirtualRestriction bounds a weight times the evaluated DMU's own coefficient.
	VirtualRestriction RestrictionKind = "virtual"
	// PriceRatioRestriction bounds the ratio of two weights of the same role.
	PriceRatioRestriction RestrictionKind = "price-ratio"
)

// Bound is a (lower, upper) pair on a category weight, or on the ratio
// Category/Denominator for price-ratio restrictions. Missing sides are
// infinite.
type Bound struct {
	Category    string
	Denominator string
	Lower       float64
	Upper       float64
}

func (b Bound) label() string {
	if b.Denominator == "" {
		return b.Category
	}
	return b.Category + "/" + b.Denominator
}

func (b Bound) String() string {
	return fmt.Sprintf("%v <= %s <= %v", b.Lower, b.label(), b.Upper)
}

var restrictionPattern = regexp.MustCompile(`^\s*(.+?)\s*(<=|>=)\s*(\S+)\s*$`)

// ParseRestrictions parses expressions of the form "<category> <= value",
// "<category> >= value" and, for price-ratio restrictions,
// "<category1>/<category2> <= value". Expressions on the same category (or
// pair) are merged into one Bound. Bounds are returned in order of first
// appearance.
func ParseRestrictions(kind RestrictionKind, exprs []string, data *core.DataSet) ([]Bound, error) {
	var bounds []Bound
	index := make(map[[2]string]int)
	for _, expr := range exprs {
		if strings.TrimSpace(expr) == "" {
			continue
		}
		m := restrictionPattern.FindStringSubmatch(expr)
		if m == nil {
			return nil, fmt.Errorf("%w: %q: expected <category> <= value or <category> >= value", ErrInvalidRestriction, expr)
		}
		value, err := strconv.ParseFloat(m[3], 64)
		if err != nil || math.IsNaN(value) {
			return nil, fmt.Errorf("%w: %q: bad value %q", ErrInvalidRestriction, expr, m[3])
		}

		key := [2]string{m[1], ""}
		if kind == PriceRatioRestriction {
			num, den, ok := strings.Cut(m[1], "/")
			if !ok {
				return nil, fmt.Errorf("%w: %q: price ratio needs <category1>/<category2>", ErrInvalidRestriction, expr)
			}
			key = [2]string{strings.TrimSpace(num), strings.TrimSpace(den)}
		}
		if err := checkRestrictedCategories(data, key); err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidRestriction, expr, err)
		}

		i, ok := index[key]
		if !ok {
			i = len(bounds)
			index[key] = i
			bounds = append(bounds, Bound{Category: key[0], Denominator: key[1], Lower: math.Inf(-1), Upper: math.Inf(1)})
		}
		if m[2] == "<=" {
			bounds[i].Upper = math.Min(bounds[i].Upper, value)
		} else {
			bounds[i].Lower = math.Max(bounds[i].Lower, value)
		}
		if bounds[i].Lower > bounds[i].Upper {
			return nil, fmt.Errorf("%w: empty range %s", ErrInvalidRestriction, bounds[i])
		}
	}
	return bounds, nil
}

func checkRestrictedCategories(data *core.DataSet, key [2]string) error {
	role, ok := data.Role(key[0])
	if !ok || role == core.RoleNone {
		return fmt.Errorf("%w: %q is not an input or output", core.ErrUnknownCategory, key[0])
	}
	if key[1] == "" {
		return nil
	}
	denRole, ok := data.Role(key[1])
	if !ok || denRole == core.RoleNone {
		return fmt.Errorf("%w: %q is not an input or output", core.ErrUnknownCategory, key[1])
	}
	if denRole != role {
		return fmt.Errorf("%w: %q and %q have different roles", ErrCategoryRole, key[0], key[1])
	}
	return nil
}

// restrictionHandle records what Build added for one Bound.
type restrictionHandle struct {
	bound Bound
	// envelopment auxiliary variables
	upperVar, lowerVar solver.VarID
	// multiplier rows
	upperRow, lowerRow solver.ConstraintID
	hasUpper, hasLower bool
}

// RestrictionDecorator applies one family of weight restrictions.
//
// In the multiplier form every finite bound is one row on the weights. In
// the envelopment form each bound a'w <= r is the dual of an extra
// non-negative column a tied into the category rows, with objective cost r
// (negated when maximizing).
type RestrictionDecorator struct {
	Model
	kind    RestrictionKind
	bounds  []Bound
	handles []restrictionHandle
}

// NewRestrictionDecorator parses exprs and wraps m.
func NewRestrictionDecorator(m Model, kind RestrictionKind, exprs []string) (*RestrictionDecorator, error) {
	switch kind {
	case AbsoluteRestriction, VirtualRestriction, PriceRatioRestriction:
	default:
		return nil, fmt.Errorf("%w: restriction kind %q", ErrUnsupported, kind)
	}
	bounds, err := ParseRestrictions(kind, exprs, m.Data())
	if err != nil {
		return nil, err
	}
	return &RestrictionDecorator{Model: m, kind: kind, bounds: bounds}, nil
}

func (d *RestrictionDecorator) Kind() RestrictionKind { return d.kind }

func (d *RestrictionDecorator) Bounds() []Bound { return append([]Bound(nil), d.bounds...) }

func (d *RestrictionDecorator) Build() error {
	if err := d.Model.Build(); err != nil {
		return err
	}
	d.handles = d.handles[:0]
	for _, b := range d.bounds {
		h := restrictionHandle{bound: b, hasUpper: !math.IsInf(b.Upper, 1), hasLower: !math.IsInf(b.Lower, -1)}
		if d.Form() == Envelopment {
			d.addColumns(&h)
		} else {
			d.addRows(&h)
		}
		d.handles = append(d.handles, h)
	}
	d.applyVirtual(d.current())
	return nil
}

// current is the DMU the inner template was last updated for.
func (d *RestrictionDecorator) current() string {
	if c := d.Comparison(); len(c) > 0 {
		return c[0]
	}
	return d.Data().DMUCodes()[0]
}

func (d *RestrictionDecorator) addColumns(h *restrictionHandle) {
	p, rows := d.Problem(), d.Layout().CategoryRows
	costSign := 1.0
	if p.Sense() == solver.Maximize {
		costSign = -1
	}
	name := h.bound.label()
	if h.hasUpper {
		h.upperVar = p.AddVariable("restriction_upper_"+name, 0, math.Inf(1))
		if h.bound.Denominator != "" {
			p.SetCoefficient(rows[h.bound.Category], h.upperVar, 1)
			p.SetCoefficient(rows[h.bound.Denominator], h.upperVar, -h.bound.Upper)
		} else {
			p.SetCoefficient(rows[h.bound.Category], h.upperVar, 1)
			p.SetCost(h.upperVar, costSign*h.bound.Upper)
		}
	}
	if h.hasLower {
		h.lowerVar = p.AddVariable("restriction_lower_"+name, 0, math.Inf(1))
		if h.bound.Denominator != "" {
			p.SetCoefficient(rows[h.bound.Category], h.lowerVar, -1)
			p.SetCoefficient(rows[h.bound.Denominator], h.lowerVar, h.bound.Lower)
		} else {
			p.SetCoefficient(rows[h.bound.Category], h.lowerVar, -1)
			p.SetCost(h.lowerVar, -costSign*h.bound.Lower)
		}
	}
}

func (d *RestrictionDecorator) addRows(h *restrictionHandle) {
	p, weights := d.Problem(), d.Layout().Weights
	w := weights[h.bound.Category]
	name := h.bound.label()
	if h.hasUpper {
		if h.bound.Denominator != "" {
			h.upperRow = p.AddConstraint("restriction_upper_"+name, solver.LessEqual, 0,
				map[solver.VarID]float64{w: 1, weights[h.bound.Denominator]: -h.bound.Upper})
		} else {
			h.upperRow = p.AddConstraint("restriction_upper_"+name, solver.LessEqual, h.bound.Upper,
				map[solver.VarID]float64{w: 1})
		}
	}
	if h.hasLower {
		if h.bound.Denominator != "" {
			h.lowerRow = p.AddConstraint("restriction_lower_"+name, solver.GreaterEqual, 0,
				map[solver.VarID]float64{w: 1, weights[h.bound.Denominator]: -h.bound.Lower})
		} else {
			h.lowerRow = p.AddConstraint("restriction_lower_"+name, solver.GreaterEqual, h.bound.Lower,
				map[solver.VarID]float64{w: 1})
		}
	}
}

func (d *RestrictionDecorator) Update(code string) error {
	if err := d.Model.Update(code); err != nil {
		return err
	}
	d.applyVirtual(code)
	return nil
}

// applyVirtual scales virtual restrictions by the DMU's own coefficient.
func (d *RestrictionDecorator) applyVirtual(code string) {
	if d.kind != VirtualRestriction {
		return
	}
	p, layout := d.Problem(), d.Layout()
	for _, h := range d.handles {
		own := d.Data().Coefficient(code, h.bound.Category)
		if d.Form() == Envelopment {
			row := layout.CategoryRows[h.bound.Category]
			if h.hasUpper {
				p.SetCoefficient(row, h.upperVar, own)
			}
			if h.hasLower {
				p.SetCoefficient(row, h.lowerVar, -own)
			}
			continue
		}
		w := layout.Weights[h.bound.Category]
		if h.hasUpper {
			p.SetCoefficient(h.upperRow, w, own)
		}
		if h.hasLower {
			p.SetCoefficient(h.lowerRow, w, own)
		}
	}
}
