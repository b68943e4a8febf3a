package core

import (
	"fmt"
	"slices"
)

// DataSet holds DMUs, categories and the coefficient table of one analysis.
//
// DMUs get an internal code on first insertion; codes are independent of the
// display names so names may contain anything. Every accessor that returns
// DMUs or categories returns them in insertion order.
type DataSet struct {
	codes  []string
	names  map[string]string // code -> name
	byName map[string]string // name -> code

	categories []string
	roles      map[string]Role
	inputs     []string
	outputs    []string

	coefficients map[string]map[string]float64 // code -> category -> value
}

func NewDataSet() *DataSet {
	return &DataSet{
		names:        make(map[string]string),
		byName:       make(map[string]string),
		roles:        make(map[string]Role),
		coefficients: make(map[string]map[string]float64),
	}
}

// AddCoefficient records value for (dmuName, category). A DMU seen for the
// first time is assigned a new code.
func (d *DataSet) AddCoefficient(dmuName, category string, value float64) error {
	code, ok := d.byName[dmuName]
	if !ok {
		code = fmt.Sprintf("dmu_%d", len(d.codes))
		d.codes = append(d.codes, code)
		d.names[code] = dmuName
		d.byName[dmuName] = code
		d.coefficients[code] = make(map[string]float64)
	}
	row := d.coefficients[code]
	if _, exists := row[category]; exists {
		return fmt.Errorf("%w: DMU %q, category %q", ErrDuplicateCoefficient, dmuName, category)
	}
	if _, known := d.roles[category]; !known {
		d.categories = append(d.categories, category)
		d.roles[category] = RoleNone
	}
	row[category] = value
	return nil
}

// AddInputCategory declares category as an input.
func (d *DataSet) AddInputCategory(category string) error {
	return d.declare(category, RoleInput)
}

// AddOutputCategory declares category as an output.
func (d *DataSet) AddOutputCategory(category string) error {
	return d.declare(category, RoleOutput)
}

func (d *DataSet) declare(category string, role Role) error {
	current, known := d.roles[category]
	switch {
	case !known:
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	case current == role:
		return nil
	case current != RoleNone:
		return fmt.Errorf("%w: %q is already an %s", ErrCategoryConflict, category, current)
	}
	d.roles[category] = role
	if role == RoleInput {
		d.inputs = append(d.inputs, category)
	} else {
		d.outputs = append(d.outputs, category)
	}
	return nil
}

// Validate checks that both roles are populated and that every DMU has a
// value for every declared input and output category.
func (d *DataSet) Validate() error {
	if len(d.inputs) == 0 || len(d.outputs) == 0 {
		return fmt.Errorf("%w: %d inputs, %d outputs", ErrEmptyCategories, len(d.inputs), len(d.outputs))
	}
	for _, code := range d.codes {
		row := d.coefficients[code]
		for _, category := range d.declared() {
			if _, ok := row[category]; !ok {
				return fmt.Errorf("%w: DMU %q, category %q", ErrMissingCoefficient, d.names[code], category)
			}
		}
	}
	return nil
}

func (d *DataSet) declared() []string {
	return slices.Concat(d.inputs, d.outputs)
}

// DMUCodes returns all DMU codes in insertion order.
func (d *DataSet) DMUCodes() []string { return slices.Clone(d.codes) }

func (d *DataSet) Len() int { return len(d.codes) }

// Name returns the display name for code, or "" if code is unknown.
func (d *DataSet) Name(code string) string { return d.names[code] }

// Code returns the code assigned to a display name.
func (d *DataSet) Code(name string) (string, bool) {
	code, ok := d.byName[name]
	return code, ok
}

// HasDMU reports whether code belongs to this data set.
func (d *DataSet) HasDMU(code string) bool {
	_, ok := d.names[code]
	return ok
}

// Categories returns every category referenced by a coefficient.
func (d *DataSet) Categories() []string { return slices.Clone(d.categories) }

func (d *DataSet) InputCategories() []string { return slices.Clone(d.inputs) }

func (d *DataSet) OutputCategories() []string { return slices.Clone(d.outputs) }

// Role returns the declared role of category and whether it is known at all.
func (d *DataSet) Role(category string) (Role, bool) {
	role, ok := d.roles[category]
	return role, ok
}

// Coefficient returns the value for (code, category). Asking for a pair that
// was never set is a programming error and panics; use LookupCoefficient
// when the pair may be absent.
func (d *DataSet) Coefficient(code, category string) float64 {
	v, ok := d.LookupCoefficient(code, category)
	if !ok {
		panic(fmt.Sprintf("core: no coefficient for DMU %q category %q", code, category))
	}
	return v
}

func (d *DataSet) LookupCoefficient(code, category string) (float64, bool) {
	row, ok := d.coefficients[code]
	if !ok {
		return 0, false
	}
	v, ok := row[category]
	return v, ok
}

// Order returns codes sorted by DMU insertion order, dropping unknown codes.
func (d *DataSet) Order(codes []string) []string {
	index := make(map[string]int, len(d.codes))
	for i, c := range d.codes {
		index[c] = i
	}
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if _, ok := index[c]; ok {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b string) int { return index[a] - index[b] })
	return out
}
