package config

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Option values accepted by the orientation, return_to_scale and dea_form keys.
const (
	OrientationInput  = "input"
	OrientationOutput = "output"
	Both              = "both"

	ReturnsConstant = "CRS"
	ReturnsVariable = "VRS"

	FormEnvelopment = "env"
	FormMultiplier  = "multi"
)

// Parameters is the parameter set of one analysis.
type Parameters struct {
	// Orientation is "input", "output" or "both".
	Orientation string `yaml:"orientation" mapstructure:"orientation"`
	// ReturnToScale is "CRS", "VRS" or "both".
	ReturnToScale string `yaml:"return_to_scale" mapstructure:"return_to_scale"`
	// Form is "env" (envelopment) or "multi" (multiplier).
	Form string `yaml:"dea_form" mapstructure:"dea_form"`

	UseSuperEfficiency bool `yaml:"use_super_efficiency" mapstructure:"use_super_efficiency"`
	MaximizeSlacks     bool `yaml:"maximize_slacks" mapstructure:"maximize_slacks"`
	PeelTheOnion       bool `yaml:"peel_the_onion" mapstructure:"peel_the_onion"`

	InputCategories            []string `yaml:"input_categories" mapstructure:"input_categories"`
	OutputCategories           []string `yaml:"output_categories" mapstructure:"output_categories"`
	NonDiscretionaryCategories []string `yaml:"non_discretionary_categories,omitempty" mapstructure:"non_discretionary_categories"`
	WeaklyDisposalCategories   []string `yaml:"weakly_disposal_categories,omitempty" mapstructure:"weakly_disposal_categories"`

	// Weight restrictions, one expression per entry, for example "x1 <= 0.5"
	// or "x1/x2 >= 2".
	AbsWeightRestrictions     []string `yaml:"abs_weight_restrictions,omitempty" mapstructure:"abs_weight_restrictions"`
	VirtualWeightRestrictions []string `yaml:"virtual_weight_restrictions,omitempty" mapstructure:"virtual_weight_restrictions"`
	PriceRatioRestrictions    []string `yaml:"price_ratio_restrictions,omitempty" mapstructure:"price_ratio_restrictions"`

	// MultiplierModelTolerance is the lower bound of multiplier-form weights.
	MultiplierModelTolerance float64 `yaml:"multiplier_model_tolerance" mapstructure:"multiplier_model_tolerance"`
	// CategoricalCategory names the hierarchy category, if any.
	CategoricalCategory string `yaml:"categorical_category,omitempty" mapstructure:"categorical_category"`

	DataFile   string `yaml:"data_file,omitempty" mapstructure:"data_file"`
	OutputFile string `yaml:"output_file,omitempty" mapstructure:"output_file"`
}

// Default returns input-oriented CRS envelopment parameters.
func Default() *Parameters {
	return &Parameters{
		Orientation:   OrientationInput,
		ReturnToScale: ReturnsConstant,
		Form:          FormEnvelopment,
	}
}

// ParseParameters decodes YAML on top of the defaults.
func ParseParameters(data []byte) (*Parameters, error) {
	p := Default()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse parameters: %w", err)
	}
	p.Normalize()
	return p, nil
}

// Normalize splits semicolon-delimited list entries, trims them and drops
// empty ones.
func (p *Parameters) Normalize() {
	for _, list := range []*[]string{
		&p.InputCategories, &p.OutputCategories,
		&p.NonDiscretionaryCategories, &p.WeaklyDisposalCategories,
		&p.AbsWeightRestrictions, &p.VirtualWeightRestrictions, &p.PriceRatioRestrictions,
	} {
		*list = cleanList(*list)
	}
	p.CategoricalCategory = strings.TrimSpace(p.CategoricalCategory)
}

func cleanList(in []string) []string {
	var out []string
	for _, entry := range in {
		for _, s := range strings.Split(entry, ";") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// ValidationError is one invalid parameter.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// Validate reports every invalid parameter. Use multierr.Errors to split
// the result.
func (p *Parameters) Validate() error {
	var err error
	invalid := func(field string, value any, format string, args ...any) {
		err = multierr.Append(err, ValidationError{Field: field, Value: value, Message: fmt.Sprintf(format, args...)})
	}

	if !slices.Contains([]string{OrientationInput, OrientationOutput, Both}, p.Orientation) {
		invalid("orientation", p.Orientation, "must be one of input, output, both")
	}
	if !slices.Contains([]string{ReturnsConstant, ReturnsVariable, Both}, p.ReturnToScale) {
		invalid("return_to_scale", p.ReturnToScale, "must be one of CRS, VRS, both")
	}
	if !slices.Contains([]string{FormEnvelopment, FormMultiplier}, p.Form) {
		invalid("dea_form", p.Form, "must be one of env, multi")
	}
	if p.MaximizeSlacks && p.Form == FormMultiplier {
		invalid("maximize_slacks", p.MaximizeSlacks, "two-phase slack maximization requires dea_form env")
	}
	if p.MultiplierModelTolerance < 0 {
		invalid("multiplier_model_tolerance", p.MultiplierModelTolerance, "must be >= 0")
	}

	if len(p.InputCategories) == 0 {
		invalid("input_categories", p.InputCategories, "at least one input category is required")
	}
	if len(p.OutputCategories) == 0 {
		invalid("output_categories", p.OutputCategories, "at least one output category is required")
	}
	for _, c := range p.InputCategories {
		if slices.Contains(p.OutputCategories, c) {
			invalid("output_categories", c, "category is already an input")
		}
	}
	declared := slices.Concat(p.InputCategories, p.OutputCategories)
	for _, c := range p.WeaklyDisposalCategories {
		if !slices.Contains(declared, c) {
			invalid("weakly_disposal_categories", c, "must be an input or output category")
		}
	}
	for _, c := range p.NonDiscretionaryCategories {
		if !slices.Contains(declared, c) {
			invalid("non_discretionary_categories", c, "must be an input or output category")
			continue
		}
		isInput := slices.Contains(p.InputCategories, c)
		switch p.Orientation {
		case OrientationInput:
			if !isInput {
				invalid("non_discretionary_categories", c, "must be an input category for input orientation")
			}
		case OrientationOutput:
			if isInput {
				invalid("non_discretionary_categories", c, "must be an output category for output orientation")
			}
		}
	}
	if p.CategoricalCategory != "" && slices.Contains(declared, p.CategoricalCategory) {
		invalid("categorical_category", p.CategoricalCategory, "must not be an input or output category")
	}
	return err
}

// ModelSpec is one concrete model configuration: Parameters with the
// "both" options resolved.
type ModelSpec struct {
	Orientation   string
	ReturnToScale string
	Form          string

	SuperEfficiency bool
	MaximizeSlacks  bool
	PeelTheOnion    bool

	NonDiscretionary []string
	WeaklyDisposal   []string

	AbsRestrictions        []string
	VirtualRestrictions    []string
	PriceRatioRestrictions []string

	Tolerance   float64
	Categorical string
}

// Name identifies the spec in reports, for example "input-CRS-env".
func (s ModelSpec) Name() string {
	return fmt.Sprintf("%s-%s-%s", s.Orientation, s.ReturnToScale, s.Form)
}

// Expand fans "both" out into every combination, inputs before outputs and
// CRS before VRS. Non-discretionary categories are kept only for the
// orientation whose role they have.
func (p *Parameters) Expand() []ModelSpec {
	orientations := []string{p.Orientation}
	if p.Orientation == Both {
		orientations = []string{OrientationInput, OrientationOutput}
	}
	returns := []string{p.ReturnToScale}
	if p.ReturnToScale == Both {
		returns = []string{ReturnsConstant, ReturnsVariable}
	}

	var specs []ModelSpec
	for _, o := range orientations {
		for _, rts := range returns {
			specs = append(specs, ModelSpec{
				Orientation:            o,
				ReturnToScale:          rts,
				Form:                   p.Form,
				SuperEfficiency:        p.UseSuperEfficiency,
				MaximizeSlacks:         p.MaximizeSlacks,
				PeelTheOnion:           p.PeelTheOnion,
				NonDiscretionary:       p.nonDiscretionaryFor(o),
				WeaklyDisposal:         slices.Clone(p.WeaklyDisposalCategories),
				AbsRestrictions:        slices.Clone(p.AbsWeightRestrictions),
				VirtualRestrictions:    slices.Clone(p.VirtualWeightRestrictions),
				PriceRatioRestrictions: slices.Clone(p.PriceRatioRestrictions),
				Tolerance:              p.MultiplierModelTolerance,
				Categorical:            p.CategoricalCategory,
			})
		}
	}
	return specs
}

func (p *Parameters) nonDiscretionaryFor(orientation string) []string {
	var out []string
	for _, c := range p.NonDiscretionaryCategories {
		if slices.Contains(p.InputCategories, c) == (orientation == OrientationInput) {
			out = append(out, c)
		}
	}
	return out
}

// Describe is the textual description of the configuration a run used.
func (s ModelSpec) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s-oriented %s model, %s form", s.Orientation, s.ReturnToScale, formName(s.Form))
	flags := []struct {
		on   bool
		text string
	}{
		{s.SuperEfficiency, "super-efficiency"},
		{s.MaximizeSlacks, "two-phase slack maximization"},
		{s.PeelTheOnion, "peel-the-onion ranking"},
	}
	for _, f := range flags {
		if f.on {
			fmt.Fprintf(&b, "; %s", f.text)
		}
	}
	lists := []struct {
		label  string
		values []string
	}{
		{"non-discretionary", s.NonDiscretionary},
		{"weakly disposable", s.WeaklyDisposal},
		{"absolute restrictions", s.AbsRestrictions},
		{"virtual restrictions", s.VirtualRestrictions},
		{"price ratio restrictions", s.PriceRatioRestrictions},
	}
	for _, l := range lists {
		if len(l.values) > 0 {
			fmt.Fprintf(&b, "; %s: %s", l.label, strings.Join(l.values, ", "))
		}
	}
	if s.Categorical != "" {
		fmt.Fprintf(&b, "; categorical: %s", s.Categorical)
	}
	if s.Form == FormMultiplier {
		fmt.Fprintf(&b, "; tolerance: %g", s.Tolerance)
	}
	return b.String()
}

func formName(form string) string {
	if form == FormMultiplier {
		return "multiplier"
	}
	return "envelopment"
}
