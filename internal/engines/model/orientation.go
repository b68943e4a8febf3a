package model

import (
	"fmt"
	"math"

	"github.com/araith/godea/pkg/core"
	"github.com/araith/godea/pkg/solver"
)

// Orientation is the stateless strategy that distinguishes input- from
// output-oriented models in both LP forms.
type Orientation interface {
	// Name is the orientation label, "input" or "output".
	Name() string
	// Role is the category role carrying the efficiency multiplier in the
	// envelopment form and normalized to 1 in the multiplier form.
	Role() core.Role
	// EnvelopmentSense is the optimization direction of the envelopment LP.
	EnvelopmentSense() solver.Sense
	// MultiplierSense is the optimization direction of the multiplier LP.
	MultiplierSense() solver.Sense
	// ProcessScore turns a raw objective value into a reported efficiency.
	ProcessScore(raw float64) float64
	// RawScore inverts ProcessScore.
	RawScore(score float64) float64
	// ProcessDual turns a raw shadow price into a reported dual value.
	ProcessDual(v float64) float64
	// VRSSign is the coefficient of the free returns-to-scale variable in
	// every multiplier-form comparison row.
	VRSSign() float64
}

var (
	InputOriented  Orientation = inputOrientation{}
	OutputOriented Orientation = outputOrientation{}
)

// ParseOrientation resolves an orientation label.
func ParseOrientation(name string) (Orientation, error) {
	switch name {
	case InputOriented.Name():
		return InputOriented, nil
	case OutputOriented.Name():
		return OutputOriented, nil
	default:
		return nil, fmt.Errorf("%w: orientation %q", ErrUnsupported, name)
	}
}

type inputOrientation struct{}

func (inputOrientation) Name() string                   { return "input" }
func (inputOrientation) Role() core.Role                { return core.RoleInput }
func (inputOrientation) EnvelopmentSense() solver.Sense { return solver.Minimize }
func (inputOrientation) MultiplierSense() solver.Sense  { return solver.Maximize }
func (inputOrientation) VRSSign() float64               { return 1 }

func (inputOrientation) ProcessScore(raw float64) float64 {
	if raw > 1 && raw <= 1+core.ZeroTolerance {
		return 1
	}
	return raw
}

func (inputOrientation) RawScore(score float64) float64 { return score }

func (inputOrientation) ProcessDual(v float64) float64 { return v }

type outputOrientation struct{}

func (outputOrientation) Name() string                   { return "output" }
func (outputOrientation) Role() core.Role                { return core.RoleOutput }
func (outputOrientation) EnvelopmentSense() solver.Sense { return solver.Maximize }
func (outputOrientation) MultiplierSense() solver.Sense  { return solver.Minimize }
func (outputOrientation) VRSSign() float64               { return -1 }

func (outputOrientation) ProcessScore(raw float64) float64 {
	if raw == 0 {
		return math.Inf(1)
	}
	return 1 / raw
}

func (outputOrientation) RawScore(score float64) float64 {
	if math.IsInf(score, 1) {
		return 0
	}
	return 1 / score
}

func (outputOrientation) ProcessDual(v float64) float64 {
	if v != 0 {
		return -v
	}
	return v
}

// Bounds are the limits of the envelopment efficiency variable.
type Bounds struct {
	Lower float64
	Upper float64
}

// BoundsFor returns the efficiency-variable bounds for an orientation in
// normal or super-efficiency mode.
func BoundsFor(o Orientation, super bool) Bounds {
	switch {
	case super:
		return Bounds{Lower: 0, Upper: math.Inf(1)}
	case o.Role() == core.RoleOutput:
		return Bounds{Lower: 1, Upper: math.Inf(1)}
	default:
		return Bounds{Lower: 0, Upper: 1}
	}
}
