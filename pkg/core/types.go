package core

import "errors"

var (
	// ErrDuplicateCoefficient is returned when a (DMU, category) pair is set twice.
	ErrDuplicateCoefficient = errors.New("coefficient already set for DMU and category")
	// ErrUnknownCategory is returned when a category was never referenced by a coefficient.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrCategoryConflict is returned when a category is declared with both roles.
	ErrCategoryConflict = errors.New("category already declared with the opposite role")
	// ErrEmptyCategories is returned when the input or output category set is empty.
	ErrEmptyCategories = errors.New("input and output categories must both be non-empty")
	// ErrMissingCoefficient is returned when a declared category has no value for some DMU.
	ErrMissingCoefficient = errors.New("missing coefficient")
	// ErrUnknownDMU is returned when a DMU code is not part of the data set.
	ErrUnknownDMU = errors.New("unknown DMU")
	// ErrScoreOutOfDomain is returned when an efficiency score falls outside
	// the domain of the solution it is recorded on.
	ErrScoreOutOfDomain = errors.New("efficiency score outside solution domain")
)

// ZeroTolerance is the magnitude below which peer weights and duals are
// treated as zero, and the width of the band above 1 that input-oriented
// scores are clamped from.
const ZeroTolerance = 1e-9

// ScoreClampTolerance is the solver noise a Solution absorbs when storing a
// score: values within it below 0, or above 1 without super-efficiency, are
// clamped onto the domain instead of rejected.
const ScoreClampTolerance = 1e-6

// Role is the part a category plays in the efficiency model.
type Role string

const (
	// RoleInput marks a category consumed by the DMU.
	RoleInput Role = "input"
	// RoleOutput marks a category produced by the DMU.
	RoleOutput Role = "output"
	// RoleNone marks a category with coefficients but no declared role. Such
	// categories are ignored by the LP builders; the categorical hierarchy
	// category is usually one of them.
	RoleNone Role = "none"
)

// Opposite returns the other LP-relevant role.
func (r Role) Opposite() Role {
	switch r {
	case RoleInput:
		return RoleOutput
	case RoleOutput:
		return RoleInput
	default:
		return RoleNone
	}
}
