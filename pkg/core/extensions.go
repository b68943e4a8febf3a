package core

import "maps"

// RTSDuals carries the returns-to-scale dual of every DMU, recorded by the
// VRS decorator.
type RTSDuals struct {
	values map[string]float64
}

func (r *RTSDuals) Set(code string, v float64) { r.values[code] = v }

func (r *RTSDuals) Value(code string) float64 { return r.values[code] }

// SuperEfficiency marks a solution computed with the evaluated DMU removed
// from its own reference set. Scores may exceed 1 and self-weights are not
// used to classify efficiency.
type SuperEfficiency struct{}

// Slacks carries the optimal slack of every strongly-disposable category,
// recorded by the second phase of slack maximization.
type Slacks struct {
	values map[string]map[string]float64
}

func (s *Slacks) Set(code, category string, v float64) { setNested(s.values, code, category, v) }

func (s *Slacks) Value(code, category string) float64 { return s.values[code][category] }

// ForDMU returns a copy of the slacks of code keyed by category.
func (s *Slacks) ForDMU(code string) map[string]float64 {
	out := maps.Clone(s.values[code])
	if out == nil {
		out = map[string]float64{}
	}
	return out
}

// AttachRTS adds the returns-to-scale extension, returning the existing one
// when already attached.
func (s *Solution) AttachRTS() *RTSDuals {
	if s.rts == nil {
		s.rts = &RTSDuals{values: make(map[string]float64)}
	}
	return s.rts
}

func (s *Solution) RTS() (*RTSDuals, bool) { return s.rts, s.rts != nil }

// AttachSuperEfficiency widens the score domain to [0, +Inf].
func (s *Solution) AttachSuperEfficiency() {
	if s.super == nil {
		s.super = &SuperEfficiency{}
	}
}

func (s *Solution) SuperEfficiency() bool { return s.super != nil }

func (s *Solution) AttachSlacks() *Slacks {
	if s.slacks == nil {
		s.slacks = &Slacks{values: make(map[string]map[string]float64)}
	}
	return s.slacks
}

func (s *Solution) Slacks() (*Slacks, bool) { return s.slacks, s.slacks != nil }
