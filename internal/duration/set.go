// Package duration builds the preset lists behind duration pickers
// ("1 hour", "90 minutes", "3 days") and matches free-form values back to
// presets with a float tolerance.
//
// An OptionSet holds the current selection and belongs to a single form
// field; it is not safe for concurrent mutation.
package duration

import (
	"math"
	"sort"

	"github.com/samber/mo"
)

// DefaultTolerance absorbs rounding from fractional-hour arithmetic.
const DefaultTolerance = 0.01

const otherLabel = "Other"

// OptionSet is an ordered catalogue of presets in one unit plus an optional
// custom selection.
type OptionSet struct {
	values     []float64
	unit       Unit
	tolerance  float64
	namespace  string
	translator Translator
	selected   mo.Option[float64]
}

// SetOption configures an OptionSet at construction.
type SetOption func(*OptionSet)

// WithTolerance overrides DefaultTolerance. Non-positive values are ignored.
func WithTolerance(tol float64) SetOption {
	return func(s *OptionSet) {
		if tol > 0 {
			s.tolerance = tol
		}
	}
}

// WithNamespace sets the label namespace handed to the translator.
func WithNamespace(ns string) SetOption {
	return func(s *OptionSet) {
		s.namespace = ns
	}
}

func WithTranslator(tr Translator) SetOption {
	return func(s *OptionSet) {
		if tr != nil {
			s.translator = tr
		}
	}
}

// NewOptionSet copies values; the caller may reuse the slice.
func NewOptionSet(values []float64, unit Unit, opts ...SetOption) *OptionSet {
	s := &OptionSet{
		values:     append([]float64(nil), values...),
		unit:       unit,
		tolerance:  DefaultTolerance,
		translator: Identity,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *OptionSet) Unit() Unit {
	return s.unit
}

func (s *OptionSet) Tolerance() float64 {
	return s.tolerance
}

// Label renders value in the set's unit and passes it through the translator.
func (s *OptionSet) Label(value float64) string {
	return s.translator.Translate(FormatLabel(value, s.unit), s.namespace)
}

// SetSelection records value, snapped to the exact preset when one is within
// tolerance.
func (s *OptionSet) SetSelection(value float64) {
	if preset, ok := s.MatchPreset(mo.Some(value)).Get(); ok {
		s.selected = mo.Some(preset)
		return
	}
	s.selected = mo.Some(value)
}

func (s *OptionSet) ClearSelection() {
	s.selected = mo.None[float64]()
}

func (s *OptionSet) Selected() mo.Option[float64] {
	return s.selected
}

// MatchPreset returns the first preset within tolerance of value. An absent
// value never matches.
func (s *OptionSet) MatchPreset(value mo.Option[float64]) mo.Option[float64] {
	v, ok := value.Get()
	if !ok {
		return mo.None[float64]()
	}
	for _, preset := range s.values {
		if approxEqual(preset, v, s.tolerance) {
			return mo.Some(preset)
		}
	}
	return mo.None[float64]()
}

// CurrentSelectionFor reports which picker entry value should show as
// selected, without touching the stored selection.
func (s *OptionSet) CurrentSelectionFor(value mo.Option[float64]) OptionValue {
	if preset, ok := s.MatchPreset(value).Get(); ok {
		return Preset(preset)
	}
	return Other
}

// BuildOptions returns "Other" first, then the presets and any custom
// selection in ascending order.
func (s *OptionSet) BuildOptions() []Option {
	values := append([]float64(nil), s.values...)
	if custom, ok := s.selected.Get(); ok && custom > 0 && s.MatchPreset(s.selected).IsAbsent() {
		values = append(values, custom)
	}
	sort.Float64s(values)

	out := make([]Option, 0, len(values)+1)
	out = append(out, Option{
		Label: s.translator.Translate(otherLabel, s.namespace),
		Value: Other,
	})
	for _, v := range values {
		out = append(out, Option{Label: s.Label(v), Value: Preset(v)})
	}
	return out
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}
