// Package scale remaps computed values into a display domain.
package scale

import (
	"math"

	"spectralviz/internal/models"
)

// Range is a closed numeric interval.
type Range struct {
	Min float64
	Max float64
}

// Span returns Max - Min.
func (r Range) Span() float64 { return r.Max - r.Min }

// Clamp limits v to the interval, whichever way round its bounds are given.
func (r Range) Clamp(v float64) float64 {
	lo, hi := r.Min, r.Max
	if lo > hi {
		lo, hi = hi, lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// Scaler linearly maps an input range onto an output range, saturating
// inputs that fall outside the input range.
type Scaler struct {
	in  Range
	out Range
	k   float64
}

// New builds a scaler. A degenerate input range (Min == Max) is a
// ConfigurationError.
func New(in, out Range) (*Scaler, error) {
	if math.IsNaN(in.Min) || math.IsNaN(in.Max) || math.IsNaN(out.Min) || math.IsNaN(out.Max) {
		return nil, models.ConfigErrorf(models.KindScale, "range", "bounds must be numbers, got in=%v out=%v", in, out)
	}
	if in.Min == in.Max {
		return nil, models.ConfigErrorf(models.KindScale, "inputRange", "degenerate input domain [%g, %g]", in.Min, in.Max)
	}
	return &Scaler{in: in, out: out, k: out.Span() / in.Span()}, nil
}

// In returns the input range.
func (s *Scaler) In() Range { return s.in }

// Out returns the output range.
func (s *Scaler) Out() Range { return s.out }

// Scale maps v into the output range. Undefined (NaN) input maps to out.Min.
func (s *Scaler) Scale(v float64) float64 {
	if math.IsNaN(v) {
		return s.out.Min
	}
	return s.out.Min + (s.in.Clamp(v)-s.in.Min)*s.k
}

// ScaleAll scales a vector in place.
func (s *Scaler) ScaleAll(v []float64) {
	for i := range v {
		v[i] = s.Scale(v[i])
	}
}

// Inverse maps an output-domain value back into the input domain. It is only
// meaningful for values inside the output range; a degenerate output range
// maps everything to in.Min.
func (s *Scaler) Inverse(v float64) float64 {
	if s.out.Min == s.out.Max || math.IsNaN(v) {
		return s.in.Min
	}
	return s.in.Min + (s.out.Clamp(v)-s.out.Min)/s.k
}

// Scale is the one-shot form of Scaler.Scale.
func Scale(value, inMin, inMax, outMin, outMax float64) (float64, error) {
	s, err := New(Range{inMin, inMax}, Range{outMin, outMax})
	if err != nil {
		return 0, err
	}
	return s.Scale(value), nil
}
