package param

import (
	"math"
)

// SmoothingType selects how a Smoother moves towards a new target.
type SmoothingType int

const (
	// LinearSmoothing ramps in equal steps over a fixed time
	LinearSmoothing SmoothingType = iota
	// ExponentialSmoothing follows the target with a one-pole filter
	ExponentialSmoothing
	// LogarithmicSmoothing ramps in equal ratios over a fixed time, for
	// frequencies and gains
	LogarithmicSmoothing
)

// logFloor is the smallest value a logarithmic ramp starts or ends at
const logFloor = 0.001

// settleThreshold is how close an exponential smoother must get before it
// snaps to the target
const settleThreshold = 1e-4

// Smoother removes zipper noise from parameter changes. One smoother feeds
// one per-sample lane and is not safe for concurrent use.
type Smoother struct {
	kind    SmoothingType
	current float64
	target  float64

	// pole of the exponential filter
	pole float64

	// ramp length in samples, samples left, and the per-sample increment
	// (a difference for linear ramps, a ratio for logarithmic ones)
	length    int
	remaining int
	step      float64
}

// NewTimedSmoother creates a smoother that settles on a new target in about
// ms milliseconds. Exponential smoothers reach -60 dB of the change in that
// time; ramps arrive exactly.
func NewTimedSmoother(kind SmoothingType, sampleRate, ms float64) *Smoother {
	samples := max(1, math.Round(sampleRate*ms/1000.0))
	return &Smoother{
		kind:   kind,
		pole:   math.Exp(-6.908 / samples),
		length: int(samples),
	}
}

// Kind returns the smoothing type.
func (s *Smoother) Kind() SmoothingType {
	return s.kind
}

// SetTarget starts moving towards target. Calling it again with the same
// target does not restart a ramp.
func (s *Smoother) SetTarget(target float64) {
	if target == s.target {
		return
	}
	s.target = target

	switch s.kind {
	case LinearSmoothing:
		s.remaining = s.length
		s.step = (target - s.current) / float64(s.length)
	case LogarithmicSmoothing:
		s.current = max(s.current, logFloor)
		s.remaining = s.length
		s.step = math.Pow(max(target, logFloor)/s.current, 1.0/float64(s.length))
	}
}

// Next advances one sample and returns the smoothed value.
func (s *Smoother) Next() float64 {
	switch s.kind {
	case ExponentialSmoothing:
		if s.current != s.target {
			s.current += (s.target - s.current) * (1.0 - s.pole)
			if math.Abs(s.current-s.target) < settleThreshold {
				s.current = s.target
			}
		}

	case LinearSmoothing, LogarithmicSmoothing:
		if s.remaining == 0 {
			break
		}
		s.remaining--
		switch {
		case s.remaining == 0:
			s.current = s.target
		case s.kind == LinearSmoothing:
			s.current += s.step
		default:
			s.current *= s.step
		}
	}
	return s.current
}

// IsSmoothing reports whether the value is still moving.
func (s *Smoother) IsSmoothing() bool {
	if s.kind == ExponentialSmoothing {
		return s.current != s.target
	}
	return s.remaining > 0
}

// Reset jumps straight to value.
func (s *Smoother) Reset(value float64) {
	s.current = value
	s.target = value
	s.remaining = 0
}
