package filter

import "math"

// SVF implements a zero-delay-feedback state variable lowpass
type SVF struct {
	// Coefficients
	g float64
	k float64

	// Integrator states
	ic1eq float64
	ic2eq float64

	cutoff     float64
	resonance  float64
	sampleRate float64
	recomputes int
}

// SVFOutputs holds all filter outputs for one sample
type SVFOutputs struct {
	Lowpass  float64
	Highpass float64
	Bandpass float64
	Notch    float64
}

// NewSVF creates a new state variable filter
func NewSVF() *SVF {
	return &SVF{cutoff: -1, resonance: -1}
}

// Reset clears the filter state
func (s *SVF) Reset() {
	s.ic1eq = 0
	s.ic2eq = 0
}

// Recomputes returns how many times coefficients have been derived
func (s *SVF) Recomputes() int {
	return s.recomputes
}

// setCoefficients maps resonance 0..1 onto damping 2..0.05
func (s *SVF) setCoefficients(sampleRate, cutoff, resonance float64) {
	if cutoff == s.cutoff && resonance == s.resonance && sampleRate == s.sampleRate {
		return
	}
	fc := math.Max(1, math.Min(cutoff, sampleRate*0.49))
	// Pre-warp the frequency for the bilinear transform
	s.g = math.Tan(math.Pi * fc / sampleRate)
	s.k = 2.0 - 1.95*math.Max(0, math.Min(resonance, 1))

	s.cutoff = cutoff
	s.resonance = resonance
	s.sampleRate = sampleRate
	s.recomputes++
}

// ProcessSample advances the filter and returns all outputs
func (s *SVF) ProcessSample(input float64) SVFOutputs {
	g := s.g
	k := s.k
	a1 := 1.0 / (1.0 + g*(g+k))
	a2 := g * a1
	a3 := g * a2

	v3 := input - s.ic2eq
	v1 := a1*s.ic1eq + a2*v3
	v2 := s.ic2eq + a2*s.ic1eq + a3*v3

	s.ic1eq = 2.0*v1 - s.ic1eq
	s.ic2eq = 2.0*v2 - s.ic2eq

	return SVFOutputs{
		Lowpass:  v2,
		Bandpass: v1,
		Highpass: input - k*v1 - v2,
		Notch:    input - k*v1,
	}
}

// Process filters one sample through the lowpass output
func (s *SVF) Process(in, sampleRate, cutoff, resonance float64) float64 {
	s.setCoefficients(sampleRate, cutoff, resonance)
	return s.ProcessSample(in).Lowpass
}
