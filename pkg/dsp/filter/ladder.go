package filter

import "math"

// thermal scales signals into the range where the tanh stages operate
const thermal = 0.000025

// Ladder implements the Huovilainen model of the Moog four-pole ladder,
// oversampled twice with half-sample phase compensation on the output.
type Ladder struct {
	stage     [4]float64
	stageTanh [3]float64
	delay     [6]float64

	// Cached coefficients for the last cutoff/resonance pair
	tune       float64
	acr        float64
	resQuad    float64
	cutoff     float64
	resonance  float64
	sampleRate float64
	recomputes int

	tanh func(float64) float64
}

// NewLadder creates a ladder filter using the fast tanh approximation
func NewLadder() *Ladder {
	return &Ladder{
		cutoff:    -1,
		resonance: -1,
		tanh:      FastTanh,
	}
}

// NewLadderExact creates a ladder filter that uses math.Tanh
func NewLadderExact() *Ladder {
	l := NewLadder()
	l.tanh = math.Tanh
	return l
}

// Reset clears the filter state. Cached coefficients are kept.
func (l *Ladder) Reset() {
	l.stage = [4]float64{}
	l.stageTanh = [3]float64{}
	l.delay = [6]float64{}
}

// Recomputes returns how many times coefficients have been derived
func (l *Ladder) Recomputes() int {
	return l.recomputes
}

func (l *Ladder) computeCoefficients(cutoff, resonance, sampleRate float64) {
	if cutoff == l.cutoff && resonance == l.resonance && sampleRate == l.sampleRate {
		return
	}

	fc := math.Max(0, math.Min(cutoff, sampleRate/2)) / sampleRate
	f := fc * 0.5
	fc2 := fc * fc
	fc3 := fc2 * fc

	fcr := 1.8730*fc3 + 0.4955*fc2 - 0.6490*fc + 0.9988
	l.acr = -3.9364*fc2 + 1.8409*fc + 0.9968
	l.tune = (1.0 - math.Exp(-(2.0*math.Pi)*f*fcr)) / thermal
	l.resQuad = 4.0 * resonance * l.acr

	l.cutoff = cutoff
	l.resonance = resonance
	l.sampleRate = sampleRate
	l.recomputes++
}

// Process filters one sample. Resonance should stay below 1.
func (l *Ladder) Process(in, sampleRate, cutoff, resonance float64) float64 {
	l.computeCoefficients(cutoff, resonance, sampleRate)

	for j := 0; j < 2; j++ {
		input := in - l.resQuad*l.delay[5]
		l.stage[0] = l.delay[0] + l.tune*(l.tanh(input*thermal)-l.stageTanh[0])
		l.delay[0] = l.stage[0]

		for k := 1; k < 4; k++ {
			input = l.stage[k-1]
			l.stageTanh[k-1] = l.tanh(input * thermal)
			var prev float64
			if k != 3 {
				prev = l.stageTanh[k]
			} else {
				prev = l.tanh(l.delay[k] * thermal)
			}
			l.stage[k] = l.delay[k] + l.tune*(l.stageTanh[k-1]-prev)
			l.delay[k] = l.stage[k]
		}

		// Half sample delay for phase compensation
		l.delay[5] = (l.stage[3] + l.delay[4]) * 0.5
		l.delay[4] = l.stage[3]
	}
	return l.delay[5]
}

// FastTanh approximates tanh with an odd polynomial passed through a
// rational saturator. The result is bounded to (-1, 1).
func FastTanh(x float64) float64 {
	x2 := x * x
	x3 := x2 * x
	x5 := x3 * x2
	a := x + 0.16489087*x3 + 0.00985468*x5
	return a / math.Sqrt(1.0+a*a)
}
