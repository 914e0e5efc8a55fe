package envelope

import "math"

// Follower tracks the peak level of a signal with separate attack and
// release times. It is used for output metering.
type Follower struct {
	sampleRate  float64
	attack      float64
	release     float64
	attackCoef  float64
	releaseCoef float64
	envelope    float64
	peak        float64
}

// NewFollower creates a new envelope follower
func NewFollower(sampleRate float64) *Follower {
	f := &Follower{
		sampleRate: sampleRate,
		attack:     0.001,
		release:    0.3,
	}
	f.updateCoefficients()
	return f
}

// SetAttack sets the attack time
func (f *Follower) SetAttack(seconds float64) {
	f.attack = math.Max(0.0001, seconds)
	f.updateCoefficients()
}

// SetRelease sets the release time
func (f *Follower) SetRelease(seconds float64) {
	f.release = math.Max(0.0001, seconds)
	f.updateCoefficients()
}

func (f *Follower) updateCoefficients() {
	f.attackCoef = math.Exp(-1.0 / (f.attack * f.sampleRate))
	f.releaseCoef = math.Exp(-1.0 / (f.release * f.sampleRate))
}

// Process feeds a block of samples - no allocations
func (f *Follower) Process(input []float32) {
	for _, s := range input {
		f.Follow(s)
	}
}

// Follow processes a single sample and returns the envelope
func (f *Follower) Follow(input float32) float64 {
	abs := math.Abs(float64(input))
	if abs > f.peak {
		f.peak = abs
	}

	if abs > f.envelope {
		f.envelope = abs + (f.envelope-abs)*f.attackCoef
	} else {
		f.envelope = abs + (f.envelope-abs)*f.releaseCoef
	}
	return f.envelope
}

// Envelope returns the current envelope value
func (f *Follower) Envelope() float64 {
	return f.envelope
}

// Peak returns the largest absolute sample seen since the last Reset
func (f *Follower) Peak() float64 {
	return f.peak
}

// EnvelopeDB returns the envelope in decibels, floored at -120
func (f *Follower) EnvelopeDB() float64 {
	return LinearToDB(f.envelope)
}

// Reset clears the envelope and peak hold
func (f *Follower) Reset() {
	f.envelope = 0
	f.peak = 0
}

// LinearToDB converts a linear gain to decibels, floored at -120
func LinearToDB(v float64) float64 {
	if v <= 1e-6 {
		return -120
	}
	return 20 * math.Log10(v)
}
