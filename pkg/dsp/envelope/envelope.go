// Package envelope provides envelope generators for audio synthesis
package envelope

import (
	"fmt"
	"math"
)

// Target overshoot ratios. Smaller ratios give more exponential curves.
const (
	attackTargetRatio       = 0.1
	decayReleaseTargetRatio = 0.001
)

// State represents the current envelope stage
type State int

const (
	// Idle means the envelope is silent and the voice can be reused
	Idle State = iota
	// Attacking rises towards 1
	Attacking
	// Decaying falls from 1 towards the sustain level
	Decaying
	// Sustaining holds the sustain level until gate off
	Sustaining
	// Releasing falls towards 0
	Releasing
)

// String returns the stage name
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Attacking:
		return "Attacking"
	case Decaying:
		return "Decaying"
	case Sustaining:
		return "Sustaining"
	case Releasing:
		return "Releasing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Params holds stage rates in seconds and the sustain level (0-1)
type Params struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// ADSR implements an exponential Attack-Decay-Sustain-Release envelope
type ADSR struct {
	params     Params
	sampleRate float64
	configured bool

	// Per-stage one-pole coefficients
	attackCoef  float64
	decayCoef   float64
	releaseCoef float64
	attackBase  float64
	decayBase   float64
	releaseBase float64

	state     State
	level     float64
	startTime uint64
	started   bool
}

// New creates an idle envelope. SetParameters must be called before use.
func New() *ADSR {
	return &ADSR{}
}

// SetParameters updates the stage rates. Coefficients are only recomputed
// when the parameters or sample rate differ from the previous call.
func (e *ADSR) SetParameters(sampleRate float64, p Params) {
	if e.configured && p == e.params && sampleRate == e.sampleRate {
		return
	}
	e.params = p
	e.sampleRate = sampleRate
	e.configured = true

	e.attackCoef = calcCoef(p.Attack*sampleRate, attackTargetRatio)
	e.attackBase = (1.0 + attackTargetRatio) * (1.0 - e.attackCoef)

	e.decayCoef = calcCoef(p.Decay*sampleRate, decayReleaseTargetRatio)
	e.decayBase = (p.Sustain - decayReleaseTargetRatio) * (1.0 - e.decayCoef)

	e.releaseCoef = calcCoef(p.Release*sampleRate, decayReleaseTargetRatio)
	e.releaseBase = -decayReleaseTargetRatio * (1.0 - e.releaseCoef)
}

// Parameters returns the current stage settings
func (e *ADSR) Parameters() Params {
	return e.params
}

// calcCoef returns the one-pole coefficient for a stage lasting rate samples
func calcCoef(rate, targetRatio float64) float64 {
	if rate <= 0 {
		return 0
	}
	return math.Exp(-math.Log((1.0+targetRatio)/targetRatio) / rate)
}

// GateOn starts the attack stage from the current level
func (e *ADSR) GateOn(timestamp uint64) {
	e.startTime = timestamp
	e.started = true
	e.state = Attacking
}

// GateOff moves a sounding envelope into release
func (e *ADSR) GateOff() {
	switch e.state {
	case Attacking, Decaying, Sustaining:
		e.state = Releasing
	}
}

// Reset silences the envelope immediately
func (e *ADSR) Reset() {
	e.state = Idle
	e.level = 0
	e.started = false
	e.startTime = 0
}

// State returns the current stage
func (e *ADSR) State() State {
	return e.state
}

// IsIdle reports whether the envelope has finished
func (e *ADSR) IsIdle() bool {
	return e.state == Idle
}

// IsDecaying reports whether the envelope is in the decay stage
func (e *ADSR) IsDecaying() bool {
	return e.state == Decaying
}

// Level returns the most recent output level
func (e *ADSR) Level() float64 {
	return e.level
}

// StartTime returns the timestamp of the last gate on, if any
func (e *ADSR) StartTime() (uint64, bool) {
	return e.startTime, e.started
}

// Next advances one sample and returns the new level
func (e *ADSR) Next() float64 {
	switch e.state {
	case Attacking:
		e.level = e.attackBase + e.level*e.attackCoef
		if e.level >= 1.0 {
			e.level = 1.0
			e.state = Decaying
		}
	case Decaying:
		e.level = e.decayBase + e.level*e.decayCoef
		if e.level <= e.params.Sustain {
			e.level = e.params.Sustain
			e.state = Sustaining
		}
	case Releasing:
		e.level = e.releaseBase + e.level*e.releaseCoef
		if e.level <= 0.0 {
			e.level = 0.0
			e.state = Idle
			e.started = false
			e.startTime = 0
		}
	}
	return e.level
}
