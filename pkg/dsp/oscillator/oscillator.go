// Package oscillator provides audio oscillators for synthesis
package oscillator

import (
	"fmt"
	"math"
)

// Waveform selects the shape an Oscillator generates
type Waveform int

const (
	// Saw is a bipolar band-limited rising ramp
	Saw Waveform = iota
	// Square is a bipolar band-limited pulse with variable width
	Square
	// Sine is a plain sine wave
	Sine
	// UnipolarSquare is a 0..1 square with fixed 50% duty, for LFO use
	UnipolarSquare
	// Triangle is a bipolar triangle without correction, for LFO use
	Triangle
)

// String returns the display name of the waveform
func (w Waveform) String() string {
	switch w {
	case Saw:
		return "Saw"
	case Square, UnipolarSquare:
		return "Square"
	case Sine:
		return "Sine"
	case Triangle:
		return "Triangle"
	default:
		return fmt.Sprintf("Waveform(%d)", int(w))
	}
}

// WaveformFromIndex maps a discrete parameter value onto a Waveform.
// Out of range values clamp to the nearest waveform.
func WaveformFromIndex(i int) Waveform {
	if i < int(Saw) {
		return Saw
	}
	if i > int(Triangle) {
		return Triangle
	}
	return Waveform(i)
}

// Oscillator generates one waveform sample per call. Saw and Square are
// band-limited with minimum-phase BLEP corrections.
type Oscillator struct {
	phase float64

	// Pending step corrections
	buffer  [blepBufferLen]float32
	cursor  int
	pending int
	primed  bool
}

// New creates an oscillator at phase 0
func New() *Oscillator {
	return &Oscillator{}
}

// Phase returns the current phase in [0,1)
func (o *Oscillator) Phase() float64 {
	return o.phase
}

// SetPhase sets the oscillator phase, wrapped to [0,1)
func (o *Oscillator) SetPhase(phase float64) {
	o.phase = phase - math.Floor(phase)
	o.primed = false
}

// Trig restarts the waveform at phase 0
func (o *Oscillator) Trig() {
	o.phase = 0.0
	o.primed = false
}

// Reset restarts the waveform and discards pending corrections
func (o *Oscillator) Reset() {
	o.phase = 0.0
	o.cursor = 0
	o.pending = 0
	o.primed = false
	for i := range o.buffer {
		o.buffer[i] = 0
	}
}

// addBLEP schedules a step correction. offset is how long ago the
// discontinuity happened, in samples. amp is the correction height: +1 for a
// falling unit step, -1 for a rising one.
func (o *Oscillator) addBLEP(offset, amp float64) {
	residual := blepData().residual

	pos := blepOversampling * offset
	in := int(pos)
	frac := pos - float64(in)
	out := o.cursor

	n := 0
	for ; n < blepTaps && in < blepTaps*blepOversampling; n++ {
		if out >= blepBufferLen {
			out = 0
		}
		c := float32(amp * (residual[in] + (residual[in+1]-residual[in])*frac))
		if n < o.pending {
			o.buffer[out] += c
		} else {
			o.buffer[out] = c
		}
		in += blepOversampling
		out++
	}
	o.pending = max(o.pending, n)
}

// prime schedules the corrections a free-running saw would still have
// pending, so a restarted saw starts in steady state
func (o *Oscillator) prime(dp float64, wrapped bool) {
	o.primed = true
	offset := o.phase / dp
	if wrapped {
		offset += 1.0 / dp
	}
	for ; offset < blepTaps; offset += 1.0 / dp {
		o.addBLEP(offset, 1.0)
	}
}

// nextCorrection pops the next pending correction sample
func (o *Oscillator) nextCorrection() float64 {
	if o.pending == 0 {
		return 0
	}
	c := float64(o.buffer[o.cursor])
	o.pending--
	o.cursor++
	if o.cursor >= blepBufferLen {
		o.cursor = 0
	}
	return c
}

// Generate advances the phase by frequency/sampleRate and returns the next
// sample scaled by amplitude. pulseWidth only affects Square.
func (o *Oscillator) Generate(waveform Waveform, frequency, amplitude, pulseWidth, sampleRate float64) float64 {
	if frequency <= 0 || sampleRate <= 0 {
		return 0
	}

	dp := frequency / sampleRate
	o.phase += dp

	switch waveform {
	case Saw:
		wrapped := o.phase >= 1.0
		if wrapped {
			o.phase -= math.Floor(o.phase)
			o.addBLEP(o.phase/dp, 1.0)
		}
		if !o.primed {
			o.prime(dp, wrapped)
		}
		// Delay the ramp to line up with the corrected steps
		return o.bandLimited(o.phase-blepData().delay*dp, amplitude)

	case Square:
		if o.phase >= 1.0 {
			o.phase -= math.Floor(o.phase)
			// Rising edge at the wrap
			o.addBLEP(o.phase/dp, -1.0)
			// The falling edge may fall inside the same sample
			if o.phase >= pulseWidth {
				o.addBLEP((o.phase-pulseWidth)/dp, 1.0)
			}
		} else if o.phase >= pulseWidth && o.phase-dp < pulseWidth {
			o.addBLEP((o.phase-pulseWidth)/dp, 1.0)
		}
		value := 0.0
		if o.phase < pulseWidth {
			value = 1.0
		}
		return o.bandLimited(value, amplitude)

	case Sine:
		o.wrap()
		return math.Sin(2.0*math.Pi*o.phase) * amplitude

	case Triangle:
		o.wrap()
		tri := 2.0 * o.phase
		if o.phase > 0.5 {
			tri = 2.0 - 2.0*o.phase
		}
		return (2.0*tri - 1.0) * amplitude

	case UnipolarSquare:
		o.wrap()
		if o.phase < 0.5 {
			return amplitude
		}
		return 0
	}
	return 0
}

func (o *Oscillator) wrap() {
	if o.phase >= 1.0 {
		o.phase -= math.Floor(o.phase)
	}
}

// bandLimited adds the pending correction to a 0..1 naive value and rescales
// to -amplitude..amplitude
func (o *Oscillator) bandLimited(naive, amplitude float64) float64 {
	sample := naive + o.nextCorrection()
	return amplitude * (2.0*sample - 1.0)
}
