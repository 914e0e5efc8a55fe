// Package pitch converts between fractional MIDI pitch and frequency.
package pitch

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// A4Pitch is the MIDI pitch of concert A
	A4Pitch = 69.0
	// A4Frequency is the reference tuning in Hz
	A4Frequency = 440.0

	semitoneTableSize = 512
	semitoneTableBase = 256 // table index of A4
	fracTableSize     = 1001
	fracSteps         = 1000

	// MinPitch and MaxPitch bound the domain of the fast lookup. Pitches
	// outside are clamped to the nearest edge.
	MinPitch = A4Pitch - semitoneTableBase
	MaxPitch = A4Pitch + (semitoneTableSize - 1 - semitoneTableBase)
)

var (
	// semitones[i] = 2^((i-256)/12)
	semitones = func() (t [semitoneTableSize]float64) {
		for i := range t {
			t[i] = math.Exp2(float64(i-semitoneTableBase) / 12.0)
		}
		return t
	}()

	// fractions[k] = 2^(k/12000), one entry per thousandth of a semitone
	fractions = func() (t [fracTableSize]float64) {
		for k := range t {
			t[k] = math.Exp2(float64(k) / 12.0 / fracSteps)
		}
		return t
	}()
)

// ToFrequency returns the equal-tempered frequency of a fractional pitch.
func ToFrequency(pitch float64) float64 {
	return A4Frequency * math.Exp2((pitch-A4Pitch)/12.0)
}

// ToFrequencyFast approximates ToFrequency with two table lookups and one
// linear interpolation. Relative error stays well below 0.1%. NaN maps to
// MinPitch and infinities to the nearest edge.
func ToFrequencyFast(pitch float64) float64 {
	if pitch < MinPitch || math.IsNaN(pitch) {
		pitch = MinPitch
	} else if pitch > MaxPitch {
		pitch = MaxPitch
	}

	whole := math.Floor(pitch)
	a := (pitch - whole) * fracSteps
	idx := int(a)
	if idx >= fracSteps {
		idx = fracSteps - 1
	}
	frac := a - float64(idx)

	semi := semitones[int(whole)-int(A4Pitch)+semitoneTableBase]
	pow2 := (1.0-frac)*fractions[idx] + frac*fractions[idx+1]
	return A4Frequency * semi * pow2
}

// FromFrequency returns the fractional pitch of a frequency. Non-positive
// frequencies map to MinPitch.
func FromFrequency(hz float64) float64 {
	if hz <= 0 {
		return MinPitch
	}
	return 12.0*math.Log2(hz/A4Frequency) + A4Pitch
}

// VelocityToAmplitude maps a MIDI velocity onto a perceptually even
// amplitude curve, (m*v+b)^2.
func VelocityToAmplitude(velocity uint8) float64 {
	const b = 0.023937
	const m = (1.0 - b) / 127.0
	v := float64(velocity)
	return (m*v + b) * (m*v + b)
}

// ErrInvalidNoteName is returned by ParseNoteName
var ErrInvalidNoteName = errors.New("invalid note name")

// NoteName returns the scientific pitch name of a MIDI note, e.g. 60 -> "C4".
func NoteName(note uint8) string {
	names := [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	octave := int(note)/12 - 1
	return names[note%12] + strconv.Itoa(octave)
}

// ParseNoteName is the inverse of NoteName. It accepts a letter, any number
// of '#' or 'b' accidentals and an octave from -1, e.g. "C#4", "Eb2", "a-1".
func ParseNoteName(name string) (uint8, error) {
	s := strings.TrimSpace(name)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidNoteName)
	}
	steps := map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}
	base, ok := steps[strings.ToUpper(s[:1])[0]]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNoteName, name)
	}
	i := 1
	for ; i < len(s) && (s[i] == '#' || s[i] == 'b'); i++ {
		if s[i] == '#' {
			base++
		} else {
			base--
		}
	}
	octave, err := strconv.Atoi(s[i:])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNoteName, name)
	}
	note := (octave+1)*12 + base
	if note < 0 || note > 127 {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidNoteName, name)
	}
	return uint8(note), nil
}
