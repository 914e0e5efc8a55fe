package pitch

import (
	"errors"
	"math"
	"testing"
)

func TestToFrequencyReference(t *testing.T) {
	if got := ToFrequency(69); got != 440.0 {
		t.Errorf("ToFrequency(69) = %f, want 440", got)
	}
	if got := ToFrequency(71); math.Abs(got-493.883301256) > 0.001 {
		t.Errorf("ToFrequency(71) = %f, want 493.8833", got)
	}
}

func TestToFrequencyFastKnownValues(t *testing.T) {
	if got := ToFrequencyFast(69); got != 440.0 {
		t.Errorf("ToFrequencyFast(69) = %v, want exactly 440", got)
	}

	tests := []struct {
		pitch float64
		want  float64
	}{
		{70, 466.16376},
		{71, 493.883301256},
		{0, 8.1757989},
		{70.5, 479.8234},
		{57, 220},
		{81, 880},
	}
	for _, tt := range tests {
		got := ToFrequencyFast(tt.pitch)
		if math.Abs(got-tt.want) > 0.01 {
			t.Errorf("ToFrequencyFast(%v) = %f, want %f", tt.pitch, got, tt.want)
		}
	}
}

func TestToFrequencyFastAccuracy(t *testing.T) {
	// Every cent from 60 semitones below to 80 semitones above A4
	for c := -6000; c <= 8000; c++ {
		p := A4Pitch + float64(c)/100.0
		exact := ToFrequency(p)
		fast := ToFrequencyFast(p)
		if rel := math.Abs(fast-exact) / exact; rel > 0.001 {
			t.Fatalf("pitch %.2f: relative error %g exceeds 0.1%% (fast=%f exact=%f)", p, rel, fast, exact)
		}
	}
}

func TestToFrequencyFastIntegerPitches(t *testing.T) {
	for p := 0; p <= 127; p++ {
		exact := ToFrequency(float64(p))
		fast := ToFrequencyFast(float64(p))
		if rel := math.Abs(fast-exact) / exact; rel > 1e-12 {
			t.Errorf("pitch %d: fast=%v exact=%v", p, fast, exact)
		}
	}
}

func TestToFrequencyFastClampsDomain(t *testing.T) {
	low := ToFrequencyFast(MinPitch)
	if got := ToFrequencyFast(MinPitch - 1000); got != low {
		t.Errorf("below domain: got %v, want edge value %v", got, low)
	}
	high := ToFrequencyFast(MaxPitch)
	if got := ToFrequencyFast(MaxPitch + 1000); got != high {
		t.Errorf("above domain: got %v, want edge value %v", got, high)
	}
	if math.IsNaN(ToFrequencyFast(math.Inf(-1))) || math.IsNaN(ToFrequencyFast(math.Inf(1))) {
		t.Error("infinite pitch should clamp, not produce NaN")
	}
	if got := ToFrequencyFast(math.NaN()); got != low {
		t.Errorf("NaN pitch: got %v, want low edge %v", got, low)
	}
}

func TestFromFrequency(t *testing.T) {
	for _, p := range []float64{0, 21.5, 48, 69, 100.25} {
		if got := FromFrequency(ToFrequency(p)); math.Abs(got-p) > 1e-9 {
			t.Errorf("FromFrequency(ToFrequency(%v)) = %v", p, got)
		}
	}
	if got := FromFrequency(0); got != MinPitch {
		t.Errorf("FromFrequency(0) = %v, want %v", got, MinPitch)
	}
}

func TestVelocityToAmplitude(t *testing.T) {
	if got := VelocityToAmplitude(127); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("velocity 127 = %v, want 1", got)
	}
	if got := VelocityToAmplitude(0); got <= 0 || got > 0.001 {
		t.Errorf("velocity 0 = %v, want small positive", got)
	}
	prev := 0.0
	for v := 0; v <= 127; v++ {
		a := VelocityToAmplitude(uint8(v))
		if a <= prev {
			t.Fatalf("curve not increasing at velocity %d", v)
		}
		prev = a
	}
}

func TestNoteName(t *testing.T) {
	tests := map[uint8]string{0: "C-1", 60: "C4", 69: "A4", 127: "G9"}
	for note, want := range tests {
		if got := NoteName(note); got != want {
			t.Errorf("NoteName(%d) = %q, want %q", note, got, want)
		}
	}
}

func TestParseNoteName(t *testing.T) {
	tests := []struct {
		name string
		want uint8
	}{
		{"C4", 60},
		{"c4", 60},
		{"A4", 69},
		{"C#4", 61},
		{"Db4", 61},
		{"Cb4", 59},
		{"B#3", 60},
		{"C-1", 0},
		{"G9", 127},
		{" E2 ", 40},
	}
	for _, tt := range tests {
		got, err := ParseNoteName(tt.name)
		if err != nil {
			t.Errorf("ParseNoteName(%q): %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseNoteName(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}

	for note := range uint8(128) {
		if got, err := ParseNoteName(NoteName(note)); err != nil || got != note {
			t.Errorf("round trip of %d gave %d, %v", note, got, err)
		}
	}

	for _, bad := range []string{"", "H4", "C", "C#x", "G#9", "Cb-1"} {
		if _, err := ParseNoteName(bad); !errors.Is(err, ErrInvalidNoteName) {
			t.Errorf("ParseNoteName(%q) error = %v", bad, err)
		}
	}
}

func BenchmarkToFrequencyFast(b *testing.B) {
	b.ReportAllocs()
	p := 0.0
	for i := 0; i < b.N; i++ {
		_ = ToFrequencyFast(p)
		p += 0.013
		if p > 127 {
			p = 0
		}
	}
}

func BenchmarkToFrequency(b *testing.B) {
	b.ReportAllocs()
	p := 0.0
	for i := 0; i < b.N; i++ {
		_ = ToFrequency(p)
		p += 0.013
		if p > 127 {
			p = 0
		}
	}
}
