package param

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func TestChoice(t *testing.T) {
	options := []ChoiceOption{
		{Value: 0, Name: "Saw"},
		{Value: 1, Name: "Square", Aliases: []string{"pulse"}},
		{Value: 2, Name: "Sine", Aliases: []string{"sin"}},
	}

	p := Choice(100, "Waveform", options).Build()

	t.Run("Formatter", func(t *testing.T) {
		tests := []struct {
			value    float64
			expected string
		}{
			{0, "Saw"},
			{1, "Square"},
			{2, "Sine"},
		}
		for _, test := range tests {
			result := p.FormatValue(test.value / 2.0)
			if result != test.expected {
				t.Errorf("FormatValue(%f) = %s, want %s", test.value, result, test.expected)
			}
		}
	})

	t.Run("Parser", func(t *testing.T) {
		tests := []struct {
			input string
			plain float64
		}{
			{"Saw", 0},
			{"pulse", 1},
			{"SINE", 2},
			{"sin", 2},
			{"1", 1},
		}
		for _, test := range tests {
			normalized, err := p.ParseValue(test.input)
			if err != nil {
				t.Errorf("ParseValue(%q) error: %v", test.input, err)
				continue
			}
			if got := p.Denormalize(normalized); got != test.plain {
				t.Errorf("ParseValue(%q) = %f, want %f", test.input, got, test.plain)
			}
		}
		for _, bad := range []string{"noise", "1.5", "7"} {
			if _, err := p.ParseValue(bad); err == nil {
				t.Errorf("expected error for unknown option %q", bad)
			}
		}
	})

	t.Run("Discrete", func(t *testing.T) {
		p.SetValue(0.6)
		if got := p.GetPlainValue(); got != 1 {
			t.Errorf("0.6 normalized snapped to %f, want 1", got)
		}
		if !p.IsDiscrete() {
			t.Error("choice should be discrete")
		}
	})
}

func TestLogarithmicScale(t *testing.T) {
	p := FrequencyParameter(1, "Cutoff", 20, 20000, 4000).Build()

	if math.Abs(p.GetPlainValue()-4000) > 1e-6 {
		t.Errorf("default = %f, want 4000", p.GetPlainValue())
	}
	// Geometric midpoint of 20..20000
	if mid := p.Denormalize(0.5); math.Abs(mid-632.455532) > 1e-3 {
		t.Errorf("Denormalize(0.5) = %f, want 632.46", mid)
	}
	if p.Normalize(10) != 0 || p.Normalize(50000) != 1 {
		t.Error("out of range values not clamped")
	}
	for _, hz := range []float64{20, 100, 1234.5, 20000} {
		if got := p.Denormalize(p.Normalize(hz)); math.Abs(got-hz)/hz > 1e-9 {
			t.Errorf("round trip %f -> %f", hz, got)
		}
	}
}

func TestParameterText(t *testing.T) {
	tests := []struct {
		name  string
		param *Parameter
		plain float64
		want  string
	}{
		{"frequency", FrequencyParameter(1, "Cutoff", 20, 20000, 4000).Build(), 2500, "2.50 kHz"},
		{"time", TimeParameter(2, "Attack", 0.001, 16, 0.01).Build(), 0.25, "250.0 ms"},
		{"level", LevelParameter(3, "Level", 1).Build(), 0.5, "50%"},
		{"depth", DepthParameter(4, "Env").Build(), -0.25, "-25%"},
		{"semitones", SemitoneParameter(5, "Detune", -2, 2, 0).Build(), 1.5, "+1.50 st"},
		{"gain", GainParameter(6, "Master", 2, 1).Build(), 1, "0.0 dB"},
		{"toggle", ToggleParameter(7, "Sync", false).Build(), 1, "On"},
		{"int", IntParameter(8, "Voices", 1, 7, 1).Build(), 4, "4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.param.SetPlainValue(tt.plain)
			if got := tt.param.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseText(t *testing.T) {
	r := NewRegistry()
	cutoff := FrequencyParameter(1, "Cutoff", 20, 20000, 4000).Build()
	attack := TimeParameter(2, "AmpEnvAttack", 0.001, 16, 0.01).Build()
	if err := r.Add(cutoff, attack); err != nil {
		t.Fatal(err)
	}

	if err := r.SetText("cutoff", "1.5 kHz"); err != nil {
		t.Fatal(err)
	}
	if math.Abs(cutoff.GetPlainValue()-1500) > 1e-6 {
		t.Errorf("cutoff = %f, want 1500", cutoff.GetPlainValue())
	}
	if err := r.SetText("AmpEnvAttack", "2 s"); err != nil {
		t.Fatal(err)
	}
	if math.Abs(attack.GetPlainValue()-2) > 1e-9 {
		t.Errorf("attack = %f, want 2", attack.GetPlainValue())
	}
	if err := r.SetText("Cutoff", "loud"); err == nil {
		t.Error("expected parse error")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := New(1, "Alpha").Build()
	b := New(2, "Beta").Range(0, 10).Default(5).Build()

	if err := r.Add(a, b); err != nil {
		t.Fatal(err)
	}
	if err := r.Add(New(1, "Gamma").Build()); !errors.Is(err, ErrDuplicateParameter) {
		t.Errorf("duplicate id error = %v", err)
	}
	if err := r.Add(New(3, "ALPHA").Build()); !errors.Is(err, ErrDuplicateParameter) {
		t.Errorf("duplicate name error = %v", err)
	}
	if r.Count() != 2 {
		t.Errorf("Count() = %d, want 2", r.Count())
	}
	if r.GetByIndex(1) != b || r.GetByIndex(2) != nil || r.Get(1) != a {
		t.Error("lookup by index or id failed")
	}
	if _, err := r.Lookup("missing"); !errors.Is(err, ErrUnknownParameter) {
		t.Errorf("Lookup error = %v", err)
	}
	if err := r.SetPlain("beta", 8); err != nil || b.GetPlainValue() != 8 {
		t.Errorf("SetPlain failed: %v, %f", err, b.GetPlainValue())
	}
	r.ResetAll()
	if b.GetPlainValue() != 5 {
		t.Errorf("after ResetAll = %f, want 5", b.GetPlainValue())
	}
}

func TestChangeMask(t *testing.T) {
	m := NewChangeMask()
	if !m.TestAndClear(0) || m.TestAndClear(0) {
		t.Fatal("initial bit should be set once")
	}
	if !m.IsSet(5) {
		t.Error("other bits should stay set")
	}

	p := TimeParameter(1, "Attack", 0.001, 16, 0.01).Notifies(m).Build()
	for i := 0; i < MaxMaskBits; i++ {
		m.TestAndClear(i)
	}

	p.SetPlainValue(0.01)
	if m.IsSet(3) {
		t.Error("unchanged value should not mark the mask")
	}
	p.SetPlainValue(0.5)
	for i := 0; i < MaxMaskBits; i++ {
		if !m.IsSet(i) {
			t.Fatalf("bit %d not set after change", i)
		}
	}
	m.TestAndClear(2)
	if m.IsSet(2) || !m.IsSet(1) || !m.IsSet(3) {
		t.Error("TestAndClear affected other bits")
	}
	m.Mark(2)
	if !m.IsSet(2) {
		t.Error("Mark did not set bit")
	}
}

func TestConcurrentAccess(t *testing.T) {
	p := New(1, "Level").Build()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				p.SetValue(float64(i) / 4)
				v := p.GetValue()
				if v < 0 || v > 1 {
					t.Errorf("value out of range: %f", v)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}

func BenchmarkParameterRead(b *testing.B) {
	p := FrequencyParameter(1, "Cutoff", 20, 20000, 4000).Build()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = p.GetPlainValue()
	}
}
