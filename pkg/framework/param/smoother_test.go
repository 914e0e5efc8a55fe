package param

import (
	"math"
	"testing"
)

func TestSmoother(t *testing.T) {
	t.Run("LinearSmoothing", func(t *testing.T) {
		// 10 samples at 1 kHz is 10 ms
		s := NewTimedSmoother(LinearSmoothing, 1000, 10)
		s.Reset(0.0)
		s.SetTarget(1.0)

		for i := 0; i < 10; i++ {
			value := s.Next()
			expected := float64(i+1) * 0.1
			if math.Abs(value-expected) > 1e-9 {
				t.Errorf("Sample %d: expected %f, got %f", i, expected, value)
			}
		}
		if s.Next() != 1.0 {
			t.Error("Should stay at target after reaching it")
		}
		if s.IsSmoothing() {
			t.Error("Should not be smoothing after reaching target")
		}
	})

	t.Run("ExponentialSmoothing", func(t *testing.T) {
		s := NewTimedSmoother(ExponentialSmoothing, 1000, 50)
		s.Reset(0.0)
		s.SetTarget(1.0)

		prev := 0.0
		for i := 0; i < 30; i++ {
			value := s.Next()
			if value <= prev {
				t.Fatalf("sample %d: %f not above %f", i, value, prev)
			}
			if value >= 1.0 {
				t.Fatalf("sample %d: %f reached the target early", i, value)
			}
			prev = value
		}

		for i := 0; i < 500; i++ {
			s.Next()
		}
		if s.IsSmoothing() || s.Next() != 1.0 {
			t.Error("Should have snapped to the target by now")
		}
	})

	t.Run("LogarithmicSmoothing", func(t *testing.T) {
		s := NewTimedSmoother(LogarithmicSmoothing, 1000, 10)
		s.Reset(100.0)
		s.SetTarget(1000.0)

		values := make([]float64, 10)
		for i := range values {
			values[i] = s.Next()
		}
		// Equal ratios, one decade in ten steps
		want := math.Pow(10, 0.1)
		prev := 100.0
		for i, v := range values {
			if r := v / prev; math.Abs(r-want) > 1e-9 {
				t.Errorf("step %d ratio = %f, want %f", i, r, want)
			}
			prev = v
		}
		if values[9] != 1000.0 {
			t.Errorf("ramp ended at %f, want 1000", values[9])
		}
	})

	t.Run("LogarithmicFromZero", func(t *testing.T) {
		s := NewTimedSmoother(LogarithmicSmoothing, 1000, 3)
		s.Reset(0)
		s.SetTarget(1)
		got := []float64{s.Next(), s.Next(), s.Next()}
		want := []float64{0.01, 0.1, 1}
		for i := range want {
			if math.Abs(got[i]-want[i]) > 1e-9 {
				t.Errorf("sample %d = %f, want %f", i, got[i], want[i])
			}
		}

		s.SetTarget(0)
		for i := 0; i < 3; i++ {
			s.Next()
		}
		if v := s.Next(); v != 0 {
			t.Errorf("ramp to silence ended at %f, want 0", v)
		}
	})

	t.Run("RetargetMidRamp", func(t *testing.T) {
		s := NewTimedSmoother(LinearSmoothing, 1000, 4)
		s.Reset(0)
		s.SetTarget(4)
		s.Next()
		s.Next() // 2
		s.SetTarget(0)
		for i, want := range []float64{1.5, 1, 0.5, 0} {
			if v := s.Next(); math.Abs(v-want) > 1e-9 {
				t.Errorf("sample %d = %f, want %f", i, v, want)
			}
		}
	})

	t.Run("SameTargetKeepsRamp", func(t *testing.T) {
		s := NewTimedSmoother(LinearSmoothing, 1000, 4)
		s.Reset(0)
		s.SetTarget(4)
		s.Next()
		s.SetTarget(4)
		if v := s.Next(); v != 2 {
			t.Errorf("value = %f, want 2", v)
		}
	})

	t.Run("Reset", func(t *testing.T) {
		s := NewTimedSmoother(LogarithmicSmoothing, 1000, 10)
		s.Reset(1)
		s.SetTarget(10)
		s.Next()
		s.Reset(5)
		if s.IsSmoothing() || s.Next() != 5 {
			t.Error("Reset should stop the ramp at the new value")
		}
	})
}

func TestTimedSmoother(t *testing.T) {
	s := NewTimedSmoother(ExponentialSmoothing, 44100, 10)
	if s.Kind() != ExponentialSmoothing {
		t.Fatalf("Kind() = %v", s.Kind())
	}
	s.Reset(0)
	s.SetTarget(1)
	for i := 0; i < 441; i++ {
		s.Next()
	}
	if v := s.Next(); v < 0.99 {
		t.Errorf("value after 10ms = %f, want >= 0.99", v)
	}
}

func BenchmarkSmoother(b *testing.B) {
	for _, kind := range []SmoothingType{LinearSmoothing, ExponentialSmoothing, LogarithmicSmoothing} {
		s := NewTimedSmoother(kind, 44100, 1000)
		s.Reset(1)
		b.Run([]string{"Linear", "Exponential", "Logarithmic"}[kind], func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if i%44100 == 0 {
					s.SetTarget(float64(1 + i%3))
				}
				_ = s.Next()
			}
		})
	}
}
