package oscillator

import (
	"math"
	"sync"

	"github.com/justyntemme/synja/pkg/dsp/analysis"
)

const (
	// blepZeroCrossings is the number of sinc zero crossings on each side
	blepZeroCrossings = 3
	// blepOversampling is the number of table entries per output sample
	blepOversampling = 64
	// blepCutoff is the sinc cutoff relative to Nyquist
	blepCutoff = 0.8
	// blepTableLen is the length of the oversampled step table
	blepTableLen = 2*blepZeroCrossings*blepOversampling + 1
	// blepTaps is the number of output samples one step correction spans
	blepTaps = blepTableLen/blepOversampling - 1
	// blepBufferLen is the ring buffer size for pending corrections
	blepBufferLen = blepTableLen / blepOversampling
)

// blepTables holds the step table and what the oscillator derives from it
type blepTables struct {
	step []float64
	// residual is 1 - step, the correction for a falling unit step
	residual []float64
	// delay is the area under residual in samples. A corrected step lands
	// this much later than the naive one.
	delay float64
}

var (
	blepOnce sync.Once
	tables   blepTables
)

// blepData returns the process-wide tables, built once on first use
func blepData() *blepTables {
	blepOnce.Do(func() {
		step := generateMinBLEP(blepZeroCrossings, blepOversampling, blepCutoff)
		residual := make([]float64, len(step))
		area := 0.0
		for i, v := range step {
			residual[i] = 1.0 - v
			area += residual[i]
		}
		tables = blepTables{step: step, residual: residual, delay: area / blepOversampling}
	})
	return &tables
}

// minBLEP returns the minimum-phase band-limited step table.
// It rises from ~0 to exactly 1.
func minBLEP() []float64 {
	return blepData().step
}

// generateMinBLEP builds a band-limited step: a Blackman-Harris windowed
// sinc is converted to minimum phase and integrated, then normalised to end
// at 1. A short kernel with a cutoff below Nyquist keeps the step's
// overshoot under 5%.
func generateMinBLEP(zeroCrossings, oversampling int, cutoff float64) []float64 {
	n := 2*zeroCrossings*oversampling + 1

	impulse := make([]float64, n)
	window := analysis.Window(analysis.BlackmanHarrisWindow, n)
	for i := range impulse {
		x := -float64(zeroCrossings) + 2*float64(zeroCrossings)*float64(i)/float64(n-1)
		impulse[i] = sinc(cutoff*x) * window[i]
	}

	minPhase := analysis.MinimumPhase(impulse)

	step := make([]float64, n)
	sum := 0.0
	for i, v := range minPhase {
		sum += v
		step[i] = sum
	}
	for i := range step {
		step[i] /= sum
	}
	step[n-1] = 1.0
	return step
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1.0
	}
	px := math.Pi * x
	return math.Sin(px) / px
}
