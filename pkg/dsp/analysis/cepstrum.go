package analysis

import (
	"math"
	"math/cmplx"
)

// minLogMagnitude floors log|X| so spectral zeros do not produce -Inf
const minLogMagnitude = 1e-100

// RealCepstrum returns the real cepstrum of the signal, computed with an FFT
// of the given power-of-two size (zero padded).
func RealCepstrum(signal []float64, size int) []float64 {
	fft := NewFFT(size, RectangularWindow)
	in := make([]complex128, size)
	for i := 0; i < len(signal) && i < size; i++ {
		in[i] = complex(signal[i], 0)
	}
	spectrum := fft.ForwardComplex(in)
	for i, c := range spectrum {
		spectrum[i] = complex(math.Log(math.Max(cmplx.Abs(c), minLogMagnitude)), 0)
	}
	return fft.Inverse(spectrum)
}

// MinimumPhase reconstructs the minimum-phase signal with the same magnitude
// spectrum as signal, by folding its real cepstrum. The result is truncated to
// len(signal).
func MinimumPhase(signal []float64) []float64 {
	size := NextPowerOfTwo(len(signal)) * 4
	cep := RealCepstrum(signal, size)

	// Fold the anti-causal part onto the causal part
	folded := make([]complex128, size)
	folded[0] = complex(cep[0], 0)
	for i := 1; i < size/2; i++ {
		folded[i] = complex(2*cep[i], 0)
	}
	folded[size/2] = complex(cep[size/2], 0)

	fft := NewFFT(size, RectangularWindow)
	spectrum := fft.ForwardComplex(folded)
	for i, c := range spectrum {
		spectrum[i] = cmplx.Exp(c)
	}
	out := fft.Inverse(spectrum)
	return out[:len(signal)]
}
