package analysis

import (
	"math"
)

// FFT performs a radix-2 Fast Fourier Transform on power-of-two sizes
type FFT struct {
	size       int
	window     WindowFunc
	windowData []float64
	real       []float64
	imag       []float64
	magnitude  []float64
	phase      []float64
}

// WindowFunc represents a window function type
type WindowFunc int

const (
	RectangularWindow WindowFunc = iota
	HannWindow
	HammingWindow
	BlackmanWindow
	BlackmanHarrisWindow
)

// NewFFT creates a new FFT processor with the specified size and window function.
// Size must be a power of two.
func NewFFT(size int, window WindowFunc) *FFT {
	return &FFT{
		size:       size,
		window:     window,
		windowData: Window(window, size),
		real:       make([]float64, size),
		imag:       make([]float64, size),
		magnitude:  make([]float64, size/2+1),
		phase:      make([]float64, size/2+1),
	}
}

// Size returns the transform length
func (f *FFT) Size() int {
	return f.size
}

// Window returns n coefficients of the given window function
func Window(kind WindowFunc, n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	d := float64(n - 1)

	for i := range w {
		x := float64(i) / d
		switch kind {
		case HannWindow:
			w[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*x))
		case HammingWindow:
			w[i] = 0.54 - 0.46*math.Cos(2.0*math.Pi*x)
		case BlackmanWindow:
			w[i] = math.Max(0, 0.42-0.5*math.Cos(2.0*math.Pi*x)+0.08*math.Cos(4.0*math.Pi*x))
		case BlackmanHarrisWindow:
			a0, a1, a2, a3 := 0.35875, 0.48829, 0.14128, 0.01168
			w[i] = a0 - a1*math.Cos(2.0*math.Pi*x) + a2*math.Cos(4.0*math.Pi*x) - a3*math.Cos(6.0*math.Pi*x)
		default:
			w[i] = 1.0
		}
	}
	return w
}

// Forward performs a forward FFT on the input data
// Returns magnitude and phase spectra
func (f *FFT) Forward(input []float64) (magnitude, phase []float64) {
	for i := 0; i < f.size; i++ {
		if i < len(input) {
			f.real[i] = input[i] * f.windowData[i]
		} else {
			f.real[i] = 0.0
		}
		f.imag[i] = 0.0
	}

	f.fft(f.real, f.imag)

	for i := 0; i <= f.size/2; i++ {
		f.magnitude[i] = math.Sqrt(f.real[i]*f.real[i] + f.imag[i]*f.imag[i])
		f.phase[i] = math.Atan2(f.imag[i], f.real[i])
	}

	return f.magnitude, f.phase
}

// ForwardComplex performs a forward FFT on complex input data
func (f *FFT) ForwardComplex(input []complex128) []complex128 {
	for i := 0; i < f.size; i++ {
		if i < len(input) {
			c := input[i] * complex(f.windowData[i], 0)
			f.real[i] = real(c)
			f.imag[i] = imag(c)
		} else {
			f.real[i] = 0.0
			f.imag[i] = 0.0
		}
	}

	f.fft(f.real, f.imag)

	result := make([]complex128, f.size)
	for i := 0; i < f.size; i++ {
		result[i] = complex(f.real[i], f.imag[i])
	}
	return result
}

// Inverse performs an inverse FFT and returns the real part of the result
func (f *FFT) Inverse(spectrum []complex128) []float64 {
	// Conjugate, forward transform, conjugate and scale
	for i := 0; i < f.size; i++ {
		f.real[i] = real(spectrum[i])
		f.imag[i] = -imag(spectrum[i])
	}

	f.fft(f.real, f.imag)

	result := make([]float64, f.size)
	scale := 1.0 / float64(f.size)
	for i := 0; i < f.size; i++ {
		result[i] = f.real[i] * scale
	}
	return result
}

// fft performs the actual FFT using Cooley-Tukey algorithm
func (f *FFT) fft(real, imag []float64) {
	n := f.size

	// Bit reversal
	j := 0
	for i := 0; i < n; i++ {
		if i < j {
			real[i], real[j] = real[j], real[i]
			imag[i], imag[j] = imag[j], imag[i]
		}
		m := n >> 1
		for m >= 1 && j >= m {
			j -= m
			m >>= 1
		}
		j += m
	}

	for stage := 2; stage <= n; stage <<= 1 {
		theta := -2.0 * math.Pi / float64(stage)
		wReal := math.Cos(theta)
		wImag := math.Sin(theta)

		for k := 0; k < n; k += stage {
			wTempReal := 1.0
			wTempImag := 0.0

			for j := 0; j < stage/2; j++ {
				i1 := k + j
				i2 := i1 + stage/2

				tempReal := wTempReal*real[i2] - wTempImag*imag[i2]
				tempImag := wTempReal*imag[i2] + wTempImag*real[i2]

				real[i2] = real[i1] - tempReal
				imag[i2] = imag[i1] - tempImag

				real[i1] += tempReal
				imag[i1] += tempImag

				oldWReal := wTempReal
				wTempReal = oldWReal*wReal - wTempImag*wImag
				wTempImag = oldWReal*wImag + wTempImag*wReal
			}
		}
	}
}

// GetFrequencyBin returns the frequency corresponding to a given FFT bin
func (f *FFT) GetFrequencyBin(bin int, sampleRate float64) float64 {
	return float64(bin) * sampleRate / float64(f.size)
}

// NextPowerOfTwo returns the smallest power of two >= n
func NextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}
