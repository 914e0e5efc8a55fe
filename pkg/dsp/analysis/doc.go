// Package analysis provides spectral tools used offline by the synthesis
// engine and its tests.
//
// FFT:
//   - radix-2 FFT with Rectangular, Hann, Hamming, Blackman and
//     Blackman-Harris windows
//   - inverse transform for real-valued results
//
// Cepstral processing:
//   - real cepstrum
//   - minimum-phase reconstruction (used to build band-limited step tables)
//
// None of these functions are meant for the render thread; they allocate.
//
// Example usage:
//
//	fft := analysis.NewFFT(4096, analysis.HannWindow)
//	magnitude, _ := fft.Forward(samples)
//	peak := fft.GetFrequencyBin(bin, 44100)
//
//	minPhase := analysis.MinimumPhase(impulseResponse)
package analysis
