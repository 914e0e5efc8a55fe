package debug

import (
	"fmt"
	"math"
)

// AudioAnalyzer measures level and sanity statistics of rendered buffers.
type AudioAnalyzer struct {
	clippingThreshold float32
	dcThreshold       float32
	silenceThreshold  float32
}

// NewAudioAnalyzer creates a new audio analyzer with default settings.
func NewAudioAnalyzer() *AudioAnalyzer {
	return &AudioAnalyzer{
		clippingThreshold: 0.99,
		dcThreshold:       0.01,
		silenceThreshold:  0.0001,
	}
}

// AnalysisResult contains the results of audio buffer analysis.
type AnalysisResult struct {
	Samples        int
	Peak           float32
	RMS            float32
	DC             float32
	Clipping       bool
	ClippedSamples int
	Silent         bool
	NonFinite      int
	ZeroCrossings  int
}

// Analyze computes statistics for a buffer. NaN and infinite samples are
// counted and excluded from the level figures.
func (a *AudioAnalyzer) Analyze(buffer []float32) AnalysisResult {
	result := AnalysisResult{Samples: len(buffer)}
	if len(buffer) == 0 {
		result.Silent = true
		return result
	}

	var sum, sumSquares float64
	var last float32
	for i, sample := range buffer {
		f := float64(sample)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			result.NonFinite++
			continue
		}

		abs := float32(math.Abs(f))
		result.Peak = max(result.Peak, abs)
		if abs >= a.clippingThreshold {
			result.Clipping = true
			result.ClippedSamples++
		}

		sum += f
		sumSquares += f * f

		if i > 0 && (last < 0) != (sample < 0) {
			result.ZeroCrossings++
		}
		last = sample
	}

	result.RMS = float32(math.Sqrt(sumSquares / float64(len(buffer))))
	result.DC = float32(sum / float64(len(buffer)))
	result.Silent = result.RMS < a.silenceThreshold
	return result
}

// Issues lists the problems found in a result, or nil.
func (a *AudioAnalyzer) Issues(name string, r AnalysisResult) []string {
	var issues []string
	if r.NonFinite > 0 {
		issues = append(issues, fmt.Sprintf("%s: %d non-finite samples, filter may have diverged", name, r.NonFinite))
	}
	if r.Clipping {
		issues = append(issues, fmt.Sprintf("%s: clipping detected (%d samples)", name, r.ClippedSamples))
	}
	if math.Abs(float64(r.DC)) > float64(a.dcThreshold) {
		issues = append(issues, fmt.Sprintf("%s: DC offset detected (%.3f)", name, r.DC))
	}
	return issues
}

var defaultAnalyzer = NewAudioAnalyzer()

// AnalyzeBuffer performs analysis on a buffer using the default analyzer.
func AnalyzeBuffer(buffer []float32) AnalysisResult {
	return defaultAnalyzer.Analyze(buffer)
}

// CheckAudioBuffer logs any issues found in a buffer as warnings and
// returns them.
func CheckAudioBuffer(buffer []float32, name string) []string {
	issues := defaultAnalyzer.Issues(name, defaultAnalyzer.Analyze(buffer))
	for _, issue := range issues {
		Warn("%s", issue)
	}
	return issues
}
