// Package filter provides resonant lowpass filters for synthesis voices
package filter

import "fmt"

// Filter processes one sample at a time with per-call cutoff and resonance.
// Implementations cache their coefficients and only recompute them when
// cutoff or resonance change.
type Filter interface {
	Process(in, sampleRate, cutoff, resonance float64) float64
	Reset()
}

// Model selects a filter topology
type Model int

const (
	// LadderModel is the nonlinear four-pole Huovilainen ladder
	LadderModel Model = iota
	// StateVariableModel is a linear two-pole zero-delay-feedback SVF
	StateVariableModel
)

// String returns the display name of the model
func (m Model) String() string {
	switch m {
	case LadderModel:
		return "Ladder"
	case StateVariableModel:
		return "SVF"
	default:
		return fmt.Sprintf("Model(%d)", int(m))
	}
}

// New creates a filter of the given model. Unknown models fall back to the ladder.
func New(model Model) Filter {
	switch model {
	case StateVariableModel:
		return NewSVF()
	default:
		return NewLadder()
	}
}
