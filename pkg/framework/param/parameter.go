// Package param provides lock-free parameter storage, value mapping,
// formatting and smoothing for the synthesizer.
package param

import (
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
)

// Scale selects how a normalized 0-1 value maps onto the plain range
type Scale int

const (
	// Linear maps proportionally
	Linear Scale = iota
	// Logarithmic maps so equal normalized steps give equal ratios.
	// Min must be positive.
	Logarithmic
)

// Parameter represents one automatable synth parameter
type Parameter struct {
	ID           uint32
	Name         string
	ShortName    string
	Unit         string
	Min          float64
	Max          float64
	DefaultValue float64 // plain value
	StepCount    int32
	Scale        Scale
	Flags        uint32

	// Normalized value, read by the audio thread without locking
	value atomic.Uint64

	// Written on every change when set
	mask *ChangeMask

	formatFunc func(float64) string
	parseFunc  func(string) (float64, error)
}

// Flags for parameters
const (
	CanAutomate uint32 = 1 << 0
	IsReadOnly  uint32 = 1 << 1
	IsList      uint32 = 1 << 3
	IsHidden    uint32 = 1 << 4
)

// GetValue returns the current normalized value (0-1)
func (p *Parameter) GetValue() float64 {
	return math.Float64frombits(p.value.Load())
}

// SetValue sets the normalized value (0-1)
func (p *Parameter) SetValue(value float64) {
	if value < 0 || math.IsNaN(value) {
		value = 0
	} else if value > 1 {
		value = 1
	}
	if p.StepCount > 0 {
		value = math.Round(value*float64(p.StepCount)) / float64(p.StepCount)
	}

	old := p.value.Swap(math.Float64bits(value))
	if p.mask != nil && old != math.Float64bits(value) {
		p.mask.MarkAll()
	}
}

// GetPlainValue returns the value in the parameter's own units
func (p *Parameter) GetPlainValue() float64 {
	return p.Denormalize(p.GetValue())
}

// SetPlainValue sets the value in the parameter's own units. Values outside
// the range are clamped.
func (p *Parameter) SetPlainValue(plain float64) {
	p.SetValue(p.Normalize(plain))
}

// Reset restores the default value
func (p *Parameter) Reset() {
	p.SetPlainValue(p.DefaultValue)
}

// IsDiscrete reports whether the parameter only takes whole steps
func (p *Parameter) IsDiscrete() bool {
	return p.StepCount > 0
}

// SetFormatter sets custom value formatting
func (p *Parameter) SetFormatter(format func(float64) string, parse func(string) (float64, error)) {
	p.formatFunc = format
	p.parseFunc = parse
}

// FormatValue returns formatted parameter value
func (p *Parameter) FormatValue(normalized float64) string {
	plain := p.Denormalize(normalized)

	if p.formatFunc != nil {
		return p.formatFunc(plain)
	}

	if p.StepCount > 0 {
		return fmt.Sprintf("%.0f", plain)
	}
	if p.Unit != "" {
		return fmt.Sprintf("%.2f %s", plain, p.Unit)
	}
	return fmt.Sprintf("%.2f", plain)
}

// String returns the formatted current value
func (p *Parameter) String() string {
	return p.FormatValue(p.GetValue())
}

// ParseValue parses string to normalized value
func (p *Parameter) ParseValue(str string) (float64, error) {
	if p.parseFunc != nil {
		plain, err := p.parseFunc(str)
		if err != nil {
			return 0, err
		}
		return p.Normalize(plain), nil
	}
	plain, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, err
	}
	return p.Normalize(plain), nil
}

// Normalize converts plain value to normalized (0-1)
func (p *Parameter) Normalize(plain float64) float64 {
	if p.Max <= p.Min {
		return 0
	}
	var normalized float64
	switch p.Scale {
	case Logarithmic:
		if plain <= p.Min {
			return 0
		}
		normalized = math.Log(plain/p.Min) / math.Log(p.Max/p.Min)
	default:
		normalized = (plain - p.Min) / (p.Max - p.Min)
	}
	if normalized < 0 {
		return 0
	}
	if normalized > 1 {
		return 1
	}
	return normalized
}

// Denormalize converts normalized (0-1) to plain value
func (p *Parameter) Denormalize(normalized float64) float64 {
	switch p.Scale {
	case Logarithmic:
		return p.Min * math.Pow(p.Max/p.Min, normalized)
	default:
		plain := p.Min + normalized*(p.Max-p.Min)
		if p.StepCount > 0 {
			plain = math.Round(plain)
		}
		return plain
	}
}
