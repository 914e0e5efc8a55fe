package param

import (
	"fmt"
	"strconv"
	"strings"
)

// ChoiceOption represents a single choice in a list parameter
type ChoiceOption struct {
	Value   float64
	Name    string
	Aliases []string
}

// Choice creates a parameter builder for a multiple choice parameter
func Choice(id uint32, name string, options []ChoiceOption) *Builder {
	formatter := func(value float64) string {
		for _, opt := range options {
			if opt.Value == value {
				return opt.Name
			}
		}
		return "Unknown"
	}

	parser := func(str string) (float64, error) {
		str = strings.TrimSpace(str)
		for _, opt := range options {
			if strings.EqualFold(str, opt.Name) {
				return opt.Value, nil
			}
			for _, alias := range opt.Aliases {
				if strings.EqualFold(str, alias) {
					return opt.Value, nil
				}
			}
		}
		if v, err := strconv.ParseFloat(str, 64); err == nil {
			for _, opt := range options {
				if opt.Value == v {
					return v, nil
				}
			}
		}
		return 0, fmt.Errorf("unknown option: %s", str)
	}

	minVal, maxVal := 0.0, 0.0
	if len(options) > 0 {
		minVal = options[0].Value
		maxVal = options[len(options)-1].Value
	}

	return New(id, name).
		Range(minVal, maxVal).
		Steps(int32(maxVal-minVal)).
		Default(minVal).
		Flags(CanAutomate|IsList).
		Formatter(formatter, parser)
}

// FrequencyParameter creates a logarithmic frequency parameter in Hz
func FrequencyParameter(id uint32, name string, min, max, defaultVal float64) *Builder {
	return New(id, name).
		Range(min, max).
		Logarithmic().
		Default(defaultVal).
		Unit("Hz").
		Formatter(FrequencyFormatter, FrequencyParser)
}

// TimeParameter creates a logarithmic time parameter in seconds
func TimeParameter(id uint32, name string, min, max, defaultVal float64) *Builder {
	return New(id, name).
		Range(min, max).
		Logarithmic().
		Default(defaultVal).
		Unit("s").
		Formatter(SecondsFormatter, SecondsParser)
}

// LevelParameter creates a 0-1 amount shown as a percentage
func LevelParameter(id uint32, name string, defaultVal float64) *Builder {
	return New(id, name).
		Range(0, 1).
		Default(defaultVal).
		Unit("%").
		Formatter(PercentFormatter, PercentParser)
}

// DepthParameter creates a bipolar -1..1 modulation depth
func DepthParameter(id uint32, name string) *Builder {
	return New(id, name).
		Range(-1, 1).
		Default(0).
		Unit("%").
		Formatter(PercentFormatter, PercentParser)
}

// ResonanceParameter creates a resonance parameter capped below self-oscillation
func ResonanceParameter(id uint32, name string, max, defaultVal float64) *Builder {
	return New(id, name).
		Range(0, max).
		Default(defaultVal).
		Unit("%").
		Formatter(PercentFormatter, PercentParser)
}

// SemitoneParameter creates a pitch offset parameter
func SemitoneParameter(id uint32, name string, min, max, defaultVal float64) *Builder {
	return New(id, name).
		Range(min, max).
		Default(defaultVal).
		Unit("st").
		Formatter(SemitoneFormatter, SemitoneParser)
}

// GainParameter creates a linear gain parameter shown in dB
func GainParameter(id uint32, name string, max, defaultVal float64) *Builder {
	return New(id, name).
		Range(0, max).
		Default(defaultVal).
		Unit("dB").
		Formatter(GainFormatter, GainParser)
}

// IntParameter creates a discrete integer parameter
func IntParameter(id uint32, name string, min, max, defaultVal int) *Builder {
	return New(id, name).
		Range(float64(min), float64(max)).
		Steps(int32(max - min)).
		Default(float64(defaultVal))
}

// ToggleParameter creates an on/off parameter
func ToggleParameter(id uint32, name string, on bool) *Builder {
	def := 0.0
	if on {
		def = 1.0
	}
	return New(id, name).Toggle().Default(def)
}
