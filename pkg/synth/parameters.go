package synth

import (
	"fmt"

	"github.com/justyntemme/synja/pkg/dsp/filter"
	"github.com/justyntemme/synja/pkg/dsp/oscillator"
	"github.com/justyntemme/synja/pkg/framework/param"
)

// ParamID identifies a synth parameter. IDs double as registry IDs.
type ParamID uint32

const (
	// Filter
	FilterCutoff ParamID = iota
	FilterResonance
	FilterEnvModGain
	FilterKeyTrack
	FilterVelocityMod
	// Amp envelope
	AmpEnvAttack
	AmpEnvDecay
	AmpEnvSustain
	AmpEnvRelease
	// Filter envelope
	FilterEnvAttack
	FilterEnvDecay
	FilterEnvSustain
	FilterEnvRelease
	// Oscillator 1
	Osc1Level
	Osc1Octave
	Osc1Detune
	Osc1WaveForm
	Osc1PulseWidth
	// Oscillator 2
	Osc2Level
	Osc2Octave
	Osc2Detune
	Osc2WaveForm
	Osc2PulseWidth
	// LFO
	LfoHostSync
	LfoKeyTrig
	LfoFreq
	LfoWaveform
	LfoFilterModDepth
	LfoOsc1DetuneDepth
	// Master
	MasterGain
	// Unison
	UnisonVoices
	UnisonDetune
	UnisonStereoSpread
	// Control
	PolyMode
	Portamento
	PitchBendRange
	FilterModel

	NumParams
)

// Values of the PolyMode parameter
const (
	ModeMono = 1
	ModePoly = 2
)

const (
	minFrequency = 20.0
	maxFrequency = 20000.0
	minEnvTime   = 0.001
	maxEnvTime   = 16.0
)

var paramNames = [NumParams]string{
	"FilterCutoff", "FilterResonance", "FilterEnvModGain", "FilterKeyTrack", "FilterVelocityMod",
	"AmpEnvAttack", "AmpEnvDecay", "AmpEnvSustain", "AmpEnvRelease",
	"FilterEnvAttack", "FilterEnvDecay", "FilterEnvSustain", "FilterEnvRelease",
	"Osc1Level", "Osc1Octave", "Osc1Detune", "Osc1WaveForm", "Osc1PulseWidth",
	"Osc2Level", "Osc2Octave", "Osc2Detune", "Osc2WaveForm", "Osc2PulseWidth",
	"LfoHostSync", "LfoKeyTrig", "LfoFreq", "LfoWaveform", "LfoFilterModDepth", "LfoOsc1DetuneDepth",
	"MasterGain",
	"UnisonVoices", "UnisonDetune", "UnisonStereoSpread",
	"PolyMode", "Portamento", "PitchBendRange", "FilterModel",
}

// String returns the parameter name used in patches and on the command line
func (id ParamID) String() string {
	if id < NumParams {
		return paramNames[id]
	}
	return fmt.Sprintf("ParamID(%d)", uint32(id))
}

// Parameters is the full synth parameter set. Values may be written from
// any goroutine; the render thread reads them atomically by ID.
type Parameters struct {
	*param.Registry

	byID [NumParams]*param.Parameter

	// Set by every envelope rate or sustain change, one bit per voice
	envelopes *param.ChangeMask
}

// NewParameters builds the synth parameter table with default values.
func NewParameters() *Parameters {
	mask := param.NewChangeMask()
	p := &Parameters{
		Registry:  param.NewRegistry(),
		envelopes: mask,
	}

	oscWaves := []param.ChoiceOption{
		{Value: float64(oscillator.Saw), Name: "Saw", Aliases: []string{"sawtooth"}},
		{Value: float64(oscillator.Square), Name: "Square", Aliases: []string{"pulse"}},
		{Value: float64(oscillator.Sine), Name: "Sine"},
	}
	lfoWaves := []param.ChoiceOption{
		{Value: float64(oscillator.Sine), Name: "Sine"},
		{Value: float64(oscillator.UnipolarSquare), Name: "Square"},
		{Value: float64(oscillator.Triangle), Name: "Triangle", Aliases: []string{"tri"}},
	}

	id := func(i ParamID) uint32 { return uint32(i) }
	name := func(i ParamID) string { return i.String() }
	envTime := func(i ParamID, label string) *param.Parameter {
		return param.TimeParameter(id(i), name(i), minEnvTime, maxEnvTime, 0.01).
			ShortName(label).Notifies(mask).Build()
	}
	pulseWidth := func(i ParamID) *param.Parameter {
		return param.New(id(i), name(i)).ShortName("PW").
			Range(0.05, 0.95).Default(0.5).Unit("%").
			Formatter(param.PercentFormatter, param.PercentParser).Build()
	}
	octave := func(i ParamID) *param.Parameter {
		return param.IntParameter(id(i), name(i), -3, 3, 0).
			ShortName("Octave").Unit("oct").Build()
	}

	all := []*param.Parameter{
		param.FrequencyParameter(id(FilterCutoff), name(FilterCutoff), minFrequency, maxFrequency, 4000).
			ShortName("Cutoff").Build(),
		param.ResonanceParameter(id(FilterResonance), name(FilterResonance), 0.9, 0.1).
			ShortName("Resonance").Build(),
		param.DepthParameter(id(FilterEnvModGain), name(FilterEnvModGain)).ShortName("Env").Build(),
		param.LevelParameter(id(FilterKeyTrack), name(FilterKeyTrack), 1).ShortName("Key").Build(),
		param.LevelParameter(id(FilterVelocityMod), name(FilterVelocityMod), 1).ShortName("Vel").Build(),

		envTime(AmpEnvAttack, "A"),
		envTime(AmpEnvDecay, "D"),
		param.LevelParameter(id(AmpEnvSustain), name(AmpEnvSustain), 1).ShortName("S").Notifies(mask).Build(),
		envTime(AmpEnvRelease, "R"),

		envTime(FilterEnvAttack, "A"),
		envTime(FilterEnvDecay, "D"),
		param.LevelParameter(id(FilterEnvSustain), name(FilterEnvSustain), 1).ShortName("S").Notifies(mask).Build(),
		envTime(FilterEnvRelease, "R"),

		param.LevelParameter(id(Osc1Level), name(Osc1Level), 1).ShortName("Osc1").Build(),
		octave(Osc1Octave),
		param.SemitoneParameter(id(Osc1Detune), name(Osc1Detune), -2, 2, 0).ShortName("Detune").Build(),
		param.Choice(id(Osc1WaveForm), name(Osc1WaveForm), oscWaves).ShortName("Wave").Build(),
		pulseWidth(Osc1PulseWidth),

		param.LevelParameter(id(Osc2Level), name(Osc2Level), 1).ShortName("Osc2").Build(),
		octave(Osc2Octave),
		param.SemitoneParameter(id(Osc2Detune), name(Osc2Detune), -2, 2, 0).ShortName("Detune").Build(),
		param.Choice(id(Osc2WaveForm), name(Osc2WaveForm), oscWaves).ShortName("Wave").Build(),
		pulseWidth(Osc2PulseWidth),

		param.ToggleParameter(id(LfoHostSync), name(LfoHostSync), false).ShortName("Sync").Build(),
		param.ToggleParameter(id(LfoKeyTrig), name(LfoKeyTrig), false).ShortName("Trig").Build(),
		param.FrequencyParameter(id(LfoFreq), name(LfoFreq), 0.05, 20, 1).ShortName("Freq").Build(),
		param.Choice(id(LfoWaveform), name(LfoWaveform), lfoWaves).ShortName("Wave").Build(),
		param.DepthParameter(id(LfoFilterModDepth), name(LfoFilterModDepth)).ShortName("LFO").Build(),
		param.SemitoneParameter(id(LfoOsc1DetuneDepth), name(LfoOsc1DetuneDepth), 0, 12, 0).ShortName("LFO").Build(),

		param.GainParameter(id(MasterGain), name(MasterGain), 2, 1).ShortName("Master").Build(),

		param.IntParameter(id(UnisonVoices), name(UnisonVoices), 1, MaxUnison, 1).ShortName("Voices").Build(),
		param.SemitoneParameter(id(UnisonDetune), name(UnisonDetune), 0, 0.5, 0.05).ShortName("Detune").Build(),
		param.LevelParameter(id(UnisonStereoSpread), name(UnisonStereoSpread), 0).ShortName("Spread").Build(),

		param.Choice(id(PolyMode), name(PolyMode), []param.ChoiceOption{
			{Value: ModeMono, Name: "Mono"},
			{Value: ModePoly, Name: "Poly"},
		}).ShortName("Mode").Default(ModePoly).Build(),
		param.New(id(Portamento), name(Portamento)).ShortName("Porta").Range(0, 100).Default(0).Build(),
		param.SemitoneParameter(id(PitchBendRange), name(PitchBendRange), 0, 24, 2).
			ShortName("Bend").Steps(24).Build(),
		param.Choice(id(FilterModel), name(FilterModel), []param.ChoiceOption{
			{Value: float64(filter.LadderModel), Name: filter.LadderModel.String(), Aliases: []string{"moog"}},
			{Value: float64(filter.StateVariableModel), Name: filter.StateVariableModel.String(), Aliases: []string{"state-variable"}},
		}).ShortName("Filter").Build(),
	}

	for _, prm := range all {
		p.byID[prm.ID] = prm
	}
	// IDs and names are fixed above, so registration cannot fail
	if err := p.Add(all...); err != nil {
		panic(err)
	}
	return p
}

// Param returns the parameter with the given ID.
func (p *Parameters) Param(id ParamID) *param.Parameter {
	return p.byID[id]
}

// Value returns the plain value of a parameter.
func (p *Parameters) Value(id ParamID) float64 {
	return p.byID[id].GetPlainValue()
}

// Int returns the plain value of a discrete parameter.
func (p *Parameters) Int(id ParamID) int {
	return int(p.byID[id].GetPlainValue())
}

// Bool returns the state of a toggle parameter.
func (p *Parameters) Bool(id ParamID) bool {
	return p.byID[id].GetPlainValue() >= 0.5
}

// Set writes a plain value.
func (p *Parameters) Set(id ParamID, value float64) {
	p.byID[id].SetPlainValue(value)
}

// EnvelopeMask returns the mask marked by envelope parameter changes.
func (p *Parameters) EnvelopeMask() *param.ChangeMask {
	return p.envelopes
}
