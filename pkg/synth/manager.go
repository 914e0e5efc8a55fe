package synth

import (
	"math/rand/v2"

	"github.com/justyntemme/synja/pkg/dsp/envelope"
	"github.com/justyntemme/synja/pkg/dsp/filter"
	"github.com/justyntemme/synja/pkg/dsp/oscillator"
	"github.com/justyntemme/synja/pkg/dsp/pitch"
	"github.com/justyntemme/synja/pkg/framework/debug"
	"github.com/justyntemme/synja/pkg/framework/param"
)

// Smoothed values computed once per sample and shared by all voices
type lane int

const (
	laneCutoff lane = iota // in semitones
	laneResonance
	laneFilterEnvDepth
	laneKeyTrack
	laneVelocityDepth
	laneOsc1Level
	laneOsc1Detune
	laneOsc1PulseWidth
	laneOsc2Level
	laneOsc2Detune
	laneOsc2PulseWidth
	laneLfoFreq
	laneLfoFilterDepth
	laneLfoPitchDepth
	laneUnisonDetune
	laneUnisonSpread
	laneMaster
	laneBend // in semitones
	numLanes
)

// Parameter behind each lane; laneBend has no parameter
var laneParams = [numLanes]ParamID{
	laneCutoff:         FilterCutoff,
	laneResonance:      FilterResonance,
	laneFilterEnvDepth: FilterEnvModGain,
	laneKeyTrack:       FilterKeyTrack,
	laneVelocityDepth:  FilterVelocityMod,
	laneOsc1Level:      Osc1Level,
	laneOsc1Detune:     Osc1Detune,
	laneOsc1PulseWidth: Osc1PulseWidth,
	laneOsc2Level:      Osc2Level,
	laneOsc2Detune:     Osc2Detune,
	laneOsc2PulseWidth: Osc2PulseWidth,
	laneLfoFreq:        LfoFreq,
	laneLfoFilterDepth: LfoFilterModDepth,
	laneLfoPitchDepth:  LfoOsc1DetuneDepth,
	laneUnisonDetune:   UnisonDetune,
	laneUnisonSpread:   UnisonStereoSpread,
	laneMaster:         MasterGain,
}

// Settling time of parameter smoothing
const smoothingMs = 10.0

// laneSmoothing picks the smoothing curve per lane
var laneSmoothing = func() (k [numLanes]param.SmoothingType) {
	for l := range k {
		k[l] = param.ExponentialSmoothing
	}
	k[laneOsc1PulseWidth] = param.LinearSmoothing
	k[laneOsc2PulseWidth] = param.LinearSmoothing
	k[laneLfoFreq] = param.LogarithmicSmoothing
	k[laneMaster] = param.LogarithmicSmoothing
	return k
}()

// blockParams is the parameter snapshot voices render one sub-block with.
type blockParams struct {
	sampleRate float64
	nyquist    float64
	lanes      [numLanes][]float64

	osc1Wave, osc2Wave oscillator.Waveform
	lfoWave            oscillator.Waveform
	osc1Octave         float64 // semitones
	osc2Octave         float64
	glide              float64 // one-pole glide coefficient in (0,1], 1 jumps
	lfoSyncHz          float64 // overrides the LFO rate when positive
	filterModel        filter.Model

	params    *Parameters
	envelopes *param.ChangeMask
}

func (p *blockParams) ampEnvelope() envelope.Params {
	return envelope.Params{
		Attack:  p.params.Value(AmpEnvAttack),
		Decay:   p.params.Value(AmpEnvDecay),
		Sustain: p.params.Value(AmpEnvSustain),
		Release: p.params.Value(AmpEnvRelease),
	}
}

func (p *blockParams) filterEnvelope() envelope.Params {
	return envelope.Params{
		Attack:  p.params.Value(FilterEnvAttack),
		Decay:   p.params.Value(FilterEnvDecay),
		Sustain: p.params.Value(FilterEnvSustain),
		Release: p.params.Value(FilterEnvRelease),
	}
}

// Manager owns a fixed pool of voices, assigns notes to them and sums
// their output. It must only be used from the render thread.
type Manager struct {
	voices []*Voice
	params *Parameters

	block     blockParams
	smoothers [numLanes]*param.Smoother
	blockSize int

	bend  float64 // target bend in semitones
	tempo float64

	sustain   bool
	sustained [128]bool

	rng    *rand.Rand
	phases [MaxUnison]float64
}

// NewManager creates a pool of polyphony voices. Polyphony is clamped to
// 1..param.MaxMaskBits.
func NewManager(params *Parameters, sampleRate float64, polyphony, maxBlockSize int, seed uint64) *Manager {
	polyphony = max(1, min(polyphony, param.MaxMaskBits))
	maxBlockSize = max(1, maxBlockSize)

	m := &Manager{
		voices:    make([]*Voice, polyphony),
		params:    params,
		blockSize: maxBlockSize,
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	for i := range m.voices {
		m.voices[i] = newVoice(i)
	}

	m.block.sampleRate = sampleRate
	m.block.nyquist = sampleRate / 2
	m.block.params = params
	m.block.envelopes = params.EnvelopeMask()
	for l := range m.block.lanes {
		m.block.lanes[l] = make([]float64, maxBlockSize)
		m.smoothers[l] = param.NewTimedSmoother(laneSmoothing[l], sampleRate, smoothingMs)
	}
	m.snapSmoothers()
	params.EnvelopeMask().MarkAll()
	return m
}

// Voices returns the voice pool.
func (m *Manager) Voices() []*Voice {
	return m.voices
}

// Voice returns voice i.
func (m *Manager) Voice(i int) *Voice {
	return m.voices[i]
}

// ActiveVoices returns how many voices are playing.
func (m *Manager) ActiveVoices() int {
	n := 0
	for _, v := range m.voices {
		if v.IsPlaying() {
			n++
		}
	}
	return n
}

func (m *Manager) laneTarget(l lane) float64 {
	switch l {
	case laneBend:
		return m.bend
	case laneCutoff:
		return pitch.FromFrequency(m.params.Value(FilterCutoff))
	}
	return m.params.Value(laneParams[l])
}

func (m *Manager) snapSmoothers() {
	for l := range m.smoothers {
		m.smoothers[l].Reset(m.laneTarget(lane(l)))
	}
}

// NoteOn assigns a voice to note and returns its index.
//
// Mono mode always retriggers voice 0. Otherwise the first idle voice is
// used, then the oldest decaying voice, then the oldest voice overall.
func (m *Manager) NoteOn(note, velocity uint8, timestamp uint64) int {
	unison := m.params.Int(UnisonVoices)
	lfoTrig := m.params.Bool(LfoKeyTrig)

	// Changes made during silence take effect without a sweep
	if m.ActiveVoices() == 0 {
		m.snapSmoothers()
	}

	idx := m.allocate()
	v := m.voices[idx]
	if debug.Enabled(debug.LogLevelDebug) {
		if v.IsPlaying() && m.params.Int(PolyMode) != ModeMono {
			debug.Debug("steal voice %d (note %d, %s) for note %d", idx, v.Note(), v.State(), note)
		} else {
			debug.Debug("note on %d vel %d -> voice %d", note, velocity, idx)
		}
	}

	var phases []float64
	if unison > 1 {
		for i := range unison {
			m.phases[i] = m.rng.Float64()
		}
		phases = m.phases[:unison]
	}
	m.sustained[note&0x7f] = false
	v.NoteOn(note, velocity, timestamp, unison, lfoTrig, phases)
	return idx
}

func (m *Manager) allocate() int {
	if m.params.Int(PolyMode) == ModeMono {
		return 0
	}

	oldest, oldestDecaying := -1, -1
	for i, v := range m.voices {
		if !v.IsPlaying() {
			return i
		}
		if v.ampEnv.IsDecaying() &&
			(oldestDecaying < 0 || v.startTime < m.voices[oldestDecaying].startTime) {
			oldestDecaying = i
		}
		if oldest < 0 || v.startTime < m.voices[oldest].startTime {
			oldest = i
		}
	}
	if oldestDecaying >= 0 {
		return oldestDecaying
	}
	return oldest
}

// NoteOff releases every voice playing note. While the sustain pedal is
// down the release is deferred until the pedal is lifted.
func (m *Manager) NoteOff(note uint8) {
	if m.sustain {
		m.sustained[note&0x7f] = true
		return
	}
	if debug.Enabled(debug.LogLevelDebug) {
		debug.Debug("note off %d", note)
	}
	for _, v := range m.voices {
		if v.targetNote == note {
			v.NoteOff()
		}
	}
}

// SetSustain sets the sustain pedal. Lifting it releases held notes.
func (m *Manager) SetSustain(on bool) {
	m.sustain = on
	if on {
		return
	}
	for note, held := range m.sustained {
		if held {
			m.sustained[note] = false
			m.NoteOff(uint8(note))
		}
	}
}

// PitchBend sets the bend target from a signed 14-bit wheel value.
func (m *Manager) PitchBend(value int16) {
	m.bend = float64(value) / 8192.0 * m.params.Value(PitchBendRange)
}

// Bend returns the bend target in semitones.
func (m *Manager) Bend() float64 {
	return m.bend
}

// SetTempo sets the host tempo used by LFO sync. Zero disables sync.
func (m *Manager) SetTempo(bpm float64) {
	m.tempo = max(bpm, 0)
}

// AllNotesOff releases every voice.
func (m *Manager) AllNotesOff() {
	m.sustain = false
	m.sustained = [128]bool{}
	for _, v := range m.voices {
		v.NoteOff()
	}
}

// Reset silences every voice immediately.
func (m *Manager) Reset() {
	m.AllNotesOff()
	for _, v := range m.voices {
		v.Stop()
	}
	m.bend = 0
	m.snapSmoothers()
}

// prepare takes the per-block snapshot and fills the smoothing lanes for
// n samples.
func (m *Manager) prepare(n int) {
	p := m.params
	b := &m.block

	b.osc1Wave = oscillator.WaveformFromIndex(p.Int(Osc1WaveForm))
	b.osc2Wave = oscillator.WaveformFromIndex(p.Int(Osc2WaveForm))
	b.lfoWave = oscillator.WaveformFromIndex(p.Int(LfoWaveform))
	b.osc1Octave = 12 * p.Value(Osc1Octave)
	b.osc2Octave = 12 * p.Value(Osc2Octave)
	b.filterModel = filter.Model(p.Int(FilterModel))

	b.glide = 1
	if p.Int(PolyMode) == ModeMono {
		// Portamento 1 is a time constant of 100 samples at 44.1 kHz
		b.glide = 1 / max(1, 100*p.Value(Portamento)*b.sampleRate/44100.0)
	}
	b.lfoSyncHz = 0
	if p.Bool(LfoHostSync) && m.tempo > 0 {
		b.lfoSyncHz = m.tempo / 60.0 * 0.25
	}

	for l := range numLanes {
		s := m.smoothers[l]
		s.SetTarget(m.laneTarget(l))
		values := b.lanes[l][:n]
		for i := range values {
			values[i] = s.Next()
		}
	}
}

// Render adds the output of all playing voices to left and right, which
// must not be longer than the maximum block size.
func (m *Manager) Render(left, right []float32) {
	n := min(len(left), len(right), m.blockSize)
	if n == 0 {
		return
	}
	if m.ActiveVoices() == 0 {
		m.snapSmoothers()
	}
	m.prepare(n)
	for _, v := range m.voices {
		if v.IsPlaying() {
			v.Generate(&m.block, left[:n], right[:n])
		}
	}
}
