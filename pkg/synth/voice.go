package synth

import (
	"github.com/justyntemme/synja/pkg/dsp/envelope"
	"github.com/justyntemme/synja/pkg/dsp/filter"
	"github.com/justyntemme/synja/pkg/dsp/oscillator"
	"github.com/justyntemme/synja/pkg/dsp/pitch"
)

// MaxUnison is the largest number of stacked oscillators per carrier
const MaxUnison = 7

const (
	// keyTrackPivot is the note at which key tracking leaves the cutoff unchanged (C3)
	keyTrackPivot = 48.0
	// cutoffModRange is the cutoff swing of a full-scale modulation, ten octaves
	cutoffModRange = 120.0
)

// Symmetric semitone offsets per unison count, scaled by UnisonDetune
var unisonDetune = [MaxUnison + 1][]float64{
	{},
	{0},
	{-1, 1},
	{-1, 0, 1},
	{-1, -0.5, 0.5, 1},
	{-1, -0.5, 0, 0.5, 1},
	{-1, -0.6667, -0.3333, 0.3333, 0.6667, 1},
	{-1, -0.6667, -0.3333, 0, 0.3333, 0.6667, 1},
}

// Pan signs per unison count, scaled by UnisonStereoSpread
var unisonSpread = [MaxUnison + 1][]float64{
	{},
	{0},
	{-1, 1},
	{-1, 0, 1},
	{-1, 1, -1, 1},
	{-1, 1, 0, 1, -1},
	{-1, 1, -1, 1, -1, 1},
	{-1, 1, -1, 0, 1, -1, 1},
}

// Voice renders one note: two unison oscillator banks, an LFO, a stereo
// filter pair and amplitude and filter envelopes. All state is owned by
// the render thread.
type Voice struct {
	id int

	targetNote uint8
	note       float64 // glided pitch
	velocity   uint8
	amplitude  float64
	startTime  uint64
	unison     int

	osc1 [MaxUnison]oscillator.Oscillator
	osc2 [MaxUnison]oscillator.Oscillator
	lfo  oscillator.Oscillator

	ladder [2]*filter.Ladder
	svf    [2]*filter.SVF
	model  filter.Model

	ampEnv    envelope.ADSR
	filterEnv envelope.ADSR
}

func newVoice(id int) *Voice {
	v := &Voice{id: id, unison: 1}
	for i := range v.ladder {
		v.ladder[i] = filter.NewLadder()
		v.svf[i] = filter.NewSVF()
	}
	return v
}

// ID returns the voice's slot in the pool.
func (v *Voice) ID() int {
	return v.id
}

// Note returns the target note.
func (v *Voice) Note() uint8 {
	return v.targetNote
}

// GlidedNote returns the current, possibly gliding, pitch.
func (v *Voice) GlidedNote() float64 {
	return v.note
}

// Velocity returns the velocity of the last note on.
func (v *Voice) Velocity() uint8 {
	return v.velocity
}

// StartTime returns the sample time of the last note on.
func (v *Voice) StartTime() uint64 {
	return v.startTime
}

// Unison returns the number of active oscillators per carrier.
func (v *Voice) Unison() int {
	return v.unison
}

// IsPlaying reports whether the amplitude envelope is active.
func (v *Voice) IsPlaying() bool {
	return !v.ampEnv.IsIdle()
}

// State returns the amplitude envelope stage.
func (v *Voice) State() envelope.State {
	return v.ampEnv.State()
}

// AmpLevel returns the most recent amplitude envelope level.
func (v *Voice) AmpLevel() float64 {
	return v.ampEnv.Level()
}

// NoteOn starts a note in place. The unison bank size only changes here.
// Active carrier 1 oscillators take their start phase from phases when it
// is long enough.
func (v *Voice) NoteOn(note, velocity uint8, timestamp uint64, unison int, lfoRetrigger bool, phases []float64) {
	unison = max(1, min(unison, MaxUnison))
	if unison != v.unison {
		for i := range MaxUnison {
			v.osc1[i].Reset()
			v.osc2[i].Reset()
		}
		v.unison = unison
	}
	if len(phases) >= unison {
		for i := range unison {
			v.osc1[i].SetPhase(phases[i])
		}
	}
	if lfoRetrigger {
		v.lfo.Trig()
	}
	if !v.IsPlaying() {
		v.note = float64(note)
	}

	v.targetNote = note
	v.velocity = velocity
	v.amplitude = pitch.VelocityToAmplitude(velocity)
	v.startTime = timestamp
	v.ampEnv.GateOn(timestamp)
	v.filterEnv.GateOn(timestamp)
}

// NoteOff releases both envelopes.
func (v *Voice) NoteOff() {
	v.ampEnv.GateOff()
	v.filterEnv.GateOff()
}

// Stop silences the voice immediately.
func (v *Voice) Stop() {
	v.ampEnv.Reset()
	v.filterEnv.Reset()
	v.resetFilters()
}

func (v *Voice) resetFilters() {
	for i := range v.ladder {
		v.ladder[i].Reset()
		v.svf[i].Reset()
	}
}

func (v *Voice) filters(model filter.Model) (filter.Filter, filter.Filter) {
	if model != v.model {
		v.resetFilters()
		v.model = model
	}
	if model == filter.StateVariableModel {
		return v.svf[0], v.svf[1]
	}
	return v.ladder[0], v.ladder[1]
}

// Generate adds the voice's output for one sub-block to left and right.
// p.lanes hold one smoothed value per sample of the sub-block.
func (v *Voice) Generate(p *blockParams, left, right []float32) {
	if p.envelopes.TestAndClear(v.id) {
		v.ampEnv.SetParameters(p.sampleRate, p.ampEnvelope())
		v.filterEnv.SetParameters(p.sampleRate, p.filterEnvelope())
	}

	n := min(len(left), len(right))
	fl, fr := v.filters(p.filterModel)
	detunes := unisonDetune[v.unison]
	spreads := unisonSpread[v.unison]
	sr := p.sampleRate
	target := float64(v.targetNote)

	for i := range n {
		// Glide once per sample, shared by every oscillator
		if p.glide >= 1 {
			v.note = target
		} else {
			v.note += (target - v.note) * p.glide
		}

		lfoFreq := p.lanes[laneLfoFreq][i]
		if p.lfoSyncHz > 0 {
			lfoFreq = p.lfoSyncHz
		}
		lfo := v.lfo.Generate(p.lfoWave, lfoFreq, 1, 0.5, sr)

		base := v.note + p.lanes[laneBend][i]
		unisonAmt := p.lanes[laneUnisonDetune][i]
		spread := p.lanes[laneUnisonSpread][i]

		pitch1 := base + p.osc1Octave + p.lanes[laneOsc1Detune][i] + p.lanes[laneLfoPitchDepth][i]*lfo
		amp1 := v.amplitude * p.lanes[laneOsc1Level][i]
		pw1 := p.lanes[laneOsc1PulseWidth][i]

		pitch2 := base + p.osc2Octave + p.lanes[laneOsc2Detune][i]
		amp2 := v.amplitude * p.lanes[laneOsc2Level][i]
		pw2 := p.lanes[laneOsc2PulseWidth][i]

		var l, r float64
		for u := range v.unison {
			offset := detunes[u] * unisonAmt
			s := v.osc1[u].Generate(p.osc1Wave, pitch.ToFrequencyFast(pitch1+offset), amp1, pw1, sr)
			s += v.osc2[u].Generate(p.osc2Wave, pitch.ToFrequencyFast(pitch2+offset), amp2, pw2, sr)
			if v.unison == 1 {
				l += s
				r += s
				continue
			}
			pan := spread * spreads[u]
			l += s * (1 - pan)
			r += s * (1 + pan)
		}

		ampEnv := v.ampEnv.Next()
		filterEnv := v.filterEnv.Next()

		cutoff := p.lanes[laneCutoff][i] +
			p.lanes[laneKeyTrack][i]*(v.note-keyTrackPivot) +
			cutoffModRange*(p.lanes[laneFilterEnvDepth][i]*filterEnv+
				p.lanes[laneLfoFilterDepth][i]*lfo+
				p.lanes[laneVelocityDepth][i]*v.amplitude)
		hz := min(max(pitch.ToFrequencyFast(cutoff), minFrequency), maxFrequency, p.nyquist)
		res := p.lanes[laneResonance][i]

		gain := ampEnv * p.lanes[laneMaster][i]
		left[i] += float32(fl.Process(l, sr, hz, res) * gain)
		right[i] += float32(fr.Process(r, sr, hz, res) * gain)
	}
}
