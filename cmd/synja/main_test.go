package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/justyntemme/synja/internal/score"
	"github.com/justyntemme/synja/internal/wavout"
	"github.com/justyntemme/synja/pkg/framework/state"
	"github.com/justyntemme/synja/pkg/synth"
)

// withFlags sets the global flag values for one test.
func withFlags(t *testing.T, patch, preset string, sets ...string) {
	t.Helper()
	oldPatch, oldPreset, oldSets := patchPath, presetName, overrides
	oldRate, oldBlock, oldPoly := sampleRate, blockSize, polyphony
	t.Cleanup(func() {
		patchPath, presetName, overrides = oldPatch, oldPreset, oldSets
		sampleRate, blockSize, polyphony = oldRate, oldBlock, oldPoly
	})
	patchPath, presetName, overrides = patch, preset, sets
	sampleRate, blockSize, polyphony = 8000, 128, 4
}

func TestApplyOverrides(t *testing.T) {
	tests := []struct {
		name    string
		sets    []string
		wantErr string
	}{
		{name: "text", sets: []string{"FilterCutoff=800 Hz", "osc1waveform = sine"}},
		{name: "missing equals", sets: []string{"FilterCutoff"}, wantErr: "want name=value"},
		{name: "unknown", sets: []string{"Wobble=1"}, wantErr: "Wobble"},
		{name: "bad value", sets: []string{"PolyMode=stereo"}, wantErr: "PolyMode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withFlags(t, "", "", tt.sets...)
			params := synth.NewParameters()
			err := applyOverrides(params)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("applyOverrides() = %v, want error containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if v := params.Value(synth.FilterCutoff); v < 799 || v > 801 {
				t.Errorf("cutoff = %f, want 800", v)
			}
			if params.Int(synth.Osc1WaveForm) != 2 {
				t.Errorf("waveform = %d, want sine", params.Int(synth.Osc1WaveForm))
			}
		})
	}
}

func TestLoadParams(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bank.json")

	src := synth.NewParameters()
	src.Set(synth.FilterResonance, 0.8)
	bright := state.NewManager(src.Registry).Capture("Bright")
	src.Set(synth.FilterResonance, 0.2)
	dark := state.NewManager(src.Registry).Capture("Dark")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := state.SaveBank(f, &state.Bank{Presets: []state.Preset{bright, dark}}); err != nil {
		t.Fatal(err)
	}
	f.Close()

	tests := []struct {
		name    string
		patch   string
		preset  string
		want    float64
		wantErr bool
	}{
		{name: "no patch", want: synth.NewParameters().Value(synth.FilterResonance)},
		{name: "first preset", patch: path, want: 0.8},
		{name: "named preset", patch: path, preset: "Dark", want: 0.2},
		{name: "missing preset", patch: path, preset: "Warm", wantErr: true},
		{name: "missing file", patch: filepath.Join(dir, "none.json"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withFlags(t, tt.patch, tt.preset)
			params, err := loadParams()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if v := params.Value(synth.FilterResonance); v < tt.want-0.01 || v > tt.want+0.01 {
				t.Errorf("resonance = %f, want %f", v, tt.want)
			}
		})
	}
}

func TestRenderScore(t *testing.T) {
	withFlags(t, "", "")

	sc, err := score.Parse(context.Background(), "test.lua", strings.NewReader(`
		tempo(120)
		note(0, "A4", 0.5, 100)
		note(0.5, "E5", 0.5, 100)
		tail(0.5)
	`))
	if err != nil {
		t.Fatal(err)
	}
	engine, err := newEngine(synth.NewParameters())
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "out.wav")
	w, err := wavout.Create(path, sampleRate)
	if err != nil {
		t.Fatal(err)
	}
	stats, err := render(context.Background(), engine, sc, w)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	// 1.5 beats at 120 bpm
	if want := int64(6000); w.Frames() != want {
		t.Errorf("frames = %d, want %d", w.Frames(), want)
	}
	if stats.peak <= 0.01 || stats.nonFinite != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.rms() <= 0 || stats.rms() > stats.peak {
		t.Errorf("rms = %f, peak %f", stats.rms(), stats.peak)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	left, _, rate, err := wavout.Read(f)
	if err != nil {
		t.Fatal(err)
	}
	if rate != sampleRate || len(left) != 6000 {
		t.Errorf("read back %d frames at %d Hz", len(left), rate)
	}
}

func TestRenderCancelled(t *testing.T) {
	withFlags(t, "", "")
	engine, err := newEngine(synth.NewParameters())
	if err != nil {
		t.Fatal(err)
	}
	w, err := wavout.Create(filepath.Join(t.TempDir(), "out.wav"), sampleRate)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := render(ctx, engine, score.Demo(), w); err != context.Canceled {
		t.Errorf("render() = %v, want context.Canceled", err)
	}
}

func TestNewEngineRejectsPolyphony(t *testing.T) {
	withFlags(t, "", "")
	polyphony = 0
	if _, err := newEngine(nil); err == nil || !strings.Contains(err.Error(), "--polyphony") {
		t.Errorf("newEngine() = %v", err)
	}
}
