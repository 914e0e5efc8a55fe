package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/justyntemme/synja/pkg/framework/debug"
	"github.com/justyntemme/synja/pkg/framework/state"
	"github.com/justyntemme/synja/pkg/synth"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "synja",
	Short: "Polyphonic subtractive synthesizer",
	Long: `synja is a polyphonic virtual-analog synthesizer: two band-limited
oscillators per voice with unison, a ladder or state-variable filter,
three ADSR envelopes and an LFO.

It renders Lua scores to WAV files or plays live from the computer
keyboard and an optional HTTP control API.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

var (
	sampleRate int
	blockSize  int
	polyphony  int
	seed       uint64
	patchPath  string
	presetName string
	overrides  []string
	logLevel   string
	logFile    string

	logCloser io.Closer
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.IntVarP(&sampleRate, "sample-rate", "r", 44100, "Sample rate in Hz")
	flags.IntVarP(&blockSize, "block-size", "b", 512, "Maximum frames rendered per block")
	flags.IntVarP(&polyphony, "polyphony", "p", 16, "Number of voices")
	flags.Uint64Var(&seed, "seed", 1, "Seed for unison start phases")
	flags.StringVar(&patchPath, "patch", "", "Patch bank (JSON) to load")
	flags.StringVar(&presetName, "preset", "", "Preset in the bank to load (default: first)")
	flags.StringArrayVarP(&overrides, "set", "s", nil, `Set a parameter, e.g. --set FilterCutoff="800 Hz" (repeatable)`)
	flags.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error, off)")
	flags.StringVar(&logFile, "log-file", "", "Append logs to a file instead of stderr")
}

func setupLogging(cmd *cobra.Command, args []string) error {
	level, err := debug.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	debug.SetLevel(level)

	if logFile == "" {
		return nil
	}
	path, err := homedir.Expand(logFile)
	if err != nil {
		return err
	}
	logCloser, err = debug.OpenFile(path)
	return err
}

func engineConfig() synth.Config {
	cfg := synth.DefaultConfig()
	cfg.SampleRate = float64(sampleRate)
	cfg.MaxBlockSize = blockSize
	cfg.Polyphony = polyphony
	cfg.Seed = seed
	return cfg
}

// loadParams returns a parameter set with the --patch preset applied.
func loadParams() (*synth.Parameters, error) {
	params := synth.NewParameters()
	if patchPath == "" {
		return params, nil
	}

	path, err := homedir.Expand(patchPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	bank, err := state.LoadBank(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", patchPath, err)
	}
	var preset *state.Preset
	switch {
	case presetName != "":
		preset, err = bank.Find(presetName)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", patchPath, err)
		}
	case len(bank.Presets) == 0:
		return nil, fmt.Errorf("%s: %w: bank is empty", patchPath, state.ErrPresetNotFound)
	default:
		preset = &bank.Presets[0]
	}

	state.NewManager(params.Registry).Apply(*preset)
	debug.Info("loaded preset %q from %s", preset.Name, patchPath)
	return params, nil
}

// applyOverrides applies the --set flags, which win over patch and score.
func applyOverrides(params *synth.Parameters) error {
	for _, o := range overrides {
		name, value, ok := strings.Cut(o, "=")
		if !ok || name == "" {
			return fmt.Errorf("--set %q: want name=value", o)
		}
		if err := params.SetText(strings.TrimSpace(name), strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("--set %s: %w", name, err)
		}
	}
	return nil
}

func newEngine(params *synth.Parameters) (*synth.Engine, error) {
	engine, err := synth.NewEngine(engineConfig(), params)
	if errors.Is(err, synth.ErrInvalidPolyphony) {
		return nil, fmt.Errorf("--polyphony: %w", err)
	}
	return engine, err
}
