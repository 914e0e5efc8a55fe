package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/justyntemme/synja/pkg/framework/debug"
	"github.com/justyntemme/synja/pkg/midi"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure render load with every voice playing",
	Long: `Hold one note per voice and time each render block against its
real-time budget.

Example:
  synja bench --polyphony 32 --set UnisonVoices=4 --duration 20s`,
	Args: cobra.NoArgs,
	RunE: runBench,
}

var benchDuration time.Duration

func init() {
	rootCmd.AddCommand(benchCmd)
	benchCmd.Flags().DurationVarP(&benchDuration, "duration", "d", 10*time.Second, "Audio time to render")
}

func runBench(cmd *cobra.Command, args []string) error {
	params, err := loadParams()
	if err != nil {
		return err
	}
	if err := applyOverrides(params); err != nil {
		return err
	}
	engine, err := newEngine(params)
	if err != nil {
		return err
	}

	// Spread the chord over the keyboard so no two voices share a note
	chord := make([]midi.Event, 0, polyphony)
	for i := range polyphony {
		chord = append(chord, midi.NoteOnEvent{NoteNumber: uint8(36 + i*61/polyphony), Velocity: 100})
	}

	prof := debug.NewRenderProfiler(float64(sampleRate))
	left := make([]float32, blockSize)
	right := make([]float32, blockSize)
	blocks := int(benchDuration.Seconds() * float64(sampleRate) / float64(blockSize))

	events := chord
	for range max(blocks, 1) {
		clear(left)
		clear(right)
		prof.TimeRender(blockSize, func() { engine.Process(events, left, right) })
		events = nil
	}

	fmt.Printf("%d voices, %d blocks of %d frames\n", engine.Manager().ActiveVoices(), blocks, blockSize)
	fmt.Print(prof.RenderReport(blockSize))
	return nil
}
