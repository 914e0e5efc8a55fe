package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/justyntemme/synja/internal/audioout"
	"github.com/justyntemme/synja/internal/score"
	"github.com/justyntemme/synja/internal/wavout"
	"github.com/justyntemme/synja/pkg/dsp/envelope"
	"github.com/justyntemme/synja/pkg/framework/debug"
	"github.com/justyntemme/synja/pkg/midi"
)

var renderCmd = &cobra.Command{
	Use:   "render [score.lua]",
	Short: "Render a score to a WAV file",
	Long: `Render a Lua score to a 16-bit stereo WAV file. Without a score the
built-in demo is rendered.

A score calls tempo, note, bend, cc, set and tail:

  tempo(96)
  set("FilterCutoff", "900 Hz")
  for i = 0, 3 do note(i, "C3", 0.9, 100) end
  tail(2)

Examples:
  synja render -o demo.wav
  synja render song.lua -o song.wav --set MasterGain=-6`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

var renderOutput string

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "synja.wav", "Output WAV file")
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc := score.Demo()
	if len(args) == 1 {
		var err error
		if sc, err = score.Load(ctx, args[0]); err != nil {
			return err
		}
	}

	params, err := loadParams()
	if err != nil {
		return err
	}
	if err := sc.Apply(params); err != nil {
		return err
	}
	if err := applyOverrides(params); err != nil {
		return err
	}
	engine, err := newEngine(params)
	if err != nil {
		return err
	}
	engine.SetTempo(sc.Tempo)

	w, err := wavout.Create(renderOutput, sampleRate)
	if err != nil {
		return err
	}

	start := time.Now()
	stats, err := render(ctx, engine, sc, w)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	seconds := float64(w.Frames()) / float64(sampleRate)
	fmt.Printf("%s: %.2fs, %d notes, rendered in %v (%.0fx real time)\n",
		renderOutput, seconds, len(sc.Notes), time.Since(start).Round(time.Millisecond),
		seconds/time.Since(start).Seconds())
	fmt.Printf("  peak %.1f dBFS, rms %.1f dBFS\n",
		envelope.LinearToDB(stats.peak), envelope.LinearToDB(stats.rms()))
	if n := w.Clipped(); n > 0 {
		fmt.Printf("  %d samples clipped\n", n)
	}
	if stats.nonFinite > 0 {
		return fmt.Errorf("render produced %d non-finite samples", stats.nonFinite)
	}
	return nil
}

type renderStats struct {
	peak       float64
	sumSquares float64
	samples    int
	nonFinite  int
}

func (s *renderStats) add(buf []float32) {
	r := debug.AnalyzeBuffer(buf)
	s.peak = max(s.peak, float64(r.Peak))
	s.sumSquares += float64(r.RMS) * float64(r.RMS) * float64(r.Samples)
	s.samples += r.Samples
	s.nonFinite += r.NonFinite
}

func (s *renderStats) rms() float64 {
	if s.samples == 0 {
		return 0
	}
	return math.Sqrt(s.sumSquares / float64(s.samples))
}

// render plays the score through engine block by block into w.
func render(ctx context.Context, engine audioout.Renderer, sc *score.Score, w *wavout.Writer) (renderStats, error) {
	var stats renderStats
	sr := float64(sampleRate)
	seq := sc.Sequence(sr)
	total := sc.Frames(sr)

	left := make([]float32, blockSize)
	right := make([]float32, blockSize)
	events := make([]midi.Event, 0, seq.Len())

	for pos := int64(0); pos < total; {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		n := int(min(int64(blockSize), total-pos))
		l, r := left[:n], right[:n]
		clear(l)
		clear(r)

		events = seq.Block(events[:0], pos, n)
		engine.Process(events, l, r)

		stats.add(l)
		stats.add(r)
		if debug.Enabled(debug.LogLevelDebug) {
			debug.CheckAudioBuffer(l, fmt.Sprintf("left at %d", pos))
			debug.CheckAudioBuffer(r, fmt.Sprintf("right at %d", pos))
		}
		if err := w.Write(l, r); err != nil {
			return stats, err
		}
		pos += int64(n)
	}
	return stats, nil
}
