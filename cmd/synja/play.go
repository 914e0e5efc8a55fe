package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/justyntemme/synja/internal/audioout"
	"github.com/justyntemme/synja/internal/control"
	"github.com/justyntemme/synja/internal/keyboard"
	"github.com/justyntemme/synja/pkg/framework/debug"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play live from the computer keyboard",
	Long: `Open the audio device and play the synth from the computer keyboard.

  a w s e d f t g y h u j k o l p ; '   notes, C to F an octave up
  z / x                                octave down / up
  c / v                                velocity down / up
  space                                all notes off
  Esc, Ctrl-C                          quit

With --http the control API is served as well:

  GET  /params               PUT /params/{name}
  GET  /patch                PUT /patch
  POST /notes/{note}/on      POST /notes/{note}/off
  POST /bend                 POST /panic

Examples:
  synja play
  synja play --patch ~/patches/bass.json --http localhost:8080
  synja play --keyboard=false --http :8080`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

var (
	playLatency  time.Duration
	playHold     time.Duration
	playHTTP     string
	playKeyboard bool
)

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().DurationVar(&playLatency, "latency", 50*time.Millisecond, "Audio device buffer")
	playCmd.Flags().DurationVar(&playHold, "hold", keyboard.DefaultHold, "How long a key press sounds without auto-repeat")
	playCmd.Flags().StringVar(&playHTTP, "http", "", "Serve the control API on this address")
	playCmd.Flags().BoolVar(&playKeyboard, "keyboard", true, "Read notes from the terminal")
}

func runPlay(cmd *cobra.Command, args []string) error {
	if !playKeyboard && playHTTP == "" {
		return errors.New("nothing to play from: enable --keyboard or --http")
	}

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

	stream := audioout.NewStream(engine, float64(sampleRate), blockSize)
	player, err := audioout.NewPlayer(stream, sampleRate, playLatency)
	if err != nil {
		return err
	}
	defer player.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	ctx, quit := context.WithCancel(ctx)
	defer quit()

	g.Go(func() error { return player.Run(ctx) })

	if playHTTP != "" {
		srv := control.New(control.Config{Addr: playHTTP}, engine)
		g.Go(func() error { return srv.Run(ctx) })
	}

	if playKeyboard {
		restore, err := keyboard.MakeRaw(os.Stdin)
		if err != nil {
			quit()
			_ = g.Wait()
			return fmt.Errorf("keyboard: %w", err)
		}
		defer restore()

		kb := keyboard.New(engine.Queue(), playHold)
		kb.OnStatus(func(s string) { fmt.Fprintf(os.Stderr, "\r%s\r\n", s) })
		fmt.Fprint(os.Stderr, "playing, Esc to quit\r\n")
		g.Go(func() error {
			// Leaving the keyboard ends the session
			defer quit()
			return kb.Run(ctx, os.Stdin)
		})
	}

	err = g.Wait()
	debug.Info("played %.1fs", float64(stream.Frames())/float64(sampleRate))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
