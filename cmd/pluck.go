package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/spectro-tab/internal/device"
	"github.com/RyanBlaney/spectro-tab/pkg/audio"
	"github.com/RyanBlaney/spectro-tab/pkg/playback"
	"github.com/RyanBlaney/spectro-tab/pkg/synth"
)

var (
	pluckOut      string
	pluckDuration time.Duration
	pluckSeed     uint64
	pluckHeadless bool
)

var pluckCmd = &cobra.Command{
	Use:   "pluck NOTE...",
	Short: "Synthesise a plucked chord",
	Long: `Render the given notes as one softly strummed chord with a
Karplus-Strong string model and play it, or write it to a WAV file.

Notes may be names (E2, C#4), MIDI numbers (40) or frequencies (82.4hz).

Examples:
  spectro-tab pluck E2 B2 E3 G#3 B3 E4
  spectro-tab pluck A2 E3 A3 C#4 --out a-major.wav
  spectro-tab pluck 45 52 57 --seed 7 --duration 2s`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPluck,
}

func init() {
	rootCmd.AddCommand(pluckCmd)

	pluckCmd.Flags().StringVar(&pluckOut, "out", "", "write a WAV file instead of playing")
	pluckCmd.Flags().DurationVar(&pluckDuration, "duration", 0, "note length (default synth.duration)")
	pluckCmd.Flags().Uint64Var(&pluckSeed, "seed", 0, "random seed for reproducible output")
	pluckCmd.Flags().BoolVar(&pluckHeadless, "headless", false, "discard audio instead of using the output device")
}

func runPluck(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.WithFields(logging.Fields{"component": "pluck_cmd"})

	pitches := make([]int, len(args))
	for i, arg := range args {
		p, err := parsePitch(arg)
		if err != nil {
			return err
		}
		pitches[i] = p
	}

	params := config.SynthParams()
	if pluckDuration > 0 {
		params.Duration = pluckDuration
	}
	if cmd.Flags().Changed("seed") {
		params.Seed = pluckSeed
	}

	chord, err := synth.NewSynth(params, logger).Chord(pitches)
	if err != nil {
		return err
	}

	if pluckOut != "" {
		if err := audio.WriteWAVFile(pluckOut, chord); err != nil {
			return err
		}
		printSuccess("Wrote %s %s (%.2fs at %d Hz)", chord.Source, pluckOut, chord.Duration(), chord.SampleRate)
		return nil
	}

	printInfo("Playing %s", chord.Source)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return playBuffer(ctx, device.Output(pluckHeadless), chord, config.PlaybackEngineConfig(), config.Playback.UIInterval, logger)
}

// playBuffer plays buf once and returns when it ends or ctx is done
func playBuffer(ctx context.Context, sink playback.Sink, buf *audio.SampleBuffer, pc *playback.Config, interval time.Duration, logger logging.Logger) error {
	engine := playback.NewEngine(sink, pc, logger)
	defer engine.Close()
	engine.SetAudio(buf)
	if err := engine.Play(); err != nil {
		return err
	}

	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := engine.Poll(); err != nil {
				return err
			}
			if engine.State() == playback.Stopped {
				return nil
			}
		}
	}
}
