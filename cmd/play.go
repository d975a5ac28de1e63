package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/spectro-tab/internal/device"
	"github.com/RyanBlaney/spectro-tab/pkg/audio"
	"github.com/RyanBlaney/spectro-tab/pkg/playback"
)

var (
	playStart    float64
	playLoop     string
	playFor      time.Duration
	playHeadless bool
)

var playCmd = &cobra.Command{
	Use:   "play FILE",
	Short: "Play an audio file, optionally looping a region",
	Long: `Play an audio file on the default output device.

With --loop the region A:B (seconds) repeats without gaps until the
command is interrupted or --for elapses. The playhead is printed every
playback.ui_interval.

Examples:
  # Play from the start
  spectro-tab play song.mp3

  # Loop a two bar riff for a minute
  spectro-tab play song.mp3 --loop 12.4:16.9 --for 1m

  # Exercise the transport without a sound card
  spectro-tab play song.wav --start 30 --for 5s --headless`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().Float64Var(&playStart, "start", 0, "start position in seconds")
	playCmd.Flags().StringVar(&playLoop, "loop", "", "loop region A:B in seconds")
	playCmd.Flags().DurationVar(&playFor, "for", 0, "stop after this long (0 plays until the end or Ctrl-C)")
	playCmd.Flags().BoolVar(&playHeadless, "headless", false, "discard audio instead of using the output device")
}

func runPlay(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.WithFields(logging.Fields{"component": "play_cmd"})
	path := args[0]

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if playFor > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(ctx, playFor)
		defer stop()
	}

	decoder := audio.NewDecoder(config.DecoderConfig(), logger)
	buf, err := decoder.Decode(ctx, path)
	if err != nil {
		return err
	}

	engine := playback.NewEngine(device.Output(playHeadless), config.PlaybackEngineConfig(), logger)
	defer engine.Close()
	engine.SetAudio(buf)
	engine.Seek(playStart)

	if playLoop != "" {
		a, b, err := parseLoop(playLoop)
		if err != nil {
			return err
		}
		if err := engine.SetLoop(true, a, b); err != nil {
			return err
		}
	}

	printHeader("Playback", filepath.Base(path))
	printInfo("%d Hz, %.2fs", buf.SampleRate, buf.Duration())
	if l := engine.Loop(); l.Enabled {
		printInfo("Looping %.3fs to %.3fs", l.A, l.B)
	}
	if playHeadless || !device.Native {
		printWarning("Headless output, audio is discarded")
	}
	fmt.Println()

	if err := engine.Play(); err != nil {
		return err
	}

	interval := config.Playback.UIInterval
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			engine.Stop()
			fmt.Println()
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				printSuccess("Stopped after %v at %.2fs", playFor, engine.Playhead())
			} else {
				printInfo("Interrupted at %.2fs", engine.Playhead())
			}
			return nil
		case <-ticker.C:
			if err := engine.Poll(); err != nil {
				fmt.Println()
				return err
			}
			printPlayhead(engine)
			if engine.State() == playback.Stopped {
				fmt.Println()
				printSuccess("Finished")
				return nil
			}
		}
	}
}

// printPlayhead redraws a one-line progress bar in place
func printPlayhead(e *playback.Engine) {
	pos, dur := e.Playhead(), e.Duration()
	label := fmt.Sprintf(" %7.2f / %.2fs %-8s", pos, dur, e.State())

	width := terminalWidth() - len(label) - 4
	if width < 10 {
		fmt.Printf("\r%s", label)
		return
	}

	bar := []rune(strings.Repeat("─", width))
	if l := e.Loop(); l.Enabled && dur > 0 {
		for i := int(l.A / dur * float64(width)); i < min(width, int(l.B/dur*float64(width))+1); i++ {
			bar[i] = '═'
		}
	}
	if dur > 0 {
		bar[min(width-1, int(pos/dur*float64(width)))] = '●'
	}
	fmt.Printf("\r %s%s%s%s", ColorCyan, string(bar), ColorReset, label)
}
