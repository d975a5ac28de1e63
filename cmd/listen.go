package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/spectro-tab/internal/device"
	"github.com/RyanBlaney/spectro-tab/pkg/audio"
	"github.com/RyanBlaney/spectro-tab/pkg/notes"
	"github.com/RyanBlaney/spectro-tab/pkg/pitch"
)

var (
	listenLines int
	listenFile  string
	listenFor   time.Duration
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Show the strongest partials from the microphone",
	Long: `Capture the default microphone and show the strongest spectral lines
of the latest block with their nearest notes, refreshed every
mic.poll_interval.

With --file the same extraction runs over an audio file, one block at a
time, and prints a line per block instead.

Examples:
  # Live view until Ctrl-C
  spectro-tab listen

  # Five strongest lines for ten seconds
  spectro-tab listen --lines 5 --for 10s

  # Offline over a file, as JSON
  spectro-tab listen --file chord.wav --format json`,
	Args: cobra.NoArgs,
	RunE: runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)

	listenCmd.Flags().IntVarP(&listenLines, "lines", "n", 0, "number of lines to show (default mic.max_lines)")
	listenCmd.Flags().StringVar(&listenFile, "file", "", "analyse an audio file instead of the microphone")
	listenCmd.Flags().DurationVar(&listenFor, "for", 0, "stop after this long")
}

func runListen(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.WithFields(logging.Fields{"component": "listen_cmd"})

	pc := config.PitchConfig()
	if listenLines > 0 {
		pc.MaxLines = listenLines
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if listenFor > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(ctx, listenFor)
		defer stop()
	}

	if listenFile != "" {
		return listenToFile(ctx, config.DecoderConfig(), pc, config.OutputFormat, logger)
	}

	src, err := device.Input(pc.SampleRate, pc.BlockSize, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	extractor := pitch.NewExtractor(pc, logger)
	monitor := pitch.NewMonitor(extractor, config.Mic.QueueSize, logger)
	if err := src.Start(monitor.Push); err != nil {
		return err
	}

	err = monitor.Run(ctx, config.Mic.PollInterval, func(peaks []pitch.Peak) {
		fmt.Print("\033[H\033[2J")
		printHeader("Listening", fmt.Sprintf("%d Hz, %d-sample blocks", pc.SampleRate, pc.BlockSize))
		printPeaks(peaks)
		if d := monitor.Dropped(); d > 0 {
			fmt.Printf("\n%s%d blocks skipped%s\n", ColorYellow, d, ColorReset)
		}
	})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// blockPeaks are the peaks of one block of a file
type blockPeaks struct {
	Time  float64     `json:"time" yaml:"time"`
	Peaks []namedPeak `json:"peaks" yaml:"peaks"`
}

type namedPeak struct {
	pitch.Peak `yaml:",inline"`
	Note       string  `json:"note" yaml:"note"`
	Cents      float64 `json:"cents" yaml:"cents"`
}

func listenToFile(ctx context.Context, dc *audio.DecoderConfig, pc *pitch.Config, format string, logger logging.Logger) error {
	buf, err := audio.NewDecoder(dc, logger).Decode(ctx, listenFile)
	if err != nil {
		return err
	}
	if buf.SampleRate != pc.SampleRate {
		logger.Debug("Using file sample rate for extraction", logging.Fields{
			"file_rate":   buf.SampleRate,
			"config_rate": pc.SampleRate,
		})
		pc.SampleRate = buf.SampleRate
	}
	extractor := pitch.NewExtractor(pc, logger)

	frames := extractBlocks(extractor, buf.Samples, pc.BlockSize, buf.SampleRate)
	if isStructured(format) {
		return writeStructured(os.Stdout, frames, format)
	}

	printHeader("Partials", listenFile)
	for _, f := range frames {
		if ctx.Err() != nil {
			break
		}
		names := make([]string, len(f.Peaks))
		for i, p := range f.Peaks {
			names[i] = fmt.Sprintf("%s(%.1f)", p.Note, p.Frequency)
		}
		if len(names) == 0 {
			names = []string{"-"}
		}
		fmt.Printf("%s%8.3fs%s  %s\n", ColorCyan, f.Time, ColorReset, strings.Join(names, " "))
	}
	return nil
}

// extractBlocks runs the extractor over consecutive blocks of samples
func extractBlocks(e *pitch.Extractor, samples []float64, blockSize, rate int) []blockPeaks {
	block := make([]float32, blockSize)
	var frames []blockPeaks
	for start := 0; start+blockSize <= len(samples); start += blockSize {
		for i := range block {
			block[i] = float32(samples[start+i])
		}
		peaks := e.Extract(block)
		named := make([]namedPeak, len(peaks))
		for i, p := range peaks {
			n := notes.Nearest(p.Frequency)
			named[i] = namedPeak{Peak: p, Note: n.Name, Cents: n.Cents}
		}
		frames = append(frames, blockPeaks{
			Time:  float64(start) / float64(rate),
			Peaks: named,
		})
	}
	return frames
}

// printPeaks lists peaks strongest first with a bar scaled to the terminal
func printPeaks(peaks []pitch.Peak) {
	if len(peaks) == 0 {
		printInfo("silence")
		return
	}
	strongest := peaks[0].Magnitude
	width := max(10, terminalWidth()-40)
	for _, p := range peaks {
		n := notes.Nearest(p.Frequency)
		bar := strings.Repeat("█", int(pitch.Strength(p, strongest)*float64(width)+0.5))
		fmt.Printf("  %s%-4s%s %8.2f Hz %+6.1fc %s%s%s\n",
			ColorBold, n.Name, ColorReset, p.Frequency, n.Cents, ColorGreen, bar, ColorReset)
	}
}
