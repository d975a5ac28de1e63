package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/spectro-tab/internal/app"
	"github.com/RyanBlaney/spectro-tab/internal/device"
	"github.com/RyanBlaney/spectro-tab/pkg/audio"
	"github.com/RyanBlaney/spectro-tab/pkg/playback"
)

var (
	marksOut         string
	marksAudition    bool
	marksAuditionOut string
	marksHeadless    bool
)

var marksCmd = &cobra.Command{
	Use:   "marks FILE T:F...",
	Short: "Place cross-marks on a track and list their notes and fingerings",
	Long: `Place cross-marks at (time, frequency) points of a track. Each mark is
clamped to the track and the hard frequency band, snapped to the nearest
note and listed with its fret positions. The frequency may be given as a
note name.

Examples:
  # Three marks, printed as a table
  spectro-tab marks riff.wav 1.2:110 1.6:146.8 2.0:D3

  # Save a report and hear the marked notes as a chord
  spectro-tab marks riff.wav 1.2:110 1.6:146.8 --out riff-marks.yaml --audition`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMarks,
}

func init() {
	rootCmd.AddCommand(marksCmd)

	marksCmd.Flags().StringVar(&marksOut, "out", "", "write a report (.yaml, .yml or .json)")
	marksCmd.Flags().BoolVar(&marksAudition, "audition", false, "play the marked notes as a strummed chord")
	marksCmd.Flags().StringVar(&marksAuditionOut, "audition-out", "", "write the audition chord to a WAV file")
	marksCmd.Flags().BoolVar(&marksHeadless, "headless", false, "discard audition audio instead of using the output device")
}

func runMarks(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.WithFields(logging.Fields{"component": "marks_cmd"})
	path, points := args[0], args[1:]

	appCtx, err := config.AppContext(logger)
	if err != nil {
		return err
	}
	session, err := app.NewSession(appCtx, playback.DiscardSink{})
	if err != nil {
		return err
	}
	defer session.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := session.Load(ctx, path); err != nil {
		return err
	}

	if err := placeMarks(session, points); err != nil {
		return err
	}

	report := session.Report()
	if marksOut != "" {
		if err := app.WriteReport(report, marksOut); err != nil {
			return err
		}
	}

	if isStructured(config.OutputFormat) {
		data, err := app.EncodeReport(report, config.OutputFormat)
		if err != nil {
			return err
		}
		os.Stdout.Write(data)
		if data[len(data)-1] != '\n' {
			fmt.Println()
		}
	} else {
		printMarks(report, config.Output.Precision)
		if marksOut != "" {
			printSuccess("Report written to %s", marksOut)
		}
	}

	if !marksAudition && marksAuditionOut == "" {
		return nil
	}
	chord, err := session.Audition()
	if err != nil {
		return err
	}
	if marksAuditionOut != "" {
		if err := audio.WriteWAVFile(marksAuditionOut, chord); err != nil {
			return err
		}
		printSuccess("Audition %s written to %s", chord.Source, marksAuditionOut)
	}
	if marksAudition {
		printInfo("Auditioning %s", chord.Source)
		return playBuffer(ctx, device.Output(marksHeadless), chord, config.PlaybackEngineConfig(), config.Playback.UIInterval, logger)
	}
	return nil
}

// placeMarks parses and adds every T:F point in order
func placeMarks(s *app.Session, points []string) error {
	for _, pt := range points {
		t, f, err := parseMark(pt)
		if err != nil {
			return err
		}
		if _, err := s.AddMark(t, f); err != nil {
			return fmt.Errorf("mark %q: %w", pt, err)
		}
	}
	return nil
}

func printMarks(r *app.MarksReport, prec int) {
	printHeader("Marks", r.Source)
	fmt.Printf("%s%4s %10s %10s  %-5s %8s  %s%s\n", ColorBold,
		"#", "TIME", "FREQ", "NOTE", "CENTS", "POSITIONS", ColorReset)
	for i, m := range r.Marks {
		fmt.Printf("%4d %10.*f %10.*f  %s%-5s%s %+8.1f  %s\n",
			i+1, prec, m.Time, prec, m.Frequency,
			ColorCyan, m.Note.Name, ColorReset, m.Note.Cents,
			formatPositions(m.Positions))
	}
	fmt.Println()
	printInfo("Selected notes: %v", r.Pitches)
}
