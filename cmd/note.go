package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/spectro-tab/pkg/notes"
)

var noteCmd = &cobra.Command{
	Use:   "note FREQ|NAME...",
	Short: "Look up the nearest note and fret positions",
	Long: `Convert frequencies or note names to the nearest equal-tempered note
(A4 = 440 Hz), its deviation in cents and every place it can be played on
the configured fretboard.

Examples:
  spectro-tab note 196 246.9 330
  spectro-tab note A2 C#4 Bb3
  spectro-tab note 82.4hz --format yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNote,
}

func init() {
	rootCmd.AddCommand(noteCmd)
}

// noteInfo is one looked-up note
type noteInfo struct {
	Input     string           `json:"input" yaml:"input"`
	Measured  float64          `json:"measured" yaml:"measured"`
	Note      notes.Note       `json:"note" yaml:"note"`
	Positions []notes.Position `json:"positions" yaml:"positions"`
}

func lookupNotes(args []string, fb *notes.Fretboard) ([]noteInfo, error) {
	infos := make([]noteInfo, 0, len(args))
	for _, arg := range args {
		f, err := parseFrequency(arg)
		if err != nil {
			return nil, err
		}
		n := notes.Nearest(f)
		infos = append(infos, noteInfo{
			Input:     arg,
			Measured:  f,
			Note:      n,
			Positions: fb.Positions(n.Pitch),
		})
	}
	return infos, nil
}

func runNote(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	fb := notes.NewFretboard(config.Fretboard.Tuning, config.Fretboard.MaxFret)

	infos, err := lookupNotes(args, fb)
	if err != nil {
		return err
	}
	if isStructured(config.OutputFormat) {
		return writeStructured(os.Stdout, infos, config.OutputFormat)
	}

	prec := config.Output.Precision
	fmt.Printf("%s%-12s %-5s %5s %12s %12s %8s  %s%s\n", ColorBold,
		"INPUT", "NOTE", "MIDI", "MEASURED", "IDEAL", "CENTS", "POSITIONS", ColorReset)
	for _, info := range infos {
		fmt.Printf("%-12s %s%-5s%s %5d %12.*f %12.*f %+8.1f  %s\n",
			info.Input, ColorCyan, info.Note.Name, ColorReset, info.Note.Pitch,
			prec, info.Measured, prec, info.Note.Frequency, info.Note.Cents,
			formatPositions(info.Positions))
	}
	return nil
}

// formatPositions renders positions as "string/fret" pairs, e.g. "1/5 2/10"
func formatPositions(ps []notes.Position) string {
	if len(ps) == 0 {
		return "-"
	}
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = fmt.Sprintf("%d/%d", p.String, p.Fret)
	}
	return strings.Join(parts, " ")
}
