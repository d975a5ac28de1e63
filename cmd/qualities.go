package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var qualitiesCmd = &cobra.Command{
	Use:   "qualities",
	Short: "List the spectrogram quality presets",
	Long: `List the STFT quality presets from spectrogram.qualities_file,
spectrogram.qualities or the built-in table, with the resolution each gives
at a sample rate.

Examples:
  spectro-tab qualities
  spectro-tab qualities --rate 48000 --format json`,
	Args: cobra.NoArgs,
	RunE: runQualities,
}

var qualitiesRate int

func init() {
	rootCmd.AddCommand(qualitiesCmd)
	qualitiesCmd.Flags().IntVar(&qualitiesRate, "rate", 44100, "sample rate used for the resolution columns")
}

type qualityRow struct {
	Name         string  `json:"name" yaml:"name"`
	WindowSize   int     `json:"window_size" yaml:"window_size"`
	OverlapRatio float64 `json:"overlap_ratio" yaml:"overlap_ratio"`
	Hop          int     `json:"hop" yaml:"hop"`
	Bins         int     `json:"bins" yaml:"bins"`
	FreqStepHz   float64 `json:"freq_step_hz" yaml:"freq_step_hz"`
	TimeStepMS   float64 `json:"time_step_ms" yaml:"time_step_ms"`
	Active       bool    `json:"active" yaml:"active"`
}

func runQualities(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	if qualitiesRate <= 0 {
		return fmt.Errorf("rate must be positive, got %d", qualitiesRate)
	}
	qualities, err := config.Qualities()
	if err != nil {
		return err
	}

	rows := make([]qualityRow, len(qualities))
	for i, q := range qualities {
		rows[i] = qualityRow{
			Name:         q.Name,
			WindowSize:   q.WindowSize,
			OverlapRatio: q.OverlapRatio,
			Hop:          q.Hop(),
			Bins:         q.Bins(),
			FreqStepHz:   float64(qualitiesRate) / float64(q.WindowSize),
			TimeStepMS:   1000 * float64(q.Hop()) / float64(qualitiesRate),
			Active:       strings.EqualFold(q.Name, config.Spectrogram.Quality),
		}
	}

	if isStructured(config.OutputFormat) {
		return writeStructured(os.Stdout, rows, config.OutputFormat)
	}

	fmt.Printf("%s  %-12s %8s %8s %7s %7s %10s %10s%s\n", ColorBold,
		"NAME", "WINDOW", "OVERLAP", "HOP", "BINS", "HZ/BIN", "MS/FRAME", ColorReset)
	for _, r := range rows {
		marker := " "
		if r.Active {
			marker = ColorGreen + "*" + ColorReset
		}
		fmt.Printf("%s %-12s %8d %8.2f %7d %7d %10.3f %10.2f\n",
			marker, r.Name, r.WindowSize, r.OverlapRatio, r.Hop, r.Bins, r.FreqStepHz, r.TimeStepMS)
	}
	return nil
}
