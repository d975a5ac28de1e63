package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/spectro-tab/configs"
	"github.com/RyanBlaney/spectro-tab/pkg/notes"
)

// configTestCmd represents the config test command
var configTestCmd = &cobra.Command{
	Use:   "config-test",
	Short: "Test and display all configuration values",
	Long: `Test configuration loading and display all values to verify proper parsing.

This command loads the configuration and displays all values in a structured format
to help verify that your YAML configuration is being parsed correctly.

Examples:
  # Test with default config file
  spectro-tab config-test

  # Test with specific config file
  spectro-tab --config /path/to/config.yaml config-test`,
	RunE: runConfigTest,
}

func init() {
	rootCmd.AddCommand(configTestCmd)
}

func runConfigTest(cmd *cobra.Command, args []string) error {
	fmt.Println("SPECTRO-TAB CONFIGURATION TEST")
	fmt.Println(strings.Repeat("=", 80))

	config, err := configs.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	printSection("APPLICATION SETTINGS")
	printKeyValue("Verbose", fmt.Sprintf("%t", config.Verbose))
	printKeyValue("Log Level", config.LogLevel)
	printKeyValue("Output Format", config.OutputFormat)
	printKeyValue("Config Directory", config.ConfigDir)

	sg := config.Spectrogram
	printSection("SPECTROGRAM CONFIGURATION")
	printKeyValue("Quality", sg.Quality)
	printKeyValue("Gamma", fmt.Sprintf("%.2f", sg.Gamma))
	printKeyValue("Hard Band", fmt.Sprintf("%.1f - %.1f Hz", sg.HardFMin, sg.HardFMax))
	printKeyValue("Percentile", fmt.Sprintf("%.2f", sg.Percentile))
	printKeyValue("Dynamic Range", fmt.Sprintf("%.1f dB", sg.DynamicRange))
	printKeyValue("Epsilon", fmt.Sprintf("%g", sg.Epsilon))
	printKeyValue("Workers", fmt.Sprintf("%d", sg.Workers))
	printKeyValue("Colormap", sg.Colormap)
	if sg.QualitiesFile != "" {
		printKeyValue("Qualities File", sg.QualitiesFile)
	}
	qualities, err := config.Qualities()
	if err != nil {
		printKeyValue("Qualities", "error: "+err.Error())
	} else {
		printSubsection(fmt.Sprintf("Qualities (%d)", len(qualities)))
		for _, q := range qualities {
			printKeyValue("  "+q.Name, fmt.Sprintf("window %d, overlap %.2f, hop %d", q.WindowSize, q.OverlapRatio, q.Hop()))
		}
	}

	printSection("PLAYBACK CONFIGURATION")
	printKeyValue("Block Size", fmt.Sprintf("%d samples", config.Playback.BlockSize))
	printKeyValue("Minimum Loop", fmt.Sprintf("%.3fs", config.Playback.MinLoop))
	printKeyValue("UI Interval", config.Playback.UIInterval.String())

	mic := config.Mic
	printSection("MICROPHONE CONFIGURATION")
	printKeyValue("Sample Rate", fmt.Sprintf("%d Hz", mic.SampleRate))
	printKeyValue("Block Size", fmt.Sprintf("%d samples", mic.BlockSize))
	printKeyValue("Band", fmt.Sprintf("%.1f - %.1f Hz", mic.FMin, mic.FMax))
	printKeyValue("Max Lines", fmt.Sprintf("%d", mic.MaxLines))
	printKeyValue("Silence Threshold", fmt.Sprintf("%g", mic.SilenceThreshold))
	printKeyValue("Peak Ratio", fmt.Sprintf("%g", mic.PeakRatio))
	printKeyValue("Median Factor", fmt.Sprintf("%g", mic.MedianFactor))
	printKeyValue("Min Distance", fmt.Sprintf("%d bins", mic.MinDistance))
	printKeyValue("Min Bins", fmt.Sprintf("%d", mic.MinBins))
	printKeyValue("Queue Size", fmt.Sprintf("%d blocks", mic.QueueSize))
	printKeyValue("Poll Interval", mic.PollInterval.String())

	sy := config.Synth
	printSection("SYNTH CONFIGURATION")
	printKeyValue("Sample Rate", fmt.Sprintf("%d Hz", sy.SampleRate))
	printKeyValue("Duration", sy.Duration.String())
	printKeyValue("Gain", fmt.Sprintf("%.3f", sy.Gain))
	printSubsection("Voice")
	printKeyValue("  Pick", fmt.Sprintf("%.3f", sy.Pick))
	printKeyValue("  Decay", fmt.Sprintf("%.4f", sy.Decay))
	printKeyValue("  Damp", fmt.Sprintf("%.3f", sy.Damp))
	printKeyValue("  Brightness", fmt.Sprintf("%.3f", sy.Brightness))
	printSubsection("Shaping")
	printKeyValue("  Attack", sy.Attack.String())
	printKeyValue("  Release", sy.Release.String())
	printKeyValue("  Max Strum", sy.MaxStrum.String())
	printKeyValue("  Warmth", fmt.Sprintf("%.3f", sy.Warmth))
	printKeyValue("  Air", fmt.Sprintf("%.3f", sy.Air))
	printKeyValue("  Ceiling", fmt.Sprintf("%.3f", sy.Ceiling))
	printKeyValue("  Seed", fmt.Sprintf("%d", sy.Seed))

	printSection("DECODER CONFIGURATION")
	printKeyValue("FFmpeg Path", config.Decoder.FFmpegPath)
	printKeyValue("FFprobe Path", config.Decoder.FFprobePath)
	printKeyValue("Timeout", config.Decoder.Timeout.String())

	printSection("FRETBOARD CONFIGURATION")
	names := make([]string, len(config.Fretboard.Tuning))
	for i, p := range config.Fretboard.Tuning {
		names[i] = notes.PitchName(p)
	}
	printKeyValue("Tuning", strings.Join(names, " "))
	printKeyValue("Max Fret", fmt.Sprintf("%d", config.Fretboard.MaxFret))

	printSection("OUTPUT CONFIGURATION")
	printKeyValue("Precision", fmt.Sprintf("%d", config.Output.Precision))
	printKeyValue("Colors", fmt.Sprintf("%t", config.Output.Colors))

	if err := configs.ValidateConfig(config); err != nil {
		fmt.Println()
		fmt.Println(ColorRed + strings.Repeat("-", 80))
		fmt.Printf("CONFIGURATION INVALID: %v\n", err)
		fmt.Println(strings.Repeat("=", 80) + ColorReset)
		return err
	}

	fmt.Println()
	fmt.Println(ColorGreen + strings.Repeat("-", 80))
	fmt.Println("CONFIGURATION TEST COMPLETED SUCCESSFULLY")
	fmt.Printf("Config file: %s\n", getConfigFilePath())
	fmt.Println(strings.Repeat("=", 80) + ColorReset)

	return nil
}

func getConfigFilePath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "spectro-tab", "spectro-tab.yaml") + " (not found, using defaults)"
}
