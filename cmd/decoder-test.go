package cmd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/spectro-tab/pkg/audio"
)

var (
	decoderTimeout      time.Duration
	decoderValidateOnly bool
	decoderWriteWAV     string
)

var decoderCmd = &cobra.Command{
	Use:   "decoder-test [FILE...]",
	Short: "Test audio decoder availability and decode files",
	Long: `Check the external decoder tools and decode audio files the same way
the other commands load them.

WAV and MP3 are decoded natively. FLAC, OGG, OPUS, AIFF, M4A and AAC
need ffmpeg, and ffprobe is used to report the stream layout.

Examples:
  # Check ffmpeg and ffprobe only
  spectro-tab decoder-test --validate-only

  # Decode a few files and report their levels
  spectro-tab decoder-test take1.flac take2.mp3

  # Convert to a mono WAV
  spectro-tab decoder-test song.m4a --write-wav song-mono.wav`,
	Args: func(cmd *cobra.Command, args []string) error {
		if decoderValidateOnly {
			return nil
		}
		if len(args) == 0 {
			return fmt.Errorf("requires at least one audio file")
		}
		if decoderWriteWAV != "" && len(args) != 1 {
			return fmt.Errorf("--write-wav takes exactly one input file")
		}
		return nil
	},
	RunE: runDecoderTest,
}

func init() {
	rootCmd.AddCommand(decoderCmd)

	decoderCmd.Flags().DurationVar(&decoderTimeout, "timeout", 2*time.Minute,
		"operation timeout")
	decoderCmd.Flags().BoolVar(&decoderValidateOnly, "validate-only", false,
		"only validate decoder availability")
	decoderCmd.Flags().StringVar(&decoderWriteWAV, "write-wav", "",
		"write the decoded mono signal to a WAV file")
}

func runDecoderTest(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.WithFields(logging.Fields{"component": "decoder_test_cmd"})
	timer := NewPerformanceTimer()

	printHeader("Audio Decoder Testing", fmt.Sprintf("%d file(s)", len(args)))

	ctx, cancel := context.WithTimeout(context.Background(), decoderTimeout)
	defer cancel()

	decoder := audio.NewDecoder(config.DecoderConfig(), logger)

	printStep(1, "External Backends")
	timer.StartEvent("backend_check")
	external := true
	for _, backend := range []string{"ffmpeg", "ffprobe"} {
		path, err := decoder.CheckBackend(backend)
		if err != nil {
			external = false
			printWarning("%s not found: %v", backend, err)
			continue
		}
		printSuccess("%s: %s", backend, path)
	}
	timer.EndEvent("backend_check")
	printInfo("Supported formats: %v", audio.SupportedFormats())
	fmt.Println()

	if decoderValidateOnly {
		printTimings(timer)
		return nil
	}

	failures := 0
	for i, path := range args {
		printStep(i+2, filepath.Base(path))

		if external {
			timer.StartEvent("stream_info")
			info, err := decoder.StreamInfo(ctx, path)
			timer.EndEvent("stream_info")
			if err != nil {
				printWarning("Stream info unavailable: %v", err)
			} else {
				printInfo("Codec %s (%s), %d Hz, %d channel(s), %d kb/s, %.2fs",
					info.Codec, info.CodecName, info.SampleRate, info.Channels, info.Bitrate/1000, info.Duration)
			}
		}

		timer.StartEvent("decoding")
		buf, err := decoder.Decode(ctx, path)
		timer.EndEvent("decoding")
		if err != nil {
			failures++
			describeDecodeError(err)
			fmt.Println()
			continue
		}

		peak := buf.Peak()
		rms := math.Sqrt(floats.Dot(buf.Samples, buf.Samples) / float64(buf.Len()))
		printSuccess("Decoded %d samples at %d Hz (%.2fs)", buf.Len(), buf.SampleRate, buf.Duration())
		printInfo("Peak %.4f (%.1f dBFS), RMS %.4f (%.1f dBFS)", peak, dbfs(peak), rms, dbfs(rms))

		if decoderWriteWAV != "" {
			timer.StartEvent("wav_writing")
			err := audio.WriteWAVFile(decoderWriteWAV, buf)
			timer.EndEvent("wav_writing")
			if err != nil {
				return err
			}
			printSuccess("Wrote %s", decoderWriteWAV)
		}
		fmt.Println()
	}

	printTimings(timer)
	if failures > 0 {
		return fmt.Errorf("%d of %d file(s) failed to decode", failures, len(args))
	}
	return nil
}

func describeDecodeError(err error) {
	var loadErr *audio.LoadError
	var backendErr *audio.DecodeBackendUnavailableError
	switch {
	case errors.As(err, &backendErr):
		printError("%s needs %s", backendErr.Format, backendErr.Backend)
		printInfo("Remedy: %s", backendErr.Remedy)
	case errors.As(err, &loadErr):
		printError("%s [%s]: %s", loadErr.Format, loadErr.Code, loadErr.Message)
		if loadErr.Cause != nil {
			printInfo("Cause: %v", loadErr.Cause)
		}
	default:
		printError("%v", err)
	}
}

func dbfs(v float64) float64 {
	return 20 * math.Log10(math.Max(v, 1e-12))
}
