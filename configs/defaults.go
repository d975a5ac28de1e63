package configs

import (
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/viper"

	"github.com/RyanBlaney/spectro-tab/pkg/audio"
	"github.com/RyanBlaney/spectro-tab/pkg/notes"
	"github.com/RyanBlaney/spectro-tab/pkg/pitch"
	"github.com/RyanBlaney/spectro-tab/pkg/playback"
	"github.com/RyanBlaney/spectro-tab/pkg/spectral"
	"github.com/RyanBlaney/spectro-tab/pkg/synth"
	"github.com/RyanBlaney/spectro-tab/pkg/tile"
)

// setDefaults fills every key the user has not set
func setDefaults(v *viper.Viper) {
	setIfUnset := func(key string, value any) {
		if !v.IsSet(key) {
			v.Set(key, value)
		}
	}

	// Application defaults
	setIfUnset("verbose", false)
	setIfUnset("log_level", "info")
	setIfUnset("output_format", "table")
	home, _ := os.UserHomeDir()
	setIfUnset("config_dir", filepath.Join(home, ".config", "spectro-tab"))

	setSpectrogramDefaults(v)
	setPlaybackDefaults(v)
	setMicDefaults(v)
	setSynthDefaults(v)

	// Decoder defaults
	dc := audio.DefaultDecoderConfig()
	setIfUnset("decoder.ffmpeg_path", dc.FFmpegPath)
	setIfUnset("decoder.ffprobe_path", dc.FFprobePath)
	setIfUnset("decoder.timeout", dc.Timeout)

	// Fretboard defaults
	setIfUnset("fretboard.tuning", slices.Clone(notes.StandardTuning))
	setIfUnset("fretboard.max_fret", notes.DefaultMaxFret)

	// Output defaults
	setIfUnset("output.precision", 2)
	setIfUnset("output.colors", true)
}

func setSpectrogramDefaults(v *viper.Viper) {
	opts := spectral.DefaultOptions()
	if !v.IsSet("spectrogram.quality") {
		v.Set("spectrogram.quality", spectral.DefaultQualityName)
	}
	if !v.IsSet("spectrogram.gamma") {
		v.Set("spectrogram.gamma", tile.DefaultGamma)
	}
	if !v.IsSet("spectrogram.hard_fmin") {
		v.Set("spectrogram.hard_fmin", 70.0)
	}
	if !v.IsSet("spectrogram.hard_fmax") {
		v.Set("spectrogram.hard_fmax", 600.0)
	}
	if !v.IsSet("spectrogram.percentile") {
		v.Set("spectrogram.percentile", opts.Percentile)
	}
	if !v.IsSet("spectrogram.dynamic_range") {
		v.Set("spectrogram.dynamic_range", opts.DynamicRange)
	}
	if !v.IsSet("spectrogram.epsilon") {
		v.Set("spectrogram.epsilon", opts.Epsilon)
	}
	if !v.IsSet("spectrogram.workers") {
		v.Set("spectrogram.workers", 0)
	}
	if !v.IsSet("spectrogram.colormap") {
		v.Set("spectrogram.colormap", "audacity")
	}
}

func setPlaybackDefaults(v *viper.Viper) {
	pc := playback.DefaultConfig()
	if !v.IsSet("playback.block_size") {
		v.Set("playback.block_size", pc.BlockSize)
	}
	if !v.IsSet("playback.min_loop") {
		v.Set("playback.min_loop", pc.MinLoop)
	}
	if !v.IsSet("playback.ui_interval") {
		v.Set("playback.ui_interval", 50*time.Millisecond)
	}
}

func setMicDefaults(v *viper.Viper) {
	mc := pitch.DefaultConfig()
	defaults := map[string]any{
		"mic.sample_rate":       mc.SampleRate,
		"mic.block_size":        mc.BlockSize,
		"mic.fmin":              mc.FMin,
		"mic.fmax":              mc.FMax,
		"mic.max_lines":         mc.MaxLines,
		"mic.silence_threshold": mc.SilenceThreshold,
		"mic.peak_ratio":        mc.PeakRatio,
		"mic.median_factor":     mc.MedianFactor,
		"mic.min_distance":      mc.MinDistance,
		"mic.min_bins":          mc.MinBins,
		"mic.queue_size":        8,
		"mic.poll_interval":     50 * time.Millisecond,
	}
	for key, value := range defaults {
		if !v.IsSet(key) {
			v.Set(key, value)
		}
	}
}

func setSynthDefaults(v *viper.Viper) {
	p := synth.DefaultParams()
	defaults := map[string]any{
		"synth.sample_rate": p.SampleRate,
		"synth.duration":    p.Duration,
		"synth.gain":        p.Gain,
		"synth.pick":        p.Pick,
		"synth.decay":       p.Decay,
		"synth.damp":        p.Damp,
		"synth.brightness":  p.Brightness,
		"synth.attack":      p.Attack,
		"synth.release":     p.Release,
		"synth.max_strum":   p.MaxStrum,
		"synth.warmth":      p.Warmth,
		"synth.air":         p.Air,
		"synth.ceiling":     p.Ceiling,
		"synth.seed":        uint64(time.Now().UnixNano()),
	}
	for key, value := range defaults {
		if !v.IsSet(key) {
			v.Set(key, value)
		}
	}
}

// GetDefaultConfig returns a Config struct with all default values set
func GetDefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	opts := spectral.DefaultOptions()
	pc := playback.DefaultConfig()

	return &Config{
		Verbose:      false,
		LogLevel:     "info",
		OutputFormat: "table",
		ConfigDir:    filepath.Join(home, ".config", "spectro-tab"),

		Spectrogram: SpectrogramConfig{
			Quality:      spectral.DefaultQualityName,
			Gamma:        tile.DefaultGamma,
			HardFMin:     70,
			HardFMax:     600,
			Percentile:   opts.Percentile,
			DynamicRange: opts.DynamicRange,
			Epsilon:      opts.Epsilon,
			Colormap:     "audacity",
		},
		Playback: PlaybackConfig{
			BlockSize:  pc.BlockSize,
			MinLoop:    pc.MinLoop,
			UIInterval: 50 * time.Millisecond,
		},
		Mic: MicConfig{
			Config:       *pitch.DefaultConfig(),
			QueueSize:    8,
			PollInterval: 50 * time.Millisecond,
		},
		Synth:   *synth.DefaultParams(),
		Decoder: *audio.DefaultDecoderConfig(),
		Fretboard: FretboardConfig{
			Tuning:  slices.Clone(notes.StandardTuning),
			MaxFret: notes.DefaultMaxFret,
		},
		Output: OutputConfig{
			Precision: 2,
			Colors:    true,
		},
	}
}
