package configs

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/viper"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/spectro-tab/internal/app"
	"github.com/RyanBlaney/spectro-tab/pkg/audio"
	"github.com/RyanBlaney/spectro-tab/pkg/pitch"
	"github.com/RyanBlaney/spectro-tab/pkg/playback"
	"github.com/RyanBlaney/spectro-tab/pkg/spectral"
	"github.com/RyanBlaney/spectro-tab/pkg/synth"
	"github.com/RyanBlaney/spectro-tab/pkg/tile"
	"github.com/RyanBlaney/spectro-tab/pkg/zaplog"
)

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose      bool   `mapstructure:"verbose"`
	LogLevel     string `mapstructure:"log_level"`
	OutputFormat string `mapstructure:"output_format"`
	ConfigDir    string `mapstructure:"config_dir"`

	// Spectrogram analysis and rendering
	Spectrogram SpectrogramConfig `mapstructure:"spectrogram"`

	// Playback transport
	Playback PlaybackConfig `mapstructure:"playback"`

	// Live microphone analysis
	Mic MicConfig `mapstructure:"mic"`

	// Note preview synthesis
	Synth synth.Params `mapstructure:"synth"`

	// External decoder tools
	Decoder audio.DecoderConfig `mapstructure:"decoder"`

	// Instrument used for fingerings
	Fretboard FretboardConfig `mapstructure:"fretboard"`

	// Output configuration
	Output OutputConfig `mapstructure:"output"`
}

// SpectrogramConfig contains STFT and display settings
type SpectrogramConfig struct {
	Quality       string             `mapstructure:"quality"`
	Qualities     []spectral.Quality `mapstructure:"qualities"`
	QualitiesFile string             `mapstructure:"qualities_file"`
	Gamma         float64            `mapstructure:"gamma"`
	HardFMin      float64            `mapstructure:"hard_fmin"`
	HardFMax      float64            `mapstructure:"hard_fmax"`
	Percentile    float64            `mapstructure:"percentile"`
	DynamicRange  float64            `mapstructure:"dynamic_range"`
	Epsilon       float64            `mapstructure:"epsilon"`
	Workers       int                `mapstructure:"workers"`
	Colormap      string             `mapstructure:"colormap"`
}

// PlaybackConfig contains transport settings
type PlaybackConfig struct {
	BlockSize  int           `mapstructure:"block_size"`
	MinLoop    float64       `mapstructure:"min_loop"`
	UIInterval time.Duration `mapstructure:"ui_interval"`
}

// MicConfig contains peak extraction and capture settings
type MicConfig struct {
	pitch.Config `mapstructure:",squash"`
	QueueSize    int           `mapstructure:"queue_size"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// FretboardConfig describes the instrument as open-string MIDI pitches,
// highest string first
type FretboardConfig struct {
	Tuning  []int `mapstructure:"tuning"`
	MaxFret int   `mapstructure:"max_fret"`
}

// OutputConfig contains output formatting settings
type OutputConfig struct {
	Precision int  `mapstructure:"precision"`
	Colors    bool `mapstructure:"colors"`
}

// LoadConfig loads configuration from the global viper instance
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(viper.GetViper())
}

// LoadConfigFrom fills unset keys with defaults and decodes v
func LoadConfigFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	sg := config.Spectrogram
	if sg.Gamma <= 0 {
		return fmt.Errorf("spectrogram gamma must be positive")
	}
	if sg.HardFMin < 0 {
		return fmt.Errorf("spectrogram hard_fmin cannot be negative")
	}
	if sg.Percentile <= 0 || sg.Percentile > 100 {
		return fmt.Errorf("spectrogram percentile must be in (0, 100]")
	}
	if sg.DynamicRange <= 0 {
		return fmt.Errorf("spectrogram dynamic range must be positive")
	}
	if sg.Epsilon <= 0 {
		return fmt.Errorf("spectrogram epsilon must be positive")
	}
	if _, err := tile.LookupColormap(sg.Colormap); err != nil {
		return err
	}
	for _, q := range sg.Qualities {
		if err := q.Validate(); err != nil {
			return err
		}
	}

	if config.Playback.BlockSize <= 0 {
		return fmt.Errorf("playback block size must be positive")
	}
	if config.Playback.MinLoop <= 0 {
		return fmt.Errorf("playback minimum loop must be positive")
	}

	mic := config.Mic
	if mic.SampleRate <= 0 || mic.BlockSize <= 0 {
		return fmt.Errorf("mic sample rate and block size must be positive")
	}
	if mic.FMax <= mic.FMin {
		return fmt.Errorf("mic fmax must be above fmin")
	}
	if mic.QueueSize <= 0 {
		return fmt.Errorf("mic queue size must be positive")
	}

	if err := config.Synth.Validate(); err != nil {
		return fmt.Errorf("synth: %w", err)
	}

	if len(config.Fretboard.Tuning) == 0 {
		return fmt.Errorf("fretboard tuning needs at least one string")
	}
	if config.Fretboard.MaxFret < 0 {
		return fmt.Errorf("fretboard max fret cannot be negative")
	}

	if _, err := zaplog.ParseLevel(config.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", config.LogLevel, err)
	}

	return nil
}

// Qualities returns the quality table: the qualities file when set, then the
// inline list, then the built-in presets
func (c *Config) Qualities() ([]spectral.Quality, error) {
	if c.Spectrogram.QualitiesFile != "" {
		return spectral.LoadQualitiesFile(c.Spectrogram.QualitiesFile)
	}
	if len(c.Spectrogram.Qualities) > 0 {
		return slices.Clone(c.Spectrogram.Qualities), nil
	}
	return slices.Clone(spectral.DefaultQualities), nil
}

// SpectralOptions converts the spectrogram section for the engine
func (c *Config) SpectralOptions() *spectral.Options {
	return &spectral.Options{
		Percentile:   c.Spectrogram.Percentile,
		DynamicRange: c.Spectrogram.DynamicRange,
		Epsilon:      c.Spectrogram.Epsilon,
		Workers:      c.Spectrogram.Workers,
	}
}

// PlaybackEngineConfig converts the playback section
func (c *Config) PlaybackEngineConfig() *playback.Config {
	return &playback.Config{
		BlockSize: c.Playback.BlockSize,
		MinLoop:   c.Playback.MinLoop,
	}
}

// PitchConfig converts the mic section for the extractor
func (c *Config) PitchConfig() *pitch.Config {
	pc := c.Mic.Config
	return &pc
}

// SynthParams returns a copy of the synth section
func (c *Config) SynthParams() *synth.Params {
	p := c.Synth
	return &p
}

// DecoderConfig returns a copy of the decoder section
func (c *Config) DecoderConfig() *audio.DecoderConfig {
	d := c.Decoder
	return &d
}

// AppContext builds the session settings
func (c *Config) AppContext(logger logging.Logger) (*app.Context, error) {
	qualities, err := c.Qualities()
	if err != nil {
		return nil, fmt.Errorf("failed to load qualities: %w", err)
	}
	return &app.Context{
		Decoder:   c.DecoderConfig(),
		Spectral:  c.SpectralOptions(),
		Qualities: qualities,
		Quality:   c.Spectrogram.Quality,
		Gamma:     c.Spectrogram.Gamma,
		HardFMin:  c.Spectrogram.HardFMin,
		HardFMax:  c.Spectrogram.HardFMax,
		Playback:  c.PlaybackEngineConfig(),
		Synth:     c.SynthParams(),
		Tuning:    slices.Clone(c.Fretboard.Tuning),
		MaxFret:   c.Fretboard.MaxFret,
		Logger:    logger,
	}, nil
}
