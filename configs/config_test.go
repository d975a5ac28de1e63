package configs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/spectro-tab/pkg/spectral"
)

func loadYAML(t *testing.T, body string) *Config {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(body)))
	cfg, err := LoadConfigFrom(v)
	require.NoError(t, err)
	return cfg
}

func TestDefaultsMatchGetDefaultConfig(t *testing.T) {
	cfg := loadYAML(t, "synth:\n  seed: 0\n")
	assert.Equal(t, GetDefaultConfig(), cfg)
	assert.NoError(t, ValidateConfig(cfg))
}

func TestFileOverridesDefaults(t *testing.T) {
	cfg := loadYAML(t, `
log_level: debug
spectrogram:
  quality: fast
  gamma: 2
  hard_fmax: 1200
playback:
  ui_interval: 100ms
mic:
  fmax: 4000
  max_lines: 8
synth:
  duration: 2s
  seed: 42
decoder:
  ffmpeg_path: /opt/ffmpeg/bin/ffmpeg
fretboard:
  tuning: [62, 57, 53, 48, 43, 38]
`)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "fast", cfg.Spectrogram.Quality)
	assert.Equal(t, 2.0, cfg.Spectrogram.Gamma)
	assert.Equal(t, 1200.0, cfg.Spectrogram.HardFMax)
	assert.Equal(t, 70.0, cfg.Spectrogram.HardFMin)
	assert.Equal(t, 100*time.Millisecond, cfg.Playback.UIInterval)
	assert.Equal(t, 4000.0, cfg.Mic.FMax)
	assert.Equal(t, 8, cfg.Mic.MaxLines)
	assert.Equal(t, 0.004, cfg.Mic.SilenceThreshold)
	assert.Equal(t, 2*time.Second, cfg.Synth.Duration)
	assert.Equal(t, uint64(42), cfg.Synth.Seed)
	assert.Equal(t, 0.9989, cfg.Synth.Decay)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", cfg.Decoder.FFmpegPath)
	assert.Equal(t, "ffprobe", cfg.Decoder.FFprobePath)
	assert.Equal(t, []int{62, 57, 53, 48, 43, 38}, cfg.Fretboard.Tuning)
	require.NoError(t, ValidateConfig(cfg))

	pc := cfg.PitchConfig()
	assert.Equal(t, 4000.0, pc.FMax)
	assert.Equal(t, 44100, pc.SampleRate)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"gamma", func(c *Config) { c.Spectrogram.Gamma = 0 }},
		{"percentile", func(c *Config) { c.Spectrogram.Percentile = 120 }},
		{"colormap", func(c *Config) { c.Spectrogram.Colormap = "jet" }},
		{"quality", func(c *Config) {
			c.Spectrogram.Qualities = []spectral.Quality{{Name: "bad", WindowSize: 1}}
		}},
		{"block size", func(c *Config) { c.Playback.BlockSize = 0 }},
		{"mic band", func(c *Config) { c.Mic.FMax = c.Mic.FMin }},
		{"queue", func(c *Config) { c.Mic.QueueSize = 0 }},
		{"synth", func(c *Config) { c.Synth.Ceiling = 2 }},
		{"tuning", func(c *Config) { c.Fretboard.Tuning = nil }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := GetDefaultConfig()
			tt.mutate(c)
			assert.Error(t, ValidateConfig(c))
		})
	}
}

func TestQualitiesSources(t *testing.T) {
	c := GetDefaultConfig()
	q, err := c.Qualities()
	require.NoError(t, err)
	assert.Equal(t, spectral.DefaultQualities, q)

	c.Spectrogram.Qualities = []spectral.Quality{{Name: "only", WindowSize: 2048, OverlapRatio: 0.5}}
	q, err = c.Qualities()
	require.NoError(t, err)
	assert.Len(t, q, 1)

	path := filepath.Join(t.TempDir(), "qualities.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`qualities:
  - name: tiny
    window_size: 256
    overlap_ratio: 0.5
  - name: huge
    window_size: 65536
    overlap_ratio: 0.95
`), 0644))
	c.Spectrogram.QualitiesFile = path
	q, err = c.Qualities()
	require.NoError(t, err)
	require.Len(t, q, 2)
	assert.Equal(t, "huge", q[1].Name)

	c.Spectrogram.QualitiesFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = c.Qualities()
	assert.Error(t, err)
}

func TestAppContext(t *testing.T) {
	c := GetDefaultConfig()
	c.Spectrogram.Quality = "fine"
	ctx, err := c.AppContext(nil)
	require.NoError(t, err)

	assert.Equal(t, "fine", ctx.Quality)
	assert.Equal(t, 600.0, ctx.HardFMax)
	assert.Equal(t, 1024, ctx.Playback.BlockSize)
	assert.Equal(t, 99.8, ctx.Spectral.Percentile)
	assert.Equal(t, 0.24, ctx.Synth.Gain)
	assert.Equal(t, "ffmpeg", ctx.Decoder.FFmpegPath)

	// converters hand out copies
	ctx.Synth.Gain = 1
	assert.Equal(t, 0.24, c.Synth.Gain)
}
