// Package pitch finds the strongest spectral peaks in short microphone
// blocks so they can be drawn as live lines over the spectrogram.
package pitch

import (
	"cmp"
	"math"
	"math/cmplx"
	"slices"
	"sort"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
)

// Config holds the extraction thresholds
type Config struct {
	SampleRate       int     `json:"sample_rate" mapstructure:"sample_rate"`
	BlockSize        int     `json:"block_size" mapstructure:"block_size"`
	FMin             float64 `json:"fmin" mapstructure:"fmin"`
	FMax             float64 `json:"fmax" mapstructure:"fmax"`
	MaxLines         int     `json:"max_lines" mapstructure:"max_lines"`
	SilenceThreshold float64 `json:"silence_threshold" mapstructure:"silence_threshold"`
	PeakRatio        float64 `json:"peak_ratio" mapstructure:"peak_ratio"`
	MedianFactor     float64 `json:"median_factor" mapstructure:"median_factor"`
	MinDistance      int     `json:"min_distance" mapstructure:"min_distance"`
	MinBins          int     `json:"min_bins" mapstructure:"min_bins"`
}

// DefaultConfig covers the guitar range at 44.1 kHz
func DefaultConfig() *Config {
	return &Config{
		SampleRate:       44100,
		BlockSize:        4096,
		FMin:             70,
		FMax:             2500,
		MaxLines:         24,
		SilenceThreshold: 0.004,
		PeakRatio:        0.02,
		MedianFactor:     3,
		MinDistance:      2,
		MinBins:          10,
	}
}

// Peak is one detected spectral line
type Peak struct {
	Frequency float64 `json:"frequency" yaml:"frequency"`
	Magnitude float64 `json:"magnitude" yaml:"magnitude"`
}

// Strength of p relative to the strongest peak, in [0, 1]
func Strength(p Peak, strongest float64) float64 {
	if strongest <= 0 {
		return 0
	}
	return math.Max(0, math.Min(1, p.Magnitude/strongest))
}

// Extractor turns sample blocks into peaks
type Extractor struct {
	config *Config
	logger logging.Logger

	// window cache keyed by block length
	win []float64
}

// NewExtractor creates an extractor; nil config means DefaultConfig
func NewExtractor(config *Config, logger logging.Logger) *Extractor {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Extractor{
		config: config,
		logger: logger.WithFields(logging.Fields{"component": "pitch_extractor"}),
	}
}

// Config returns the extractor settings
func (e *Extractor) Config() Config {
	return *e.config
}

// Extract returns up to MaxLines peaks by descending magnitude. Quiet,
// empty or featureless blocks give an empty result. Not safe for
// concurrent use.
func (e *Extractor) Extract(block []float32) []Peak {
	n := len(block)
	if n < 2 || e.config.SampleRate <= 0 {
		return nil
	}

	x := make([]float64, n)
	for i, v := range block {
		x[i] = float64(v)
	}
	floats.AddConst(-stat.Mean(x, nil), x)

	rms := math.Sqrt(floats.Dot(x, x)/float64(n) + 1e-12)
	if rms < e.config.SilenceThreshold {
		return nil
	}

	if len(e.win) != n {
		e.win = window.Hann(n)
	}
	floats.Mul(x, e.win)
	spectrum := fft.FFTReal(x)

	rate := float64(e.config.SampleRate)
	var freqs, mags []float64
	for k := 0; k <= n/2; k++ {
		f := float64(k) * rate / float64(n)
		if f < e.config.FMin || f > e.config.FMax {
			continue
		}
		freqs = append(freqs, f)
		mags = append(mags, cmplx.Abs(spectrum[k]))
	}
	if len(mags) < e.config.MinBins {
		return nil
	}

	mmax := floats.Max(mags)
	if mmax <= 1e-9 {
		return nil
	}
	threshold := math.Max(e.config.PeakRatio*mmax, e.config.MedianFactor*median(mags))

	idx := findPeaks(mags, threshold, e.config.MinDistance)
	if len(idx) == 0 {
		return nil
	}

	peaks := make([]Peak, len(idx))
	for i, k := range idx {
		peaks[i] = Peak{Frequency: freqs[k], Magnitude: mags[k]}
	}
	slices.SortStableFunc(peaks, func(a, b Peak) int {
		return cmp.Compare(b.Magnitude, a.Magnitude)
	})
	if e.config.MaxLines >= 0 && len(peaks) > e.config.MaxLines {
		peaks = peaks[:e.config.MaxLines]
	}
	return peaks
}

func median(v []float64) float64 {
	s := slices.Clone(v)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}
