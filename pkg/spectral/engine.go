// Package spectral computes full-track magnitude spectrograms in decibels
// with a fixed dynamic range anchored at a high percentile.
package spectral

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"runtime"
	"time"

	"github.com/RyanBlaney/sonido-sonar/algorithms/stats"
	"github.com/RyanBlaney/sonido-sonar/algorithms/windowing"
	"github.com/mjibson/go-dsp/fft"
	"github.com/sourcegraph/conc/pool"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/spectro-tab/pkg/audio"
)

var ErrEmptyBuffer = errors.New("cannot compute spectrogram of an empty buffer")

// Options tune the dB conversion and scheduling
type Options struct {
	// Percentile (0-100) of all dB values used as the top of the range
	Percentile float64 `json:"percentile" mapstructure:"percentile"`
	// DynamicRange in dB below the top that is kept
	DynamicRange float64 `json:"dynamic_range" mapstructure:"dynamic_range"`
	// Epsilon added to magnitudes before the log
	Epsilon float64 `json:"epsilon" mapstructure:"epsilon"`
	// Workers bounds frame-level parallelism, 0 means GOMAXPROCS
	Workers int `json:"workers" mapstructure:"workers"`
}

// DefaultOptions returns the standard 99.8th percentile / 90 dB range
func DefaultOptions() *Options {
	return &Options{
		Percentile:   99.8,
		DynamicRange: 90,
		Epsilon:      1e-10,
	}
}

// Matrix is a frequency x time grid of clamped dB values
type Matrix struct {
	Values     [][]float64 `json:"-"`
	Freqs      []float64   `json:"-"`
	Times      []float64   `json:"-"`
	VMin       float64     `json:"vmin"`
	VMax       float64     `json:"vmax"`
	Quality    Quality     `json:"quality"`
	SampleRate int         `json:"sample_rate"`
	Duration   float64     `json:"duration"`
}

// Bins is the number of frequency rows
func (m *Matrix) Bins() int { return len(m.Freqs) }

// Frames is the number of time columns
func (m *Matrix) Frames() int { return len(m.Times) }

// FreqResolution in Hz per bin
func (m *Matrix) FreqResolution() float64 {
	return float64(m.SampleRate) / float64(m.Quality.WindowSize)
}

// TimeResolution in seconds per frame
func (m *Matrix) TimeResolution() float64 {
	return float64(m.Quality.Hop()) / float64(m.SampleRate)
}

// Engine computes spectrograms
type Engine struct {
	options *Options
	logger  logging.Logger
}

// NewEngine creates an engine; nil options means DefaultOptions
func NewEngine(options *Options, logger logging.Logger) *Engine {
	if options == nil {
		options = DefaultOptions()
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Engine{
		options: options,
		logger:  logger.WithFields(logging.Fields{"component": "spectral_engine"}),
	}
}

// Options returns the engine's settings
func (e *Engine) Options() Options {
	return *e.options
}

// Compute runs the STFT over the whole buffer. Frames start at sample 0 and
// advance by the quality's hop while a full window fits; the signal is not
// padded at either end, except that a buffer too short for two frames is
// zero-padded to exactly two so every track can be rendered.
func (e *Engine) Compute(buf *audio.SampleBuffer, q Quality) (*Matrix, error) {
	if buf == nil || buf.Len() == 0 {
		return nil, ErrEmptyBuffer
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	nperseg := q.WindowSize
	hop := q.Hop()
	rate := float64(buf.SampleRate)

	logger := e.logger.WithFields(logging.Fields{
		"function":    "Compute",
		"quality":     q.Name,
		"window_size": nperseg,
		"hop":         hop,
		"samples":     buf.Len(),
	})
	start := time.Now()

	signal := buf.Samples
	if len(signal) < nperseg+hop {
		padded := make([]float64, nperseg+hop)
		copy(padded, signal)
		signal = padded
	}
	frames := 1 + (len(signal)-nperseg)/hop
	bins := q.Bins()

	win := windowing.NewHann(nperseg, false).GetCoefficients()
	winSum := 0.0
	for _, w := range win {
		winSum += w
	}
	scale := 1.0 / winSum

	// values[bin][frame]; frames are independent so each worker fills
	// whole columns.
	values := make([][]float64, bins)
	for k := range values {
		values[k] = make([]float64, frames)
	}

	workers := e.options.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	chunk := max(1, (frames+workers-1)/workers)

	p := pool.New().WithMaxGoroutines(workers)
	for first := 0; first < frames; first += chunk {
		last := min(frames, first+chunk)
		p.Go(func() {
			frame := make([]float64, nperseg)
			for i := first; i < last; i++ {
				seg := signal[i*hop : i*hop+nperseg]
				for j := range frame {
					frame[j] = seg[j] * win[j]
				}
				spectrum := fft.FFTReal(frame)
				for k := 0; k < bins; k++ {
					values[k][i] = 20 * math.Log10(cmplx.Abs(spectrum[k])*scale+e.options.Epsilon)
				}
			}
		})
	}
	p.Wait()

	vmax, err := e.percentile(values)
	if err != nil {
		return nil, err
	}
	vmin := vmax - e.options.DynamicRange
	for _, row := range values {
		for i, v := range row {
			row[i] = math.Max(vmin, math.Min(vmax, v))
		}
	}

	freqs := make([]float64, bins)
	for k := range freqs {
		freqs[k] = float64(k) * rate / float64(nperseg)
	}
	times := make([]float64, frames)
	for i := range times {
		times[i] = (float64(nperseg)/2 + float64(i*hop)) / rate
	}

	m := &Matrix{
		Values:     values,
		Freqs:      freqs,
		Times:      times,
		VMin:       vmin,
		VMax:       vmax,
		Quality:    q,
		SampleRate: buf.SampleRate,
		Duration:   buf.Duration(),
	}

	logger.Debug("Spectrogram computed", logging.Fields{
		"bins":       bins,
		"frames":     frames,
		"vmax_db":    vmax,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return m, nil
}

// percentile of every cell, linearly interpolated between order statistics
// ((n-1)p + 1 rank, the numpy default)
func (e *Engine) percentile(values [][]float64) (float64, error) {
	n := 0
	for _, row := range values {
		n += len(row)
	}
	flat := make([]float64, 0, n)
	for _, row := range values {
		flat = append(flat, row...)
	}
	return stats.NewPercentilesWithMethod(stats.Linear).CalculatePercentile(flat, e.options.Percentile)
}

// String summarises the matrix shape
func (m *Matrix) String() string {
	return fmt.Sprintf("%d bins x %d frames (%s, %.2f Hz/bin, %.1f ms/frame, %.1f..%.1f dB)",
		m.Bins(), m.Frames(), m.Quality.Name, m.FreqResolution(), m.TimeResolution()*1000, m.VMin, m.VMax)
}
