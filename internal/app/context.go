package app

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/spectro-tab/pkg/audio"
	"github.com/RyanBlaney/spectro-tab/pkg/notes"
	"github.com/RyanBlaney/spectro-tab/pkg/playback"
	"github.com/RyanBlaney/spectro-tab/pkg/spectral"
	"github.com/RyanBlaney/spectro-tab/pkg/synth"
	"github.com/RyanBlaney/spectro-tab/pkg/tile"
)

// Context holds the component settings a session is built from
type Context struct {
	Decoder   *audio.DecoderConfig
	Spectral  *spectral.Options
	Qualities []spectral.Quality
	Quality   string
	Gamma     float64
	HardFMin  float64
	HardFMax  float64
	Playback  *playback.Config
	Synth     *synth.Params
	Tuning    []int
	MaxFret   int

	Logger logging.Logger
}

// DefaultContext is the stock configuration with no logger set
func DefaultContext() *Context {
	return &Context{
		Decoder:   audio.DefaultDecoderConfig(),
		Spectral:  spectral.DefaultOptions(),
		Qualities: slices.Clone(spectral.DefaultQualities),
		Quality:   spectral.DefaultQualityName,
		Gamma:     tile.DefaultGamma,
		HardFMin:  70,
		HardFMax:  600,
		Playback:  playback.DefaultConfig(),
		Synth:     synth.DefaultParams(),
		Tuning:    notes.StandardTuning,
		MaxFret:   notes.DefaultMaxFret,
	}
}

// Mark is a user-placed cross on the spectrogram with its nearest note
type Mark struct {
	Time      float64          `json:"time" yaml:"time"`
	Frequency float64          `json:"frequency" yaml:"frequency"`
	Note      notes.Note       `json:"note" yaml:"note"`
	Positions []notes.Position `json:"positions" yaml:"positions"`
}

// Session owns one loaded track and everything derived from it: the
// spectrogram, the view, the marks and the player.
type Session struct {
	ctx    *Context
	logger logging.Logger

	decoder   *audio.Decoder
	engine    *spectral.Engine
	renderer  *tile.Renderer
	player    *playback.Engine
	synth     *synth.Synth
	fretboard *notes.Fretboard

	// recompute serialises Load and SetQuality; pending counts callers
	// computing or waiting to
	recompute sync.Mutex
	pending   atomic.Int32

	// buffer, quality and matrix change together under mu. The old matrix
	// stays visible while a new one is computed.
	mu      sync.RWMutex
	buffer  *audio.SampleBuffer
	quality spectral.Quality
	matrix  *spectral.Matrix
	limits  tile.Limits
	view    tile.Viewport
	marks   []Mark
}

// NewSession wires the components together. sink receives playback audio.
func NewSession(ctx *Context, sink playback.Sink) (*Session, error) {
	if ctx == nil {
		ctx = DefaultContext()
	}
	logger := ctx.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	quality, err := spectral.LookupQuality(ctx.Qualities, ctx.Quality)
	if err != nil {
		return nil, err
	}
	gamma := ctx.Gamma
	if gamma <= 0 {
		gamma = tile.DefaultGamma
	}
	ctx.Gamma = gamma

	s := &Session{
		ctx:       ctx,
		logger:    logger.WithFields(logging.Fields{"component": "session"}),
		decoder:   audio.NewDecoder(ctx.Decoder, logger),
		engine:    spectral.NewEngine(ctx.Spectral, logger),
		renderer:  tile.NewRenderer(logger),
		player:    playback.NewEngine(sink, ctx.Playback, logger),
		synth:     synth.NewSynth(ctx.Synth, logger),
		fretboard: notes.NewFretboard(ctx.Tuning, ctx.MaxFret),
		quality:   quality,
		limits:    tile.NewLimits(0, ctx.HardFMin, ctx.HardFMax),
	}
	return s, nil
}

// Load decodes path and computes its spectrogram. On any failure the
// previously loaded track stays in place.
func (s *Session) Load(ctx context.Context, path string) error {
	start := time.Now()
	buf, err := s.decoder.Decode(ctx, path)
	if err != nil {
		return err
	}

	s.pending.Add(1)
	defer s.pending.Add(-1)
	s.recompute.Lock()
	defer s.recompute.Unlock()

	m, err := s.engine.Compute(buf, s.Quality())
	if err != nil {
		return fmt.Errorf("failed to analyse %s: %w", path, err)
	}

	s.mu.Lock()
	s.buffer = buf
	s.matrix = m
	s.limits = tile.NewLimits(buf.Duration(), s.limits.FreqMin, s.limits.FreqMax)
	s.view = tile.Full(s.limits)
	s.marks = nil
	s.mu.Unlock()

	s.player.SetAudio(buf)

	s.logger.Info("Track loaded", logging.Fields{
		"path":        path,
		"sample_rate": buf.SampleRate,
		"duration_s":  buf.Duration(),
		"matrix":      m.String(),
		"elapsed_ms":  time.Since(start).Milliseconds(),
	})
	return nil
}

// Busy reports whether a spectrogram is being computed or queued
func (s *Session) Busy() bool {
	return s.pending.Load() > 0
}

// Loaded reports whether a track is present
func (s *Session) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buffer != nil
}

// Buffer returns the loaded samples, nil before Load
func (s *Session) Buffer() *audio.SampleBuffer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buffer
}

// Matrix returns the current spectrogram, nil before Load
func (s *Session) Matrix() *spectral.Matrix {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matrix
}

// Snapshot returns the buffer, the active quality and the matrix computed
// from them, read together.
func (s *Session) Snapshot() (*audio.SampleBuffer, spectral.Quality, *spectral.Matrix) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buffer, s.quality, s.matrix
}

// Quality returns the active quality preset
func (s *Session) Quality() spectral.Quality {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quality
}

// SetQuality switches preset and recomputes the spectrogram of the loaded
// track. The old matrix stays visible until the new one is ready.
func (s *Session) SetQuality(name string) error {
	q, err := spectral.LookupQuality(s.ctx.Qualities, name)
	if err != nil {
		return err
	}

	s.pending.Add(1)
	defer s.pending.Add(-1)
	s.recompute.Lock()
	defer s.recompute.Unlock()

	var m *spectral.Matrix
	if buf := s.Buffer(); buf != nil {
		if m, err = s.engine.Compute(buf, q); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.quality = q
	if m != nil {
		s.matrix = m
	}
	s.mu.Unlock()

	s.logger.Debug("Quality changed", logging.Fields{
		"quality":     q.Name,
		"window_size": q.WindowSize,
	})
	return nil
}

// Limits returns the hard bounds of the view
func (s *Session) Limits() tile.Limits {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.limits
}

// SetBand changes the hard frequency band and re-clamps the view
func (s *Session) SetBand(fmin, fmax float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limits = tile.NewLimits(s.limits.Duration, fmin, fmax)
	s.view = s.view.Clamp(s.limits)
}

// View returns the visible rectangle
func (s *Session) View() tile.Viewport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// SetView replaces the visible rectangle, clamped to the limits
func (s *Session) SetView(v tile.Viewport) tile.Viewport {
	return s.updateView(func(tile.Viewport, tile.Limits) tile.Viewport { return v })
}

// Zoom scales the view by fx, fy around (t, f)
func (s *Session) Zoom(fx, fy, t, f float64) tile.Viewport {
	return s.updateView(func(v tile.Viewport, l tile.Limits) tile.Viewport {
		return v.ZoomBy(fx, fy, t, f, l)
	})
}

// Pan shifts the view
func (s *Session) Pan(dt, df float64) tile.Viewport {
	return s.updateView(func(v tile.Viewport, l tile.Limits) tile.Viewport {
		return v.PanBy(dt, df, l)
	})
}

// SetWindow shows seconds of audio from the current left edge
func (s *Session) SetWindow(seconds float64) tile.Viewport {
	return s.updateView(func(v tile.Viewport, l tile.Limits) tile.Viewport {
		return v.WithWindow(seconds, l)
	})
}

// ResetView shows the whole track and band
func (s *Session) ResetView() tile.Viewport {
	return s.updateView(func(_ tile.Viewport, l tile.Limits) tile.Viewport {
		return tile.Full(l)
	})
}

func (s *Session) updateView(fn func(tile.Viewport, tile.Limits) tile.Viewport) tile.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = fn(s.view, s.limits).Clamp(s.limits)
	return s.view
}

// Render draws the current view of the spectrogram
func (s *Session) Render() (*tile.Tile, error) {
	s.mu.RLock()
	m, view, limits := s.matrix, s.view, s.limits
	s.mu.RUnlock()
	if m == nil {
		return nil, playback.ErrNoAudio
	}
	return s.renderer.Render(m, view, limits, s.ctx.Gamma)
}

// AddMark places a cross at (t, f), clamped to the track and band
func (s *Session) AddMark(t, f float64) (Mark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buffer == nil {
		return Mark{}, playback.ErrNoAudio
	}
	if math.IsNaN(t) || math.IsNaN(f) {
		return Mark{}, fmt.Errorf("mark at (%v, %v) is not a number", t, f)
	}
	t = math.Max(0, math.Min(t, s.limits.Duration))
	f = math.Max(s.limits.FreqMin, math.Min(f, s.limits.FreqMax))

	note := notes.Nearest(f)
	mark := Mark{
		Time:      t,
		Frequency: f,
		Note:      note,
		Positions: s.fretboard.Positions(note.Pitch),
	}
	s.marks = append(s.marks, mark)
	return mark, nil
}

// Marks returns a copy of the marks in placement order
func (s *Session) Marks() []Mark {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.marks)
}

// ClearMarks removes every mark
func (s *Session) ClearMarks() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marks = nil
}

// SelectedPitches lists the marked notes once each, in placement order
func (s *Session) SelectedPitches() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int]bool, len(s.marks))
	var out []int
	for _, m := range s.marks {
		if seen[m.Note.Pitch] {
			continue
		}
		seen[m.Note.Pitch] = true
		out = append(out, m.Note.Pitch)
	}
	return out
}

// Audition synthesises the marked notes as one strummed chord
func (s *Session) Audition() (*audio.SampleBuffer, error) {
	return s.synth.Chord(s.SelectedPitches())
}

// Player returns the playback engine bound to the loaded track
func (s *Session) Player() *playback.Engine {
	return s.player
}

// Synth returns the note synthesiser
func (s *Session) Synth() *synth.Synth {
	return s.synth
}

// Fretboard returns the instrument used for positions
func (s *Session) Fretboard() *notes.Fretboard {
	return s.fretboard
}

// Close stops playback
func (s *Session) Close() error {
	return s.player.Close()
}
