// Package playback streams a mono buffer to an output device with
// sample-accurate loop repetition.
package playback

import (
	"fmt"
	"math"
	"sync"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/spectro-tab/pkg/audio"
)

// State is the externally visible engine state
type State int

const (
	Stopped State = iota
	Playing
	Looping
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Looping:
		return "looping"
	default:
		return "stopped"
	}
}

// Config controls block size and loop validation
type Config struct {
	BlockSize int     `json:"block_size" mapstructure:"block_size"`
	MinLoop   float64 `json:"min_loop" mapstructure:"min_loop"`
}

// DefaultConfig uses 1024-sample blocks and a 30 ms minimum loop
func DefaultConfig() *Config {
	return &Config{BlockSize: 1024, MinLoop: 0.03}
}

// Engine owns the transport state and the lifetime of device streams
type Engine struct {
	config *Config
	sink   Sink
	logger logging.Logger

	t transport

	// control serialises Play/Stop/Poll so only one stream is ever open.
	// It is never taken from the device callback.
	control sync.Mutex
	stream  Stream
}

// NewEngine creates an engine writing to sink
func NewEngine(sink Sink, config *Config, logger logging.Logger) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BlockSize <= 0 {
		config.BlockSize = DefaultConfig().BlockSize
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Engine{
		config: config,
		sink:   sink,
		logger: logger.WithFields(logging.Fields{"component": "playback_engine"}),
	}
}

// SetAudio stops playback and installs buf with the playhead at 0 and no loop
func (e *Engine) SetAudio(buf *audio.SampleBuffer) {
	e.Stop()
	e.t.load(buf)
}

// Unload stops playback and drops the buffer
func (e *Engine) Unload() {
	e.SetAudio(nil)
}

// Play starts streaming from the playhead. It is a no-op while already
// playing. A linear play from the end of the track restarts at 0.
func (e *Engine) Play() error {
	e.control.Lock()
	defer e.control.Unlock()

	e.t.mu.Lock()
	if len(e.t.samples) == 0 {
		e.t.mu.Unlock()
		return ErrNoAudio
	}
	if e.t.playing {
		e.t.mu.Unlock()
		return nil
	}
	if !e.t.loop.Enabled && e.t.playhead >= e.t.duration {
		e.t.playhead = 0
	}
	e.t.playing = true
	e.t.resync = true
	rate := e.t.rate
	e.t.mu.Unlock()

	// a previous stream may have finished on its own
	e.closeStreamLocked()

	stream, err := e.sink.Open(rate, e.config.BlockSize, e.fill)
	if err != nil {
		e.halt()
		return NewPlaybackError("open", "cannot open output stream", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		e.halt()
		return NewPlaybackError("start", "cannot start output stream", err)
	}
	e.stream = stream

	e.logger.Debug("Playback started", logging.Fields{
		"playhead":   e.Playhead(),
		"block_size": e.config.BlockSize,
		"state":      e.State().String(),
	})
	return nil
}

// Pause stops producing audio but keeps the playhead. The open stream
// drains to silence and ends itself.
func (e *Engine) Pause() {
	e.halt()
}

// Stop pauses and closes the device stream. Safe to call repeatedly.
func (e *Engine) Stop() {
	e.control.Lock()
	defer e.control.Unlock()
	e.halt()
	e.closeStreamLocked()
}

// Close releases the device stream
func (e *Engine) Close() error {
	e.Stop()
	return nil
}

// SetLoop enables the region [a, b] (in either order) or disables looping.
// The change is picked up by the next block.
func (e *Engine) SetLoop(enabled bool, a, b float64) error {
	e.t.mu.Lock()
	defer e.t.mu.Unlock()

	if !enabled {
		e.t.loop = Loop{}
		return nil
	}
	if len(e.t.samples) == 0 {
		return ErrNoAudio
	}
	if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
		return fmt.Errorf("%w: non-finite bounds", ErrInvalidLoop)
	}
	if a > b {
		a, b = b, a
	}
	a = e.t.snap(math.Max(0, math.Min(a, e.t.duration)))
	b = e.t.snap(math.Max(0, math.Min(b, e.t.duration)))
	if b-a < e.config.MinLoop || b <= a {
		return fmt.Errorf("%w: %.3fs..%.3fs is shorter than %.3fs", ErrInvalidLoop, a, b, e.config.MinLoop)
	}

	e.t.loop = Loop{Enabled: true, A: a, B: b}
	e.t.resync = true
	return nil
}

// Loop returns the current loop region
func (e *Engine) Loop() Loop {
	e.t.mu.Lock()
	defer e.t.mu.Unlock()
	return e.t.loop
}

// Seek moves the playhead, clamped to the buffer
func (e *Engine) Seek(seconds float64) {
	e.t.mu.Lock()
	defer e.t.mu.Unlock()
	if math.IsNaN(seconds) {
		return
	}
	e.t.playhead = math.Max(0, math.Min(seconds, e.t.duration))
	e.t.resync = true
}

// Playhead returns the current position in seconds
func (e *Engine) Playhead() float64 {
	e.t.mu.Lock()
	defer e.t.mu.Unlock()
	return e.t.playhead
}

// Duration of the loaded buffer
func (e *Engine) Duration() float64 {
	e.t.mu.Lock()
	defer e.t.mu.Unlock()
	return e.t.duration
}

// State reports Stopped, Playing or Looping
func (e *Engine) State() State {
	e.t.mu.Lock()
	defer e.t.mu.Unlock()
	switch {
	case !e.t.playing:
		return Stopped
	case e.t.loop.Enabled:
		return Looping
	default:
		return Playing
	}
}

// Poll surfaces asynchronous device failures and releases streams that
// have finished. Call it from the control loop.
func (e *Engine) Poll() error {
	e.control.Lock()
	defer e.control.Unlock()

	if e.stream == nil {
		return nil
	}
	if err := e.stream.Err(); err != nil {
		e.logger.Error(err, "Output stream failed")
		e.halt()
		e.closeStreamLocked()
		return NewPlaybackError("stream", "output device failed", err)
	}
	if e.State() == Stopped {
		e.closeStreamLocked()
	}
	return nil
}

// fill is handed to the sink. Nothing escapes it: a panic is logged and
// turns into silence and a Stopped engine.
func (e *Engine) fill(out []float32) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			clear(out)
			e.logger.Error(fmt.Errorf("%v", r), "Playback callback panicked")
			e.halt()
			ok = false
		}
	}()
	return e.t.fill(out)
}

func (e *Engine) halt() {
	e.t.mu.Lock()
	e.t.playing = false
	e.t.mu.Unlock()
}

func (e *Engine) closeStreamLocked() {
	if e.stream == nil {
		return
	}
	if err := e.stream.Close(); err != nil {
		e.logger.Warn("Closing output stream failed", logging.Fields{"error": err.Error()})
	}
	e.stream = nil
}
