//go:build !headless

package device

import (
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/spectro-tab/pkg/playback"
)

// Native reports whether real audio backends are compiled in
const Native = true

// oto allows a single context per process, fixed to its first sample rate
var (
	otoMu   sync.Mutex
	otoCtx  *oto.Context
	otoRate int
)

func otoContext(rate int) (*oto.Context, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx != nil {
		if rate != otoRate {
			return nil, fmt.Errorf("%w: output already running at %d Hz, cannot switch to %d Hz",
				ErrUnavailable, otoRate, rate)
		}
		return otoCtx, nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   rate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	<-ready
	otoCtx, otoRate = ctx, rate
	return ctx, nil
}

// OtoSink plays through the default output device
type OtoSink struct {
	logger logging.Logger
}

// NewOtoSink creates the output sink
func NewOtoSink(logger logging.Logger) *OtoSink {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &OtoSink{logger: logger.WithFields(logging.Fields{"component": "oto_sink"})}
}

func (s *OtoSink) Open(sampleRate, blockSize int, fill playback.FillFunc) (playback.Stream, error) {
	ctx, err := otoContext(sampleRate)
	if err != nil {
		return nil, err
	}

	r := &blockReader{fill: fill, block: make([]float32, blockSize)}
	player := ctx.NewPlayer(r)
	player.SetBufferSize(blockSize * 4)

	s.logger.Debug("Output stream opened", logging.Fields{
		"sample_rate": sampleRate,
		"block_size":  blockSize,
	})
	return &otoStream{player: player}, nil
}

type otoStream struct {
	mu     sync.Mutex
	player *oto.Player
}

func (o *otoStream) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player == nil {
		return io.ErrClosedPipe
	}
	o.player.Play()
	return nil
}

func (o *otoStream) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player == nil {
		return nil
	}
	o.player.Pause()
	err := o.player.Close()
	o.player = nil
	return err
}

func (o *otoStream) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player == nil {
		return nil
	}
	return o.player.Err()
}
