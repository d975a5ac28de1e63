package playback

import (
	"sync"
	"time"
)

// FillFunc produces the next block of mono float32 samples. It returns
// false once the stream should end; the block it was given is still valid
// (silence-padded) output.
type FillFunc func(out []float32) bool

// Sink opens output streams on a device
type Sink interface {
	Open(sampleRate, blockSize int, fill FillFunc) (Stream, error)
}

// Stream is one open device stream
type Stream interface {
	Start() error
	Close() error
	// Err reports an asynchronous device failure, nil while healthy
	Err() error
}

// DiscardSink pulls blocks and throws them away. With Realtime set it paces
// itself at the sample rate, which is how headless playback keeps a
// meaningful playhead.
type DiscardSink struct {
	Realtime bool
}

func (s DiscardSink) Open(sampleRate, blockSize int, fill FillFunc) (Stream, error) {
	interval := time.Duration(0)
	if s.Realtime && sampleRate > 0 {
		interval = time.Duration(float64(blockSize) / float64(sampleRate) * float64(time.Second))
	}
	return &discardStream{
		fill:      fill,
		blockSize: blockSize,
		interval:  interval,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}, nil
}

type discardStream struct {
	fill      FillFunc
	blockSize int
	interval  time.Duration

	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
	stop      chan struct{}
	done      chan struct{}
}

func (d *discardStream) Start() error {
	d.startOnce.Do(func() {
		d.started = true
		go d.run()
	})
	return nil
}

func (d *discardStream) run() {
	defer close(d.done)

	block := make([]float32, d.blockSize)
	var tick <-chan time.Time
	if d.interval > 0 {
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if tick != nil {
			select {
			case <-d.stop:
				return
			case <-tick:
			}
		} else {
			select {
			case <-d.stop:
				return
			default:
			}
		}
		if !d.fill(block) {
			return
		}
	}
}

func (d *discardStream) Close() error {
	d.stopOnce.Do(func() { close(d.stop) })
	d.startOnce.Do(func() {})
	if d.started {
		<-d.done
	}
	return nil
}

func (d *discardStream) Err() error { return nil }
