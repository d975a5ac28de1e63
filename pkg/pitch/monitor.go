package pitch

import (
	"context"
	"slices"
	"sync/atomic"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
)

// Monitor carries blocks from an input callback to a polling consumer.
// Push never blocks; when the queue is full the oldest block is dropped.
type Monitor struct {
	extractor *Extractor
	queue     chan []float32
	dropped   atomic.Uint64
	logger    logging.Logger
}

// NewMonitor creates a monitor with room for size blocks
func NewMonitor(extractor *Extractor, size int, logger logging.Logger) *Monitor {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Monitor{
		extractor: extractor,
		queue:     make(chan []float32, size),
		logger:    logger.WithFields(logging.Fields{"component": "pitch_monitor"}),
	}
}

// Push copies block into the queue. Safe to call from a device callback.
func (m *Monitor) Push(block []float32) {
	b := slices.Clone(block)
	for {
		select {
		case m.queue <- b:
			return
		default:
		}
		select {
		case <-m.queue:
			m.dropped.Add(1)
		default:
		}
	}
}

// Latest drains the queue and returns the newest block, or nil
func (m *Monitor) Latest() []float32 {
	var last []float32
	for {
		select {
		case b := <-m.queue:
			last = b
		default:
			return last
		}
	}
}

// Dropped counts blocks discarded because the consumer fell behind
func (m *Monitor) Dropped() uint64 {
	return m.dropped.Load()
}

// Run polls every interval until ctx is done and hands the peaks of the
// newest block to fn. Ticks with no new block are skipped.
func (m *Monitor) Run(ctx context.Context, interval time.Duration, fn func([]Peak)) error {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Debug("Pitch monitor stopped", logging.Fields{
				"dropped_blocks": m.Dropped(),
			})
			return ctx.Err()
		case <-ticker.C:
			block := m.Latest()
			if block == nil {
				continue
			}
			fn(m.extractor.Extract(block))
		}
	}
}
