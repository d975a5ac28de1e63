//go:build headless

package device

import (
	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/spectro-tab/pkg/playback"
)

// Native reports whether real audio backends are compiled in
const Native = false

// NewOtoSink falls back to a paced discard sink in headless builds
func NewOtoSink(logger logging.Logger) playback.Sink {
	return playback.DiscardSink{Realtime: true}
}

// Input has no microphone to offer in headless builds
func Input(sampleRate, blockSize int, logger logging.Logger) (Source, error) {
	return nil, ErrUnavailable
}
