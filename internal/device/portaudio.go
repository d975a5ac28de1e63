//go:build !headless

package device

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
)

// PortAudioSource captures mono float32 blocks from the default input
type PortAudioSource struct {
	sampleRate int
	blockSize  int
	logger     logging.Logger

	mu     sync.Mutex
	stream *portaudio.Stream
}

// NewPortAudioSource creates an input source; nothing is opened until Start
func NewPortAudioSource(sampleRate, blockSize int, logger logging.Logger) *PortAudioSource {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &PortAudioSource{
		sampleRate: sampleRate,
		blockSize:  blockSize,
		logger:     logger.WithFields(logging.Fields{"component": "portaudio_source"}),
	}
}

// Start opens the default input device and calls onBlock from the audio
// thread for every captured block. onBlock must not block.
func (s *PortAudioSource) Start(onBlock func([]float32)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream != nil {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: initialize portaudio: %v", ErrUnavailable, err)
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(s.sampleRate), s.blockSize, func(in []float32) {
		onBlock(in)
	})
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("%w: open input stream: %v", ErrUnavailable, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("%w: start input stream: %v", ErrUnavailable, err)
	}
	s.stream = stream

	s.logger.Info("Microphone capture started", logging.Fields{
		"sample_rate": s.sampleRate,
		"block_size":  s.blockSize,
	})
	return nil
}

// Close stops capture. Safe to call more than once.
func (s *PortAudioSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil {
		return nil
	}
	stopErr := s.stream.Stop()
	closeErr := s.stream.Close()
	s.stream = nil
	termErr := portaudio.Terminate()

	for _, err := range []error{stopErr, closeErr, termErr} {
		if err != nil {
			return fmt.Errorf("close input stream: %w", err)
		}
	}
	return nil
}

// Input returns the default microphone source
func Input(sampleRate, blockSize int, logger logging.Logger) (Source, error) {
	return NewPortAudioSource(sampleRate, blockSize, logger), nil
}
