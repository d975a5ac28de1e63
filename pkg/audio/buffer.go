// Package audio holds the in-memory mono sample buffer and the file
// decoding that produces it.
package audio

import (
	"errors"
	"fmt"
	"math"
)

var ErrEmptyAudio = errors.New("audio buffer has no samples")

// SampleBuffer is a decoded mono track. It is not modified after loading;
// consumers share it read-only and a new load replaces it wholesale.
type SampleBuffer struct {
	Samples    []float64 `json:"-"`
	SampleRate int       `json:"sample_rate"`
	Source     string    `json:"source,omitempty"`
}

// NewSampleBuffer validates and wraps decoded samples
func NewSampleBuffer(samples []float64, sampleRate int) (*SampleBuffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if len(samples) == 0 {
		return nil, ErrEmptyAudio
	}
	return &SampleBuffer{Samples: samples, SampleRate: sampleRate}, nil
}

// Len is the number of samples
func (b *SampleBuffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Samples)
}

// Duration in seconds
func (b *SampleBuffer) Duration() float64 {
	if b == nil || b.SampleRate == 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// IndexAt converts a time in seconds to a sample index, truncating
func (b *SampleBuffer) IndexAt(t float64) int {
	return int(t * float64(b.SampleRate))
}

// Peak returns the largest absolute sample value
func (b *SampleBuffer) Peak() float64 {
	peak := 0.0
	for _, s := range b.Samples {
		peak = math.Max(peak, math.Abs(s))
	}
	return peak
}

// Downmix averages interleaved frames of the given channel count into mono
func Downmix(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		return interleaved
	}
	frames := len(interleaved) / channels
	mono := make([]float64, frames)
	scale := 1.0 / float64(channels)
	for i := range frames {
		sum := 0.0
		for c := range channels {
			sum += interleaved[i*channels+c]
		}
		mono[i] = sum * scale
	}
	return mono
}
