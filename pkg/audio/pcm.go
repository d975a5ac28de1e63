package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// PCMFormat is a raw little-endian interleaved sample encoding
type PCMFormat string

const (
	PCMS16LE PCMFormat = "s16le"
	PCMS32LE PCMFormat = "s32le"
	PCMF32LE PCMFormat = "f32le"
	PCMU8    PCMFormat = "u8"
)

// BytesPerSample for the format, 0 if unknown
func (f PCMFormat) BytesPerSample() int {
	switch f {
	case PCMS16LE:
		return 2
	case PCMS32LE, PCMF32LE:
		return 4
	case PCMU8:
		return 1
	default:
		return 0
	}
}

// DecodePCM converts raw interleaved PCM to mono float64 in [-1, 1]
func DecodePCM(buffer []byte, format PCMFormat, channels int) ([]float64, error) {
	width := format.BytesPerSample()
	if width == 0 {
		return nil, fmt.Errorf("unknown PCM format %q", format)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count %d", channels)
	}
	if len(buffer)%(width*channels) != 0 {
		return nil, fmt.Errorf("buffer size %d not aligned for %d-channel %s", len(buffer), channels, format)
	}

	n := len(buffer) / width
	samples := make([]float64, n)
	switch format {
	case PCMS16LE:
		for i := range n {
			samples[i] = float64(int16(binary.LittleEndian.Uint16(buffer[i*2:]))) / 32768.0
		}
	case PCMS32LE:
		for i := range n {
			samples[i] = float64(int32(binary.LittleEndian.Uint32(buffer[i*4:]))) / 2147483648.0
		}
	case PCMF32LE:
		for i := range n {
			v := float64(math.Float32frombits(binary.LittleEndian.Uint32(buffer[i*4:])))
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = 0
			}
			samples[i] = v
		}
	case PCMU8:
		for i := range n {
			// 8-bit unsigned is centred at 128
			samples[i] = (float64(buffer[i]) - 128.0) / 128.0
		}
	}

	return Downmix(samples, channels), nil
}

// intScale returns the divisor mapping signed integer samples of bitDepth
// into [-1, 1].
func intScale(bitDepth int) float64 {
	return math.Pow(2, float64(bitDepth-1))
}
