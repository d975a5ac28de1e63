package audio

import (
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always produces interleaved stereo signed 16-bit little-endian
const mp3Channels = 2

func decodeMP3(path string) (*SampleBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, NewLoadError(path, "mp3", ErrCodeNotFound, "cannot open file", err)
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, NewLoadError(path, "mp3", ErrCodeCorrupt, "invalid MP3 stream", err)
	}

	raw, err := io.ReadAll(decoder)
	if err != nil {
		return nil, NewLoadError(path, "mp3", ErrCodeDecoding, "reading MP3 frames", err)
	}
	// drop a trailing partial frame
	frame := PCMS16LE.BytesPerSample() * mp3Channels
	raw = raw[:len(raw)-len(raw)%frame]

	mono, err := DecodePCM(raw, PCMS16LE, mp3Channels)
	if err != nil {
		return nil, NewLoadError(path, "mp3", ErrCodeDecoding, "converting samples", err)
	}
	return NewSampleBuffer(mono, decoder.SampleRate())
}
