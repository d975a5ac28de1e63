package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
)

// DecoderConfig controls the external decode path
type DecoderConfig struct {
	FFmpegPath  string        `json:"ffmpeg_path" mapstructure:"ffmpeg_path"`
	FFprobePath string        `json:"ffprobe_path" mapstructure:"ffprobe_path"`
	Timeout     time.Duration `json:"timeout" mapstructure:"timeout"`
}

// DefaultDecoderConfig resolves ffmpeg and ffprobe from PATH
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		Timeout:     2 * time.Minute,
	}
}

// Decoder turns audio files into mono SampleBuffers. WAV and MP3 are decoded
// in-process; FLAC, Ogg, AIFF and friends go through ffmpeg.
type Decoder struct {
	config *DecoderConfig
	logger logging.Logger
}

// NewDecoder creates a decoder; nil config means DefaultDecoderConfig
func NewDecoder(config *DecoderConfig, logger logging.Logger) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Decoder{
		config: config,
		logger: logger.WithFields(logging.Fields{"component": "audio_decoder"}),
	}
}

type decodeFunc func(d *Decoder, ctx context.Context, path string) (*SampleBuffer, error)

var decoders = map[string]decodeFunc{
	"wav":  func(d *Decoder, _ context.Context, path string) (*SampleBuffer, error) { return decodeWAV(path) },
	"wave": func(d *Decoder, _ context.Context, path string) (*SampleBuffer, error) { return decodeWAV(path) },
	"mp3":  func(d *Decoder, _ context.Context, path string) (*SampleBuffer, error) { return decodeMP3(path) },
	"flac": (*Decoder).decodeExternal,
	"ogg":  (*Decoder).decodeExternal,
	"oga":  (*Decoder).decodeExternal,
	"opus": (*Decoder).decodeExternal,
	"aiff": (*Decoder).decodeExternal,
	"aif":  (*Decoder).decodeExternal,
	"m4a":  (*Decoder).decodeExternal,
	"aac":  (*Decoder).decodeExternal,
}

// SupportedFormats lists the file extensions Decode accepts
func SupportedFormats() []string {
	return []string{"wav", "mp3", "flac", "ogg", "oga", "opus", "aiff", "aif", "m4a", "aac"}
}

// FormatOf returns the lower-case extension of path without the dot
func FormatOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// Decode reads path into a mono buffer. Failures are *LoadError or
// *DecodeBackendUnavailableError.
func (d *Decoder) Decode(ctx context.Context, path string) (*SampleBuffer, error) {
	format := FormatOf(path)
	logger := d.logger.WithFields(logging.Fields{
		"path":   path,
		"format": format,
	})

	if _, err := os.Stat(path); err != nil {
		code := ErrCodeCorrupt
		if errors.Is(err, os.ErrNotExist) {
			code = ErrCodeNotFound
		}
		return nil, NewLoadError(path, format, code, "cannot open file", err)
	}

	decode, ok := decoders[format]
	if !ok {
		return nil, NewLoadError(path, format, ErrCodeUnsupported, "unsupported audio format", nil)
	}

	start := time.Now()
	buf, err := decode(d, ctx, path)
	if err != nil {
		var lerr *LoadError
		var berr *DecodeBackendUnavailableError
		if errors.As(err, &lerr) || errors.As(err, &berr) {
			return nil, err
		}
		if errors.Is(err, ErrEmptyAudio) {
			return nil, NewLoadError(path, format, ErrCodeEmpty, "file contains no audio", err)
		}
		return nil, NewLoadError(path, format, ErrCodeDecoding, "decoding failed", err)
	}
	if buf.Len() == 0 {
		return nil, NewLoadError(path, format, ErrCodeEmpty, "file contains no audio", ErrEmptyAudio)
	}
	buf.Source = path

	logger.Debug("Decoded audio file", logging.Fields{
		"sample_rate": buf.SampleRate,
		"samples":     buf.Len(),
		"duration":    buf.Duration(),
		"elapsed_ms":  time.Since(start).Milliseconds(),
	})
	return buf, nil
}
