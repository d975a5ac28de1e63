package audio

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/sonido-sonar/transcode"
)

const ffmpegRemedy = "install ffmpeg or set decoder.ffmpeg_path / decoder.ffprobe_path"

// StreamLayout is the subset of ffprobe output the decoder needs
type StreamLayout struct {
	Codec      string
	CodecName  string
	SampleRate int
	Channels   int
	Bitrate    int
	Duration   float64
}

func (d *Decoder) lookPath(backend, bin, format string) (string, error) {
	resolved, err := exec.LookPath(bin)
	if err != nil {
		return "", &DecodeBackendUnavailableError{
			Format:  format,
			Backend: backend,
			Remedy:  ffmpegRemedy,
			Cause:   err,
		}
	}
	return resolved, nil
}

// CheckBackend resolves "ffmpeg" or "ffprobe" to the binary that would be run
func (d *Decoder) CheckBackend(backend string) (string, error) {
	switch backend {
	case "ffmpeg":
		return d.lookPath(backend, d.config.FFmpegPath, "")
	case "ffprobe":
		return d.lookPath(backend, d.config.FFprobePath, "")
	default:
		return "", fmt.Errorf("unknown decoder backend %q", backend)
	}
}

// transcoder builds an ffmpeg decoder producing mono float64 at sampleRate.
// Loudness normalisation stays off so levels match the native decoders.
func (d *Decoder) transcoder(ffmpeg, ffprobe string, sampleRate int) *transcode.Decoder {
	return transcode.NewDecoder(&transcode.DecoderConfig{
		TargetSampleRate:    sampleRate,
		TargetChannels:      1,
		OutputFormat:        "f64le",
		FFmpegPath:          ffmpeg,
		FFprobePath:         ffprobe,
		Timeout:             d.config.Timeout,
		EnableNormalization: false,
	})
}

// StreamInfo asks ffprobe for the first audio stream's layout
func (d *Decoder) StreamInfo(ctx context.Context, path string) (*StreamLayout, error) {
	format := FormatOf(path)
	ffprobe, err := d.lookPath("ffprobe", d.config.FFprobePath, format)
	if err != nil {
		return nil, err
	}

	meta, err := d.transcoder(d.config.FFmpegPath, ffprobe, 0).ProbeURL(ctx, path)
	if err != nil {
		return nil, NewLoadError(path, format, ErrCodeCorrupt, "ffprobe could not read file", err)
	}
	if meta.SampleRate <= 0 {
		return nil, NewLoadError(path, format, ErrCodeCorrupt, "no audio stream found", nil)
	}
	return &StreamLayout{
		Codec:      meta.Codec,
		CodecName:  meta.Format,
		SampleRate: meta.SampleRate,
		Channels:   meta.Channels,
		Bitrate:    meta.Bitrate,
		Duration:   meta.Duration,
	}, nil
}

// decodeExternal runs the file through ffmpeg as mono at its native sample
// rate.
func (d *Decoder) decodeExternal(ctx context.Context, path string) (*SampleBuffer, error) {
	format := FormatOf(path)
	ffmpeg, err := d.lookPath("ffmpeg", d.config.FFmpegPath, format)
	if err != nil {
		return nil, err
	}
	info, err := d.StreamInfo(ctx, path)
	if err != nil {
		return nil, err
	}
	ffprobe, err := d.lookPath("ffprobe", d.config.FFprobePath, format)
	if err != nil {
		return nil, err
	}

	d.logger.Debug("Decoding through ffmpeg", logging.Fields{
		"path":        path,
		"codec":       info.Codec,
		"sample_rate": info.SampleRate,
		"channels":    info.Channels,
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := d.transcoder(ffmpeg, ffprobe, info.SampleRate).DecodeFile(path)
	if err != nil {
		return nil, NewLoadError(path, format, ErrCodeDecoding, "ffmpeg could not decode file", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return NewSampleBuffer(data.PCM, data.SampleRate)
}
