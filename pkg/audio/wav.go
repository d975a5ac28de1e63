package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/riff"
	"github.com/go-audio/wav"
)

// WAV format tags
const (
	wavFormatPCM        = 1
	wavFormatFloat      = 3
	wavFormatExtensible = 0xFFFE
)

// wavSubFormat reads the format code from the SubFormat GUID of a
// WAVE_FORMAT_EXTENSIBLE fmt chunk.
func wavSubFormat(path string) (uint16, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	p := riff.New(f)
	if err := p.ParseHeaders(); err != nil {
		return 0, err
	}
	for {
		ch, err := p.NextChunk()
		if err != nil {
			return 0, err
		}
		if ch.ID != riff.FmtID {
			ch.Drain()
			continue
		}
		if ch.Size < 40 {
			return 0, fmt.Errorf("extensible fmt chunk is %d bytes, want 40", ch.Size)
		}
		body := make([]byte, 26)
		if _, err := io.ReadFull(ch, body); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint16(body[24:]), nil
	}
}

func decodeWAV(path string) (*SampleBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, NewLoadError(path, "wav", ErrCodeNotFound, "cannot open file", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, NewLoadError(path, "wav", ErrCodeCorrupt, "invalid WAV file", nil)
	}
	if err := decoder.FwdToPCM(); err != nil {
		return nil, NewLoadError(path, "wav", ErrCodeCorrupt, "missing PCM chunk", err)
	}

	format := decoder.Format()
	bitDepth := int(decoder.SampleBitDepth())
	if bitDepth == 0 || format == nil || format.NumChannels == 0 {
		return nil, NewLoadError(path, "wav", ErrCodeCorrupt, "unknown sample layout", nil)
	}

	audioFormat := decoder.WavAudioFormat
	if audioFormat == wavFormatExtensible {
		sub, err := wavSubFormat(path)
		if err != nil {
			return nil, NewLoadError(path, "wav", ErrCodeCorrupt, "unreadable extensible format chunk", err)
		}
		audioFormat = sub
	}
	switch {
	case audioFormat == wavFormatPCM:
	case audioFormat == wavFormatFloat && bitDepth == 32:
	default:
		return nil, NewLoadError(path, "wav", ErrCodeUnsupported,
			fmt.Sprintf("unsupported WAV encoding (format %#x, %d-bit)", audioFormat, bitDepth), nil)
	}

	bytesPerSample := (bitDepth-1)/8 + 1
	nsamples := int(decoder.PCMLen()) / bytesPerSample
	buf := &goaudio.IntBuffer{
		Format:         format,
		Data:           make([]int, nsamples),
		SourceBitDepth: bitDepth,
	}
	n, err := decoder.PCMBuffer(buf)
	if err != nil {
		return nil, NewLoadError(path, "wav", ErrCodeDecoding, "reading PCM data", err)
	}
	data := buf.Data[:n]

	interleaved := make([]float64, len(data))
	switch {
	case audioFormat == wavFormatFloat:
		for i, v := range data {
			interleaved[i] = float64(math.Float32frombits(uint32(v)))
		}
	case bitDepth == 8:
		for i, v := range data {
			interleaved[i] = (float64(v) - 128.0) / 128.0
		}
	default:
		factor := intScale(bitDepth)
		for i, v := range data {
			interleaved[i] = float64(v) / factor
		}
	}

	return NewSampleBuffer(Downmix(interleaved, format.NumChannels), format.SampleRate)
}

// EncodeWAV writes buf as 16-bit mono PCM, clipping to [-1, 1]
func EncodeWAV(w io.WriteSeeker, buf *SampleBuffer) error {
	if buf == nil || buf.SampleRate <= 0 {
		return fmt.Errorf("cannot encode empty buffer")
	}
	enc := wav.NewEncoder(w, buf.SampleRate, 16, 1, 1)

	intBuf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: 1,
			SampleRate:  buf.SampleRate,
		},
		Data:           make([]int, len(buf.Samples)),
		SourceBitDepth: 16,
	}
	for i, s := range buf.Samples {
		intBuf.Data[i] = int(math.Max(-1, math.Min(1, s)) * 32767)
	}
	if err := enc.Write(intBuf); err != nil {
		enc.Close()
		return fmt.Errorf("failed to write WAV data: %w", err)
	}
	return enc.Close()
}

// WriteWAVFile is EncodeWAV to a newly created file
func WriteWAVFile(path string, buf *SampleBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeWAV(f, buf); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
