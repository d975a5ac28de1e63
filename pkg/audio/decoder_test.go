package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(freq float64, rate, n int, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return out
}

func TestWAVRoundTrip(t *testing.T) {
	const rate = 22050
	in, err := NewSampleBuffer(sine(440, rate, rate/2, 0.8), rate)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "tone.wav")
	require.NoError(t, WriteWAVFile(path, in))

	out, err := NewDecoder(nil, nil).Decode(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, rate, out.SampleRate)
	assert.Equal(t, in.Len(), out.Len())
	assert.Equal(t, path, out.Source)
	assert.InDelta(t, in.Duration(), out.Duration(), 1e-9)
	for i := 0; i < in.Len(); i += 97 {
		assert.InDelta(t, in.Samples[i], out.Samples[i], 2.0/32767)
	}
}

func TestStereoWAVIsAveragedToMono(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, 8000, 16, 2, 1)
	data := make([]int, 2*800)
	for i := 0; i < len(data); i += 2 {
		data[i] = 16384
		data[i+1] = 0
	}
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: 8000},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	buf, err := NewDecoder(nil, nil).Decode(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 800, buf.Len())
	assert.Equal(t, 8000, buf.SampleRate)
	for _, s := range buf.Samples {
		assert.InDelta(t, 0.25, s, 1e-4)
	}
}

func TestDecodeErrors(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	dec := NewDecoder(&DecoderConfig{
		FFmpegPath:  filepath.Join(dir, "no-such-ffmpeg"),
		FFprobePath: filepath.Join(dir, "no-such-ffprobe"),
	}, nil)

	t.Run("missing file", func(t *testing.T) {
		_, err := dec.Decode(ctx, filepath.Join(dir, "absent.wav"))
		var lerr *LoadError
		require.True(t, errors.As(err, &lerr))
		assert.Equal(t, ErrCodeNotFound, lerr.Code)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "notes.txt")
		require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
		_, err := dec.Decode(ctx, path)
		var lerr *LoadError
		require.True(t, errors.As(err, &lerr))
		assert.Equal(t, ErrCodeUnsupported, lerr.Code)
		assert.Equal(t, "txt", lerr.Format)
	})

	t.Run("corrupt wav", func(t *testing.T) {
		path := filepath.Join(dir, "junk.wav")
		require.NoError(t, os.WriteFile(path, []byte("definitely not a riff header"), 0o644))
		_, err := dec.Decode(ctx, path)
		var lerr *LoadError
		require.True(t, errors.As(err, &lerr))
		assert.Equal(t, ErrCodeCorrupt, lerr.Code)
	})

	t.Run("external backend missing", func(t *testing.T) {
		path := filepath.Join(dir, "take.flac")
		require.NoError(t, os.WriteFile(path, []byte("fLaC"), 0o644))
		_, err := dec.Decode(ctx, path)
		var berr *DecodeBackendUnavailableError
		require.True(t, errors.As(err, &berr))
		assert.Equal(t, "flac", berr.Format)
		assert.Equal(t, "ffmpeg", berr.Backend)
		assert.Contains(t, berr.Error(), "install ffmpeg")
	})

	t.Run("check backend", func(t *testing.T) {
		for _, backend := range []string{"ffmpeg", "ffprobe"} {
			_, err := dec.CheckBackend(backend)
			var berr *DecodeBackendUnavailableError
			require.True(t, errors.As(err, &berr), backend)
			assert.Equal(t, backend, berr.Backend)
		}
		_, err := dec.CheckBackend("sox")
		assert.Error(t, err)
	})
}

func TestDecodePCM(t *testing.T) {
	s16 := make([]byte, 8)
	binary.LittleEndian.PutUint16(s16[0:], uint16(16384))
	neg := int16(-16384)
	binary.LittleEndian.PutUint16(s16[2:], uint16(neg))
	binary.LittleEndian.PutUint16(s16[4:], 0)
	binary.LittleEndian.PutUint16(s16[6:], uint16(16384))

	mono, err := DecodePCM(s16, PCMS16LE, 2)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.25}, mono, 1e-9)

	f32 := make([]byte, 8)
	binary.LittleEndian.PutUint32(f32[0:], math.Float32bits(0.5))
	binary.LittleEndian.PutUint32(f32[4:], math.Float32bits(float32(math.NaN())))
	got, err := DecodePCM(f32, PCMF32LE, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0}, got)

	u8, err := DecodePCM([]byte{128, 255, 0}, PCMU8, 1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 127.0 / 128, -1}, u8, 1e-12)

	_, err = DecodePCM([]byte{1, 2, 3}, PCMS16LE, 1)
	assert.Error(t, err)
	_, err = DecodePCM([]byte{1, 2}, "s24le", 1)
	assert.Error(t, err)
}

func TestSampleBuffer(t *testing.T) {
	_, err := NewSampleBuffer(nil, 44100)
	assert.ErrorIs(t, err, ErrEmptyAudio)
	_, err = NewSampleBuffer([]float64{0}, 0)
	assert.Error(t, err)

	buf, err := NewSampleBuffer(make([]float64, 44100*3), 44100)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, buf.Duration(), 1e-12)
	assert.Equal(t, 44100, buf.IndexAt(1.0))

	buf.Samples[10] = -0.7
	assert.InDelta(t, 0.7, buf.Peak(), 1e-12)
}

// extensibleWAV builds a WAVE_FORMAT_EXTENSIBLE file with the given
// SubFormat code and raw sample data.
func extensibleWAV(t *testing.T, subFormat uint16, bits uint16, data []byte) string {
	t.Helper()
	const rate, channels = 8000, 1
	blockAlign := channels * bits / 8

	fmtChunk := make([]byte, 40)
	le := binary.LittleEndian
	le.PutUint16(fmtChunk[0:], 0xFFFE)
	le.PutUint16(fmtChunk[2:], channels)
	le.PutUint32(fmtChunk[4:], rate)
	le.PutUint32(fmtChunk[8:], rate*uint32(blockAlign))
	le.PutUint16(fmtChunk[12:], blockAlign)
	le.PutUint16(fmtChunk[14:], bits)
	le.PutUint16(fmtChunk[16:], 22)
	le.PutUint16(fmtChunk[18:], bits)
	le.PutUint32(fmtChunk[20:], 0x4)
	guid := []byte{0, 0, 0, 0, 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71}
	le.PutUint16(guid[0:], subFormat)
	copy(fmtChunk[24:], guid)

	var file []byte
	file = append(file, "RIFF"...)
	file = le.AppendUint32(file, uint32(4+8+len(fmtChunk)+8+len(data)))
	file = append(file, "WAVE"...)
	file = append(file, "fmt "...)
	file = le.AppendUint32(file, uint32(len(fmtChunk)))
	file = append(file, fmtChunk...)
	file = append(file, "data"...)
	file = le.AppendUint32(file, uint32(len(data)))
	file = append(file, data...)

	path := filepath.Join(t.TempDir(), "extensible.wav")
	require.NoError(t, os.WriteFile(path, file, 0o644))
	return path
}

func TestExtensibleWAV(t *testing.T) {
	ctx := context.Background()
	le := binary.LittleEndian

	t.Run("float subformat", func(t *testing.T) {
		want := []float64{0.5, -0.25, 0.125, 0}
		var data []byte
		for _, v := range want {
			data = le.AppendUint32(data, math.Float32bits(float32(v)))
		}

		buf, err := NewDecoder(nil, nil).Decode(ctx, extensibleWAV(t, 3, 32, data))
		require.NoError(t, err)
		assert.Equal(t, 8000, buf.SampleRate)
		assert.InDeltaSlice(t, want, buf.Samples, 1e-9)
	})

	t.Run("pcm subformat", func(t *testing.T) {
		var data []byte
		for _, v := range []int16{16384, -16384} {
			data = le.AppendUint16(data, uint16(v))
		}

		buf, err := NewDecoder(nil, nil).Decode(ctx, extensibleWAV(t, 1, 16, data))
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{0.5, -0.5}, buf.Samples, 1e-9)
	})

	t.Run("unknown subformat", func(t *testing.T) {
		_, err := NewDecoder(nil, nil).Decode(ctx, extensibleWAV(t, 0x55, 16, make([]byte, 8)))
		var lerr *LoadError
		require.True(t, errors.As(err, &lerr))
		assert.Equal(t, ErrCodeUnsupported, lerr.Code)
	})
}
