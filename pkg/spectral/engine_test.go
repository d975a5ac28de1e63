package spectral

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/spectro-tab/pkg/audio"
)

func tone(t *testing.T, freq float64, rate, n int) *audio.SampleBuffer {
	t.Helper()
	s := make([]float64, n)
	for i := range s {
		s[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	buf, err := audio.NewSampleBuffer(s, rate)
	require.NoError(t, err)
	return buf
}

func noise(t *testing.T, rate, n int) *audio.SampleBuffer {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	s := make([]float64, n)
	for i := range s {
		s[i] = rng.Float64()*2 - 1
	}
	buf, err := audio.NewSampleBuffer(s, rate)
	require.NoError(t, err)
	return buf
}

func TestComputeShapeAndBounds(t *testing.T) {
	engine := NewEngine(nil, nil)
	buf := noise(t, 8000, 20000)

	for _, q := range []Quality{
		{Name: "a", WindowSize: 256, OverlapRatio: 0.5},
		{Name: "b", WindowSize: 1024, OverlapRatio: 0.75},
		{Name: "c", WindowSize: 2048, OverlapRatio: 0.9},
	} {
		m, err := engine.Compute(buf, q)
		require.NoError(t, err, q.Name)

		assert.Equal(t, q.WindowSize/2+1, m.Bins(), q.Name)
		assert.Equal(t, 1+(buf.Len()-q.WindowSize)/q.Hop(), m.Frames(), q.Name)
		require.Len(t, m.Values, m.Bins())
		assert.InDelta(t, 90.0, m.VMax-m.VMin, 1e-9)

		for k, row := range m.Values {
			require.Len(t, row, m.Frames())
			for _, v := range row {
				if v < m.VMin || v > m.VMax {
					t.Fatalf("%s: bin %d value %v outside [%v, %v]", q.Name, k, v, m.VMin, m.VMax)
				}
			}
		}

		for k := 1; k < m.Bins(); k++ {
			assert.Greater(t, m.Freqs[k], m.Freqs[k-1])
		}
		for i := 1; i < m.Frames(); i++ {
			assert.InDelta(t, float64(q.Hop())/8000, m.Times[i]-m.Times[i-1], 1e-12)
		}
		assert.InDelta(t, float64(q.WindowSize)/2/8000, m.Times[0], 1e-12)
		assert.InDelta(t, 8000.0/2, m.Freqs[m.Bins()-1], 1e-9)
	}
}

func TestPureToneFillsNearestBin(t *testing.T) {
	// 8 Hz bins put 440 Hz exactly on bin 55
	const rate, nperseg = 8192, 1024
	buf := tone(t, 440, rate, rate*2)
	q := Quality{Name: "test", WindowSize: nperseg, OverlapRatio: 0.5}

	t.Run("argmax", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Percentile = 100
		m, err := NewEngine(opts, nil).Compute(buf, q)
		require.NoError(t, err)

		for i := 0; i < m.Frames(); i++ {
			best := 0
			for k := range m.Values {
				if m.Values[k][i] > m.Values[best][i] {
					best = k
				}
			}
			assert.Equal(t, 440.0, m.Freqs[best], "frame %d", i)
		}
	})

	t.Run("default range keeps the tone at the top", func(t *testing.T) {
		m, err := NewEngine(nil, nil).Compute(buf, q)
		require.NoError(t, err)
		for i := 0; i < m.Frames(); i++ {
			assert.Equal(t, m.VMax, m.Values[55][i], "frame %d", i)
		}
	})
}

func TestShortBufferIsPaddedToTwoFrames(t *testing.T) {
	q := Quality{Name: "short", WindowSize: 1024, OverlapRatio: 0.75}

	for _, n := range []int{1, 300, 1024, 1024 + 255} {
		buf := tone(t, 200, 8000, n)
		m, err := NewEngine(nil, nil).Compute(buf, q)
		require.NoError(t, err, n)
		assert.Equal(t, 2, m.Frames(), n)
		assert.Equal(t, 513, m.Bins(), n)
		assert.Equal(t, buf.Duration(), m.Duration, n)
	}

	m, err := NewEngine(nil, nil).Compute(tone(t, 200, 8000, 1024+256), q)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Frames())
}

func TestCDTone440AtFineQuality(t *testing.T) {
	// one second of A4 at 44.1 kHz, 4096-sample window, 75% overlap
	buf := tone(t, 440, 44100, 44100)
	q := Quality{Name: "fast", WindowSize: 4096, OverlapRatio: 0.75}

	m, err := NewEngine(nil, nil).Compute(buf, q)
	require.NoError(t, err)
	require.Equal(t, 1+(44100-4096)/1024, m.Frames())

	nearest := int(math.Round(440 * 4096 / 44100.0))
	require.Equal(t, 41, nearest)
	assert.InDelta(t, 441.43, m.Freqs[nearest], 0.01)

	for i := 0; i < m.Frames(); i++ {
		peak := m.Values[0][i]
		for k := range m.Values {
			peak = math.Max(peak, m.Values[k][i])
		}
		assert.Equal(t, peak, m.Values[nearest][i], "frame %d", i)
	}
}

func TestComputeIsIndependentOfWorkerCount(t *testing.T) {
	buf := noise(t, 8000, 30000)
	q := Quality{Name: "w", WindowSize: 512, OverlapRatio: 0.75}

	serial, err := NewEngine(&Options{Percentile: 99.8, DynamicRange: 90, Epsilon: 1e-10, Workers: 1}, nil).Compute(buf, q)
	require.NoError(t, err)
	parallel, err := NewEngine(&Options{Percentile: 99.8, DynamicRange: 90, Epsilon: 1e-10, Workers: 7}, nil).Compute(buf, q)
	require.NoError(t, err)

	assert.Equal(t, serial.Values, parallel.Values)
	assert.Equal(t, serial.VMax, parallel.VMax)
}

func TestComputeRejectsBadInput(t *testing.T) {
	engine := NewEngine(nil, nil)

	_, err := engine.Compute(nil, DefaultQualities[0])
	assert.ErrorIs(t, err, ErrEmptyBuffer)
	_, err = engine.Compute(&audio.SampleBuffer{SampleRate: 44100}, DefaultQualities[0])
	assert.ErrorIs(t, err, ErrEmptyBuffer)

	buf := tone(t, 100, 8000, 8000)
	_, err = engine.Compute(buf, Quality{Name: "bad", WindowSize: 1024, OverlapRatio: 1})
	assert.Error(t, err)
}

func TestSilenceIsFlat(t *testing.T) {
	buf, err := audio.NewSampleBuffer(make([]float64, 4096), 8000)
	require.NoError(t, err)

	m, err := NewEngine(nil, nil).Compute(buf, Quality{Name: "s", WindowSize: 1024, OverlapRatio: 0.5})
	require.NoError(t, err)
	assert.InDelta(t, -200.0, m.VMax, 1e-9)
	for _, row := range m.Values {
		for _, v := range row {
			assert.Equal(t, m.VMax, v)
		}
	}
}
