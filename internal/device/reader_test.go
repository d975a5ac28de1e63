package device

import (
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockReaderEncodesAndEnds(t *testing.T) {
	calls := 0
	r := &blockReader{
		block: make([]float32, 3),
		fill: func(out []float32) bool {
			calls++
			for i := range out {
				out[i] = float32(calls*10 + i)
			}
			return calls < 2
		},
	}

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Len(t, data, 6*4)

	want := []float32{10, 11, 12, 20, 21, 22}
	for i, w := range want {
		got := math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		assert.Equal(t, w, got)
	}
	assert.Equal(t, 2, calls)

	n, err := r.Read(make([]byte, 8))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)
}

func TestBlockReaderSplitsOddReads(t *testing.T) {
	r := &blockReader{
		block: make([]float32, 2),
		fill: func(out []float32) bool {
			out[0], out[1] = 1, -1
			return true
		},
	}

	buf := make([]byte, 5)
	for range 10 {
		n, err := r.Read(buf)
		require.NoError(t, err)
		assert.Equal(t, 5, n)
	}
}

func TestHeadlessOutputIsDiscardSink(t *testing.T) {
	sink := Output(true)
	stream, err := sink.Open(8000, 64, func(out []float32) bool { return false })
	require.NoError(t, err)
	require.NoError(t, stream.Start())
	assert.NoError(t, stream.Close())
	assert.NoError(t, stream.Err())
}
