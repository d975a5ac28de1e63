package device

import (
	"io"
	"math"

	"github.com/RyanBlaney/spectro-tab/pkg/playback"
)

// blockReader adapts a FillFunc to the byte stream oto pulls from. After
// fill reports the end, the padded block is drained and then EOF returned.
type blockReader struct {
	fill    playback.FillFunc
	block   []float32
	pending []byte
	done    bool
}

func (r *blockReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(r.pending) == 0 {
			if r.done {
				break
			}
			more := r.fill(r.block)
			r.pending = encodeFloat32LE(r.pending[:0], r.block)
			r.done = !more
		}
		k := copy(p[n:], r.pending)
		r.pending = r.pending[k:]
		n += k
	}
	if n == 0 && r.done {
		return 0, io.EOF
	}
	return n, nil
}

func encodeFloat32LE(dst []byte, samples []float32) []byte {
	for _, v := range samples {
		b := math.Float32bits(v)
		dst = append(dst, byte(b), byte(b>>8), byte(b>>16), byte(b>>24))
	}
	return dst
}
