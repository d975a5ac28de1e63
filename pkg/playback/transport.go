package playback

import (
	"math"
	"sync"

	"github.com/RyanBlaney/spectro-tab/pkg/audio"
)

// Loop is an optional repeat region in seconds, A <= B
type Loop struct {
	Enabled bool    `json:"enabled"`
	A       float64 `json:"a"`
	B       float64 `json:"b"`
}

// transport is the state shared between control calls and the device
// callback. Every field is guarded by mu, and mu is never held across
// device I/O.
type transport struct {
	mu sync.Mutex

	samples  []float64
	rate     int
	duration float64

	playing  bool
	playhead float64
	loop     Loop

	// cursor is the next sample to emit. It carries sub-block position
	// between callbacks so block boundaries never skip or repeat samples;
	// resync re-derives it from playhead after a seek or loop edit.
	cursor int
	resync bool
}

func (t *transport) load(buf *audio.SampleBuffer) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.playing = false
	t.playhead = 0
	t.cursor = 0
	t.resync = true
	t.loop = Loop{}
	if buf == nil {
		t.samples, t.rate, t.duration = nil, 0, 0
		return
	}
	t.samples = buf.Samples
	t.rate = buf.SampleRate
	t.duration = buf.Duration()
}

// snap rounds seconds to the nearest sample boundary. Caller holds mu.
func (t *transport) snap(seconds float64) float64 {
	if t.rate <= 0 {
		return seconds
	}
	rate := float64(t.rate)
	return math.Round(seconds*rate) / rate
}

// sampleIndex is the sample at seconds, tolerating float error just
// below a sample boundary.
func sampleIndex(seconds, rate float64) int {
	return int(math.Floor(seconds*rate + 1e-6))
}

// fill writes the next len(out) samples and reports whether the stream
// should keep running. Silence is written whenever nothing is playing.
func (t *transport) fill(out []float32) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.playing || len(t.samples) == 0 {
		clear(out)
		return false
	}

	rate := float64(t.rate)
	n := len(t.samples)

	if t.loop.Enabled && (t.playhead < t.loop.A || t.playhead >= t.loop.B) {
		t.playhead = t.loop.A
		t.resync = true
	}
	if t.resync {
		t.cursor = sampleIndex(t.playhead, rate)
		t.resync = false
	}

	idx := t.cursor
	if idx >= n {
		clear(out)
		t.playing = false
		return false
	}

	if t.loop.Enabled {
		start := int(math.Round(t.loop.A * rate))
		end := max(start+1, min(int(math.Round(t.loop.B*rate)), n))

		cur := idx
		for pos := 0; pos < len(out); {
			if cur >= end || cur < start {
				cur = start
			}
			take := min(len(out)-pos, end-cur)
			for j := range take {
				out[pos+j] = float32(t.samples[cur+j])
			}
			pos += take
			cur += take
		}
		if cur >= end {
			cur = start
		}
		t.cursor = cur
		// the playhead follows the cursor so the two never drift apart
		t.playhead = float64(cur) / rate
		return true
	}

	end := idx + len(out)
	if end >= n {
		k := copyTo(out, t.samples[idx:])
		clear(out[k:])
		t.playhead = t.duration
		t.cursor = n
		t.playing = false
		return false
	}

	copyTo(out, t.samples[idx:end])
	t.cursor = end
	t.playhead += float64(len(out)) / rate
	return true
}

func copyTo(dst []float32, src []float64) int {
	k := min(len(dst), len(src))
	for i := range k {
		dst[i] = float32(src[i])
	}
	return k
}
