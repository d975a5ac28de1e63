// Package synth renders plucked-string previews of notes with the
// Karplus-Strong algorithm.
package synth

import (
	"math"
	"math/rand/v2"
)

// lowFrequency is the lowest pitch a string ring is sized for
const lowFrequency = 20.0

// Voice shapes a single plucked string
type Voice struct {
	// Pick blends raw noise over smoothed noise, higher is harsher
	Pick float64
	// Decay per sample, higher sustains longer
	Decay float64
	// Damp is the one-pole low-pass coefficient, higher is darker
	Damp float64
	// Brightness blends the unfiltered feedback back in
	Brightness float64
}

// Pluck renders n samples of a string tuned to freq, normalised to unit
// peak. rng drives the excitation noise.
func Pluck(freq float64, rate, n int, v Voice, rng *rand.Rand) []float64 {
	out := make([]float64, max(0, n))
	if n <= 0 || rate <= 0 {
		return out
	}

	period := max(2, int(float64(rate)/math.Max(lowFrequency, freq)))
	noise := make([]float64, period)
	for i := range noise {
		noise[i] = rng.Float64()*2 - 1
	}
	smooth := boxFilter(noise, 5)

	ring := make([]float64, period)
	for i := range ring {
		ring[i] = (1-v.Pick)*smooth[i] + v.Pick*noise[i]
	}

	br := clamp(v.Brightness, 0, 1)
	dm := clamp(v.Damp, 0, 1)
	lp := 0.0
	peak := 0.0
	for i := range out {
		j := i % period
		y := v.Decay * 0.5 * (ring[j] + ring[(i+1)%period])
		lp = (1-dm)*y + dm*lp
		val := br*y + (1-br)*lp
		ring[j] = val
		out[i] = val
		peak = math.Max(peak, math.Abs(val))
	}

	scale := 1 / (peak + 1e-9)
	for i := range out {
		out[i] *= scale
	}
	return out
}

// Envelope applies a linear fade-in over attack samples and fade-out over
// release samples, in place
func Envelope(x []float64, attack, release int) {
	n := len(x)
	attack = max(1, attack)
	release = max(1, release)

	for i := 0; i < attack && i < n; i++ {
		x[i] *= ramp(i, attack)
	}
	for i := max(0, release-n); i < release; i++ {
		x[n-release+i] *= 1 - ramp(i, release)
	}
}

// ramp is the i-th of n evenly spaced points from 0 to 1 inclusive
func ramp(i, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(i) / float64(n-1)
}

// boxFilter is a centred moving average of width k, zero outside x
func boxFilter(x []float64, k int) []float64 {
	out := make([]float64, len(x))
	half := k / 2
	for i := range x {
		sum := 0.0
		for j := i - half; j <= i+half; j++ {
			if j >= 0 && j < len(x) {
				sum += x[j]
			}
		}
		out[i] = sum / float64(k)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
