package notes

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPitchFrequencyRoundTrip(t *testing.T) {
	for m := 0; m <= 127; m++ {
		f := PitchToFreq(float64(m))
		assert.InDelta(t, float64(m), FreqToPitch(f), 1e-9, "pitch %d", m)
	}
}

func TestFreqToPitchGuardsNonPositive(t *testing.T) {
	for _, f := range []float64{0, -10} {
		p := FreqToPitch(f)
		assert.False(t, math.IsInf(p, 0) || math.IsNaN(p), "f=%v", f)
	}
}

func TestNearest(t *testing.T) {
	n := Nearest(440)
	assert.Equal(t, "A4", n.Name)
	assert.Equal(t, 69, n.Pitch)
	assert.InDelta(t, 440.0, n.Frequency, 1e-9)
	assert.InDelta(t, 0.0, n.Cents, 1e-9)

	// a quarter tone sharp of E2 still rounds down
	sharp := Nearest(PitchToFreq(40.4))
	assert.Equal(t, "E2", sharp.Name)
	assert.InDelta(t, 40.0, sharp.Cents, 1e-6)

	flat := Nearest(PitchToFreq(59.6))
	assert.Equal(t, "C4", flat.Name)
	assert.InDelta(t, -40.0, flat.Cents, 1e-6)
}

func TestPitchName(t *testing.T) {
	tests := map[int]string{
		0:   "C-1",
		11:  "B-1",
		12:  "C0",
		40:  "E2",
		60:  "C4",
		61:  "C#4",
		69:  "A4",
		127: "G9",
		-1:  "B-2",
	}
	for m, want := range tests {
		assert.Equal(t, want, PitchName(m), "pitch %d", m)
	}
}

func TestParseNote(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"A4", 69},
		{"a4", 69},
		{"C#4", 61},
		{"Db4", 61},
		{"Bb2", 46},
		{"E", 64},
		{"E2", 40},
		{"C-1", 0},
	}
	for _, tt := range tests {
		got, err := ParseNote(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "H2", "A#x"} {
		_, err := ParseNote(bad)
		assert.True(t, errors.Is(err, ErrInvalidNote), bad)
	}
}

func TestParseNoteAgreesWithPitchName(t *testing.T) {
	for m := 0; m <= 127; m++ {
		got, err := ParseNote(PitchName(m))
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
}
