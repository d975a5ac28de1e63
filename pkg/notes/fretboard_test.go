package notes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPositionsStandardTuning(t *testing.T) {
	fb := NewFretboard(nil, 0)

	// A4 is 5th fret on the high E, 10th on B, 14th on G
	assert.Equal(t, []Position{
		{String: 1, Fret: 5},
		{String: 2, Fret: 10},
		{String: 3, Fret: 14},
	}, fb.Positions(69))

	assert.Equal(t, []Position{{String: 6, Fret: 0}}, fb.Positions(40))
	assert.Empty(t, fb.Positions(39))
	assert.Empty(t, fb.Positions(64+16))
}

func TestPitchAtInvertsPositions(t *testing.T) {
	fb := NewFretboard(StandardTuning, 15)
	lo, hi := fb.Range()
	assert.Equal(t, 40, lo)
	assert.Equal(t, 79, hi)

	for p := lo; p <= hi; p++ {
		for _, pos := range fb.Positions(p) {
			got, ok := fb.PitchAt(pos.String, pos.Fret)
			assert.True(t, ok)
			assert.Equal(t, p, got)
		}
	}

	_, ok := fb.PitchAt(0, 1)
	assert.False(t, ok)
	_, ok = fb.PitchAt(1, 16)
	assert.False(t, ok)
}

func TestLowest(t *testing.T) {
	fb := NewFretboard(nil, 0)

	pos, ok := fb.Lowest(59)
	assert.True(t, ok)
	assert.Equal(t, Position{String: 2, Fret: 0}, pos)

	_, ok = fb.Lowest(20)
	assert.False(t, ok)
}

func TestNewFretboardCopiesTuning(t *testing.T) {
	tuning := []int{62, 57, 50}
	fb := NewFretboard(tuning, 12)
	tuning[0] = 0
	assert.Equal(t, 62, fb.Tuning[0])
}
