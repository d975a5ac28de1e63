package notes

// StandardTuning lists open-string pitches from the highest string (E4) to the
// lowest (E2), the order tablature is read in.
var StandardTuning = []int{64, 59, 55, 50, 45, 40}

const DefaultMaxFret = 15

// Position is one way to sound a pitch: a 1-based string number (1 = highest)
// and a fret (0 = open).
type Position struct {
	String int `json:"string" yaml:"string"`
	Fret   int `json:"fret" yaml:"fret"`
}

// Fretboard maps pitches onto a fretted instrument
type Fretboard struct {
	Tuning  []int
	MaxFret int
}

// NewFretboard returns a fretboard, falling back to standard tuning and
// fifteen frets for empty arguments.
func NewFretboard(tuning []int, maxFret int) *Fretboard {
	if len(tuning) == 0 {
		tuning = StandardTuning
	}
	if maxFret <= 0 {
		maxFret = DefaultMaxFret
	}
	t := make([]int, len(tuning))
	copy(t, tuning)
	return &Fretboard{Tuning: t, MaxFret: maxFret}
}

// PitchAt returns the pitch sounded on string s (1-based) at fret
func (fb *Fretboard) PitchAt(s, fret int) (int, bool) {
	if s < 1 || s > len(fb.Tuning) || fret < 0 || fret > fb.MaxFret {
		return 0, false
	}
	return fb.Tuning[s-1] + fret, true
}

// Positions lists every string/fret that sounds pitch, highest string first
func (fb *Fretboard) Positions(pitch int) []Position {
	var out []Position
	for i, open := range fb.Tuning {
		fret := pitch - open
		if fret >= 0 && fret <= fb.MaxFret {
			out = append(out, Position{String: i + 1, Fret: fret})
		}
	}
	return out
}

// Lowest returns the position with the smallest fret, preferring the higher
// string on ties.
func (fb *Fretboard) Lowest(pitch int) (Position, bool) {
	best, found := Position{}, false
	for _, p := range fb.Positions(pitch) {
		if !found || p.Fret < best.Fret {
			best, found = p, true
		}
	}
	return best, found
}

// Range reports the lowest and highest playable pitch
func (fb *Fretboard) Range() (lo, hi int) {
	lo, hi = fb.Tuning[0], fb.Tuning[0]
	for _, open := range fb.Tuning {
		lo = min(lo, open)
		hi = max(hi, open+fb.MaxFret)
	}
	return lo, hi
}
