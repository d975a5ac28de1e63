// Package notes converts between frequencies, MIDI pitch numbers and note
// names in twelve-tone equal temperament (A4 = 440 Hz).
package notes

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	A4Frequency = 440.0
	A4Pitch     = 69

	// minFrequency keeps log2 finite for zero or negative input
	minFrequency = 1e-9
)

// Names are the sharp spellings indexed by pitch class
var Names = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var ErrInvalidNote = errors.New("invalid note name")

// Note is the nearest equal-tempered note to a measured frequency
type Note struct {
	Name      string  `json:"name" yaml:"name"`
	Pitch     int     `json:"pitch" yaml:"pitch"`
	Frequency float64 `json:"frequency" yaml:"frequency"`
	Cents     float64 `json:"cents" yaml:"cents"`
}

// FreqToPitch returns the fractional MIDI pitch of f
func FreqToPitch(f float64) float64 {
	return A4Pitch + 12*math.Log2(math.Max(f, minFrequency)/A4Frequency)
}

// PitchToFreq returns the frequency of a (possibly fractional) MIDI pitch
func PitchToFreq(p float64) float64 {
	return A4Frequency * math.Pow(2, (p-A4Pitch)/12)
}

// PitchName renders pitch m as a name with octave, e.g. 60 -> "C4"
func PitchName(m int) string {
	octave := floorDiv(m, 12) - 1
	return Names[m-floorDiv(m, 12)*12] + strconv.Itoa(octave)
}

// Nearest rounds f to the closest note
func Nearest(f float64) Note {
	p := FreqToPitch(f)
	m := int(math.Round(p))
	return Note{
		Name:      PitchName(m),
		Pitch:     m,
		Frequency: PitchToFreq(float64(m)),
		Cents:     100 * (p - float64(m)),
	}
}

var letterOffsets = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// ParseNote parses names like "A4", "c#3", "Bb2" or "E" (octave 4 assumed)
func ParseNote(s string) (int, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	if up == "" {
		return 0, ErrInvalidNote
	}
	base, ok := letterOffsets[up[0]]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNote, s)
	}
	i := 1
	for ; i < len(up); i++ {
		if up[i] == '#' {
			base++
		} else if up[i] == 'B' {
			base--
		} else {
			break
		}
	}
	rest := up[i:]
	oct := 4
	if rest != "" {
		o, err := strconv.Atoi(rest)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidNote, s)
		}
		oct = o
	}
	return base + (oct+1)*12, nil
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
