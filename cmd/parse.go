package cmd

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/RyanBlaney/spectro-tab/pkg/notes"
)

// parsePair splits "a:b" into two floats
func parsePair(s, what string) (float64, float64, error) {
	left, right, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("%s %q must look like A:B", what, s)
	}
	a, err := strconv.ParseFloat(strings.TrimSpace(left), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%s %q: %w", what, s, err)
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(right), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%s %q: %w", what, s, err)
	}
	if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
		return 0, 0, fmt.Errorf("%s %q is not finite", what, s)
	}
	return a, b, nil
}

// parseLoop reads a loop region "A:B" in seconds
func parseLoop(s string) (float64, float64, error) {
	return parsePair(s, "loop")
}

// parseMark reads a cross-mark "T:F" (seconds, Hz). The frequency may also
// be a note name, as in "1.5:A3".
func parseMark(s string) (float64, float64, error) {
	left, right, ok := strings.Cut(s, ":")
	if ok {
		if p, err := notes.ParseNote(strings.TrimSpace(right)); err == nil {
			t, err := strconv.ParseFloat(strings.TrimSpace(left), 64)
			if err != nil {
				return 0, 0, fmt.Errorf("mark %q: %w", s, err)
			}
			return t, notes.PitchToFreq(float64(p)), nil
		}
	}
	return parsePair(s, "mark")
}

// parseSize reads "WxH"
func parseSize(s string) (int, int, error) {
	left, right, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q must look like WIDTHxHEIGHT", s)
	}
	w, err := strconv.Atoi(left)
	if err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", s, err)
	}
	h, err := strconv.Atoi(right)
	if err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", s, err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("size %q must be positive", s)
	}
	return w, h, nil
}

// parseFrequency accepts "440", "440hz" or a note name such as "A4" or "Bb2"
func parseFrequency(s string) (float64, error) {
	trimmed := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "hz")
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		if f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, fmt.Errorf("frequency %q must be positive", s)
		}
		return f, nil
	}
	p, err := notes.ParseNote(s)
	if err != nil {
		return 0, fmt.Errorf("%q is neither a frequency nor a note: %w", s, err)
	}
	return notes.PitchToFreq(float64(p)), nil
}

// parsePitch accepts a note name, a MIDI number or a frequency in Hz. Bare
// integers up to 127 are MIDI numbers.
func parsePitch(s string) (int, error) {
	if p, err := notes.ParseNote(s); err == nil {
		return p, nil
	}
	if m, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && m >= 0 && m <= 127 {
		return m, nil
	}
	f, err := parseFrequency(s)
	if err != nil {
		return 0, err
	}
	return notes.Nearest(f).Pitch, nil
}
