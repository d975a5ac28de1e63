package app

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/spectro-tab/pkg/notes"
	"github.com/RyanBlaney/spectro-tab/pkg/tile"
)

// MarksReport is the exportable summary of a session's marks
type MarksReport struct {
	Source   string        `json:"source" yaml:"source"`
	Duration float64       `json:"duration" yaml:"duration"`
	Quality  string        `json:"quality" yaml:"quality"`
	View     tile.Viewport `json:"view" yaml:"view"`
	Marks    []Mark        `json:"marks" yaml:"marks"`
	Pitches  []string      `json:"pitches" yaml:"pitches"`
}

// Report snapshots the current marks
func (s *Session) Report() *MarksReport {
	r := &MarksReport{
		Quality: s.Quality().Name,
		View:    s.View(),
		Marks:   s.Marks(),
	}
	if buf := s.Buffer(); buf != nil {
		r.Source = buf.Source
		r.Duration = buf.Duration()
	}
	for _, m := range s.SelectedPitches() {
		r.Pitches = append(r.Pitches, notes.PitchName(m))
	}
	return r
}

// EncodeReport renders r as "json" or "yaml"
func EncodeReport(r *MarksReport, format string) ([]byte, error) {
	clean := sanitizeReport(r)
	switch strings.ToLower(format) {
	case "json":
		return json.MarshalIndent(clean, "", "  ")
	case "yaml", "yml":
		return yaml.Marshal(clean)
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

// WriteReport writes r to path, choosing the encoding by extension
func WriteReport(r *MarksReport, path string) error {
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	data, err := EncodeReport(r, format)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// sanitizeReport replaces non-finite numbers, which JSON cannot carry
func sanitizeReport(r *MarksReport) *MarksReport {
	out := *r
	out.Duration = finite(r.Duration)
	out.View = tile.Viewport{
		TimeMin: finite(r.View.TimeMin),
		TimeMax: finite(r.View.TimeMax),
		FreqMin: finite(r.View.FreqMin),
		FreqMax: finite(r.View.FreqMax),
	}
	out.Marks = make([]Mark, len(r.Marks))
	for i, m := range r.Marks {
		m.Time = finite(m.Time)
		m.Frequency = finite(m.Frequency)
		m.Note.Frequency = finite(m.Note.Frequency)
		m.Note.Cents = finite(m.Note.Cents)
		out.Marks[i] = m
	}
	return &out
}

func finite(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}
