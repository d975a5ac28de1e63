package spectral

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Quality is a named STFT resolution preset
type Quality struct {
	Name         string  `json:"name" yaml:"name" mapstructure:"name"`
	WindowSize   int     `json:"window_size" yaml:"window_size" mapstructure:"window_size"`
	OverlapRatio float64 `json:"overlap_ratio" yaml:"overlap_ratio" mapstructure:"overlap_ratio"`
}

// DefaultQualities trades time resolution for frequency resolution, fastest first
var DefaultQualities = []Quality{
	{Name: "fast", WindowSize: 4096, OverlapRatio: 0.75},
	{Name: "fine", WindowSize: 8192, OverlapRatio: 0.80},
	{Name: "very-fine", WindowSize: 16384, OverlapRatio: 0.85},
	{Name: "ultra", WindowSize: 32768, OverlapRatio: 0.90},
}

// DefaultQualityName is the preset used when none is configured
const DefaultQualityName = "very-fine"

// Overlap is the overlapping sample count, clamped to [0, WindowSize-1]
func (q Quality) Overlap() int {
	n := int(float64(q.WindowSize) * q.OverlapRatio)
	return max(0, min(n, q.WindowSize-1))
}

// Hop is the frame advance in samples, always at least 1
func (q Quality) Hop() int {
	return q.WindowSize - q.Overlap()
}

// Bins is the number of one-sided frequency bins
func (q Quality) Bins() int {
	return q.WindowSize/2 + 1
}

// Validate checks the preset is usable
func (q Quality) Validate() error {
	if q.Name == "" {
		return fmt.Errorf("quality name is required")
	}
	if q.WindowSize < 2 {
		return fmt.Errorf("quality %q: window size must be at least 2", q.Name)
	}
	if q.OverlapRatio < 0 || q.OverlapRatio >= 1 {
		return fmt.Errorf("quality %q: overlap ratio must be in [0, 1)", q.Name)
	}
	return nil
}

// LookupQuality finds a preset by case-insensitive name
func LookupQuality(qualities []Quality, name string) (Quality, error) {
	for _, q := range qualities {
		if strings.EqualFold(q.Name, name) {
			return q, nil
		}
	}
	names := make([]string, len(qualities))
	for i, q := range qualities {
		names[i] = q.Name
	}
	return Quality{}, fmt.Errorf("unknown quality %q (available: %s)", name, strings.Join(names, ", "))
}

type qualityFile struct {
	Qualities []Quality `json:"qualities" yaml:"qualities"`
}

// LoadQualitiesFile reads a preset table from YAML or JSON
func LoadQualitiesFile(filePath string) ([]Quality, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read qualities file: %w", err)
	}

	var qf qualityFile
	switch filepath.Ext(filePath) {
	case ".json":
		err = json.Unmarshal(data, &qf)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &qf)
	default:
		// Try YAML first, then JSON
		if err = yaml.Unmarshal(data, &qf); err != nil {
			err = json.Unmarshal(data, &qf)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse qualities file %s: %w", filePath, err)
	}

	if len(qf.Qualities) == 0 {
		return nil, fmt.Errorf("qualities file %s defines no presets", filePath)
	}
	for _, q := range qf.Qualities {
		if err := q.Validate(); err != nil {
			return nil, err
		}
	}
	return qf.Qualities, nil
}
