package tile

import "math"

const (
	// minTimeSpan and minFreqSpan keep a rendered tile non-degenerate
	minTimeSpan = 0.1
	minFreqSpan = 1.0

	minViewSpan = 1e-6
)

// Limits are the hard bounds a viewport may never leave
type Limits struct {
	Duration float64 `json:"duration"`
	FreqMin  float64 `json:"freq_min"`
	FreqMax  float64 `json:"freq_max"`
}

// NewLimits builds limits, raising FreqMax to at least FreqMin+1 Hz
func NewLimits(duration, fmin, fmax float64) Limits {
	fmin = math.Max(0, fmin)
	if fmax <= fmin+minFreqSpan {
		fmax = fmin + minFreqSpan
	}
	return Limits{Duration: math.Max(0, duration), FreqMin: fmin, FreqMax: fmax}
}

// Viewport is the visible time/frequency rectangle
type Viewport struct {
	TimeMin float64 `json:"time_min" yaml:"time_min"`
	TimeMax float64 `json:"time_max" yaml:"time_max"`
	FreqMin float64 `json:"freq_min" yaml:"freq_min"`
	FreqMax float64 `json:"freq_max" yaml:"freq_max"`
}

// Full is the viewport covering all of l
func Full(l Limits) Viewport {
	return Viewport{TimeMin: 0, TimeMax: l.Duration, FreqMin: l.FreqMin, FreqMax: l.FreqMax}
}

// Width in seconds
func (v Viewport) Width() float64 { return v.TimeMax - v.TimeMin }

// Height in Hz
func (v Viewport) Height() float64 { return v.FreqMax - v.FreqMin }

// Clamp slides v back inside l keeping its size where possible, and
// shrinks it when it is larger than the limits.
func (v Viewport) Clamp(l Limits) Viewport {
	x0, x1 := clampAxis(v.TimeMin, v.TimeMax, 0, l.Duration)
	y0, y1 := clampAxis(v.FreqMin, v.FreqMax, l.FreqMin, l.FreqMax)
	return Viewport{TimeMin: x0, TimeMax: x1, FreqMin: y0, FreqMax: y1}
}

func clampAxis(lo, hi, hardLo, hardHi float64) (float64, float64) {
	if hi < lo {
		lo, hi = hi, lo
	}
	w := math.Max(minViewSpan, hi-lo)
	if lo < hardLo {
		lo = hardLo
		hi = lo + w
	}
	if hi > hardHi {
		hi = hardHi
		lo = hi - w
	}
	return math.Max(hardLo, lo), math.Min(hardHi, hi)
}

// ForRender clamps each edge independently and enforces the minimum spans
// a tile needs: 0.1 s of time and 1 Hz of frequency.
func (v Viewport) ForRender(l Limits) Viewport {
	x0 := math.Max(0, math.Min(v.TimeMin, l.Duration))
	x1 := math.Max(0, math.Min(v.TimeMax, l.Duration))
	if x1 <= x0+minViewSpan {
		x1 = math.Min(l.Duration, x0+minTimeSpan)
	}

	y0 := math.Max(l.FreqMin, math.Min(v.FreqMin, l.FreqMax))
	y1 := math.Max(l.FreqMin, math.Min(v.FreqMax, l.FreqMax))
	if y1 <= y0+minViewSpan {
		y1 = math.Min(l.FreqMax, y0+minFreqSpan)
	}
	return Viewport{TimeMin: x0, TimeMax: x1, FreqMin: y0, FreqMax: y1}
}

// ZoomBy magnifies by fx along time and fy along frequency around the
// point (t, f). Factors above 1 zoom in; non-positive factors are ignored.
func (v Viewport) ZoomBy(fx, fy, t, f float64, l Limits) Viewport {
	if fx <= 0 || fy <= 0 {
		return v
	}
	out := Viewport{
		TimeMin: t + (v.TimeMin-t)/fx,
		TimeMax: t + (v.TimeMax-t)/fx,
		FreqMin: f + (v.FreqMin-f)/fy,
		FreqMax: f + (v.FreqMax-f)/fy,
	}
	if out.Height() < minFreqSpan {
		c := (out.FreqMin + out.FreqMax) / 2
		out.FreqMin, out.FreqMax = c-minFreqSpan/2, c+minFreqSpan/2
	}
	return out.Clamp(l)
}

// PanBy shifts the viewport by dt seconds and df Hz
func (v Viewport) PanBy(dt, df float64, l Limits) Viewport {
	return Viewport{
		TimeMin: v.TimeMin + dt,
		TimeMax: v.TimeMax + dt,
		FreqMin: v.FreqMin + df,
		FreqMax: v.FreqMax + df,
	}.Clamp(l)
}

// WithWindow sets the visible time span to seconds, keeping the left edge
// where possible.
func (v Viewport) WithWindow(seconds float64, l Limits) Viewport {
	win := math.Max(minTimeSpan, math.Min(seconds, l.Duration))
	x0 := math.Max(0, math.Min(v.TimeMin, l.Duration-win))
	v.TimeMin, v.TimeMax = x0, x0+win
	return v.Clamp(l)
}
