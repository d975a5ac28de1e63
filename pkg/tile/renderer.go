// Package tile renders rectangular regions of a spectrogram to 8-bit
// images together with the affine placement of those images in
// time/frequency coordinates.
package tile

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/spectro-tab/pkg/spectral"
)

// DefaultGamma brightens quiet partials relative to a linear dB ramp
const DefaultGamma = 1.6

var ErrTooSmall = errors.New("spectrogram needs at least 2 bins and 2 frames")

// Transform places image pixel (col, row) in data space:
// time = OriginTime + col*TimeStep, freq = OriginFreq + row*FreqStep.
// FreqStep is negative because row 0 is the top of the image.
type Transform struct {
	OriginTime float64 `json:"origin_time"`
	OriginFreq float64 `json:"origin_freq"`
	TimeStep   float64 `json:"time_step"`
	FreqStep   float64 `json:"freq_step"`
}

// Apply maps pixel coordinates to (time, frequency)
func (tr Transform) Apply(col, row float64) (float64, float64) {
	return tr.OriginTime + col*tr.TimeStep, tr.OriginFreq + row*tr.FreqStep
}

// Invert maps (time, frequency) to pixel coordinates
func (tr Transform) Invert(t, f float64) (float64, float64) {
	var col, row float64
	if tr.TimeStep != 0 {
		col = (t - tr.OriginTime) / tr.TimeStep
	}
	if tr.FreqStep != 0 {
		row = (f - tr.OriginFreq) / tr.FreqStep
	}
	return col, row
}

// Tile is a rendered viewport
type Tile struct {
	Image     *image.Gray `json:"-"`
	Transform Transform   `json:"transform"`
	Viewport  Viewport    `json:"viewport"`
	// Half-open index ranges into the matrix axes
	TimeIndex [2]int `json:"time_index"`
	FreqIndex [2]int `json:"freq_index"`
}

// Cols is the number of time columns
func (t *Tile) Cols() int { return t.TimeIndex[1] - t.TimeIndex[0] }

// Rows is the number of frequency rows
func (t *Tile) Rows() int { return t.FreqIndex[1] - t.FreqIndex[0] }

// Renderer maps dB matrices to gray images
type Renderer struct {
	epsilon float64
	logger  logging.Logger
}

// NewRenderer creates a renderer
func NewRenderer(logger logging.Logger) *Renderer {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Renderer{
		epsilon: 1e-12,
		logger:  logger.WithFields(logging.Fields{"component": "tile_renderer"}),
	}
}

// Render draws the part of m inside vp. The viewport is first clamped to
// limits; at least two rows and two columns are always produced. Cost is
// proportional to the visible cells only.
func (r *Renderer) Render(m *spectral.Matrix, vp Viewport, limits Limits, gamma float64) (*Tile, error) {
	if m == nil || m.Bins() < 2 || m.Frames() < 2 {
		return nil, ErrTooSmall
	}
	if gamma <= 0 || math.IsNaN(gamma) {
		return nil, fmt.Errorf("gamma must be positive, got %v", gamma)
	}

	vp = vp.ForRender(limits)

	ti0, ti1 := indexRange(m.Times, vp.TimeMin, vp.TimeMax)
	fi0, fi1 := indexRange(m.Freqs, vp.FreqMin, vp.FreqMax)
	cols, rows := ti1-ti0, fi1-fi0

	img := image.NewGray(image.Rect(0, 0, cols, rows))
	span := m.VMax - m.VMin + r.epsilon
	for row := 0; row < rows; row++ {
		// flip so the highest frequency is row 0
		src := m.Values[fi1-1-row][ti0:ti1]
		dst := img.Pix[row*img.Stride : row*img.Stride+cols]
		for c, v := range src {
			dst[c] = scaleToByte(v, m.VMin, span, gamma)
		}
	}

	tSlice := m.Times[ti0:ti1]
	fSlice := m.Freqs[fi0:fi1]
	tr := Transform{
		OriginTime: vp.TimeMin,
		OriginFreq: vp.FreqMax,
		TimeStep:   (tSlice[len(tSlice)-1] - tSlice[0]) / float64(max(1, len(tSlice)-1)),
		FreqStep:   -(fSlice[len(fSlice)-1] - fSlice[0]) / float64(max(1, len(fSlice)-1)),
	}

	r.logger.Debug("Rendered tile", logging.Fields{
		"cols":     cols,
		"rows":     rows,
		"time_min": vp.TimeMin,
		"time_max": vp.TimeMax,
		"freq_min": vp.FreqMin,
		"freq_max": vp.FreqMax,
	})

	return &Tile{
		Image:     img,
		Transform: tr,
		Viewport:  vp,
		TimeIndex: [2]int{ti0, ti1},
		FreqIndex: [2]int{fi0, fi1},
	}, nil
}

func scaleToByte(v, vmin, span, gamma float64) uint8 {
	x := (v - vmin) / span
	x = math.Max(0, math.Min(1, x))
	x = math.Pow(x, gamma) * 255
	return uint8(math.Max(0, math.Min(255, x)))
}

// indexRange returns [i0, i1) covering [lo, hi] on a sorted axis with at
// least two entries selected.
func indexRange(axis []float64, lo, hi float64) (int, int) {
	n := len(axis)
	i0 := sort.SearchFloat64s(axis, lo)
	// first index with axis[i] > hi
	i1 := sort.Search(n, func(i int) bool { return axis[i] > hi })

	i0 = max(0, min(i0, n-2))
	i1 = max(i0+2, min(i1, n))
	return i0, i1
}
